package services

// Domain error taxonomy. Routes translate these into HTTP statuses:
// validation 400, conflict 409, authorization 403, payment 402.

type ValidationError struct {
	Detail string
}

func (e *ValidationError) Error() string { return e.Detail }

type ConflictError struct {
	Detail string
}

func (e *ConflictError) Error() string { return e.Detail }

type AuthorizationError struct {
	Detail string
}

func (e *AuthorizationError) Error() string { return e.Detail }

type PaymentFailedError struct {
	Detail string
}

func (e *PaymentFailedError) Error() string { return e.Detail }
