package services

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/omise/omise-go"
	"github.com/omise/omise-go/operations"
)

// PaymentIntent carries the booking context through an external payment
// session: created at Initiate, reconciled at Confirm. CardToken and
// SourceID identify how the charge is funded; gateway mode requires one of
// the two.
type PaymentIntent struct {
	ListingID  uint
	UserID     uint
	CheckIn    time.Time
	CheckOut   time.Time
	TotalPrice float64
	Currency   string
	CardToken  string
	SourceID   string
	PaymentID  string
	Paid       bool
}

// PaymentGateway abstracts the payment provider. Initiate opens a session
// and returns where to send the user plus a reference to confirm with later.
// Confirm is accepted only when the upstream session reports a paid state.
type PaymentGateway interface {
	Initiate(intent PaymentIntent) (redirectURL string, ref string, err error)
	Confirm(ref string) (*PaymentIntent, error)
}

// OmiseGateway charges through Omise, carrying the booking context in the
// charge metadata so Confirm can rebuild the intent from the reference alone.
type OmiseGateway struct {
	client    *omise.Client
	returnURI string
}

func NewOmiseGateway(publicKey, secretKey, returnURI string) (*OmiseGateway, error) {
	client, err := omise.NewClient(publicKey, secretKey)
	if err != nil {
		return nil, err
	}
	return &OmiseGateway{client: client, returnURI: returnURI}, nil
}

func (g *OmiseGateway) Initiate(intent PaymentIntent) (string, string, error) {
	// Omise rejects a charge without a funding source
	if intent.CardToken == "" && intent.SourceID == "" {
		return "", "", &ValidationError{Detail: "a card token or payment source is required"}
	}

	currency := intent.Currency
	if currency == "" {
		currency = "inr"
	}

	charge := &omise.Charge{}
	req := &operations.CreateCharge{
		// Smallest currency unit
		Amount:    int64(intent.TotalPrice * 100),
		Currency:  currency,
		ReturnURI: g.returnURI,
		Metadata: map[string]interface{}{
			"listing_id":  strconv.FormatUint(uint64(intent.ListingID), 10),
			"user_id":     strconv.FormatUint(uint64(intent.UserID), 10),
			"check_in":    intent.CheckIn.Format(time.RFC3339),
			"check_out":   intent.CheckOut.Format(time.RFC3339),
			"total_price": fmt.Sprintf("%.2f", intent.TotalPrice),
		},
	}

	if intent.CardToken != "" {
		req.Card = intent.CardToken
	} else {
		req.Source = intent.SourceID
	}

	if err := g.client.Do(charge, req); err != nil {
		return "", "", err
	}

	redirect := charge.AuthorizeURI
	if redirect == "" {
		redirect = g.returnURI
	}
	return redirect, charge.ID, nil
}

func (g *OmiseGateway) Confirm(ref string) (*PaymentIntent, error) {
	charge := &omise.Charge{}
	if err := g.client.Do(charge, &operations.RetrieveCharge{ChargeID: ref}); err != nil {
		return nil, err
	}

	if string(charge.Status) != "successful" {
		return nil, &PaymentFailedError{Detail: fmt.Sprintf("payment session %s is %s", ref, charge.Status)}
	}

	intent := &PaymentIntent{
		TotalPrice: float64(charge.Amount) / 100,
		Currency:   charge.Currency,
		PaymentID:  charge.ID,
		Paid:       true,
	}

	if v, ok := charge.Metadata["listing_id"].(string); ok {
		id, _ := strconv.ParseUint(v, 10, 32)
		intent.ListingID = uint(id)
	}
	if v, ok := charge.Metadata["user_id"].(string); ok {
		id, _ := strconv.ParseUint(v, 10, 32)
		intent.UserID = uint(id)
	}
	if v, ok := charge.Metadata["check_in"].(string); ok {
		intent.CheckIn, _ = time.Parse(time.RFC3339, v)
	}
	if v, ok := charge.Metadata["check_out"].(string); ok {
		intent.CheckOut, _ = time.Parse(time.RFC3339, v)
	}

	return intent, nil
}

// MockGateway is the bypass mode used when no real gateway is configured.
// Sessions live in memory and always confirm as paid.
type MockGateway struct {
	sessions sync.Map
}

func NewMockGateway() *MockGateway {
	return &MockGateway{}
}

func (g *MockGateway) Initiate(intent PaymentIntent) (string, string, error) {
	ref := uuid.NewString()
	intent.PaymentID = "mock_" + ref
	intent.Paid = true
	g.sessions.Store(ref, intent)

	redirect := fmt.Sprintf(
		"/api/booking/confirm?mock_payment=true&listingId=%d&userId=%d&checkIn=%s&checkOut=%s&totalPrice=%.2f",
		intent.ListingID, intent.UserID,
		intent.CheckIn.Format("2006-01-02"), intent.CheckOut.Format("2006-01-02"),
		intent.TotalPrice)
	return redirect, ref, nil
}

func (g *MockGateway) Confirm(ref string) (*PaymentIntent, error) {
	v, ok := g.sessions.Load(ref)
	if !ok {
		return nil, &PaymentFailedError{Detail: "unknown payment session " + ref}
	}
	g.sessions.Delete(ref)
	intent := v.(PaymentIntent)
	return &intent, nil
}

// SyntheticPaymentID is used by the mock-payment query bundle, which skips
// Initiate entirely.
func SyntheticPaymentID() string {
	return "mock_" + uuid.NewString()
}
