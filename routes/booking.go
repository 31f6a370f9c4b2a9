package routes

import (
	"airbnb-clone-server/models"
	"airbnb-clone-server/services"
	"airbnb-clone-server/storage"
	"airbnb-clone-server/utils"
	"errors"
	"strconv"
	"time"

	"github.com/kataras/iris/v12"
	"github.com/kataras/iris/v12/middleware/jwt"
	"gorm.io/gorm"
)

// BookingHandler exposes the booking lifecycle over HTTP. The service is
// injected at startup rather than reached through a package global.
type BookingHandler struct {
	svc *services.BookingService
}

func NewBookingHandler(svc *services.BookingService) *BookingHandler {
	return &BookingHandler{svc: svc}
}

type BookingDatesInput struct {
	CheckIn  string `json:"checkIn" validate:"required"`
	CheckOut string `json:"checkOut" validate:"required"`
}

type CheckoutInput struct {
	CheckIn   string `json:"checkIn" validate:"required"`
	CheckOut  string `json:"checkOut" validate:"required"`
	CardToken string `json:"cardToken"`
	SourceID  string `json:"sourceId"`
}

// parseBookingDate accepts ISO date strings, with or without a time part.
func parseBookingDate(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

func (h *BookingHandler) CreateBooking(ctx iris.Context) {
	listingID, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateError(iris.StatusBadRequest, "Bad Request", "Invalid listing ID", ctx)
		return
	}

	claims := jwt.Get(ctx).(*utils.AccessToken)

	var input BookingDatesInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	checkIn, inErr := parseBookingDate(input.CheckIn)
	checkOut, outErr := parseBookingDate(input.CheckOut)
	if inErr != nil || outErr != nil {
		utils.CreateError(iris.StatusBadRequest, "Validation Error", "Dates must be ISO date strings", ctx)
		return
	}

	booking, bookErr := h.svc.CreateBooking(listingID, claims.ID, checkIn, checkOut)
	if bookErr != nil {
		handleBookingError(bookErr, ctx)
		return
	}

	ctx.StatusCode(iris.StatusCreated)
	ctx.JSON(booking)
}

// CreateBlock reserves dates as a zero-price host hold
func (h *BookingHandler) CreateBlock(ctx iris.Context) {
	listingID, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateError(iris.StatusBadRequest, "Bad Request", "Invalid listing ID", ctx)
		return
	}

	claims := jwt.Get(ctx).(*utils.AccessToken)

	var input BookingDatesInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	checkIn, inErr := parseBookingDate(input.CheckIn)
	checkOut, outErr := parseBookingDate(input.CheckOut)
	if inErr != nil || outErr != nil {
		utils.CreateError(iris.StatusBadRequest, "Validation Error", "Dates must be ISO date strings", ctx)
		return
	}

	block, blockErr := h.svc.CreateBlock(listingID, claims.ID, checkIn, checkOut)
	if blockErr != nil {
		handleBookingError(blockErr, ctx)
		return
	}

	ctx.StatusCode(iris.StatusCreated)
	ctx.JSON(block)
}

func (h *BookingHandler) CancelBooking(ctx iris.Context) {
	bookingID, err := ctx.Params().GetUint("bookingId")
	if err != nil {
		utils.CreateError(iris.StatusBadRequest, "Bad Request", "Invalid booking ID", ctx)
		return
	}

	claims := jwt.Get(ctx).(*utils.AccessToken)

	booking, cancelErr := h.svc.CancelBooking(bookingID, claims.ID)
	if cancelErr != nil {
		handleBookingError(cancelErr, ctx)
		return
	}

	ctx.JSON(booking)
}

// GetListingBookings returns the active calendar for a listing
func (h *BookingHandler) GetListingBookings(ctx iris.Context) {
	id := ctx.Params().Get("id")

	var bookings []models.Booking
	res := storage.DB.
		Where("listing_id = ? AND status <> ?", id, models.BookingStatusCancelled).
		Order("check_in ASC").
		Find(&bookings)
	if res.Error != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(bookings)
}

// GetUserTrips returns the requester's bookings, newest first
func (h *BookingHandler) GetUserTrips(ctx iris.Context) {
	claims := jwt.Get(ctx).(*utils.AccessToken)

	var bookings []models.Booking
	res := storage.DB.
		Preload("Listing").
		Where("author_id = ?", claims.ID).
		Order("created_at DESC").
		Find(&bookings)
	if res.Error != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(bookings)
}

// InitiatePayment opens a payment session and returns the redirect target
func (h *BookingHandler) InitiatePayment(ctx iris.Context) {
	listingID, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateError(iris.StatusBadRequest, "Bad Request", "Invalid listing ID", ctx)
		return
	}

	claims := jwt.Get(ctx).(*utils.AccessToken)

	var input CheckoutInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	checkIn, inErr := parseBookingDate(input.CheckIn)
	checkOut, outErr := parseBookingDate(input.CheckOut)
	if inErr != nil || outErr != nil {
		utils.CreateError(iris.StatusBadRequest, "Validation Error", "Dates must be ISO date strings", ctx)
		return
	}

	redirectURL, ref, payErr := h.svc.InitiatePayment(listingID, claims.ID, checkIn, checkOut, input.CardToken, input.SourceID)
	if payErr != nil {
		handleBookingError(payErr, ctx)
		return
	}

	ctx.JSON(iris.Map{
		"redirectURL": redirectURL,
		"sessionID":   ref,
	})
}

// ConfirmPayment accepts either a mock-payment query bundle
// (mock_payment=true&listingId&userId&checkIn&checkOut&totalPrice) or a
// session_id reference for gateway confirmation.
func (h *BookingHandler) ConfirmPayment(ctx iris.Context) {
	if ctx.URLParam("mock_payment") == "true" {
		h.confirmMockPayment(ctx)
		return
	}

	sessionID := ctx.URLParam("session_id")
	if sessionID == "" {
		utils.CreateError(iris.StatusBadRequest, "Bad Request", "session_id is required", ctx)
		return
	}

	booking, err := h.svc.ConfirmPayment(sessionID)
	if err != nil {
		handleBookingError(err, ctx)
		return
	}

	ctx.StatusCode(iris.StatusCreated)
	ctx.JSON(booking)
}

func (h *BookingHandler) confirmMockPayment(ctx iris.Context) {
	listingID, listingErr := strconv.ParseUint(ctx.URLParam("listingId"), 10, 32)
	userID, userErr := strconv.ParseUint(ctx.URLParam("userId"), 10, 32)
	checkIn, inErr := parseBookingDate(ctx.URLParam("checkIn"))
	checkOut, outErr := parseBookingDate(ctx.URLParam("checkOut"))
	totalPrice, priceErr := strconv.ParseFloat(ctx.URLParam("totalPrice"), 64)

	if listingErr != nil || userErr != nil || inErr != nil || outErr != nil || priceErr != nil {
		utils.CreateError(iris.StatusBadRequest, "Bad Request", "Invalid mock payment bundle", ctx)
		return
	}

	intent := &services.PaymentIntent{
		ListingID:  uint(listingID),
		UserID:     uint(userID),
		CheckIn:    checkIn,
		CheckOut:   checkOut,
		TotalPrice: totalPrice,
		PaymentID:  services.SyntheticPaymentID(),
		Paid:       true,
	}

	booking, err := h.svc.CreatePaidBooking(intent)
	if err != nil {
		handleBookingError(err, ctx)
		return
	}

	ctx.StatusCode(iris.StatusCreated)
	ctx.JSON(booking)
}

// handleBookingError maps the services error taxonomy onto HTTP statuses
func handleBookingError(err error, ctx iris.Context) {
	var validationErr *services.ValidationError
	var conflictErr *services.ConflictError
	var authErr *services.AuthorizationError
	var paymentErr *services.PaymentFailedError

	switch {
	case errors.As(err, &validationErr):
		utils.CreateError(iris.StatusBadRequest, "Validation Error", validationErr.Detail, ctx)
	case errors.As(err, &conflictErr):
		utils.CreateError(iris.StatusConflict, "Conflict", conflictErr.Detail, ctx)
	case errors.As(err, &authErr):
		utils.CreateError(iris.StatusForbidden, "Forbidden", authErr.Detail, ctx)
	case errors.As(err, &paymentErr):
		utils.CreateError(iris.StatusPaymentRequired, "Payment Failed", paymentErr.Detail, ctx)
	case errors.Is(err, gorm.ErrRecordNotFound):
		utils.CreateNotFound(ctx)
	default:
		utils.CreateInternalServerError(ctx)
	}
}
