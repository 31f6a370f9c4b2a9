package services

import (
	"airbnb-clone-server/models"
	"fmt"
	"log"
	"math"
	"time"

	"gorm.io/gorm"
)

// BookingService owns the booking lifecycle: availability checks, guest
// bookings, host blocks, cancellation and payment confirmation. All state
// lives in the bookings table; rows are never deleted, only status changes.
//
// The availability check is read-then-write with no transaction or lock, so
// two concurrent requests for overlapping dates can both pass the check.
type BookingService struct {
	db       *gorm.DB
	gateway  PaymentGateway
	notifier *NotificationService
}

func NewBookingService(db *gorm.DB, gateway PaymentGateway, notifier *NotificationService) *BookingService {
	return &BookingService{db: db, gateway: gateway, notifier: notifier}
}

// rangesOverlap reports whether two half-open date ranges [aStart, aEnd) and
// [bStart, bEnd) intersect. Touching endpoints do not count.
func rangesOverlap(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && aEnd.After(bStart)
}

// nightCount is the number of whole days between check-in and check-out,
// partial days rounded up.
func nightCount(checkIn, checkOut time.Time) int {
	return int(math.Ceil(checkOut.Sub(checkIn).Hours() / 24))
}

// IsAvailable reports whether [checkIn, checkOut) is free of booked and
// blocked records for the listing. Cancelled records never conflict.
// Callers must reject checkIn >= checkOut before querying.
func (s *BookingService) IsAvailable(listingID uint, checkIn, checkOut time.Time) (bool, error) {
	var conflicts int64
	err := s.db.Model(&models.Booking{}).
		Where("listing_id = ? AND status IN ? AND check_in < ? AND check_out > ?",
			listingID,
			[]string{models.BookingStatusBooked, models.BookingStatusBlocked},
			checkOut, checkIn).
		Count(&conflicts).Error
	if err != nil {
		return false, err
	}
	return conflicts == 0, nil
}

// CreateBooking validates the range, checks availability and persists a
// booked record priced at nights * nightly price.
func (s *BookingService) CreateBooking(listingID, authorID uint, checkIn, checkOut time.Time) (*models.Booking, error) {
	if !checkIn.Before(checkOut) {
		return nil, &ValidationError{Detail: "check-out date must be after check-in date"}
	}

	var listing models.Listing
	if err := s.db.First(&listing, listingID).Error; err != nil {
		return nil, err
	}

	available, err := s.IsAvailable(listingID, checkIn, checkOut)
	if err != nil {
		return nil, err
	}
	if !available {
		return nil, &ConflictError{Detail: "these dates are already booked or blocked"}
	}

	booking := models.Booking{
		ListingID:  listingID,
		AuthorID:   authorID,
		CheckIn:    checkIn,
		CheckOut:   checkOut,
		TotalPrice: float64(nightCount(checkIn, checkOut)) * listing.NightlyPrice,
		Status:     models.BookingStatusBooked,
	}
	if err := s.db.Create(&booking).Error; err != nil {
		return nil, err
	}

	s.notifyHost(&listing, &booking)
	return &booking, nil
}

// CreateBlock persists a zero-price blocked record. Only the listing host
// may block dates; the conflict rules are the same as for a booking.
func (s *BookingService) CreateBlock(listingID, hostID uint, checkIn, checkOut time.Time) (*models.Booking, error) {
	if !checkIn.Before(checkOut) {
		return nil, &ValidationError{Detail: "end date must be after start date"}
	}

	var listing models.Listing
	if err := s.db.First(&listing, listingID).Error; err != nil {
		return nil, err
	}
	if listing.HostID != hostID {
		return nil, &AuthorizationError{Detail: "only the listing host can block dates"}
	}

	available, err := s.IsAvailable(listingID, checkIn, checkOut)
	if err != nil {
		return nil, err
	}
	if !available {
		return nil, &ConflictError{Detail: "these dates are already booked or blocked"}
	}

	block := models.Booking{
		ListingID:  listingID,
		AuthorID:   hostID,
		CheckIn:    checkIn,
		CheckOut:   checkOut,
		TotalPrice: 0,
		Status:     models.BookingStatusBlocked,
	}
	if err := s.db.Create(&block).Error; err != nil {
		return nil, err
	}
	return &block, nil
}

// CancelBooking transitions a booking to cancelled. Only the original author
// may cancel. Repeated calls re-set the status; that is not an error.
func (s *BookingService) CancelBooking(bookingID, requesterID uint) (*models.Booking, error) {
	var booking models.Booking
	if err := s.db.First(&booking, bookingID).Error; err != nil {
		return nil, err
	}

	if booking.AuthorID != requesterID {
		return nil, &AuthorizationError{Detail: "you can only cancel your own bookings"}
	}

	booking.Status = models.BookingStatusCancelled
	if err := s.db.Save(&booking).Error; err != nil {
		return nil, err
	}
	return &booking, nil
}

// InitiatePayment opens a payment session for the given range and returns
// the redirect target. cardToken or sourceID funds the charge in gateway
// mode; the mock gateway ignores both. No booking row is created until
// confirmation.
func (s *BookingService) InitiatePayment(listingID, userID uint, checkIn, checkOut time.Time, cardToken, sourceID string) (string, string, error) {
	if !checkIn.Before(checkOut) {
		return "", "", &ValidationError{Detail: "check-out date must be after check-in date"}
	}

	var listing models.Listing
	if err := s.db.First(&listing, listingID).Error; err != nil {
		return "", "", err
	}

	available, err := s.IsAvailable(listingID, checkIn, checkOut)
	if err != nil {
		return "", "", err
	}
	if !available {
		return "", "", &ConflictError{Detail: "these dates are already booked or blocked"}
	}

	intent := PaymentIntent{
		ListingID:  listingID,
		UserID:     userID,
		CheckIn:    checkIn,
		CheckOut:   checkOut,
		TotalPrice: float64(nightCount(checkIn, checkOut)) * listing.NightlyPrice,
		CardToken:  cardToken,
		SourceID:   sourceID,
	}
	return s.gateway.Initiate(intent)
}

// ConfirmPayment retrieves the payment session by reference and, only when
// the gateway reports it paid, persists the booked record. On any failure no
// booking row is written.
func (s *BookingService) ConfirmPayment(ref string) (*models.Booking, error) {
	intent, err := s.gateway.Confirm(ref)
	if err != nil {
		return nil, err
	}
	if !intent.Paid {
		return nil, &PaymentFailedError{Detail: "payment session not paid"}
	}
	return s.CreatePaidBooking(intent)
}

// CreatePaidBooking persists a booked record for an already-paid intent.
// The mock-payment query bundle enters here directly, skipping the gateway.
func (s *BookingService) CreatePaidBooking(intent *PaymentIntent) (*models.Booking, error) {
	if !intent.CheckIn.Before(intent.CheckOut) {
		return nil, &ValidationError{Detail: "check-out date must be after check-in date"}
	}

	var listing models.Listing
	if err := s.db.First(&listing, intent.ListingID).Error; err != nil {
		return nil, err
	}

	available, err := s.IsAvailable(intent.ListingID, intent.CheckIn, intent.CheckOut)
	if err != nil {
		return nil, err
	}
	if !available {
		return nil, &ConflictError{Detail: "these dates are already booked or blocked"}
	}

	booking := models.Booking{
		ListingID:  intent.ListingID,
		AuthorID:   intent.UserID,
		CheckIn:    intent.CheckIn,
		CheckOut:   intent.CheckOut,
		TotalPrice: intent.TotalPrice,
		Status:     models.BookingStatusBooked,
		PaymentID:  intent.PaymentID,
	}
	if err := s.db.Create(&booking).Error; err != nil {
		return nil, err
	}

	s.notifyHost(&listing, &booking)
	return &booking, nil
}

func (s *BookingService) notifyHost(listing *models.Listing, booking *models.Booking) {
	if s.notifier == nil {
		return
	}
	body := fmt.Sprintf("New booking for %s from %s to %s",
		listing.Title,
		booking.CheckIn.Format("Jan 2, 2006"),
		booking.CheckOut.Format("Jan 2, 2006"))
	if err := s.notifier.NotifyBooking(listing.HostID, body, booking.ID); err != nil {
		// notification is a side effect, the booking itself already persisted
		log.Printf("failed to notify host %d: %v", listing.HostID, err)
	}
}
