package services

import (
	"errors"
	"testing"
	"time"

	"airbnb-clone-server/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Listing{}, &models.Booking{}, &models.Notification{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// seedListing creates a host, a guest and one listing at 100/night.
// Returns the service plus the ids the tests need.
func seedListing(t *testing.T, db *gorm.DB) (*BookingService, uint, uint, uint) {
	t.Helper()

	host := models.User{FirstName: "Asha", LastName: "Host", Email: "host@example.com", Password: "x"}
	if err := db.Create(&host).Error; err != nil {
		t.Fatalf("create host: %v", err)
	}
	guest := models.User{FirstName: "Ben", LastName: "Guest", Email: "guest@example.com", Password: "x"}
	if err := db.Create(&guest).Error; err != nil {
		t.Fatalf("create guest: %v", err)
	}

	listing := models.Listing{
		HostID:       host.ID,
		Title:        "Sea View Studio",
		Location:     "Goa",
		Country:      "India",
		NightlyPrice: 100,
		Capacity:     2,
	}
	if err := db.Create(&listing).Error; err != nil {
		t.Fatalf("create listing: %v", err)
	}

	svc := NewBookingService(db, NewMockGateway(), NewNotificationService(db, NewMailerFromEnv()))
	return svc, listing.ID, host.ID, guest.ID
}

func date(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestRangesOverlap(t *testing.T) {
	cases := []struct {
		name                       string
		aStart, aEnd, bStart, bEnd string
		want                       bool
	}{
		{"contained", "2024-01-01", "2024-01-10", "2024-01-03", "2024-01-05", true},
		{"partial", "2024-01-01", "2024-01-03", "2024-01-02", "2024-01-04", true},
		{"identical", "2024-01-01", "2024-01-03", "2024-01-01", "2024-01-03", true},
		{"touching end to start", "2024-01-01", "2024-01-03", "2024-01-03", "2024-01-05", false},
		{"touching start to end", "2024-01-03", "2024-01-05", "2024-01-01", "2024-01-03", false},
		{"disjoint", "2024-01-01", "2024-01-03", "2024-01-10", "2024-01-12", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := rangesOverlap(date(tc.aStart), date(tc.aEnd), date(tc.bStart), date(tc.bEnd))
			if got != tc.want {
				t.Errorf("rangesOverlap = %v, want %v", got, tc.want)
			}
			// overlap is symmetric
			swapped := rangesOverlap(date(tc.bStart), date(tc.bEnd), date(tc.aStart), date(tc.aEnd))
			if swapped != tc.want {
				t.Errorf("swapped rangesOverlap = %v, want %v", swapped, tc.want)
			}
		})
	}
}

func TestNightCountRoundsUp(t *testing.T) {
	if n := nightCount(date("2024-01-01"), date("2024-01-03")); n != 2 {
		t.Errorf("nightCount = %d, want 2", n)
	}

	// 2 days and 6 hours counts as 3 nights
	checkOut := date("2024-01-03").Add(6 * time.Hour)
	if n := nightCount(date("2024-01-01"), checkOut); n != 3 {
		t.Errorf("nightCount partial day = %d, want 3", n)
	}
}

func TestCreateBookingPrice(t *testing.T) {
	db := newTestDB(t)
	svc, listingID, _, guestID := seedListing(t, db)

	booking, err := svc.CreateBooking(listingID, guestID, date("2024-01-01"), date("2024-01-03"))
	if err != nil {
		t.Fatalf("CreateBooking: %v", err)
	}
	if booking.TotalPrice != 200 {
		t.Errorf("TotalPrice = %.2f, want 200.00", booking.TotalPrice)
	}
	if booking.Status != models.BookingStatusBooked {
		t.Errorf("Status = %q, want %q", booking.Status, models.BookingStatusBooked)
	}
}

func TestCreateBookingNotifiesHost(t *testing.T) {
	db := newTestDB(t)
	svc, listingID, hostID, guestID := seedListing(t, db)

	if _, err := svc.CreateBooking(listingID, guestID, date("2024-01-01"), date("2024-01-03")); err != nil {
		t.Fatalf("CreateBooking: %v", err)
	}

	var count int64
	db.Model(&models.Notification{}).
		Where("user_id = ? AND kind = ?", hostID, models.NotificationKindBooking).
		Count(&count)
	if count != 1 {
		t.Errorf("host notifications = %d, want 1", count)
	}
}

func TestCreateBookingInvalidRange(t *testing.T) {
	db := newTestDB(t)
	svc, listingID, _, guestID := seedListing(t, db)

	_, err := svc.CreateBooking(listingID, guestID, date("2024-01-03"), date("2024-01-01"))
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}

	// equal dates are just as invalid
	_, err = svc.CreateBooking(listingID, guestID, date("2024-01-01"), date("2024-01-01"))
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError for zero-night range, got %v", err)
	}
}

func TestCreateBookingConflict(t *testing.T) {
	db := newTestDB(t)
	svc, listingID, _, guestID := seedListing(t, db)

	if _, err := svc.CreateBooking(listingID, guestID, date("2024-01-01"), date("2024-01-03")); err != nil {
		t.Fatalf("first booking: %v", err)
	}

	_, err := svc.CreateBooking(listingID, guestID, date("2024-01-02"), date("2024-01-04"))
	var cerr *ConflictError
	if !errors.As(err, &cerr) {
		t.Fatalf("expected ConflictError, got %v", err)
	}
}

func TestTouchingBookingsDoNotConflict(t *testing.T) {
	db := newTestDB(t)
	svc, listingID, _, guestID := seedListing(t, db)

	if _, err := svc.CreateBooking(listingID, guestID, date("2024-01-01"), date("2024-01-03")); err != nil {
		t.Fatalf("first booking: %v", err)
	}

	// checking in the day the previous guest checks out is fine
	if _, err := svc.CreateBooking(listingID, guestID, date("2024-01-03"), date("2024-01-05")); err != nil {
		t.Fatalf("back-to-back booking: %v", err)
	}
}

func TestCancelledBookingFreesDates(t *testing.T) {
	db := newTestDB(t)
	svc, listingID, _, guestID := seedListing(t, db)

	booking, err := svc.CreateBooking(listingID, guestID, date("2024-01-01"), date("2024-01-03"))
	if err != nil {
		t.Fatalf("CreateBooking: %v", err)
	}
	if _, err := svc.CancelBooking(booking.ID, guestID); err != nil {
		t.Fatalf("CancelBooking: %v", err)
	}

	if _, err := svc.CreateBooking(listingID, guestID, date("2024-01-01"), date("2024-01-03")); err != nil {
		t.Fatalf("rebooking after cancel: %v", err)
	}

	// the cancelled row is kept, not deleted
	var total int64
	db.Model(&models.Booking{}).Count(&total)
	if total != 2 {
		t.Errorf("booking rows = %d, want 2", total)
	}
}

func TestCancelBookingByNonAuthor(t *testing.T) {
	db := newTestDB(t)
	svc, listingID, hostID, guestID := seedListing(t, db)

	booking, err := svc.CreateBooking(listingID, guestID, date("2024-01-01"), date("2024-01-03"))
	if err != nil {
		t.Fatalf("CreateBooking: %v", err)
	}

	_, err = svc.CancelBooking(booking.ID, hostID)
	var aerr *AuthorizationError
	if !errors.As(err, &aerr) {
		t.Fatalf("expected AuthorizationError, got %v", err)
	}

	var stored models.Booking
	db.First(&stored, booking.ID)
	if stored.Status != models.BookingStatusBooked {
		t.Errorf("status changed to %q after denied cancel", stored.Status)
	}
}

func TestCancelBookingTwice(t *testing.T) {
	db := newTestDB(t)
	svc, listingID, _, guestID := seedListing(t, db)

	booking, err := svc.CreateBooking(listingID, guestID, date("2024-01-01"), date("2024-01-03"))
	if err != nil {
		t.Fatalf("CreateBooking: %v", err)
	}
	if _, err := svc.CancelBooking(booking.ID, guestID); err != nil {
		t.Fatalf("first cancel: %v", err)
	}
	if _, err := svc.CancelBooking(booking.ID, guestID); err != nil {
		t.Fatalf("second cancel should be a no-op, got %v", err)
	}
}

func TestCreateBlock(t *testing.T) {
	db := newTestDB(t)
	svc, listingID, hostID, guestID := seedListing(t, db)

	block, err := svc.CreateBlock(listingID, hostID, date("2024-02-01"), date("2024-02-05"))
	if err != nil {
		t.Fatalf("CreateBlock: %v", err)
	}
	if block.Status != models.BookingStatusBlocked {
		t.Errorf("Status = %q, want %q", block.Status, models.BookingStatusBlocked)
	}
	if block.TotalPrice != 0 {
		t.Errorf("TotalPrice = %.2f, want 0", block.TotalPrice)
	}

	// blocked dates conflict with guest bookings
	_, err = svc.CreateBooking(listingID, guestID, date("2024-02-02"), date("2024-02-04"))
	var cerr *ConflictError
	if !errors.As(err, &cerr) {
		t.Fatalf("expected ConflictError on blocked dates, got %v", err)
	}
}

func TestCreateBlockByNonHost(t *testing.T) {
	db := newTestDB(t)
	svc, listingID, _, guestID := seedListing(t, db)

	_, err := svc.CreateBlock(listingID, guestID, date("2024-02-01"), date("2024-02-05"))
	var aerr *AuthorizationError
	if !errors.As(err, &aerr) {
		t.Fatalf("expected AuthorizationError, got %v", err)
	}
}

func TestInitiateAndConfirmPayment(t *testing.T) {
	db := newTestDB(t)
	svc, listingID, _, guestID := seedListing(t, db)

	_, ref, err := svc.InitiatePayment(listingID, guestID, date("2024-03-01"), date("2024-03-04"), "tokn_test_booking", "")
	if err != nil {
		t.Fatalf("InitiatePayment: %v", err)
	}

	booking, err := svc.ConfirmPayment(ref)
	if err != nil {
		t.Fatalf("ConfirmPayment: %v", err)
	}
	if booking.TotalPrice != 300 {
		t.Errorf("TotalPrice = %.2f, want 300.00", booking.TotalPrice)
	}
	if booking.PaymentID == "" {
		t.Error("PaymentID not recorded")
	}
	if booking.Status != models.BookingStatusBooked {
		t.Errorf("Status = %q, want %q", booking.Status, models.BookingStatusBooked)
	}
}

func TestConfirmPaymentUnknownRef(t *testing.T) {
	db := newTestDB(t)
	svc, _, _, _ := seedListing(t, db)

	_, err := svc.ConfirmPayment("no-such-session")
	var perr *PaymentFailedError
	if !errors.As(err, &perr) {
		t.Fatalf("expected PaymentFailedError, got %v", err)
	}

	var total int64
	db.Model(&models.Booking{}).Count(&total)
	if total != 0 {
		t.Errorf("booking rows = %d after failed confirm, want 0", total)
	}
}

func TestConfirmPaymentConflictAfterPay(t *testing.T) {
	db := newTestDB(t)
	svc, listingID, _, guestID := seedListing(t, db)

	// open a session, then book the same dates before confirming
	_, ref, err := svc.InitiatePayment(listingID, guestID, date("2024-03-01"), date("2024-03-04"), "tokn_test_booking", "")
	if err != nil {
		t.Fatalf("InitiatePayment: %v", err)
	}
	if _, err := svc.CreateBooking(listingID, guestID, date("2024-03-02"), date("2024-03-03")); err != nil {
		t.Fatalf("competing booking: %v", err)
	}

	_, err = svc.ConfirmPayment(ref)
	var cerr *ConflictError
	if !errors.As(err, &cerr) {
		t.Fatalf("expected ConflictError, got %v", err)
	}
}

func TestCreatePaidBookingMockBundle(t *testing.T) {
	db := newTestDB(t)
	svc, listingID, _, guestID := seedListing(t, db)

	intent := &PaymentIntent{
		ListingID:  listingID,
		UserID:     guestID,
		CheckIn:    date("2024-04-01"),
		CheckOut:   date("2024-04-03"),
		TotalPrice: 200,
		PaymentID:  SyntheticPaymentID(),
		Paid:       true,
	}
	booking, err := svc.CreatePaidBooking(intent)
	if err != nil {
		t.Fatalf("CreatePaidBooking: %v", err)
	}
	if booking.PaymentID != intent.PaymentID {
		t.Errorf("PaymentID = %q, want %q", booking.PaymentID, intent.PaymentID)
	}
}

func TestIsAvailableIgnoresOtherListings(t *testing.T) {
	db := newTestDB(t)
	svc, listingID, hostID, guestID := seedListing(t, db)

	other := models.Listing{HostID: hostID, Title: "City Loft", NightlyPrice: 50}
	if err := db.Create(&other).Error; err != nil {
		t.Fatalf("create listing: %v", err)
	}

	if _, err := svc.CreateBooking(listingID, guestID, date("2024-05-01"), date("2024-05-03")); err != nil {
		t.Fatalf("CreateBooking: %v", err)
	}

	ok, err := svc.IsAvailable(other.ID, date("2024-05-01"), date("2024-05-03"))
	if err != nil {
		t.Fatalf("IsAvailable: %v", err)
	}
	if !ok {
		t.Error("booking on one listing blocked another")
	}
}
