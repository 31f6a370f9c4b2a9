package models

import (
	"time"

	"gorm.io/gorm"
)

// Booking statuses. There is no transition out of blocked, and cancelled
// bookings stay in the table (rows are never hard-deleted).
const (
	BookingStatusBooked    = "booked"
	BookingStatusBlocked   = "blocked"
	BookingStatusCancelled = "cancelled"
)

// Booking reserves a listing for a half-open date range [CheckIn, CheckOut).
// A blocked booking is a host-created hold with zero price that follows the
// same conflict rules as a guest booking.
type Booking struct {
	gorm.Model
	ListingID  uint      `json:"listingID" gorm:"index"`
	AuthorID   uint      `json:"authorID" gorm:"index"`
	CheckIn    time.Time `json:"checkIn"`
	CheckOut   time.Time `json:"checkOut"`
	TotalPrice float64   `json:"totalPrice"`
	Status     string    `json:"status" gorm:"type:varchar(20);default:booked;index"` // booked, blocked, cancelled
	PaymentID  string    `json:"paymentID" gorm:"size:64"`

	Listing *Listing `json:"listing,omitempty" gorm:"foreignKey:ListingID"`
	Author  *User    `json:"author,omitempty" gorm:"foreignKey:AuthorID"`
}
