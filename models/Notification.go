package models

import "time"

const (
	NotificationKindMessage = "message"
	NotificationKindBooking = "booking"
)

// Notification is created as a side effect of chat and booking events and
// only ever mutated through the read flag.
type Notification struct {
	ID     uint `json:"id" gorm:"primaryKey"`
	UserID uint `json:"userID" gorm:"not null;index"`
	User   User `json:"user" gorm:"foreignKey:UserID"`

	Kind      string `json:"kind" gorm:"size:32;index"` // message, booking
	Body      string `json:"body" gorm:"size:500"`
	RelatedID uint   `json:"relatedID"`

	IsRead    bool       `json:"isRead" gorm:"default:false;index"`
	CreatedAt time.Time  `json:"createdAt"`
	ReadAt    *time.Time `json:"readAt"`
}
