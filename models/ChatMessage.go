package models

import "time"

// ChatMessage stores a single direct message between two users.
// Immutable once created except for the read flag.
type ChatMessage struct {
	ID uint `json:"id" gorm:"primaryKey"`

	SenderID uint `json:"senderID" gorm:"not null;index"`
	Sender   User `json:"sender" gorm:"foreignKey:SenderID"`

	ReceiverID uint `json:"receiverID" gorm:"not null;index"`
	Receiver   User `json:"receiver" gorm:"foreignKey:ReceiverID"`

	Body   string `json:"body" gorm:"type:text"`
	IsRead bool   `json:"isRead" gorm:"default:false;index"`

	CreatedAt time.Time `json:"createdAt"`
}
