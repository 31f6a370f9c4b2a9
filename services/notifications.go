package services

import (
	"airbnb-clone-server/models"
	"log"

	"gorm.io/gorm"
)

// NotificationService persists in-app notifications and dispatches
// best-effort emails. Email failures are logged and never surfaced to the
// caller that triggered the event.
type NotificationService struct {
	db     *gorm.DB
	mailer *Mailer
}

func NewNotificationService(db *gorm.DB, mailer *Mailer) *NotificationService {
	return &NotificationService{db: db, mailer: mailer}
}

// NotifyBooking records a booking-kind notification for a user.
func (ns *NotificationService) NotifyBooking(userID uint, body string, relatedID uint) error {
	notification := models.Notification{
		UserID:    userID,
		Kind:      models.NotificationKindBooking,
		Body:      body,
		RelatedID: relatedID,
	}
	return ns.db.Create(&notification).Error
}

// NotifyMessage records a message-kind notification for a user.
func (ns *NotificationService) NotifyMessage(userID uint, body string, relatedID uint) error {
	notification := models.Notification{
		UserID:    userID,
		Kind:      models.NotificationKindMessage,
		Body:      body,
		RelatedID: relatedID,
	}
	return ns.db.Create(&notification).Error
}

// EmailUser sends an email to the user if they allow notifications.
// Best-effort: every failure path just logs.
func (ns *NotificationService) EmailUser(userID uint, subject, body string) {
	var user models.User
	if err := ns.db.First(&user, userID).Error; err != nil {
		log.Printf("email skipped: user %d not found: %v", userID, err)
		return
	}

	if user.AllowsNotifications != nil && !*user.AllowsNotifications {
		return
	}
	if user.Email == "" {
		return
	}

	if err := ns.mailer.Send(user.Email, subject, body); err != nil {
		log.Printf("email to user %d failed: %v", userID, err)
	}
}
