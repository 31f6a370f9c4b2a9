package models

import "gorm.io/gorm"

type Review struct {
	gorm.Model
	ListingID uint   `json:"listingID" gorm:"index"`
	UserID    uint   `json:"userID" gorm:"index"`
	Stars     int    `json:"stars"`
	Body      string `json:"body" gorm:"type:text"`

	User User `json:"user" gorm:"foreignKey:UserID"`
}
