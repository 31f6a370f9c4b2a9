package models

import (
	"encoding/json"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Listing struct {
	gorm.Model
	HostID       uint           `json:"hostID" gorm:"index"`
	Title        string         `json:"title"`
	Description  string         `json:"description" gorm:"type:text"`
	Location     string         `json:"location"`
	Country      string         `json:"country" gorm:"index"`
	Lat          float64        `json:"lat"`
	Lng          float64        `json:"lng"`
	NightlyPrice float64        `json:"nightlyPrice"`
	Capacity     int            `json:"capacity"`
	Images       datatypes.JSON `json:"images"`
	Reviews      []Review       `json:"reviews"`
	Bookings     []Booking      `json:"bookings"`
	Host         User           `json:"host" gorm:"foreignKey:HostID;references:ID"`
}

// Custom JSON marshaling to render Images as an array and avoid a circular
// Host -> Listings reference.
func (l *Listing) MarshalJSON() ([]byte, error) {
	type Alias Listing
	aux := &struct {
		Images []string `json:"images"`
		Host   *User    `json:"host,omitempty"`
		*Alias
	}{
		Images: []string{},
		Host:   nil,
		Alias:  (*Alias)(l),
	}

	if l.Images != nil {
		var images []string
		if err := json.Unmarshal(l.Images, &images); err == nil {
			aux.Images = images
		}
	}

	if l.Host.ID > 0 {
		hostCopy := l.Host
		hostCopy.Listings = nil
		aux.Host = &hostCopy
	}

	return json.Marshal(aux)
}
