package models

import (
	"encoding/json"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type User struct {
	gorm.Model
	FirstName           string         `json:"firstName"`
	LastName            string         `json:"lastName"`
	Email               string         `json:"email" gorm:"uniqueIndex"`
	Password            string         `json:"-"`
	SocialLogin         bool           `json:"socialLogin"`
	SocialProvider      string         `json:"socialProvider"`
	AvatarURL           string         `json:"avatarURL"`
	SavedListings       datatypes.JSON `json:"savedListings"`
	AllowsNotifications *bool          `json:"allowsNotifications"`
	Role                string         `json:"role" gorm:"type:varchar(20);default:user;index"` // user, admin
	Listings            []Listing      `json:"listings" gorm:"foreignKey:HostID;references:ID"`
}

// Custom JSON marshaling to expose SavedListings as an array
func (u *User) MarshalJSON() ([]byte, error) {
	type Alias User
	aux := &struct {
		SavedListings []int `json:"savedListings"`
		*Alias
	}{
		SavedListings: []int{},
		Alias:         (*Alias)(u),
	}

	if u.SavedListings != nil {
		var saved []int
		if err := json.Unmarshal(u.SavedListings, &saved); err == nil {
			aux.SavedListings = saved
		}
	}

	return json.Marshal(aux)
}
