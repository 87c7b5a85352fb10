// README: User profile model keyed by the auth provider uid.
package user

import "time"

type User struct {
	UID               string    `json:"uid"`
	Email             string    `json:"email,omitempty"`
	DisplayName       string    `json:"display_name,omitempty"`
	HomeCity          string    `json:"home_city,omitempty"`
	PreferredCurrency string    `json:"preferred_currency"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// ProfileUpdate carries the editable profile fields. Empty fields are left
// unchanged.
type ProfileUpdate struct {
	DisplayName       string
	HomeCity          string
	PreferredCurrency string
}
