// README: Traveler companion profiles owned by a user.
package traveler

import (
	"time"

	"wayfarer/internal/types"
)

type Traveler struct {
	ID              types.ID  `json:"id"`
	OwnerUID        string    `json:"owner_uid"`
	FullName        string    `json:"full_name"`
	Age             int       `json:"age,omitempty"`
	PassportCountry string    `json:"passport_country,omitempty"`
	Notes           string    `json:"notes,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
