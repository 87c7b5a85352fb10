// README: Booking aggregate and status definitions.
package booking

import (
	"time"

	"wayfarer/internal/types"
)

type Status string

const (
	StatusNone      Status = "none"
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

type Booking struct {
	ID              types.ID
	UserUID         string
	SessionID       *types.ID
	Destination     string
	StartDate       string
	EndDate         string
	Travelers       int
	Status          Status
	StatusVersion   int
	EstimatedAmount types.Money
	ConfirmedAmount *types.Money
	CancelReason    *string
	CreatedAt       time.Time
	ConfirmedAt     *time.Time
	CompletedAt     *time.Time
	CancelledAt     *time.Time
}

type Event struct {
	ID         int64
	BookingID  types.ID
	FromStatus Status
	ToStatus   Status
	ActorType  string
	ActorUID   *string
	Reason     *string
	CreatedAt  time.Time
}

// AllowedTransitions represents the booking state flow as code.
// Cancellation is allowed until the trip is completed.
var AllowedTransitions = map[Status][]Status{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCompleted, StatusCancelled},
}

func CanTransition(from, to Status) bool {
	next, ok := AllowedTransitions[from]
	if !ok {
		return false
	}
	for _, s := range next {
		if s == to {
			return true
		}
	}
	return false
}
