// README: Booking service: creation from trip plans and state transitions.
package booking

import (
	"context"
	"errors"
	"strings"
	"time"

	"wayfarer/internal/modules/session"
	"wayfarer/internal/types"
)

// Sessions is the slice of the session manager bookings need: resolve a
// session's plan and close the session once it turns into a booking.
type Sessions interface {
	PlanSnapshot(ctx context.Context, id types.ID) (*session.TripPlan, error)
	CompleteSession(ctx context.Context, id types.ID) error
}

type Service struct {
	store    *Store
	sessions Sessions
}

func NewService(store *Store, sessions Sessions) *Service {
	return &Service{store: store, sessions: sessions}
}

var (
	ErrInvalidState  = errors.New("invalid state transition")
	ErrNotFound      = errors.New("booking not found")
	ErrConflict      = errors.New("booking state conflict")
	ErrActiveBooking = errors.New("session already has an active booking")
	ErrForbidden     = errors.New("booking belongs to another user")
	ErrBadRequest    = errors.New("bad request")
)

type CreateCommand struct {
	UserUID     string
	SessionID   types.ID
	Destination string
	StartDate   string
	EndDate     string
	Travelers   int
}

type ConfirmCommand struct {
	BookingID types.ID
	CallerUID string
}

type CancelCommand struct {
	BookingID types.ID
	CallerUID string
	Reason    string
}

type CompleteCommand struct {
	BookingID types.ID
}

// Create makes a pending booking. With a session id the trip plan supplies
// destination, dates, party size, and price; explicit command fields win over
// plan values. Without one the command must carry the destination itself.
func (s *Service) Create(ctx context.Context, cmd CreateCommand) (*Booking, error) {
	if strings.TrimSpace(cmd.UserUID) == "" {
		return nil, ErrBadRequest
	}

	now := time.Now()
	b := &Booking{
		ID:              types.NewID(),
		UserUID:         cmd.UserUID,
		Destination:     strings.TrimSpace(cmd.Destination),
		StartDate:       strings.TrimSpace(cmd.StartDate),
		EndDate:         strings.TrimSpace(cmd.EndDate),
		Travelers:       cmd.Travelers,
		Status:          StatusPending,
		StatusVersion:   0,
		EstimatedAmount: types.USD(0),
		CreatedAt:       now,
	}

	if !cmd.SessionID.IsZero() {
		if s.sessions == nil {
			return nil, ErrBadRequest
		}
		active, err := s.store.HasActiveBySession(ctx, cmd.SessionID)
		if err != nil {
			return nil, err
		}
		if active {
			return nil, ErrActiveBooking
		}
		plan, err := s.sessions.PlanSnapshot(ctx, cmd.SessionID)
		if err != nil {
			return nil, err
		}
		sid := cmd.SessionID
		b.SessionID = &sid
		if b.Destination == "" {
			b.Destination = plan.Destination
		}
		if b.StartDate == "" && b.EndDate == "" {
			dr := types.ParseDateRange(plan.Dates)
			b.StartDate, b.EndDate = dr.Start, dr.End
		}
		if b.Travelers <= 0 {
			b.Travelers = plan.Travelers
		}
		if plan.EstimatedBudget != nil {
			b.EstimatedAmount = *plan.EstimatedBudget
		}
	}

	if b.Destination == "" {
		return nil, ErrBadRequest
	}
	if b.Travelers <= 0 {
		b.Travelers = 1
	}

	if err := s.store.Create(ctx, b); err != nil {
		return nil, err
	}
	_ = s.store.AppendEvent(ctx, &Event{
		BookingID:  b.ID,
		FromStatus: StatusNone,
		ToStatus:   StatusPending,
		ActorType:  "user",
		ActorUID:   actorUID(cmd.UserUID),
		CreatedAt:  now,
	})
	if b.SessionID != nil {
		// Session completion is advisory; the booking stands either way.
		_ = s.sessions.CompleteSession(ctx, *b.SessionID)
	}
	return b, nil
}

// Get returns a booking. An empty callerUID skips the ownership check for
// internal callers.
func (s *Service) Get(ctx context.Context, id types.ID, callerUID string) (*Booking, error) {
	b, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if callerUID != "" && b.UserUID != callerUID {
		return nil, ErrForbidden
	}
	return b, nil
}

func (s *Service) List(ctx context.Context, userUID string) ([]*Booking, error) {
	if strings.TrimSpace(userUID) == "" {
		return nil, ErrBadRequest
	}
	return s.store.ListByUser(ctx, userUID)
}

// Confirm locks in the booking at its estimated price.
func (s *Service) Confirm(ctx context.Context, cmd ConfirmCommand) error {
	b, err := s.store.Get(ctx, cmd.BookingID)
	if err != nil {
		return err
	}
	if cmd.CallerUID != "" && b.UserUID != cmd.CallerUID {
		return ErrForbidden
	}
	if !CanTransition(b.Status, StatusConfirmed) {
		return ErrInvalidState
	}
	amount := b.EstimatedAmount.Amount
	ok, err := s.store.UpdateStatus(ctx, b.ID, b.Status, StatusConfirmed, b.StatusVersion, &amount, nil)
	if err != nil {
		return err
	}
	if !ok {
		return ErrConflict
	}
	_ = s.store.AppendEvent(ctx, &Event{
		BookingID:  b.ID,
		FromStatus: b.Status,
		ToStatus:   StatusConfirmed,
		ActorType:  "user",
		ActorUID:   actorUID(cmd.CallerUID),
		CreatedAt:  time.Now(),
	})
	return nil
}

func (s *Service) Cancel(ctx context.Context, cmd CancelCommand) error {
	b, err := s.store.Get(ctx, cmd.BookingID)
	if err != nil {
		return err
	}
	if cmd.CallerUID != "" && b.UserUID != cmd.CallerUID {
		return ErrForbidden
	}
	if !CanTransition(b.Status, StatusCancelled) {
		return ErrInvalidState
	}
	var reason *string
	if r := strings.TrimSpace(cmd.Reason); r != "" {
		reason = &r
	}
	ok, err := s.store.UpdateStatus(ctx, b.ID, b.Status, StatusCancelled, b.StatusVersion, nil, reason)
	if err != nil {
		return err
	}
	if !ok {
		return ErrConflict
	}
	actorType := "system"
	if cmd.CallerUID != "" {
		actorType = "user"
	}
	_ = s.store.AppendEvent(ctx, &Event{
		BookingID:  b.ID,
		FromStatus: b.Status,
		ToStatus:   StatusCancelled,
		ActorType:  actorType,
		ActorUID:   actorUID(cmd.CallerUID),
		Reason:     reason,
		CreatedAt:  time.Now(),
	})
	return nil
}

// Complete marks a confirmed booking as travelled. Internal use only.
func (s *Service) Complete(ctx context.Context, cmd CompleteCommand) error {
	b, err := s.store.Get(ctx, cmd.BookingID)
	if err != nil {
		return err
	}
	if !CanTransition(b.Status, StatusCompleted) {
		return ErrInvalidState
	}
	ok, err := s.store.UpdateStatus(ctx, b.ID, b.Status, StatusCompleted, b.StatusVersion, nil, nil)
	if err != nil {
		return err
	}
	if !ok {
		return ErrConflict
	}
	_ = s.store.AppendEvent(ctx, &Event{
		BookingID:  b.ID,
		FromStatus: b.Status,
		ToStatus:   StatusCompleted,
		ActorType:  "system",
		CreatedAt:  time.Now(),
	})
	return nil
}

func actorUID(uid string) *string {
	if uid == "" {
		return nil
	}
	return &uid
}
