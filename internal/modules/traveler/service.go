// README: Traveler service: companion CRUD with ownership enforcement.
package traveler

import (
	"context"
	"errors"
	"strings"
	"time"

	"wayfarer/internal/types"
)

var (
	ErrNotFound   = errors.New("traveler not found")
	ErrForbidden  = errors.New("traveler belongs to another user")
	ErrBadRequest = errors.New("bad request")
)

const maxAge = 120

// TravelerStore is what the Service needs from persistence.
type TravelerStore interface {
	Create(ctx context.Context, tr *Traveler) error
	Get(ctx context.Context, id types.ID) (*Traveler, error)
	ListByOwner(ctx context.Context, ownerUID string) ([]*Traveler, error)
	Update(ctx context.Context, id types.ID, in *Traveler) (*Traveler, error)
	Delete(ctx context.Context, id types.ID) error
}

type Service struct {
	store TravelerStore
}

func NewService(store TravelerStore) *Service {
	return &Service{store: store}
}

type CreateCommand struct {
	OwnerUID        string
	FullName        string
	Age             int
	PassportCountry string
	Notes           string
}

type UpdateCommand struct {
	TravelerID      types.ID
	CallerUID       string
	FullName        string
	Age             int
	PassportCountry string
	Notes           string
}

func (s *Service) Create(ctx context.Context, cmd CreateCommand) (*Traveler, error) {
	if strings.TrimSpace(cmd.OwnerUID) == "" || strings.TrimSpace(cmd.FullName) == "" {
		return nil, ErrBadRequest
	}
	if cmd.Age < 0 || cmd.Age > maxAge {
		return nil, ErrBadRequest
	}

	now := time.Now().UTC()
	tr := &Traveler{
		ID:              types.NewID(),
		OwnerUID:        cmd.OwnerUID,
		FullName:        strings.TrimSpace(cmd.FullName),
		Age:             cmd.Age,
		PassportCountry: strings.TrimSpace(cmd.PassportCountry),
		Notes:           strings.TrimSpace(cmd.Notes),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.store.Create(ctx, tr); err != nil {
		return nil, err
	}
	return tr, nil
}

// Get returns the traveler only to its owner.
func (s *Service) Get(ctx context.Context, id types.ID, callerUID string) (*Traveler, error) {
	tr, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if tr.OwnerUID != callerUID {
		return nil, ErrForbidden
	}
	return tr, nil
}

func (s *Service) List(ctx context.Context, ownerUID string) ([]*Traveler, error) {
	if strings.TrimSpace(ownerUID) == "" {
		return nil, ErrBadRequest
	}
	return s.store.ListByOwner(ctx, ownerUID)
}

func (s *Service) Update(ctx context.Context, cmd UpdateCommand) (*Traveler, error) {
	if cmd.Age < 0 || cmd.Age > maxAge {
		return nil, ErrBadRequest
	}
	tr, err := s.store.Get(ctx, cmd.TravelerID)
	if err != nil {
		return nil, err
	}
	if tr.OwnerUID != cmd.CallerUID {
		return nil, ErrForbidden
	}
	return s.store.Update(ctx, cmd.TravelerID, &Traveler{
		FullName:        strings.TrimSpace(cmd.FullName),
		Age:             cmd.Age,
		PassportCountry: strings.TrimSpace(cmd.PassportCountry),
		Notes:           strings.TrimSpace(cmd.Notes),
	})
}

func (s *Service) Delete(ctx context.Context, id types.ID, callerUID string) error {
	tr, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if tr.OwnerUID != callerUID {
		return ErrForbidden
	}
	return s.store.Delete(ctx, id)
}
