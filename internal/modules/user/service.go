// README: User service: auth-driven profile lifecycle.
package user

import (
	"context"
	"errors"
	"strings"
)

var (
	ErrNotFound    = errors.New("user not found")
	ErrBadRequest  = errors.New("bad request")
	ErrBadCurrency = errors.New("preferred currency must be a 3-letter code")
)

type Service struct {
	store *Store
}

func NewService(store *Store) *Service {
	return &Service{store: store}
}

// Ensure records the authenticated caller, creating the profile on first
// sight. Safe to call on every authenticated request.
func (s *Service) Ensure(ctx context.Context, uid, email, displayName string) (*User, error) {
	if strings.TrimSpace(uid) == "" {
		return nil, ErrBadRequest
	}
	return s.store.Ensure(ctx, uid, email, displayName)
}

func (s *Service) Get(ctx context.Context, uid string) (*User, error) {
	if strings.TrimSpace(uid) == "" {
		return nil, ErrBadRequest
	}
	return s.store.Get(ctx, uid)
}

// UpdateProfile validates and applies a partial profile edit.
func (s *Service) UpdateProfile(ctx context.Context, uid string, in ProfileUpdate) (*User, error) {
	if strings.TrimSpace(uid) == "" {
		return nil, ErrBadRequest
	}
	if cur := strings.TrimSpace(in.PreferredCurrency); cur != "" {
		if len(cur) != 3 {
			return nil, ErrBadCurrency
		}
		in.PreferredCurrency = strings.ToUpper(cur)
	}
	return s.store.UpdateProfile(ctx, uid, in)
}
