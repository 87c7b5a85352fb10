package aiusage

import "context"

// Service meters orchestrator calls against a monthly per-owner allowance.
type Service struct {
	store *Store
}

// NewService creates a Service backed by the given Store.
func NewService(store *Store) *Service {
	return &Service{store: store}
}

// UseToken deducts one token from the owner's monthly allowance.
// If the owner row does not exist yet it is initialised and the token is immediately consumed.
// Returns ErrInsufficientTokens when the quota for the current month is exhausted.
func (s *Service) UseToken(ctx context.Context, ownerID string) error {
	err := s.store.UseToken(ctx, ownerID)
	if err != ErrInsufficientTokens {
		return err
	}

	// Row may be missing: try to create it, then retry the deduction once.
	if initErr := s.store.EnsureOwner(ctx, ownerID); initErr != nil {
		return initErr
	}
	return s.store.UseToken(ctx, ownerID)
}

// Remaining reports the owner's balance for the current month.
func (s *Service) Remaining(ctx context.Context, ownerID string) (int, error) {
	return s.store.Remaining(ctx, ownerID)
}
