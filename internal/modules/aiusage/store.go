package aiusage

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store handles ai_usage persistence. Owners are user uids, or session ids
// for anonymous sessions.
type Store struct {
	db        *pgxpool.Pool
	allowance int
}

// NewStore returns a Store backed by the given connection pool. A
// non-positive allowance falls back to DefaultTokens.
func NewStore(db *pgxpool.Pool, allowance int) *Store {
	if allowance <= 0 {
		allowance = DefaultTokens
	}
	return &Store{db: db, allowance: allowance}
}

// UseToken atomically checks the monthly quota and deducts one token.
// It resets the counter to the full allowance when last_reset_month is behind
// the current month. Returns ErrInsufficientTokens when 0 rows are updated
// (quota exhausted or owner absent).
func (s *Store) UseToken(ctx context.Context, ownerID string) error {
	now := time.Now().Format("2006-01")

	tag, err := s.db.Exec(ctx, `
		UPDATE ai_usage SET
			tokens_remaining = CASE WHEN last_reset_month != $1 THEN $2 - 1 ELSE tokens_remaining - 1 END,
			last_reset_month = $1
		WHERE owner_id = $3 AND (last_reset_month < $1 OR tokens_remaining > 0)
	`, now, s.allowance, ownerID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrInsufficientTokens
	}
	return nil
}

// EnsureOwner inserts a new ai_usage row for ownerID with the full allowance.
// If the row already exists the insert is silently skipped (ON CONFLICT DO NOTHING).
func (s *Store) EnsureOwner(ctx context.Context, ownerID string) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO ai_usage (owner_id, tokens_remaining, last_reset_month)
		VALUES ($1, $2, $3)
		ON CONFLICT (owner_id) DO NOTHING
	`, ownerID, s.allowance, time.Now().Format("2006-01"))
	return err
}

// Remaining reports tokens left this month without consuming anything.
// Owners unseen this month report the full allowance.
func (s *Store) Remaining(ctx context.Context, ownerID string) (int, error) {
	now := time.Now().Format("2006-01")

	var remaining int
	var month string
	err := s.db.QueryRow(ctx, `
		SELECT tokens_remaining, last_reset_month FROM ai_usage WHERE owner_id = $1
	`, ownerID).Scan(&remaining, &month)
	if errors.Is(err, pgx.ErrNoRows) {
		return s.allowance, nil
	}
	if err != nil {
		return 0, err
	}
	if month != now {
		return s.allowance, nil
	}
	return remaining, nil
}
