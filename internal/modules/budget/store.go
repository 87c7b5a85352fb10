// README: Budget rate store backed by PostgreSQL.
package budget

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrRateNotFound is returned when no rate row exists for a destination.
var ErrRateNotFound = errors.New("no rate for destination")

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// GetRate looks up the seeded daily rate for a destination. Destinations are
// keyed lowercase.
func (s *Store) GetRate(ctx context.Context, destination string) (Rate, error) {
	var r Rate
	err := s.db.QueryRow(ctx, `
		SELECT destination, tier, daily_amount, currency
		FROM budget_rates
		WHERE destination = $1`,
		strings.ToLower(strings.TrimSpace(destination)),
	).Scan(&r.Destination, &r.Tier, &r.DailyAmount, &r.Currency)
	if errors.Is(err, pgx.ErrNoRows) {
		return Rate{}, ErrRateNotFound
	}
	if err != nil {
		return Rate{}, err
	}
	return r, nil
}
