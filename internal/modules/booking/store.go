// README: Booking store backed by PostgreSQL.
package booking

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"wayfarer/internal/types"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

const bookingColumns = `id, user_uid, session_id, destination, start_date, end_date,
	       travelers, status, status_version, estimated_amount, confirmed_amount,
	       currency, cancel_reason, created_at, confirmed_at, completed_at, cancelled_at`

func (s *Store) Create(ctx context.Context, b *Booking) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO bookings (
			id, user_uid, session_id, destination, start_date, end_date,
			travelers, status, status_version, estimated_amount, confirmed_amount,
			currency, cancel_reason, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9, $10, $11,
			$12, $13, $14
		)`,
		string(b.ID),
		b.UserUID,
		toStringPtr(b.SessionID),
		b.Destination,
		nullIfEmpty(b.StartDate),
		nullIfEmpty(b.EndDate),
		b.Travelers,
		string(b.Status),
		b.StatusVersion,
		b.EstimatedAmount.Amount,
		toAmountPtr(b.ConfirmedAmount),
		b.EstimatedAmount.Currency,
		b.CancelReason,
		b.CreatedAt,
	)
	return err
}

func (s *Store) Get(ctx context.Context, id types.ID) (*Booking, error) {
	row := s.db.QueryRow(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE id = $1`, string(id),
	)
	b, err := scanBooking(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

// ListByUser returns the user's bookings, newest first.
func (s *Store) ListByUser(ctx context.Context, userUID string) ([]*Booking, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE user_uid = $1
		ORDER BY created_at DESC`, userUID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// UpdateStatus performs the optimistic transition: it only succeeds when the
// row still carries the status and version the caller observed.
func (s *Store) UpdateStatus(ctx context.Context, id types.ID, from, to Status, version int, confirmedAmount *int64, reason *string) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE bookings
		SET status = $1,
		    status_version = status_version + 1,
		    confirmed_amount = COALESCE($2, confirmed_amount),
		    cancel_reason = COALESCE($3, cancel_reason),
		    confirmed_at = CASE WHEN $1 = 'confirmed' THEN NOW() ELSE confirmed_at END,
		    completed_at = CASE WHEN $1 = 'completed' THEN NOW() ELSE completed_at END,
		    cancelled_at = CASE WHEN $1 = 'cancelled' THEN NOW() ELSE cancelled_at END
		WHERE id = $4 AND status = $5 AND status_version = $6`,
		string(to),
		confirmedAmount,
		reason,
		string(id),
		string(from),
		version,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Store) AppendEvent(ctx context.Context, e *Event) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO booking_state_events (
			booking_id, from_status, to_status, actor_type, actor_uid, reason, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		string(e.BookingID),
		string(e.FromStatus),
		string(e.ToStatus),
		e.ActorType,
		e.ActorUID,
		e.Reason,
		e.CreatedAt,
	)
	return err
}

// HasActiveBySession reports whether the session already has a live booking.
func (s *Store) HasActiveBySession(ctx context.Context, sessionID types.ID) (bool, error) {
	row := s.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM bookings
			WHERE session_id = $1
			  AND status IN ('pending','confirmed')
		)`, string(sessionID),
	)
	var exists bool
	if err := row.Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func scanBooking(row pgx.Row) (*Booking, error) {
	var b Booking
	var sessionID, startDate, endDate, cancelReason sql.NullString
	var confirmedAmount sql.NullInt64
	var confirmedAt, completedAt, cancelledAt sql.NullTime

	err := row.Scan(
		&b.ID, &b.UserUID, &sessionID, &b.Destination, &startDate, &endDate,
		&b.Travelers, &b.Status, &b.StatusVersion, &b.EstimatedAmount.Amount, &confirmedAmount,
		&b.EstimatedAmount.Currency, &cancelReason, &b.CreatedAt, &confirmedAt, &completedAt, &cancelledAt,
	)
	if err != nil {
		return nil, err
	}

	if sessionID.Valid {
		sid := types.ID(sessionID.String)
		b.SessionID = &sid
	}
	b.StartDate = startDate.String
	b.EndDate = endDate.String
	if confirmedAmount.Valid {
		m := types.Money{Amount: confirmedAmount.Int64, Currency: b.EstimatedAmount.Currency}
		b.ConfirmedAmount = &m
	}
	if cancelReason.Valid {
		b.CancelReason = &cancelReason.String
	}
	b.ConfirmedAt = toTimePtr(confirmedAt)
	b.CompletedAt = toTimePtr(completedAt)
	b.CancelledAt = toTimePtr(cancelledAt)
	return &b, nil
}

func toStringPtr(v *types.ID) *string {
	if v == nil {
		return nil
	}
	s := string(*v)
	return &s
}

func toAmountPtr(v *types.Money) *int64 {
	if v == nil {
		return nil
	}
	n := v.Amount
	return &n
}

func toTimePtr(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time
	return &t
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
