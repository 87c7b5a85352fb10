// README: Session store backed by PostgreSQL JSONB documents plus a Redis activity index.
package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"wayfarer/internal/types"
)

// activityKey is a sorted set of session ids scored by last-update unix time.
// The sweeper reads it to find idle sessions without scanning the table.
const activityKey = "sessions:activity"

const uniqueViolation = "23505"

type Store struct {
	db    *pgxpool.Pool
	redis *redis.Client
}

// NewStore returns a Store over Postgres and Redis. redis may be nil; the
// activity index is then skipped and the sweeper falls back to table scans.
func NewStore(db *pgxpool.Pool, redis *redis.Client) *Store {
	return &Store{db: db, redis: redis}
}

// Create inserts a new session. A duplicate id yields ErrConflict.
func (s *Store) Create(ctx context.Context, ts *TravelSession) error {
	data, plan, err := marshalDocs(ts)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(ctx, `
		INSERT INTO travel_sessions (
			id, user_id, status, session_data, plan_data, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		string(ts.ID),
		nullableStr(ts.UserID),
		string(ts.Status),
		data,
		plan,
		ts.CreatedAt,
		ts.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrConflict
		}
		return err
	}
	s.syncActivity(ctx, ts)
	return nil
}

// Get loads a session by id. Absence is a first-class result, not an error:
// a missing row returns (nil, false, nil).
func (s *Store) Get(ctx context.Context, id types.ID) (*TravelSession, bool, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, user_id, status, session_data, plan_data, created_at, updated_at
		FROM travel_sessions
		WHERE id = $1`, string(id),
	)

	var ts TravelSession
	var userID sql.NullString
	var data, plan []byte

	err := row.Scan(&ts.ID, &userID, &ts.Status, &data, &plan, &ts.CreatedAt, &ts.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	if userID.Valid {
		ts.UserID = userID.String
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &ts.Data); err != nil {
			return nil, false, fmt.Errorf("decode session_data for %s: %w", id, err)
		}
	}
	if len(plan) > 0 {
		var p TripPlan
		if err := json.Unmarshal(plan, &p); err != nil {
			return nil, false, fmt.Errorf("decode plan_data for %s: %w", id, err)
		}
		ts.Plan = &p
	}
	return &ts, true, nil
}

// Update loads the session, applies mutate, and persists the whole aggregate.
// The write is last-writer-wins: concurrent turns on one session may overlap
// and the later persist keeps its own view. Returns ErrNotFound when the row
// is missing at load or write time.
func (s *Store) Update(ctx context.Context, id types.ID, mutate func(*TravelSession) error) (*TravelSession, error) {
	cur, ok, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotFound
	}
	if err := mutate(cur); err != nil {
		return nil, err
	}
	cur.UpdatedAt = time.Now().UTC()

	data, plan, err := marshalDocs(cur)
	if err != nil {
		return nil, err
	}
	tag, err := s.db.Exec(ctx, `
		UPDATE travel_sessions
		SET user_id = $2, status = $3, session_data = $4, plan_data = $5, updated_at = $6
		WHERE id = $1`,
		string(cur.ID),
		nullableStr(cur.UserID),
		string(cur.Status),
		data,
		plan,
		cur.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrNotFound
	}
	s.syncActivity(ctx, cur)
	return cur, nil
}

// IdleSessionIDs returns sessions whose last activity predates olderThan.
// The Redis index is the fast path; on Redis failure it degrades to a table
// scan over active/planning rows.
func (s *Store) IdleSessionIDs(ctx context.Context, olderThan time.Time, limit int) ([]types.ID, error) {
	if s.redis != nil {
		vals, err := s.redis.ZRangeByScore(ctx, activityKey, &redis.ZRangeBy{
			Min:   "-inf",
			Max:   strconv.FormatInt(olderThan.Unix(), 10),
			Count: int64(limit),
		}).Result()
		if err == nil {
			ids := make([]types.ID, len(vals))
			for i, v := range vals {
				ids[i] = types.ID(v)
			}
			return ids, nil
		}
	}

	rows, err := s.db.Query(ctx, `
		SELECT id FROM travel_sessions
		WHERE status IN ('active', 'planning') AND updated_at < $1
		ORDER BY updated_at ASC
		LIMIT $2`, olderThan, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []types.ID
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, types.ID(id))
	}
	return ids, rows.Err()
}

// syncActivity keeps the Redis index in step with the session status.
// Best-effort: index misses only delay the sweeper, never break a request.
func (s *Store) syncActivity(ctx context.Context, ts *TravelSession) {
	if s.redis == nil {
		return
	}
	switch ts.Status {
	case StatusCompleted, StatusAbandoned:
		_ = s.redis.ZRem(ctx, activityKey, string(ts.ID)).Err()
	default:
		_ = s.redis.ZAdd(ctx, activityKey, redis.Z{
			Score:  float64(ts.UpdatedAt.Unix()),
			Member: string(ts.ID),
		}).Err()
	}
}

func marshalDocs(ts *TravelSession) ([]byte, []byte, error) {
	data, err := json.Marshal(ts.Data)
	if err != nil {
		return nil, nil, fmt.Errorf("encode session_data: %w", err)
	}
	var plan []byte
	if ts.Plan != nil {
		plan, err = json.Marshal(ts.Plan)
		if err != nil {
			return nil, nil, fmt.Errorf("encode plan_data: %w", err)
		}
	}
	return data, plan, nil
}

func nullableStr(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
