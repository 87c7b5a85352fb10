// README: User store backed by PostgreSQL.
package user

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const userColumns = "uid, email, display_name, home_city, preferred_currency, created_at, updated_at"

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// Ensure upserts the profile row for uid. Identity fields coming from the
// auth token refresh the row without clobbering profile edits.
func (s *Store) Ensure(ctx context.Context, uid, email, displayName string) (*User, error) {
	row := s.db.QueryRow(ctx, `
		INSERT INTO users (uid, email, display_name)
		VALUES ($1, NULLIF($2, ''), NULLIF($3, ''))
		ON CONFLICT (uid) DO UPDATE SET
			email = COALESCE(NULLIF(EXCLUDED.email, ''), users.email),
			display_name = COALESCE(NULLIF(EXCLUDED.display_name, ''), users.display_name),
			updated_at = now()
		RETURNING `+userColumns,
		uid, email, displayName,
	)
	return scanUser(row)
}

func (s *Store) Get(ctx context.Context, uid string) (*User, error) {
	row := s.db.QueryRow(ctx,
		"SELECT "+userColumns+" FROM users WHERE uid = $1", uid,
	)
	u, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return u, err
}

// UpdateProfile applies the non-empty fields of in and returns the fresh row.
func (s *Store) UpdateProfile(ctx context.Context, uid string, in ProfileUpdate) (*User, error) {
	row := s.db.QueryRow(ctx, `
		UPDATE users SET
			display_name = COALESCE(NULLIF($2, ''), display_name),
			home_city = COALESCE(NULLIF($3, ''), home_city),
			preferred_currency = COALESCE(NULLIF($4, ''), preferred_currency),
			updated_at = now()
		WHERE uid = $1
		RETURNING `+userColumns,
		uid, in.DisplayName, in.HomeCity, in.PreferredCurrency,
	)
	u, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return u, err
}

func scanUser(row pgx.Row) (*User, error) {
	var u User
	var email, name, city sql.NullString
	if err := row.Scan(&u.UID, &email, &name, &city, &u.PreferredCurrency, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	u.Email = email.String
	u.DisplayName = name.String
	u.HomeCity = city.String
	return &u, nil
}
