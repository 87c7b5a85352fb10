// README: Traveler store backed by PostgreSQL.
package traveler

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"wayfarer/internal/types"
)

const travelerColumns = "id, owner_uid, full_name, age, passport_country, notes, created_at, updated_at"

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) Create(ctx context.Context, tr *Traveler) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO travelers (id, owner_uid, full_name, age, passport_country, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''), $7, $8)`,
		string(tr.ID), tr.OwnerUID, tr.FullName, tr.Age,
		tr.PassportCountry, tr.Notes, tr.CreatedAt, tr.UpdatedAt,
	)
	return err
}

func (s *Store) Get(ctx context.Context, id types.ID) (*Traveler, error) {
	row := s.db.QueryRow(ctx,
		"SELECT "+travelerColumns+" FROM travelers WHERE id = $1", string(id),
	)
	tr, err := scanTraveler(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return tr, err
}

func (s *Store) ListByOwner(ctx context.Context, ownerUID string) ([]*Traveler, error) {
	rows, err := s.db.Query(ctx,
		"SELECT "+travelerColumns+" FROM travelers WHERE owner_uid = $1 ORDER BY created_at ASC", ownerUID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Traveler
	for rows.Next() {
		tr, err := scanTraveler(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, tr)
	}
	return out, rows.Err()
}

// Update applies the non-zero fields of in and returns the fresh row.
func (s *Store) Update(ctx context.Context, id types.ID, in *Traveler) (*Traveler, error) {
	row := s.db.QueryRow(ctx, `
		UPDATE travelers SET
			full_name = COALESCE(NULLIF($2, ''), full_name),
			age = CASE WHEN $3 > 0 THEN $3 ELSE age END,
			passport_country = COALESCE(NULLIF($4, ''), passport_country),
			notes = COALESCE(NULLIF($5, ''), notes),
			updated_at = now()
		WHERE id = $1
		RETURNING `+travelerColumns,
		string(id), in.FullName, in.Age, in.PassportCountry, in.Notes,
	)
	tr, err := scanTraveler(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return tr, err
}

func (s *Store) Delete(ctx context.Context, id types.ID) error {
	tag, err := s.db.Exec(ctx, "DELETE FROM travelers WHERE id = $1", string(id))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanTraveler(row pgx.Row) (*Traveler, error) {
	var tr Traveler
	var passport, notes sql.NullString
	if err := row.Scan(&tr.ID, &tr.OwnerUID, &tr.FullName, &tr.Age, &passport, &notes, &tr.CreatedAt, &tr.UpdatedAt); err != nil {
		return nil, err
	}
	tr.PassportCountry = passport.String
	tr.Notes = notes.String
	return &tr, nil
}
