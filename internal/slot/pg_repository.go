package slot

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

func scanSlot(row pgx.Row) (*Slot, error) {
	var s Slot

	err := row.Scan(
		&s.ID,
		&s.Name,
		&s.Location,
		&s.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSlotNotFound
		}
		return nil, err
	}

	return &s, nil
}

func (r *PgRepository) List(ctx context.Context) ([]Slot, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, slot_name, location, created_at
		FROM parking_slots
		ORDER BY slot_name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Slot
	for rows.Next() {
		s, err := scanSlot(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *s)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PgRepository) GetByID(ctx context.Context, id uuid.UUID) (*Slot, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, slot_name, location, created_at
		FROM parking_slots
		WHERE id = $1
	`, id)
	return scanSlot(row)
}

func (r *PgRepository) GetByName(ctx context.Context, name string) (*Slot, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, slot_name, location, created_at
		FROM parking_slots
		WHERE slot_name = $1
	`, name)
	return scanSlot(row)
}

func (r *PgRepository) Create(ctx context.Context, s Slot) (*Slot, error) {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO parking_slots (id, slot_name, location, created_at)
		VALUES ($1, $2, $3, now())
		RETURNING id, slot_name, location, created_at
	`, s.ID, s.Name, s.Location)

	created, err := scanSlot(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrSlotExists
		}
		return nil, err
	}
	return created, nil
}

func (r *PgRepository) Rename(ctx context.Context, id uuid.UUID, newName string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE parking_slots
		SET slot_name = $2
		WHERE id = $1
	`, id, newName)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrSlotExists
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrSlotNotFound
	}
	return nil
}

func (r *PgRepository) UpdateLocation(ctx context.Context, id uuid.UUID, location string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE parking_slots
		SET location = $2
		WHERE id = $1
	`, id, location)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrSlotNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
