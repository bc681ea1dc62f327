package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

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

// Helpers

func scanBooking(row pgx.Row) (*Booking, error) {
	var b Booking

	err := row.Scan(
		&b.ID,
		&b.SlotID,
		&b.UserID,
		&b.EntryAt,
		&b.ExitAt,
		&b.Status,
		&b.BookedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}

	return &b, nil
}

func scanDetail(row pgx.Row) (*Detail, error) {
	var d Detail

	err := row.Scan(
		&d.ID,
		&d.SlotID,
		&d.UserID,
		&d.EntryAt,
		&d.ExitAt,
		&d.Status,
		&d.BookedAt,
		&d.SlotName,
		&d.Location,
		&d.Username,
		&d.OccupantName,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}

	return &d, nil
}

func isConflictViolation(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	// 23P01 exclusion_violation, 23505 unique_violation
	return pgErr.Code == "23P01" || pgErr.Code == "23505"
}

// Interface methods

func (r *PgRepository) GetByID(ctx context.Context, id uuid.UUID) (*Booking, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, slot_id, user_id, entry_at, exit_at, status, booked_at
		FROM bookings
		WHERE id = $1
	`, id)
	return scanBooking(row)
}

func (r *PgRepository) ListActiveBySlot(ctx context.Context, slotID uuid.UUID) ([]Booking, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, slot_id, user_id, entry_at, exit_at, status, booked_at
		FROM bookings
		WHERE slot_id = $1 AND status = 'active'
		ORDER BY booked_at
	`, slotID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *b)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PgRepository) ListActiveDetails(ctx context.Context) ([]Detail, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT b.id, b.slot_id, b.user_id, b.entry_at, b.exit_at, b.status, b.booked_at,
		       ps.slot_name, ps.location, u.username, u.full_name
		FROM bookings b
		JOIN parking_slots ps ON b.slot_id = ps.id
		JOIN users u ON b.user_id = u.id
		WHERE b.status = 'active'
		ORDER BY b.booked_at
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Detail
	for rows.Next() {
		d, err := scanDetail(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *d)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PgRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]Detail, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT b.id, b.slot_id, b.user_id, b.entry_at, b.exit_at, b.status, b.booked_at,
		       ps.slot_name, ps.location, u.username, u.full_name
		FROM bookings b
		JOIN parking_slots ps ON b.slot_id = ps.id
		JOIN users u ON b.user_id = u.id
		WHERE b.user_id = $1
		ORDER BY b.booked_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Detail
	for rows.Next() {
		d, err := scanDetail(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *d)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PgRepository) Create(ctx context.Context, b Booking) (*Booking, error) {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO bookings (id, slot_id, user_id, entry_at, exit_at, status, booked_at)
		VALUES ($1, $2, $3, $4, $5, 'active', now())
		RETURNING id, slot_id, user_id, entry_at, exit_at, status, booked_at
	`, b.ID, b.SlotID, b.UserID, b.EntryAt, b.ExitAt)

	created, err := scanBooking(row)
	if err != nil {
		if isConflictViolation(err) {
			return nil, ErrBookingConflict
		}
		return nil, err
	}
	return created, nil
}

func (r *PgRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status) (*Booking, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE bookings
		SET status = $2
		WHERE id = $1
		  AND status = $3
		RETURNING id, slot_id, user_id, entry_at, exit_at, status, booked_at
	`, id, to, from)

	return scanBooking(row)
}

func (r *PgRepository) InsertEvent(ctx context.Context, ev EventLog) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO event_logs (event_type, booking_id, payload, created_at)
		VALUES ($1, $2, $3, COALESCE($4, now()))
	`, ev.EventType, ev.BookingID, ev.Payload, nullableTime(ev.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert event log: %w", err)
	}

	return nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func (r *PgRepository) FindElapsedActive(ctx context.Context, now time.Time) ([]Booking, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, slot_id, user_id, entry_at, exit_at, status, booked_at
		FROM bookings
		WHERE status = 'active'
		  AND exit_at < $1
	`, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *b)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}
