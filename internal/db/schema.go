package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// EnsureSchema creates the tables and constraints the service needs.
// It is idempotent and safe to run on every startup.
//
// The exclusion constraint on bookings is the authoritative guard against
// overlapping active bookings on one slot; the application-level conflict
// check only narrows the race window (see internal/booking).
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS btree_gist`,

		`CREATE TABLE IF NOT EXISTS users (
			id            UUID PRIMARY KEY,
			username      TEXT NOT NULL UNIQUE,
			full_name     TEXT NOT NULL,
			email         TEXT UNIQUE,
			password_hash TEXT NOT NULL,
			role          TEXT NOT NULL DEFAULT 'user',
			created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,

		`CREATE TABLE IF NOT EXISTS parking_slots (
			id         UUID PRIMARY KEY,
			slot_name  TEXT NOT NULL UNIQUE,
			location   TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,

		// Half-open [entry_at, exit_at): back-to-back bookings do not overlap,
		// which is exactly the semantics of && on tstzrange.
		`CREATE TABLE IF NOT EXISTS bookings (
			id        UUID PRIMARY KEY,
			user_id   UUID NOT NULL REFERENCES users (id) ON DELETE CASCADE,
			slot_id   UUID NOT NULL REFERENCES parking_slots (id) ON DELETE CASCADE,
			entry_at  TIMESTAMPTZ NOT NULL,
			exit_at   TIMESTAMPTZ NOT NULL,
			status    TEXT NOT NULL DEFAULT 'active',
			booked_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			CONSTRAINT bookings_entry_before_exit CHECK (entry_at < exit_at),
			CONSTRAINT bookings_no_overlap EXCLUDE USING gist (
				slot_id WITH =,
				tstzrange(entry_at, exit_at) WITH &&
			) WHERE (status = 'active')
		)`,

		// Coarser secondary guard: one active booking per (slot, entry instant).
		`CREATE UNIQUE INDEX IF NOT EXISTS bookings_slot_entry_active
			ON bookings (slot_id, entry_at) WHERE status = 'active'`,

		`CREATE INDEX IF NOT EXISTS bookings_user_booked_at
			ON bookings (user_id, booked_at DESC)`,

		// Lifecycle audit trail. Rows outlive their booking.
		`CREATE TABLE IF NOT EXISTS event_logs (
			id         BIGSERIAL PRIMARY KEY,
			event_type TEXT NOT NULL,
			booking_id UUID REFERENCES bookings (id) ON DELETE SET NULL,
			payload    JSONB,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
	}

	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}

	return nil
}
