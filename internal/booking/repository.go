package booking

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrBookingNotFound = errors.New("booking not found")

	// ErrBookingConflict covers both the advisory overlap check and the
	// storage-level exclusion/uniqueness violation from a racing writer.
	ErrBookingConflict = errors.New("booking conflicts with an existing reservation")
)

// Repository contains all DB interactions needed by the booking service.
type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Booking, error)

	// ListActiveBySlot returns the slot's active bookings in insertion order;
	// the engine's conflict check and classification run over this set.
	ListActiveBySlot(ctx context.Context, slotID uuid.UUID) ([]Booking, error)

	// ListActiveDetails returns every active booking joined with slot and
	// occupant, for the dashboard and availability views.
	ListActiveDetails(ctx context.Context) ([]Detail, error)

	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]Detail, error)

	// Create inserts an active booking. It returns ErrBookingConflict when
	// the exclusion constraint (or the coarser unique key) rejects the row.
	Create(ctx context.Context, b Booking) (*Booking, error)

	UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status) (*Booking, error)

	// FindElapsedActive lists active bookings whose exit has passed,
	// for the completion sweep.
	FindElapsedActive(ctx context.Context, now time.Time) ([]Booking, error)

	// Event logging
	InsertEvent(ctx context.Context, ev EventLog) error
}
