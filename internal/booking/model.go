package booking

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

const (
	EventBookingCreated   = "BOOKING_CREATED"
	EventBookingCancelled = "BOOKING_CANCELLED"
	EventBookingCompleted = "BOOKING_COMPLETED"
)

// SlotState is the derived, never persisted, real-time state of a slot.
type SlotState string

const (
	StateAvailable SlotState = "available"
	StateOccupied  SlotState = "occupied"
	StateReserved  SlotState = "reserved"
)

type Booking struct {
	ID       uuid.UUID
	SlotID   uuid.UUID
	UserID   uuid.UUID
	EntryAt  time.Time
	ExitAt   time.Time
	Status   Status
	BookedAt time.Time
}

func (b Booking) Window() Interval {
	return Interval{Entry: b.EntryAt, Exit: b.ExitAt}
}

// DisplayStatus is what a reader should see for a stored status: an active
// booking whose exit has passed is shown as completed even if the sweep has
// not rewritten it yet.
func DisplayStatus(stored Status, exitAt, now time.Time) Status {
	if stored == StatusActive && exitAt.Before(now) {
		return StatusCompleted
	}
	return stored
}

// EventLog is one row of the booking lifecycle audit trail.
type EventLog struct {
	ID        int64
	EventType string
	BookingID *uuid.UUID
	Payload   []byte
	CreatedAt time.Time
}

// Detail is a booking joined with its slot and occupant, as shown on
// dashboards.
type Detail struct {
	Booking
	SlotName     string
	Location     string
	Username     string
	OccupantName string
}
