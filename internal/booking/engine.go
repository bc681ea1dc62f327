package booking

import (
	"time"
)

// DefaultLookahead is the margin before a booking's entry instant during
// which the slot is already treated as occupied.
const DefaultLookahead = 15 * time.Minute

// Classification is the derived state of one slot at one instant.
type Classification struct {
	State          SlotState
	Representative *Booking // the booking that produced the state, nil when available
}

// HasConflict reports whether the candidate window overlaps any active
// booking on the slot. Bookings that are not active never conflict.
//
// This check is advisory: under concurrent writers the storage-level
// exclusion constraint is the final arbiter (see PgRepository.Create).
func HasConflict(candidate Interval, bookings []Booking) bool {
	for _, b := range bookings {
		if b.Status != StatusActive {
			continue
		}
		if candidate.Overlaps(b.Window()) {
			return true
		}
	}
	return false
}

// Classify partitions a slot's active bookings relative to now:
//
//   - occupied: some booking has entry <= now+lookahead and now <= exit;
//     the first such booking in input order is the representative.
//   - reserved: no current booking, but some booking enters after
//     now+lookahead; the one with the earliest entry is the representative.
//   - available: neither.
//
// Active bookings whose exit has already passed are stale (the sweep has not
// rewritten them yet) and are ignored. This is the single classification
// code path for every caller; do not reimplement it per endpoint.
func Classify(bookings []Booking, now time.Time, lookahead time.Duration) Classification {
	horizon := now.Add(lookahead)

	var earliest *Booking

	for i := range bookings {
		b := &bookings[i]
		if b.Status != StatusActive {
			continue
		}
		if b.ExitAt.Before(now) {
			continue // stale
		}

		if !b.EntryAt.After(horizon) {
			// current: entry <= now+lookahead and now <= exit
			return Classification{State: StateOccupied, Representative: b}
		}

		if earliest == nil || b.EntryAt.Before(earliest.EntryAt) {
			earliest = b
		}
	}

	if earliest != nil {
		return Classification{State: StateReserved, Representative: earliest}
	}
	return Classification{State: StateAvailable}
}

// AvailableForPeriod answers whether a slot is free for a requested window.
// Unlike Classify this is not relative to now, so the only answers are
// available and occupied.
func AvailableForPeriod(requested Interval, bookings []Booking) SlotState {
	if HasConflict(requested, bookings) {
		return StateOccupied
	}
	return StateAvailable
}
