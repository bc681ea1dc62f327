package booking

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mkBooking(t *testing.T, entry, exit string, status Status) Booking {
	t.Helper()
	iv, err := ParseInterval(entry[:10], entry[11:], exit[:10], exit[11:])
	require.NoError(t, err)
	return Booking{
		ID:      uuid.New(),
		SlotID:  uuid.New(),
		UserID:  uuid.New(),
		EntryAt: iv.Entry,
		ExitAt:  iv.Exit,
		Status:  status,
	}
}

func at(t *testing.T, stamp string) time.Time {
	t.Helper()
	ts, err := CombineDateTime(stamp[:10], stamp[11:])
	require.NoError(t, err)
	return ts
}

func TestHasConflict(t *testing.T) {
	// slot P01 holds [2024-12-01 08:00, 2024-12-01 10:00)
	existing := []Booking{mkBooking(t, "2024-12-01 08:00", "2024-12-01 10:00", StatusActive)}

	overlapping, err := ParseInterval("2024-12-01", "09:00", "2024-12-01", "11:00")
	require.NoError(t, err)
	assert.True(t, HasConflict(overlapping, existing))

	backToBack, err := ParseInterval("2024-12-01", "10:00", "2024-12-01", "11:00")
	require.NoError(t, err)
	assert.False(t, HasConflict(backToBack, existing), "adjacent windows must not conflict")
}

func TestHasConflictIgnoresCancelled(t *testing.T) {
	cancelled := []Booking{mkBooking(t, "2024-12-01 08:00", "2024-12-01 10:00", StatusCancelled)}

	window, err := ParseInterval("2024-12-01", "08:00", "2024-12-01", "10:00")
	require.NoError(t, err)
	assert.False(t, HasConflict(window, cancelled))
}

func TestClassifyLookaheadBoundary(t *testing.T) {
	now := at(t, "2024-12-01 08:00")

	// entering 14 minutes from now: inside the lookahead window
	soon := mkBooking(t, "2024-12-01 08:14", "2024-12-01 09:00", StatusActive)
	cls := Classify([]Booking{soon}, now, DefaultLookahead)
	assert.Equal(t, StateOccupied, cls.State)
	require.NotNil(t, cls.Representative)
	assert.Equal(t, soon.ID, cls.Representative.ID)

	// entering 16 minutes from now: beyond it
	later := mkBooking(t, "2024-12-01 08:16", "2024-12-01 09:00", StatusActive)
	cls = Classify([]Booking{later}, now, DefaultLookahead)
	assert.Equal(t, StateReserved, cls.State)
	require.NotNil(t, cls.Representative)
	assert.Equal(t, later.ID, cls.Representative.ID)
}

func TestClassifyOccupiedWinsOverReserved(t *testing.T) {
	now := at(t, "2024-12-01 08:00")

	current := mkBooking(t, "2024-12-01 07:00", "2024-12-01 09:00", StatusActive)
	future := mkBooking(t, "2024-12-01 12:00", "2024-12-01 13:00", StatusActive)

	cls := Classify([]Booking{future, current}, now, DefaultLookahead)
	assert.Equal(t, StateOccupied, cls.State)
	require.NotNil(t, cls.Representative)
	assert.Equal(t, current.ID, cls.Representative.ID)
}

func TestClassifyReservedPicksEarliestEntry(t *testing.T) {
	now := at(t, "2024-12-01 08:00")

	late := mkBooking(t, "2024-12-01 15:00", "2024-12-01 16:00", StatusActive)
	early := mkBooking(t, "2024-12-01 10:00", "2024-12-01 11:00", StatusActive)

	cls := Classify([]Booking{late, early}, now, DefaultLookahead)
	assert.Equal(t, StateReserved, cls.State)
	require.NotNil(t, cls.Representative)
	assert.Equal(t, early.ID, cls.Representative.ID)
}

func TestClassifyIgnoresStaleAndInactive(t *testing.T) {
	now := at(t, "2024-12-01 08:00")

	// stale: still stored active but its window has elapsed
	stale := mkBooking(t, "2024-12-01 05:00", "2024-12-01 06:00", StatusActive)
	cancelled := mkBooking(t, "2024-12-01 07:00", "2024-12-01 09:00", StatusCancelled)
	completed := mkBooking(t, "2024-12-01 07:30", "2024-12-01 09:00", StatusCompleted)

	cls := Classify([]Booking{stale, cancelled, completed}, now, DefaultLookahead)
	assert.Equal(t, StateAvailable, cls.State)
	assert.Nil(t, cls.Representative)
}

func TestClassifyEmpty(t *testing.T) {
	cls := Classify(nil, at(t, "2024-12-01 08:00"), DefaultLookahead)
	assert.Equal(t, StateAvailable, cls.State)
	assert.Nil(t, cls.Representative)
}

func TestAvailableForPeriod(t *testing.T) {
	active := []Booking{mkBooking(t, "2024-12-01 08:00", "2024-12-01 10:00", StatusActive)}

	busy, err := ParseInterval("2024-12-01", "09:30", "2024-12-01", "10:30")
	require.NoError(t, err)
	assert.Equal(t, StateOccupied, AvailableForPeriod(busy, active))

	free, err := ParseInterval("2024-12-01", "10:00", "2024-12-01", "12:00")
	require.NoError(t, err)
	assert.Equal(t, StateAvailable, AvailableForPeriod(free, active))
}

func TestDisplayStatus(t *testing.T) {
	now := at(t, "2024-12-01 12:00")

	assert.Equal(t, StatusCompleted, DisplayStatus(StatusActive, at(t, "2024-12-01 10:00"), now))
	assert.Equal(t, StatusActive, DisplayStatus(StatusActive, at(t, "2024-12-01 13:00"), now))
	assert.Equal(t, StatusCancelled, DisplayStatus(StatusCancelled, at(t, "2024-12-01 10:00"), now))
}
