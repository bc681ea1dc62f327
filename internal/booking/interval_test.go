package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCombineDateTime(t *testing.T) {
	got, err := CombineDateTime("2024-12-01", "08:30")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 12, 1, 8, 30, 0, 0, time.Local), got)

	// seconds on the wire are tolerated and dropped
	got, err = CombineDateTime("2024-12-01", "08:30:45")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 12, 1, 8, 30, 0, 0, time.Local), got)

	_, err = CombineDateTime("12/01/2024", "08:30")
	assert.ErrorIs(t, err, ErrBadDateTime)

	_, err = CombineDateTime("2024-12-01", "8am")
	assert.ErrorIs(t, err, ErrBadDateTime)
}

func TestSplitDateTime(t *testing.T) {
	date, clock := SplitDateTime(time.Date(2024, 12, 1, 8, 5, 0, 0, time.Local))
	assert.Equal(t, "2024-12-01", date)
	assert.Equal(t, "08:05", clock)
}

func TestParseIntervalRejectsInvalidWindows(t *testing.T) {
	_, err := ParseInterval("2024-12-01", "10:00", "2024-12-01", "10:00")
	assert.ErrorIs(t, err, ErrInvalidInterval, "zero-length window")

	_, err = ParseInterval("2024-12-01", "11:00", "2024-12-01", "10:00")
	assert.ErrorIs(t, err, ErrInvalidInterval, "exit before entry")

	_, err = ParseInterval("2024-12-01", "", "2024-12-01", "10:00")
	assert.ErrorIs(t, err, ErrBadDateTime)
}

func TestOverlapsIsSymmetric(t *testing.T) {
	mk := func(entry, exit string) Interval {
		iv, err := ParseInterval("2024-12-01", entry, "2024-12-01", exit)
		require.NoError(t, err)
		return iv
	}

	cases := []struct {
		name string
		a, b Interval
		want bool
	}{
		{"contained", mk("08:00", "12:00"), mk("09:00", "10:00"), true},
		{"partial", mk("08:00", "10:00"), mk("09:00", "11:00"), true},
		{"identical", mk("08:00", "10:00"), mk("08:00", "10:00"), true},
		{"disjoint", mk("08:00", "09:00"), mk("10:00", "11:00"), false},
		{"back-to-back", mk("08:00", "10:00"), mk("10:00", "11:00"), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.a.Overlaps(tc.b))
			assert.Equal(t, tc.a.Overlaps(tc.b), tc.b.Overlaps(tc.a))
		})
	}
}
