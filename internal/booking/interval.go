package booking

import (
	"errors"
	"time"
)

var (
	ErrInvalidInterval = errors.New("entry must be before exit")
	ErrBadDateTime     = errors.New("malformed date or time")
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

// Interval is the half-open time window [Entry, Exit) of a booking.
// Touching intervals (one ends exactly when the other begins) do not overlap.
type Interval struct {
	Entry time.Time
	Exit  time.Time
}

func NewInterval(entry, exit time.Time) (Interval, error) {
	if !entry.Before(exit) {
		return Interval{}, ErrInvalidInterval
	}
	return Interval{Entry: entry, Exit: exit}, nil
}

// ParseInterval combines the wire format (separate YYYY-MM-DD and HH:MM
// strings) into a comparable interval.
func ParseInterval(entryDate, entryTime, exitDate, exitTime string) (Interval, error) {
	entry, err := CombineDateTime(entryDate, entryTime)
	if err != nil {
		return Interval{}, err
	}
	exit, err := CombineDateTime(exitDate, exitTime)
	if err != nil {
		return Interval{}, err
	}
	return NewInterval(entry, exit)
}

// CombineDateTime parses "YYYY-MM-DD" plus "HH:MM" (seconds tolerated) in
// the server's local zone.
func CombineDateTime(date, clock string) (time.Time, error) {
	if len(clock) > len(timeLayout) {
		clock = clock[:len(timeLayout)]
	}
	t, err := time.ParseInLocation(dateLayout+" "+timeLayout, date+" "+clock, time.Local)
	if err != nil {
		return time.Time{}, ErrBadDateTime
	}
	return t, nil
}

// SplitDateTime renders an instant back into the wire's date and time parts.
func SplitDateTime(t time.Time) (date, clock string) {
	t = t.In(time.Local)
	return t.Format(dateLayout), t.Format(timeLayout)
}

// Overlaps reports whether two half-open intervals intersect.
// It is symmetric: a.Overlaps(b) == b.Overlaps(a).
func (iv Interval) Overlaps(other Interval) bool {
	return iv.Entry.Before(other.Exit) && iv.Exit.After(other.Entry)
}
