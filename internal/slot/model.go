package slot

import (
	"time"

	"github.com/google/uuid"
)

// Slot is a named, location-tagged reservable parking space.
// Occupancy is never stored here; it is derived from the booking set
// at query time (see internal/booking).
type Slot struct {
	ID        uuid.UUID
	Name      string
	Location  string
	CreatedAt time.Time
}
