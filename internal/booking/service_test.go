package booking

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campuspark/parking-reservation/internal/config"
	"github.com/campuspark/parking-reservation/internal/slot"
	"github.com/campuspark/parking-reservation/internal/user"
)

// fakeRepo is an in-memory Repository. Create enforces the same atomic
// no-overlap guarantee the Postgres exclusion constraint provides, so the
// service's storage-is-authoritative behavior can be tested without a
// database.
type fakeRepo struct {
	mu     sync.Mutex
	rows   map[uuid.UUID]*Booking
	order  []uuid.UUID
	events []EventLog

	slotNames map[uuid.UUID]string
	userNames map[uuid.UUID]string
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		rows:      make(map[uuid.UUID]*Booking),
		slotNames: make(map[uuid.UUID]string),
		userNames: make(map[uuid.UUID]string),
	}
}

func (r *fakeRepo) GetByID(_ context.Context, id uuid.UUID) (*Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.rows[id]
	if !ok {
		return nil, ErrBookingNotFound
	}
	cp := *b
	return &cp, nil
}

func (r *fakeRepo) ListActiveBySlot(_ context.Context, slotID uuid.UUID) ([]Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.activeBySlotLocked(slotID), nil
}

func (r *fakeRepo) activeBySlotLocked(slotID uuid.UUID) []Booking {
	var out []Booking
	for _, id := range r.order {
		b := r.rows[id]
		if b.SlotID == slotID && b.Status == StatusActive {
			out = append(out, *b)
		}
	}
	return out
}

func (r *fakeRepo) ListActiveDetails(_ context.Context) ([]Detail, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Detail
	for _, id := range r.order {
		b := r.rows[id]
		if b.Status != StatusActive {
			continue
		}
		out = append(out, r.detailLocked(b))
	}
	return out, nil
}

func (r *fakeRepo) ListByUser(_ context.Context, userID uuid.UUID, limit int) ([]Detail, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Detail
	for i := len(r.order) - 1; i >= 0 && len(out) < limit; i-- {
		b := r.rows[r.order[i]]
		if b.UserID == userID {
			out = append(out, r.detailLocked(b))
		}
	}
	return out, nil
}

func (r *fakeRepo) detailLocked(b *Booking) Detail {
	return Detail{
		Booking:      *b,
		SlotName:     r.slotNames[b.SlotID],
		Username:     r.userNames[b.UserID],
		OccupantName: r.userNames[b.UserID],
	}
}

func (r *fakeRepo) Create(_ context.Context, b Booking) (*Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	window := Interval{Entry: b.EntryAt, Exit: b.ExitAt}
	for _, existing := range r.activeBySlotLocked(b.SlotID) {
		if window.Overlaps(existing.Window()) {
			return nil, ErrBookingConflict
		}
	}

	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	b.Status = StatusActive
	b.BookedAt = time.Now()

	r.rows[b.ID] = &b
	r.order = append(r.order, b.ID)

	cp := b
	return &cp, nil
}

func (r *fakeRepo) UpdateStatus(_ context.Context, id uuid.UUID, from, to Status) (*Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.rows[id]
	if !ok || b.Status != from {
		return nil, ErrBookingNotFound
	}
	b.Status = to
	cp := *b
	return &cp, nil
}

func (r *fakeRepo) FindElapsedActive(_ context.Context, now time.Time) ([]Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Booking
	for _, id := range r.order {
		b := r.rows[id]
		if b.Status == StatusActive && b.ExitAt.Before(now) {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (r *fakeRepo) InsertEvent(_ context.Context, ev EventLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ev.ID = int64(len(r.events) + 1)
	r.events = append(r.events, ev)
	return nil
}

func (r *fakeRepo) eventTypes() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	types := make([]string, len(r.events))
	for i, ev := range r.events {
		types[i] = ev.EventType
	}
	return types
}

type fakeCatalog struct {
	slots []slot.Slot
}

func (c *fakeCatalog) List(_ context.Context) ([]slot.Slot, error) {
	return c.slots, nil
}

func (c *fakeCatalog) GetByName(_ context.Context, name string) (*slot.Slot, error) {
	for i := range c.slots {
		if c.slots[i].Name == name {
			return &c.slots[i], nil
		}
	}
	return nil, slot.ErrSlotNotFound
}

type fakeDirectory struct {
	users map[string]*user.User
}

func (d *fakeDirectory) GetByUsername(_ context.Context, username string) (*user.User, error) {
	u, ok := d.users[username]
	if !ok {
		return nil, user.ErrUserNotFound
	}
	return u, nil
}

// nopLocker deliberately provides no serialization, so tests exercise the
// repository's atomic guarantee the way a lost redis lock would.
type nopLocker struct{}

func (nopLocker) WithSlotLock(ctx context.Context, _ uuid.UUID, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fixture struct {
	svc     *Service
	repo    *fakeRepo
	catalog *fakeCatalog
	userID  uuid.UUID
	otherID uuid.UUID
	slotID  uuid.UUID
}

func newFixture(t *testing.T, now time.Time) *fixture {
	t.Helper()

	repo := newFakeRepo()

	slotID := uuid.New()
	catalog := &fakeCatalog{slots: []slot.Slot{
		{ID: slotID, Name: "P01", Location: "CCIS Building - Front Row, Left Side"},
		{ID: uuid.New(), Name: "P02", Location: "CCIS Building - Front Row, Left Center"},
	}}
	for _, s := range catalog.slots {
		repo.slotNames[s.ID] = s.Name
	}

	userID := uuid.New()
	otherID := uuid.New()
	dir := &fakeDirectory{users: map[string]*user.User{
		"2024-0001": {ID: userID, Username: "2024-0001", FullName: "Test Student"},
	}}
	repo.userNames[userID] = "2024-0001"
	repo.userNames[otherID] = "2024-0002"

	svc := NewService(repo, catalog, dir, nopLocker{}, config.Config{Lookahead: 15 * time.Minute}).
		WithClock(func() time.Time { return now })

	return &fixture{svc: svc, repo: repo, catalog: catalog, userID: userID, otherID: otherID, slotID: slotID}
}

func req(entryTime, exitTime string) Request {
	return Request{
		SlotName:  "P01",
		EntryDate: "2024-12-01",
		EntryTime: entryTime,
		ExitDate:  "2024-12-01",
		ExitTime:  exitTime,
	}
}

func TestBookRejectsOverlapAdmitsAdjacent(t *testing.T) {
	fx := newFixture(t, at(t, "2024-11-30 12:00"))
	ctx := context.Background()

	_, err := fx.svc.Book(ctx, fx.userID, req("08:00", "10:00"))
	require.NoError(t, err)

	_, err = fx.svc.Book(ctx, fx.otherID, req("09:00", "11:00"))
	assert.ErrorIs(t, err, ErrBookingConflict)

	_, err = fx.svc.Book(ctx, fx.otherID, req("10:00", "11:00"))
	assert.NoError(t, err, "back-to-back booking must be admitted")
}

func TestBookValidation(t *testing.T) {
	fx := newFixture(t, at(t, "2024-11-30 12:00"))
	ctx := context.Background()

	_, err := fx.svc.Book(ctx, fx.userID, Request{SlotName: "P01"})
	assert.ErrorIs(t, err, ErrMissingFields)

	bad := req("10:00", "08:00")
	_, err = fx.svc.Book(ctx, fx.userID, bad)
	assert.ErrorIs(t, err, ErrInvalidInterval)

	unknown := req("08:00", "10:00")
	unknown.SlotName = "Z99"
	_, err = fx.svc.Book(ctx, fx.userID, unknown)
	assert.ErrorIs(t, err, slot.ErrSlotNotFound)
}

func TestBookForUsername(t *testing.T) {
	fx := newFixture(t, at(t, "2024-11-30 12:00"))
	ctx := context.Background()

	b, err := fx.svc.BookForUsername(ctx, "2024-0001", req("08:00", "10:00"))
	require.NoError(t, err)
	assert.Equal(t, fx.userID, b.UserID)

	_, err = fx.svc.BookForUsername(ctx, "nobody", req("10:00", "12:00"))
	assert.ErrorIs(t, err, user.ErrUserNotFound)
}

func TestCancelThenRebook(t *testing.T) {
	fx := newFixture(t, at(t, "2024-11-30 12:00"))
	ctx := context.Background()

	b, err := fx.svc.Book(ctx, fx.userID, req("08:00", "10:00"))
	require.NoError(t, err)

	// someone else cannot cancel it
	_, err = fx.svc.Cancel(ctx, b.ID, fx.otherID, false)
	assert.ErrorIs(t, err, ErrNotBookingOwner)

	cancelled, err := fx.svc.Cancel(ctx, b.ID, fx.userID, false)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, cancelled.Status)

	// cancelling again is a no-op
	_, err = fx.svc.Cancel(ctx, b.ID, fx.userID, false)
	assert.NoError(t, err)

	// the former window is free again
	_, err = fx.svc.Book(ctx, fx.otherID, req("08:00", "10:00"))
	assert.NoError(t, err)
}

func TestCancelMissingBooking(t *testing.T) {
	fx := newFixture(t, at(t, "2024-11-30 12:00"))

	_, err := fx.svc.Cancel(context.Background(), uuid.New(), fx.userID, true)
	assert.ErrorIs(t, err, ErrBookingNotFound)
}

func TestConcurrentAdmissionExactlyOneWins(t *testing.T) {
	fx := newFixture(t, at(t, "2024-11-30 12:00"))
	ctx := context.Background()

	// With no lock serialization both requests pass the advisory check
	// concurrently; the repository's atomic constraint must admit only one.
	start := make(chan struct{})
	errs := make(chan error, 2)

	for i := 0; i < 2; i++ {
		actor := fx.userID
		if i == 1 {
			actor = fx.otherID
		}
		go func(actor uuid.UUID) {
			<-start
			_, err := fx.svc.Book(ctx, actor, req("08:00", "10:00"))
			errs <- err
		}(actor)
	}

	close(start)

	var admitted, conflicted int
	for i := 0; i < 2; i++ {
		err := <-errs
		switch {
		case err == nil:
			admitted++
		case assert.ErrorIs(t, err, ErrBookingConflict):
			conflicted++
		}
	}

	assert.Equal(t, 1, admitted)
	assert.Equal(t, 1, conflicted)

	active, err := fx.repo.ListActiveBySlot(ctx, fx.slotID)
	require.NoError(t, err)
	assert.Len(t, active, 1)
}

func TestBookingLifecycleEvents(t *testing.T) {
	fx := newFixture(t, at(t, "2024-11-30 12:00"))
	ctx := context.Background()

	b, err := fx.svc.Book(ctx, fx.userID, req("08:00", "10:00"))
	require.NoError(t, err)

	// a rejected admission must not produce an audit row
	_, err = fx.svc.Book(ctx, fx.otherID, req("09:00", "11:00"))
	require.ErrorIs(t, err, ErrBookingConflict)

	_, err = fx.svc.Cancel(ctx, b.ID, fx.userID, false)
	require.NoError(t, err)

	replacement, err := fx.svc.Book(ctx, fx.otherID, req("08:00", "10:00"))
	require.NoError(t, err)

	fx.svc.WithClock(func() time.Time { return at(t, "2024-12-01 11:00") })
	swept, err := fx.svc.CompleteElapsed(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, swept)

	assert.Equal(t, []string{
		EventBookingCreated,
		EventBookingCancelled,
		EventBookingCreated,
		EventBookingCompleted,
	}, fx.repo.eventTypes())

	last := fx.repo.events[len(fx.repo.events)-1]
	require.NotNil(t, last.BookingID)
	assert.Equal(t, replacement.ID, *last.BookingID)
	assert.NotEmpty(t, last.Payload)
}

func TestDashboardSlots(t *testing.T) {
	now := at(t, "2024-12-01 08:00")
	fx := newFixture(t, now)
	ctx := context.Background()

	// P01 occupied right now, P02 reserved for later
	_, err := fx.svc.Book(ctx, fx.userID, req("07:00", "09:00"))
	require.NoError(t, err)

	later := req("12:00", "13:00")
	later.SlotName = "P02"
	_, err = fx.svc.Book(ctx, fx.userID, later)
	require.NoError(t, err)

	dash, err := fx.svc.DashboardSlots(ctx)
	require.NoError(t, err)

	assert.Equal(t, KPIs{Total: 2, Available: 0, Occupied: 1, Reserved: 1}, dash.KPIs)

	require.Len(t, dash.Slots, 2)
	assert.Equal(t, StateOccupied, dash.Slots[0].State)
	require.NotNil(t, dash.Slots[0].Booking)
	assert.Equal(t, "2024-0001", dash.Slots[0].Booking.Username)

	assert.Equal(t, StateReserved, dash.Slots[1].State)
	require.NotNil(t, dash.Slots[1].Booking)
}

func TestCheckAvailability(t *testing.T) {
	fx := newFixture(t, at(t, "2024-11-30 12:00"))
	ctx := context.Background()

	_, err := fx.svc.Book(ctx, fx.userID, req("08:00", "10:00"))
	require.NoError(t, err)

	report, err := fx.svc.CheckAvailability(ctx, "2024-12-01", "09:00", "2024-12-01", "11:00")
	require.NoError(t, err)

	assert.Equal(t, KPIs{Total: 2, Available: 1, Occupied: 1}, report.KPIs)
	assert.Equal(t, StateOccupied, report.Slots[0].State)
	assert.False(t, report.Slots[0].Available)
	assert.Equal(t, StateAvailable, report.Slots[1].State)
	assert.True(t, report.Slots[1].Available)

	// same slot, non-overlapping window: available again
	report, err = fx.svc.CheckAvailability(ctx, "2024-12-01", "10:00", "2024-12-01", "12:00")
	require.NoError(t, err)
	assert.Equal(t, 2, report.KPIs.Available)

	_, err = fx.svc.CheckAvailability(ctx, "2024-12-01", "", "2024-12-01", "12:00")
	assert.ErrorIs(t, err, ErrMissingFields)
}

func TestUserBookingsStats(t *testing.T) {
	now := at(t, "2024-12-01 08:00")
	fx := newFixture(t, now)
	ctx := context.Background()

	_, err := fx.svc.Book(ctx, fx.userID, req("07:30", "09:00")) // current
	require.NoError(t, err)

	upcoming := req("12:00", "13:00")
	upcoming.SlotName = "P02"
	_, err = fx.svc.Book(ctx, fx.userID, upcoming)
	require.NoError(t, err)

	details, stats, err := fx.svc.UserBookings(ctx, fx.userID, 20)
	require.NoError(t, err)

	assert.Len(t, details, 2)
	assert.Equal(t, UserStats{Total: 2, Current: 1, Upcoming: 1}, stats)
}

func TestCompleteElapsed(t *testing.T) {
	fx := newFixture(t, at(t, "2024-11-30 12:00"))
	ctx := context.Background()

	b, err := fx.svc.Book(ctx, fx.userID, req("08:00", "10:00"))
	require.NoError(t, err)

	keep := req("08:00", "10:00")
	keep.EntryDate = "2024-12-02"
	keep.ExitDate = "2024-12-02"
	still, err := fx.svc.Book(ctx, fx.userID, keep)
	require.NoError(t, err)

	// move the clock past the first booking's exit
	fx.svc.WithClock(func() time.Time { return at(t, "2024-12-01 11:00") })

	swept, err := fx.svc.CompleteElapsed(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, swept)

	got, err := fx.repo.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, got.Status)

	unchanged, err := fx.repo.GetByID(ctx, still.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusActive, unchanged.Status)
}
