package booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/campuspark/parking-reservation/internal/config"
	redisclient "github.com/campuspark/parking-reservation/internal/redis"
	"github.com/campuspark/parking-reservation/internal/slot"
	"github.com/campuspark/parking-reservation/internal/user"
)

var (
	ErrSlotBeingBooked  = errors.New("slot is currently being booked, please retry")
	ErrNotBookingOwner  = errors.New("bookings can only be cancelled by their owner")
	ErrBookingNotActive = errors.New("booking is not active")
	ErrMissingFields    = errors.New("missing required booking fields")
)

// SlotCatalog is the slice of the slot repository the booking service needs.
type SlotCatalog interface {
	List(ctx context.Context) ([]slot.Slot, error)
	GetByName(ctx context.Context, name string) (*slot.Slot, error)
}

// UserDirectory resolves usernames for the admin booking path.
type UserDirectory interface {
	GetByUsername(ctx context.Context, username string) (*user.User, error)
}

type Service struct {
	repo   Repository
	slots  SlotCatalog
	users  UserDirectory
	locker redisclient.Locker
	cfg    config.Config
	now    func() time.Time
}

func NewService(repo Repository, slots SlotCatalog, users UserDirectory, locker redisclient.Locker, cfg config.Config) *Service {
	return &Service{
		repo:   repo,
		slots:  slots,
		users:  users,
		locker: locker,
		cfg:    cfg,
		now:    time.Now,
	}
}

// WithClock swaps the time source, for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Now is the service's reference instant.
func (s *Service) Now() time.Time {
	return s.now()
}

func (s *Service) lookahead() time.Duration {
	if s.cfg.Lookahead > 0 {
		return s.cfg.Lookahead
	}
	return DefaultLookahead
}

// Request carries a booking window in the wire format: separate
// YYYY-MM-DD date and HH:MM time strings.
type Request struct {
	SlotName  string
	EntryDate string
	EntryTime string
	ExitDate  string
	ExitTime  string
}

func (r Request) complete() bool {
	return r.SlotName != "" && r.EntryDate != "" && r.EntryTime != "" &&
		r.ExitDate != "" && r.ExitTime != ""
}

// Book admits a booking for the user, or rejects it.
//
// The per-slot lock serializes the check-then-insert sequence against other
// requests on the same slot; even without it the insert cannot produce
// overlapping active bookings, because the exclusion constraint rejects the
// losing writer with ErrBookingConflict.
func (s *Service) Book(ctx context.Context, userID uuid.UUID, req Request) (*Booking, error) {
	if !req.complete() {
		return nil, ErrMissingFields
	}

	window, err := ParseInterval(req.EntryDate, req.EntryTime, req.ExitDate, req.ExitTime)
	if err != nil {
		return nil, err
	}

	sl, err := s.slots.GetByName(ctx, req.SlotName)
	if err != nil {
		if errors.Is(err, slot.ErrSlotNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load slot: %w", err)
	}

	var created *Booking

	err = s.locker.WithSlotLock(ctx, sl.ID, func(lockCtx context.Context) error {
		active, err := s.repo.ListActiveBySlot(lockCtx, sl.ID)
		if err != nil {
			return fmt.Errorf("list active bookings: %w", err)
		}

		if HasConflict(window, active) {
			return ErrBookingConflict
		}

		b, err := s.repo.Create(lockCtx, Booking{
			SlotID:  sl.ID,
			UserID:  userID,
			EntryAt: window.Entry,
			ExitAt:  window.Exit,
		})
		if err != nil {
			return err
		}

		created = b

		s.logEvent(lockCtx, b.ID, EventBookingCreated, map[string]any{
			"slot_id":  sl.ID.String(),
			"user_id":  userID.String(),
			"entry_at": window.Entry,
			"exit_at":  window.Exit,
		})

		return nil
	})

	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrSlotBeingBooked
		}
		return nil, err
	}

	return created, nil
}

// BookForUsername is the admin path: the occupant is named rather than taken
// from the session.
func (s *Service) BookForUsername(ctx context.Context, username string, req Request) (*Booking, error) {
	if username == "" {
		return nil, ErrMissingFields
	}

	u, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load user: %w", err)
	}

	return s.Book(ctx, u.ID, req)
}

// Cancel marks a booking cancelled. Regular users may only cancel their own
// bookings; admins may cancel any. Cancelling an already cancelled booking
// is a no-op.
func (s *Service) Cancel(ctx context.Context, id, actorID uuid.UUID, isAdmin bool) (*Booking, error) {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !isAdmin && b.UserID != actorID {
		return nil, ErrNotBookingOwner
	}

	switch b.Status {
	case StatusCancelled:
		return b, nil
	case StatusActive:
		// continue
	default:
		return nil, ErrBookingNotActive
	}

	updated, err := s.repo.UpdateStatus(ctx, b.ID, StatusActive, StatusCancelled)
	if err != nil {
		if errors.Is(err, ErrBookingNotFound) {
			// lost a race with the sweep or another cancel
			return nil, ErrBookingNotActive
		}
		return nil, fmt.Errorf("cancel booking: %w", err)
	}

	s.logEvent(ctx, updated.ID, EventBookingCancelled, map[string]any{
		"cancelled_by": actorID.String(),
	})

	return updated, nil
}

// logEvent writes an audit row best-effort; failures are logged, never
// surfaced to the caller.
func (s *Service) logEvent(ctx context.Context, bookingID uuid.UUID, eventType string, payload map[string]any) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("failed to marshal event payload for %s: %v", eventType, err)
		data = nil
	}

	id := bookingID

	ev := EventLog{
		EventType: eventType,
		BookingID: &id,
		Payload:   data,
		CreatedAt: s.now(),
	}

	if err := s.repo.InsertEvent(ctx, ev); err != nil {
		log.Printf("failed to insert event log %s for booking %s: %v", eventType, bookingID, err)
	}
}

// KPIs are the dashboard slot counters.
type KPIs struct {
	Total     int
	Available int
	Occupied  int
	Reserved  int
}

// SlotView is one slot's classified state with its representative booking.
type SlotView struct {
	Slot    slot.Slot
	State   SlotState
	Booking *Detail
}

type Dashboard struct {
	KPIs  KPIs
	Slots []SlotView
}

// DashboardSlots classifies every slot relative to now for the admin
// dashboard.
func (s *Service) DashboardSlots(ctx context.Context) (*Dashboard, error) {
	slots, err := s.slots.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list slots: %w", err)
	}

	details, err := s.repo.ListActiveDetails(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active bookings: %w", err)
	}

	bySlot := groupBySlot(details)
	now := s.now()

	dash := &Dashboard{Slots: make([]SlotView, 0, len(slots))}
	dash.KPIs.Total = len(slots)

	for _, sl := range slots {
		group := bySlot[sl.ID]

		cls := Classify(bookingsOf(group), now, s.lookahead())

		view := SlotView{Slot: sl, State: cls.State}
		if cls.Representative != nil {
			view.Booking = findDetail(group, cls.Representative.ID)
		}
		dash.Slots = append(dash.Slots, view)

		switch cls.State {
		case StateOccupied:
			dash.KPIs.Occupied++
		case StateReserved:
			dash.KPIs.Reserved++
		default:
			dash.KPIs.Available++
		}
	}

	return dash, nil
}

// SlotAvailability is one slot's answer to "free for this window?".
type SlotAvailability struct {
	Slot      slot.Slot
	State     SlotState
	Available bool
}

type AvailabilityReport struct {
	KPIs  KPIs
	Slots []SlotAvailability
}

// CheckAvailability evaluates every slot against a requested window. This is
// a different question from DashboardSlots: the answer ignores now, so slots
// are only ever available or occupied here.
func (s *Service) CheckAvailability(ctx context.Context, entryDate, entryTime, exitDate, exitTime string) (*AvailabilityReport, error) {
	if entryDate == "" || entryTime == "" || exitDate == "" || exitTime == "" {
		return nil, ErrMissingFields
	}

	window, err := ParseInterval(entryDate, entryTime, exitDate, exitTime)
	if err != nil {
		return nil, err
	}

	slots, err := s.slots.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list slots: %w", err)
	}

	details, err := s.repo.ListActiveDetails(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active bookings: %w", err)
	}

	bySlot := groupBySlot(details)

	report := &AvailabilityReport{Slots: make([]SlotAvailability, 0, len(slots))}
	report.KPIs.Total = len(slots)

	for _, sl := range slots {
		state := AvailableForPeriod(window, bookingsOf(bySlot[sl.ID]))

		report.Slots = append(report.Slots, SlotAvailability{
			Slot:      sl,
			State:     state,
			Available: state == StateAvailable,
		})

		if state == StateAvailable {
			report.KPIs.Available++
		} else {
			report.KPIs.Occupied++
		}
	}

	return report, nil
}

// UserStats summarize one user's active bookings relative to now.
type UserStats struct {
	Total    int
	Current  int
	Upcoming int
}

// UserBookings lists a user's recent bookings with stats for their
// dashboard.
func (s *Service) UserBookings(ctx context.Context, userID uuid.UUID, limit int) ([]Detail, UserStats, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	details, err := s.repo.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, UserStats{}, fmt.Errorf("list user bookings: %w", err)
	}

	now := s.now()
	horizon := now.Add(s.lookahead())

	var stats UserStats
	for _, d := range details {
		if d.Status != StatusActive {
			continue
		}
		stats.Total++
		switch {
		case !d.EntryAt.After(horizon) && !now.After(d.ExitAt):
			stats.Current++
		case d.EntryAt.After(horizon):
			stats.Upcoming++
		}
	}

	return details, stats, nil
}

// CompleteElapsed transitions active bookings whose exit has passed to
// completed. Intended to be called periodically by the worker.
func (s *Service) CompleteElapsed(ctx context.Context) (int, error) {
	now := s.now()

	elapsed, err := s.repo.FindElapsedActive(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("find elapsed bookings: %w", err)
	}

	swept := 0
	for _, b := range elapsed {
		_, err := s.repo.UpdateStatus(ctx, b.ID, StatusActive, StatusCompleted)
		if err != nil {
			if errors.Is(err, ErrBookingNotFound) {
				continue // cancelled in the meantime
			}
			log.Printf("failed to complete booking %s: %v", b.ID, err)
			continue
		}
		swept++

		s.logEvent(ctx, b.ID, EventBookingCompleted, map[string]any{
			"exit_at": b.ExitAt,
		})
	}

	return swept, nil
}

func groupBySlot(details []Detail) map[uuid.UUID][]Detail {
	bySlot := make(map[uuid.UUID][]Detail)
	for _, d := range details {
		bySlot[d.SlotID] = append(bySlot[d.SlotID], d)
	}
	return bySlot
}

func bookingsOf(details []Detail) []Booking {
	bookings := make([]Booking, len(details))
	for i, d := range details {
		bookings[i] = d.Booking
	}
	return bookings
}

func findDetail(details []Detail, id uuid.UUID) *Detail {
	for i := range details {
		if details[i].ID == id {
			return &details[i]
		}
	}
	return nil
}
