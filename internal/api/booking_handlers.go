package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/campuspark/parking-reservation/internal/booking"
	"github.com/campuspark/parking-reservation/internal/slot"
	"github.com/campuspark/parking-reservation/internal/user"
)

type bookingHandlers struct {
	bookings *booking.Service
}

// createBooking is the user self-service admission path; the occupant comes
// from the session.
func (h *bookingHandlers) createBooking(w http.ResponseWriter, r *http.Request) {
	sess := SessionFromContext(r.Context())

	var req CreateBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "could not parse JSON")
		return
	}

	b, err := h.bookings.Book(r.Context(), sess.UserID, booking.Request{
		SlotName:  req.SlotName,
		EntryDate: req.EntryDate,
		EntryTime: req.EntryTime,
		ExitDate:  req.ExitDate,
		ExitTime:  req.ExitTime,
	})
	if err != nil {
		handleBookingError(w, err)
		return
	}

	entryDate, entryTime := booking.SplitDateTime(b.EntryAt)
	exitDate, exitTime := booking.SplitDateTime(b.ExitAt)

	writeJSON(w, http.StatusCreated, BookingResponse{
		Status:    "ok",
		BookingID: b.ID,
		SlotName:  req.SlotName,
		EntryDate: entryDate,
		EntryTime: entryTime,
		ExitDate:  exitDate,
		ExitTime:  exitTime,
	})
}

// cancelBooking cancels the caller's own booking.
func (h *bookingHandlers) cancelBooking(w http.ResponseWriter, r *http.Request) {
	sess := SessionFromContext(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "id must be a valid UUID")
		return
	}

	_, err = h.bookings.Cancel(r.Context(), id, sess.UserID, sess.Role == user.RoleAdmin)
	if err != nil {
		switch {
		case errors.Is(err, booking.ErrBookingNotFound):
			writeError(w, http.StatusNotFound, "Booking not found")
		case errors.Is(err, booking.ErrNotBookingOwner):
			writeError(w, http.StatusForbidden, "You can only cancel your own bookings")
		case errors.Is(err, booking.ErrBookingNotActive):
			writeError(w, http.StatusConflict, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	writeJSON(w, http.StatusOK, StatusResponse{Status: "ok", Message: "Booking cancelled successfully"})
}

// myBookings serves the user's dashboard data.
func (h *bookingHandlers) myBookings(w http.ResponseWriter, r *http.Request) {
	sess := SessionFromContext(r.Context())

	details, stats, err := h.bookings.UserBookings(r.Context(), sess.UserID, 20)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := UserBookingsResponse{
		Bookings: make([]UserBookingItem, 0, len(details)),
		Stats: UserStatsPayload{
			Total:    stats.Total,
			Current:  stats.Current,
			Upcoming: stats.Upcoming,
		},
	}

	for _, d := range details {
		entryDate, entryTime := booking.SplitDateTime(d.EntryAt)
		exitDate, exitTime := booking.SplitDateTime(d.ExitAt)
		bookedDate, bookedTime := booking.SplitDateTime(d.BookedAt)

		resp.Bookings = append(resp.Bookings, UserBookingItem{
			BookingID: d.ID,
			SlotName:  d.SlotName,
			Location:  d.Location,
			EntryDate: entryDate,
			EntryTime: entryTime,
			ExitDate:  exitDate,
			ExitTime:  exitTime,
			Status:    string(booking.DisplayStatus(d.Status, d.ExitAt, h.bookings.Now())),
			BookedAt:  bookedDate + " " + bookedTime,
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

// checkAvailability answers "is each slot free for this requested window".
func (h *bookingHandlers) checkAvailability(w http.ResponseWriter, r *http.Request) {
	var req CheckAvailabilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "could not parse JSON")
		return
	}

	report, err := h.bookings.CheckAvailability(r.Context(), req.EntryDate, req.EntryTime, req.ExitDate, req.ExitTime)
	if err != nil {
		handleBookingError(w, err)
		return
	}

	resp := CheckAvailabilityResponse{
		Slots: make([]AvailabilitySlot, 0, len(report.Slots)),
		KPIs: KPIsPayload{
			Total:     report.KPIs.Total,
			Available: report.KPIs.Available,
			Occupied:  report.KPIs.Occupied,
			Reserved:  report.KPIs.Reserved,
		},
	}

	for _, s := range report.Slots {
		resp.Slots = append(resp.Slots, AvailabilitySlot{
			SlotID:      s.Slot.ID,
			SlotName:    s.Slot.Name,
			IsAvailable: s.Available,
			State:       string(s.State),
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

func handleBookingError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, booking.ErrMissingFields),
		errors.Is(err, booking.ErrBadDateTime),
		errors.Is(err, booking.ErrInvalidInterval):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, slot.ErrSlotNotFound):
		writeError(w, http.StatusNotFound, "Selected slot does not exist. Please choose another.")
	case errors.Is(err, user.ErrUserNotFound):
		writeError(w, http.StatusNotFound, "Username not found.")
	case errors.Is(err, booking.ErrBookingConflict):
		writeError(w, http.StatusConflict, "This slot is already booked for the selected time period. Please choose a different time or slot.")
	case errors.Is(err, booking.ErrSlotBeingBooked):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
