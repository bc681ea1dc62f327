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

type dashboardHandlers struct {
	bookings *booking.Service
	users    *user.Service
	slots    slot.Repository
}

// slots returns every slot classified relative to now plus the KPI counters.
func (h *dashboardHandlers) slotOverview(w http.ResponseWriter, r *http.Request) {
	dash, err := h.bookings.DashboardSlots(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := DashboardSlotsResponse{
		KPIs: KPIsPayload{
			Total:     dash.KPIs.Total,
			Available: dash.KPIs.Available,
			Occupied:  dash.KPIs.Occupied,
			Reserved:  dash.KPIs.Reserved,
		},
		Slots: make([]DashboardSlot, 0, len(dash.Slots)),
	}

	for _, view := range dash.Slots {
		resp.Slots = append(resp.Slots, newDashboardSlot(view))
	}

	writeJSON(w, http.StatusOK, resp)
}

// addBooking creates a booking on behalf of a named user. Per the endpoint's
// contract, validation and conflict failures are both 400s with a message.
func (h *dashboardHandlers) addBooking(w http.ResponseWriter, r *http.Request) {
	var req CreateBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "could not parse JSON")
		return
	}

	_, err := h.bookings.BookForUsername(r.Context(), req.Username, booking.Request{
		SlotName:  req.SlotName,
		EntryDate: req.EntryDate,
		EntryTime: req.EntryTime,
		ExitDate:  req.ExitDate,
		ExitTime:  req.ExitTime,
	})
	if err != nil {
		switch {
		case errors.Is(err, booking.ErrMissingFields),
			errors.Is(err, booking.ErrBadDateTime),
			errors.Is(err, booking.ErrInvalidInterval):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, user.ErrUserNotFound):
			writeError(w, http.StatusBadRequest, "Username not found.")
		case errors.Is(err, slot.ErrSlotNotFound):
			writeError(w, http.StatusBadRequest, "Slot does not exist.")
		case errors.Is(err, booking.ErrBookingConflict):
			writeError(w, http.StatusBadRequest, "Booking conflicts with an existing reservation.")
		case errors.Is(err, booking.ErrSlotBeingBooked):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	writeJSON(w, http.StatusOK, StatusResponse{Status: "ok", Message: "Booking created successfully"})
}

// cancelBooking handles both DELETE /bookings/{id} and POST
// /bookings/{id}/cancel; the booking is marked cancelled, never deleted.
func (h *dashboardHandlers) cancelBooking(w http.ResponseWriter, r *http.Request) {
	sess := SessionFromContext(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "id must be a valid UUID")
		return
	}

	_, err = h.bookings.Cancel(r.Context(), id, sess.UserID, true)
	if err != nil {
		switch {
		case errors.Is(err, booking.ErrBookingNotFound):
			writeError(w, http.StatusNotFound, "Booking not found")
		case errors.Is(err, booking.ErrBookingNotActive):
			writeError(w, http.StatusConflict, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	writeJSON(w, http.StatusOK, StatusResponse{Status: "ok", Message: "Booking cancelled successfully"})
}

func (h *dashboardHandlers) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.ListUsers(r.Context(), 50)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := DashboardUsersResponse{Users: make([]DashboardUser, 0, len(users))}
	for _, u := range users {
		resp.Users = append(resp.Users, DashboardUser{
			UserID:    u.ID,
			Username:  u.Username,
			FullName:  u.FullName,
			Role:      string(u.Role),
			CreatedAt: u.CreatedAt.Format("2006-01-02 15:04"),
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *dashboardHandlers) deleteUser(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	if err := h.users.DeleteUser(r.Context(), username); err != nil {
		handleUserError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, StatusResponse{Status: "ok", Message: "User deleted successfully"})
}

func (h *dashboardHandlers) createAdmin(w http.ResponseWriter, r *http.Request) {
	var req CreateAdminRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "could not parse JSON")
		return
	}

	_, err := h.users.CreateAdmin(r.Context(), req.Username, req.FullName, req.Password, req.ConfirmPassword)
	if err != nil {
		handleUserError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, StatusResponse{Status: "ok", Message: "Admin account created successfully!"})
}

// renameSlots migrates legacy slot names (A1, P1) to the P01 form.
func (h *dashboardHandlers) renameSlots(w http.ResponseWriter, r *http.Request) {
	renamed, err := slot.NormalizeLegacyNames(r.Context(), h.slots)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"renamed": renamed,
	})
}
