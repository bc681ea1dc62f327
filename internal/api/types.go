package api

import (
	"github.com/google/uuid"

	"github.com/campuspark/parking-reservation/internal/booking"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

type StatusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// Auth

type SignUpRequest struct {
	Username string `json:"username"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Password string `json:"password,omitempty"`
}

type SignUpResponse struct {
	Status            string `json:"status"`
	Message           string `json:"message"`
	GeneratedPassword string `json:"generated_password,omitempty"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Remember bool   `json:"remember,omitempty"`
}

type LoginResponse struct {
	Status   string `json:"status"`
	Username string `json:"username"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

type ResetPasswordRequest struct {
	Username        string `json:"username"`
	OldPassword     string `json:"old_password"`
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}

type CreateAdminRequest struct {
	Username        string `json:"admin_username"`
	FullName        string `json:"full_name"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

// Bookings

type CreateBookingRequest struct {
	Username  string `json:"username,omitempty"` // admin path only
	SlotName  string `json:"slot_name"`
	EntryDate string `json:"entry_date"`
	EntryTime string `json:"entry_time"`
	ExitDate  string `json:"exit_date"`
	ExitTime  string `json:"exit_time"`
}

type BookingResponse struct {
	Status    string    `json:"status"`
	BookingID uuid.UUID `json:"booking_id"`
	SlotName  string    `json:"slot_name"`
	EntryDate string    `json:"entry_date"`
	EntryTime string    `json:"entry_time"`
	ExitDate  string    `json:"exit_date"`
	ExitTime  string    `json:"exit_time"`
	Location  string    `json:"location,omitempty"`
}

type UserBookingItem struct {
	BookingID uuid.UUID `json:"booking_id"`
	SlotName  string    `json:"slot_name"`
	Location  string    `json:"location"`
	EntryDate string    `json:"entry_date"`
	EntryTime string    `json:"entry_time"`
	ExitDate  string    `json:"exit_date"`
	ExitTime  string    `json:"exit_time"`
	Status    string    `json:"status"`
	BookedAt  string    `json:"booked_at"`
}

type UserStatsPayload struct {
	Total    int `json:"total"`
	Current  int `json:"current"`
	Upcoming int `json:"upcoming"`
}

type UserBookingsResponse struct {
	Bookings []UserBookingItem `json:"bookings"`
	Stats    UserStatsPayload  `json:"stats"`
}

// Availability

type CheckAvailabilityRequest struct {
	EntryDate string `json:"entry_date"`
	EntryTime string `json:"entry_time"`
	ExitDate  string `json:"exit_date"`
	ExitTime  string `json:"exit_time"`
}

type AvailabilitySlot struct {
	SlotID      uuid.UUID `json:"slot_id"`
	SlotName    string    `json:"slot_name"`
	IsAvailable bool      `json:"is_available"`
	State       string    `json:"state"`
}

type KPIsPayload struct {
	Total     int `json:"total"`
	Available int `json:"available"`
	Occupied  int `json:"occupied"`
	Reserved  int `json:"reserved"`
}

type CheckAvailabilityResponse struct {
	Slots []AvailabilitySlot `json:"slots"`
	KPIs  KPIsPayload        `json:"kpis"`
}

// Dashboard

type DashboardSlot struct {
	SlotName     string     `json:"slot_name"`
	SlotID       uuid.UUID  `json:"slot_id"`
	Occupied     bool       `json:"occupied"`
	State        string     `json:"state"`
	Username     string     `json:"username"`
	OccupantName *string    `json:"occupant_name"`
	EntryDate    *string    `json:"entry_date"`
	EntryTime    *string    `json:"entry_time"`
	ExitDate     *string    `json:"exit_date"`
	ExitTime     *string    `json:"exit_time"`
	Status       *string    `json:"status"`
	BookingID    *uuid.UUID `json:"booking_id"`
	IsAvailable  bool       `json:"is_available"`
}

type DashboardSlotsResponse struct {
	KPIs  KPIsPayload     `json:"kpis"`
	Slots []DashboardSlot `json:"slots"`
}

type DashboardUser struct {
	UserID    uuid.UUID `json:"user_id"`
	Username  string    `json:"username"`
	FullName  string    `json:"full_name"`
	Role      string    `json:"role"`
	CreatedAt string    `json:"created_at"`
}

type DashboardUsersResponse struct {
	Users []DashboardUser `json:"users"`
}

func newDashboardSlot(view booking.SlotView) DashboardSlot {
	s := DashboardSlot{
		SlotName:    view.Slot.Name,
		SlotID:      view.Slot.ID,
		Occupied:    view.State == booking.StateOccupied,
		State:       string(view.State),
		IsAvailable: view.State == booking.StateAvailable,
	}

	if d := view.Booking; d != nil {
		entryDate, entryTime := booking.SplitDateTime(d.EntryAt)
		exitDate, exitTime := booking.SplitDateTime(d.ExitAt)
		status := string(d.Status)
		id := d.ID

		s.Username = d.Username
		s.OccupantName = &d.OccupantName
		s.EntryDate = &entryDate
		s.EntryTime = &entryTime
		s.ExitDate = &exitDate
		s.ExitTime = &exitTime
		s.Status = &status
		s.BookingID = &id
	}

	return s
}
