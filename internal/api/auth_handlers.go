package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/campuspark/parking-reservation/internal/config"
	"github.com/campuspark/parking-reservation/internal/session"
	"github.com/campuspark/parking-reservation/internal/user"
)

type authHandlers struct {
	users    *user.Service
	sessions *session.Store
	cfg      config.Config
}

func (h *authHandlers) signup(w http.ResponseWriter, r *http.Request) {
	var req SignUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "could not parse JSON")
		return
	}

	_, generated, err := h.users.SignUp(r.Context(), user.SignUpRequest{
		Username: req.Username,
		FullName: req.FullName,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		handleUserError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, SignUpResponse{
		Status:            "ok",
		Message:           "Account created successfully!",
		GeneratedPassword: generated,
	})
}

func (h *authHandlers) login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "could not parse JSON")
		return
	}

	u, err := h.users.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, user.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "Invalid username or password!")
			return
		}
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}

	token, err := h.sessions.Create(r.Context(), session.Session{
		UserID:   u.ID,
		Username: u.Username,
		FullName: u.FullName,
		Role:     u.Role,
	}, req.Remember)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not create session")
		return
	}

	cookie := &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	if req.Remember {
		cookie.MaxAge = int(h.cfg.RememberTTL.Seconds())
	}
	http.SetCookie(w, cookie)

	writeJSON(w, http.StatusOK, LoginResponse{
		Status:   "ok",
		Username: u.Username,
		FullName: u.FullName,
		Role:     string(u.Role),
	})
}

func (h *authHandlers) logout(w http.ResponseWriter, r *http.Request) {
	if token := sessionToken(r); token != "" {
		if err := h.sessions.Destroy(r.Context(), token); err != nil {
			log.Printf("destroy session: %v", err)
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})

	writeJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
}

func (h *authHandlers) changePassword(w http.ResponseWriter, r *http.Request) {
	sess := SessionFromContext(r.Context())

	var req ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "could not parse JSON")
		return
	}
	if req.CurrentPassword == "" || req.NewPassword == "" {
		writeError(w, http.StatusBadRequest, "Missing required fields")
		return
	}

	err := h.users.ChangePassword(r.Context(), sess.UserID, req.CurrentPassword, req.NewPassword)
	if err != nil {
		if errors.Is(err, user.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "Current password is incorrect")
			return
		}
		handleUserError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, StatusResponse{Status: "ok", Message: "Password changed successfully"})
}

func (h *authHandlers) resetPassword(w http.ResponseWriter, r *http.Request) {
	var req ResetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "could not parse JSON")
		return
	}

	err := h.users.ResetPassword(r.Context(), req.Username, req.OldPassword, req.NewPassword, req.ConfirmPassword)
	if err != nil {
		if errors.Is(err, user.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "Invalid username or old password!")
			return
		}
		handleUserError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, StatusResponse{Status: "ok", Message: "Password reset successfully! You can now login with your new password."})
}

func handleUserError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, user.ErrFullNameRequired),
		errors.Is(err, user.ErrUsernameRequired),
		errors.Is(err, user.ErrEmailRequired),
		errors.Is(err, user.ErrPasswordTooShort),
		errors.Is(err, user.ErrPasswordMismatch),
		errors.Is(err, user.ErrUsernameTaken),
		errors.Is(err, user.ErrEmailTaken):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, user.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, user.ErrUserNotFound):
		writeError(w, http.StatusNotFound, "User not found")
	case errors.Is(err, user.ErrCannotDeleteAdmin):
		writeError(w, http.StatusForbidden, "Cannot delete admin users")
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
