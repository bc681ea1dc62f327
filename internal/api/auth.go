package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/campuspark/parking-reservation/internal/session"
	"github.com/campuspark/parking-reservation/internal/user"
)

const sessionCookie = "parking_session"

const sessionKey contextKey = "session"

// SessionResolver is what the auth middleware needs from the session store.
type SessionResolver interface {
	Get(ctx context.Context, token string) (*session.Session, error)
}

type authMiddleware struct {
	sessions SessionResolver
}

func newAuthMiddleware(sessions SessionResolver) *authMiddleware {
	return &authMiddleware{sessions: sessions}
}

func sessionToken(r *http.Request) string {
	if c, err := r.Cookie(sessionCookie); err == nil && c.Value != "" {
		return c.Value
	}
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return ""
}

// RequireUser rejects the request with 401 before any store access when no
// valid session is attached.
func (m *authMiddleware) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, ok := m.resolve(w, r)
		if !ok {
			return
		}
		next.ServeHTTP(w, r.WithContext(withSession(r.Context(), sess)))
	})
}

// RequireAdmin additionally rejects sessions without the admin role.
func (m *authMiddleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, ok := m.resolve(w, r)
		if !ok {
			return
		}
		if sess.Role != user.RoleAdmin {
			writeError(w, http.StatusUnauthorized, "Unauthorized - Admin access required")
			return
		}
		next.ServeHTTP(w, r.WithContext(withSession(r.Context(), sess)))
	})
}

func (m *authMiddleware) resolve(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	token := sessionToken(r)
	if token == "" {
		writeError(w, http.StatusUnauthorized, "Unauthorized - Please login")
		return nil, false
	}

	sess, err := m.sessions.Get(r.Context(), token)
	if err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			writeError(w, http.StatusUnauthorized, "Unauthorized - Please login")
			return nil, false
		}
		writeError(w, http.StatusInternalServerError, "session lookup failed")
		return nil, false
	}

	return sess, true
}

func withSession(ctx context.Context, sess *session.Session) context.Context {
	return context.WithValue(ctx, sessionKey, sess)
}

// SessionFromContext returns the authenticated session, or nil outside the
// auth middleware.
func SessionFromContext(ctx context.Context) *session.Session {
	if sess, ok := ctx.Value(sessionKey).(*session.Session); ok {
		return sess
	}
	return nil
}
