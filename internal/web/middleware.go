package web

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/moby/locker"

	"github.com/erazemk/onboard/internal/auth"
	"github.com/erazemk/onboard/internal/store"
)

type webContextKey string

const sessionKey webContextKey = "session"

// sessionCookie is the name of the cookie carrying the session token.
const sessionCookie = "onboard_session"

// SessionMiddleware attaches the browser's session to the request context.
// A missing, invalid or expired cookie, or one naming a purged session,
// starts a fresh session.
func (s *Server) SessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := s.currentSession(w, r)
		if !ok {
			sess, err := store.CreateSession(r.Context(), s.DB)
			if err != nil {
				slog.Error("failed to create session", "error", err)
				http.Error(w, "internal error", http.StatusInternalServerError)
				return
			}
			if err := s.setSessionCookie(w, r, sess.ID); err != nil {
				slog.Error("failed to issue session cookie", "error", err)
				http.Error(w, "internal error", http.StatusInternalServerError)
				return
			}
			id = sess.ID
		}

		ctx := context.WithValue(r.Context(), sessionKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// OptionalSession attaches the browser's session when the cookie names a
// live one and never creates a session. Handlers see an empty SessionID
// otherwise.
func (s *Server) OptionalSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id, ok := s.currentSession(w, r); ok {
			r = r.WithContext(context.WithValue(r.Context(), sessionKey, id))
		}
		next.ServeHTTP(w, r)
	})
}

// currentSession returns the session named by the request cookie, renewing
// the cookie when more than half of its lifetime has passed.
func (s *Server) currentSession(w http.ResponseWriter, r *http.Request) (string, bool) {
	cookie, err := r.Cookie(sessionCookie)
	if err != nil || cookie.Value == "" {
		return "", false
	}

	claims, err := auth.ValidateToken(s.Secret, cookie.Value)
	if err != nil {
		return "", false
	}

	sess, err := store.GetSession(r.Context(), s.DB, claims.SessionID())
	if err != nil {
		slog.Error("failed to load session", "error", err)
		return "", false
	}
	if sess == nil {
		return "", false
	}

	if claims.ExpiresAt != nil && time.Until(claims.ExpiresAt.Time) < s.sessionTTL()/2 {
		if err := s.setSessionCookie(w, r, sess.ID); err != nil {
			slog.Error("failed to renew session cookie", "error", err)
		}
		if err := store.TouchSession(r.Context(), s.DB, sess.ID); err != nil {
			slog.Error("failed to touch session", "error", err)
		}
	}
	return sess.ID, true
}

func (s *Server) setSessionCookie(w http.ResponseWriter, r *http.Request, sessionID string) error {
	ttl := s.sessionTTL()
	token, err := auth.GenerateToken(s.Secret, sessionID, ttl)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func (s *Server) sessionTTL() time.Duration {
	if s.SessionTTL <= 0 {
		return auth.DefaultExpiry
	}
	return s.SessionTTL
}

// SessionID retrieves the session ID from the request context.
func SessionID(ctx context.Context) string {
	id, _ := ctx.Value(sessionKey).(string)
	return id
}

// lock serializes requests of one session until the returned func is called.
func (s *Server) lock(id string) (unlock func()) {
	s.locks.Lock(id)
	return func() {
		if err := s.locks.Unlock(id); err != nil {
			slog.Error("failed to release session lock", "session", id, "error", err)
		}
	}
}
