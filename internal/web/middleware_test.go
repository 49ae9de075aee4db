package web

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/erazemk/onboard/internal/auth"
	"github.com/erazemk/onboard/internal/db"
	"github.com/erazemk/onboard/internal/store"
)

func TestSessionMiddlewareRenewsCookie(t *testing.T) {
	database := db.NewTestDB(t)
	s := &Server{DB: database, Secret: testSecret, SessionTTL: 24 * time.Hour}

	sess, err := store.CreateSession(context.Background(), database)
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	var seen string
	handler := s.SessionMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = SessionID(r.Context())
	}))

	tests := []struct {
		name      string
		expiry    time.Duration
		wantRenew bool
	}{
		{"fresh token", 23 * time.Hour, false},
		{"old token", time.Hour, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := auth.GenerateToken(testSecret, sess.ID, tt.expiry)
			if err != nil {
				t.Fatalf("GenerateToken: %v", err)
			}
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.AddCookie(&http.Cookie{Name: sessionCookie, Value: token})
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			if seen != sess.ID {
				t.Errorf("expected session %s, got %s", sess.ID, seen)
			}
			renewed := len(rec.Result().Cookies()) > 0
			if renewed != tt.wantRenew {
				t.Errorf("renewed = %v, want %v", renewed, tt.wantRenew)
			}
		})
	}
}

func TestSessionMiddlewareRejectsForeignSecret(t *testing.T) {
	database := db.NewTestDB(t)
	s := &Server{DB: database, Secret: testSecret}

	sess, err := store.CreateSession(context.Background(), database)
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	token, err := auth.GenerateToken("other-secret", sess.ID, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	var seen string
	handler := s.SessionMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = SessionID(r.Context())
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookie, Value: token})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if seen == "" || seen == sess.ID {
		t.Errorf("expected a new session, got %q", seen)
	}
	if n, _ := store.CountSessions(context.Background(), database); n != 2 {
		t.Errorf("expected 2 sessions, got %d", n)
	}
}

func TestSessionCookieAttributes(t *testing.T) {
	database := db.NewTestDB(t)
	s := &Server{DB: database, Secret: testSecret, SessionTTL: 2 * time.Hour}

	handler := s.SessionMiddleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/machines", nil))

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected 1 cookie, got %d", len(cookies))
	}
	c := cookies[0]
	if c.Name != sessionCookie || c.Path != "/" || !c.HttpOnly || c.Secure {
		t.Errorf("unexpected cookie %+v", c)
	}
	// Lax keeps the cookie on top-level navigation from other sites.
	if c.SameSite != http.SameSiteLaxMode {
		t.Errorf("SameSite = %v, want Lax", c.SameSite)
	}
	if c.MaxAge != int((2 * time.Hour).Seconds()) {
		t.Errorf("MaxAge = %d", c.MaxAge)
	}
}

func TestOptionalSession(t *testing.T) {
	database := db.NewTestDB(t)
	s := &Server{DB: database, Secret: testSecret}

	sess, err := store.CreateSession(context.Background(), database)
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	token, err := auth.GenerateToken(testSecret, sess.ID, auth.DefaultExpiry)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	var seen string
	handler := s.OptionalSession(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = SessionID(r.Context())
	}))

	tests := []struct {
		name   string
		cookie string
		want   string
	}{
		{"no cookie", "", ""},
		{"garbage", "garbage", ""},
		{"live session", token, sess.ID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = "unset"
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: sessionCookie, Value: tt.cookie})
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if seen != tt.want {
				t.Errorf("session = %q, want %q", seen, tt.want)
			}
			if len(rec.Result().Cookies()) != 0 {
				t.Error("expected no cookie")
			}
		})
	}

	if n, _ := store.CountSessions(context.Background(), database); n != 1 {
		t.Errorf("expected 1 session, got %d", n)
	}
}
