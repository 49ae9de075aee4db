package web

import (
	"log/slog"
	"net/http"

	"github.com/erazemk/onboard/internal/store"
)

// ResetSubmit handles POST /reset. The current session and its photos are
// deleted and the browser gets a fresh, empty session.
func (s *Server) ResetSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := SessionID(ctx)

	unlock := s.lock(id)
	err := store.DeleteSession(ctx, s.DB, id)
	unlock()
	if err != nil {
		slog.Error("failed to delete session", "session", id, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	sess, err := store.CreateSession(ctx, s.DB)
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
	slog.Info("session reset", "old", id, "new", sess.ID)

	if err := store.SetFlash(ctx, s.DB, sess.ID, noticeFlash("Started over with an empty machine list.")); err != nil {
		slog.Error("failed to set flash", "error", err)
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
