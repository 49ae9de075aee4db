package web

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/erazemk/onboard/internal/inventory"
	"github.com/erazemk/onboard/internal/model"
	"github.com/erazemk/onboard/internal/store"
)

// notifyTimeout bounds the invite email and event publish after a submission.
const notifyTimeout = 10 * time.Second

// orphanGrace spares photos young enough to belong to a request that has
// stored its photo but not yet taken the session lock.
const orphanGrace = 10 * time.Minute

type summaryData struct {
	PageData
	Summary       *model.Summary
	PhotoMachines []model.Machine
	Whiteboard    bool
	Celebration   string
	BuddyName     string
}

// SubmitForm handles POST /submit.
func (s *Server) SubmitForm(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := SessionID(ctx)

	if err := parseForm(w, r, maxSubmitForm); err != nil {
		slog.Warn("failed to parse submission", "error", err)
		s.redirect(w, r, "/#details", errorFlash(formError(err)))
		return
	}
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}

	sub := model.Submission{
		Notes:          strings.TrimSpace(r.FormValue("notes")),
		ContactName:    strings.TrimSpace(r.FormValue("contact_name")),
		ContactEmail:   strings.TrimSpace(r.FormValue("contact_email")),
		Layout:         r.FormValue("layout"),
		InviteTeammate: r.FormValue("invite_teammate") != "",
	}
	if sub.Layout == "" {
		sub.Layout = model.LayoutWhiteboard
	}
	if !model.ValidLayout(sub.Layout) {
		http.Error(w, "invalid layout option", http.StatusBadRequest)
		return
	}
	if sub.InviteTeammate {
		sub.TeammateName = strings.TrimSpace(r.FormValue("teammate_name"))
		sub.TeammateEmail = strings.TrimSpace(r.FormValue("teammate_email"))
	}

	unlock := s.lock(id)
	defer unlock()

	// A new submission replaces the previous one's attachments, but only
	// once its own have been stored.
	previous, err := s.attachmentIDs(ctx, id)
	if err != nil {
		slog.Error("failed to list attachments", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	sub.OtherPhotos, err = s.savePhotos(ctx, r, id, store.PhotoOther, "other_photos")
	if err == nil && sub.Layout == model.LayoutUpload {
		sub.LayoutFiles, err = s.savePhotos(ctx, r, id, store.PhotoLayout, "layout_files")
	}
	if err != nil {
		if derr := store.DeletePhotos(ctx, s.DB, id, sub.OtherPhotos...); derr != nil {
			slog.Error("failed to delete photos", "error", derr)
		}
		if msg := photoError(err); msg != "" {
			slog.Warn("rejected submission photo", "error", err)
			s.redirect(w, r, "/#details", errorFlash(msg))
			return
		}
		slog.Error("failed to save submission photos", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if err := store.DeletePhotos(ctx, s.DB, id, previous...); err != nil {
		slog.Error("failed to delete previous attachments", "error", err)
	}

	var state inventory.State
	var celebration string
	if sub.InviteTeammate {
		out, err := s.applyLocked(ctx, id, func(inventory.State) ([]inventory.Action, error) {
			return []inventory.Action{inventory.Celebrate{}}, nil
		})
		if err != nil {
			s.fail(w, r, "submit", err)
			return
		}
		celebration = out.Celebration
	}
	sess, err := store.GetSession(ctx, s.DB, id)
	if err != nil {
		slog.Error("failed to load session", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if sess != nil {
		state = sess.State
	}
	s.sweepMachinePhotos(ctx, id, state)

	summary := model.BuildSummary(state.Machines, sub, s.CountMode, time.Now().UTC())
	s.Metrics.Submitted()
	slog.Info("onboarding submitted",
		"session", id,
		"machines", summary.TotalMachines,
		"assets", summary.TotalAssets,
		"teammate", summary.Teammate != nil,
	)

	s.notify(ctx, id, summary)

	s.Templates.Render(w, http.StatusOK, "summary.html", &summaryData{
		PageData:      PageData{Title: "Onboarding Submitted"},
		Summary:       summary,
		PhotoMachines: summary.PhotoMachines(),
		Whiteboard:    summary.Layout == model.LayoutWhiteboard,
		Celebration:   celebration,
		BuddyName:     "Alex",
	})
}

// attachmentIDs lists the photos attached to the session's last submission.
func (s *Server) attachmentIDs(ctx context.Context, sessionID string) ([]string, error) {
	var ids []string
	for _, kind := range []string{store.PhotoOther, store.PhotoLayout} {
		photos, err := store.ListPhotos(ctx, s.DB, sessionID, kind)
		if err != nil {
			return nil, err
		}
		for _, p := range photos {
			ids = append(ids, p.ID)
		}
	}
	return ids, nil
}

// sweepMachinePhotos deletes machine photos no machine in state refers to.
// Such photos are left behind when a request dies between storing a photo
// and saving the session. The caller holds the session lock.
func (s *Server) sweepMachinePhotos(ctx context.Context, sessionID string, state inventory.State) {
	photos, err := store.ListPhotos(ctx, s.DB, sessionID, store.PhotoMachine)
	if err != nil {
		slog.Error("failed to list machine photos", "error", err)
		return
	}

	used := make(map[string]bool)
	for _, id := range state.PhotoIDs() {
		used[id] = true
	}
	cutoff := time.Now().Add(-orphanGrace)
	var orphans []string
	for _, p := range photos {
		if !used[p.ID] && p.CreatedAt.Before(cutoff) {
			orphans = append(orphans, p.ID)
		}
	}
	if len(orphans) == 0 {
		return
	}
	if err := store.DeletePhotos(ctx, s.DB, sessionID, orphans...); err != nil {
		slog.Error("failed to delete orphaned photos", "error", err)
		return
	}
	slog.Info("deleted orphaned photos", "session", sessionID, "count", len(orphans))
}

// notify sends the teammate invite and the submission event. Failures are
// logged only.
func (s *Server) notify(ctx context.Context, sessionID string, summary *model.Summary) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()

	if s.Inviter != nil {
		if err := s.Inviter.SendInvite(ctx, summary); err != nil {
			slog.Error("failed to send teammate invite", "session", sessionID, "error", err)
		}
	}
	if s.Events != nil {
		if err := s.Events.PublishSubmission(ctx, sessionID, summary); err != nil {
			slog.Error("failed to publish submission", "session", sessionID, "error", err)
		}
	}
}
