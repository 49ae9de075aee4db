package web

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/erazemk/onboard/internal/inventory"
	"github.com/erazemk/onboard/internal/model"
	"github.com/erazemk/onboard/internal/store"
	"github.com/erazemk/onboard/internal/suggest"
)

// AddMachineSubmit handles POST /machines.
func (s *Server) AddMachineSubmit(w http.ResponseWriter, r *http.Request) {
	out, err := s.apply(r.Context(), SessionID(r.Context()), inventory.AddMachine{})
	if err != nil {
		s.fail(w, r, "add", err)
		return
	}
	s.redirect(w, r, "/", celebrationFlashes(out)...)
}

// MagicFillSubmit handles POST /machines/magic.
func (s *Server) MagicFillSubmit(w http.ResponseWriter, r *http.Request) {
	_, err := s.apply(r.Context(), SessionID(r.Context()), inventory.BulkReplace{Templates: suggest.CommonMachines()})
	if err != nil {
		s.fail(w, r, "magic", err)
		return
	}
	s.redirect(w, r, "/", noticeFlash("Magic activated! Common machines added."))
}

// SuggestSubmit handles POST /machines/suggest. The suggestion call runs
// before the session lock is taken.
func (s *Server) SuggestSubmit(w http.ResponseWriter, r *http.Request) {
	industry := r.FormValue("industry")
	if !model.ValidIndustry(industry) {
		industry = model.DefaultIndustry
	}
	target := "/?industry=" + url.QueryEscape(industry)

	res, err := s.Suggester.Suggest(r.Context(), industry)
	s.Metrics.ObserveSuggestion(res, err)
	if err != nil {
		slog.Warn("suggestions failed", "industry", industry, "error", err)
		s.redirect(w, r, target, errorFlash("Could not get AI suggestions. Please try again or use manual entry."))
		return
	}

	if _, err := s.apply(r.Context(), SessionID(r.Context()), inventory.BulkReplace{Templates: res.Templates}); err != nil {
		s.fail(w, r, "suggest", err)
		return
	}

	msg := fmt.Sprintf("AI magic activated! %d %s machines added.", len(res.Templates), industry)
	if res.Source == suggest.SourceFallback {
		msg = fmt.Sprintf("Magic activated! %d typical %s machines added.", len(res.Templates), industry)
	}
	slog.Info("suggestions applied", "industry", industry, "source", res.Source, "degraded", res.Degraded, "count", len(res.Templates))
	s.redirect(w, r, target, noticeFlash(msg))
}

// ManualOpenSubmit handles POST /machines/manual/open.
func (s *Server) ManualOpenSubmit(w http.ResponseWriter, r *http.Request) {
	out, err := s.apply(r.Context(), SessionID(r.Context()), inventory.OpenAddForm{})
	if err != nil {
		s.fail(w, r, "manual-open", err)
		return
	}
	s.redirect(w, r, "/#manual", celebrationFlashes(out)...)
}

// ManualCancelSubmit handles POST /machines/manual/cancel.
func (s *Server) ManualCancelSubmit(w http.ResponseWriter, r *http.Request) {
	if _, err := s.apply(r.Context(), SessionID(r.Context()), inventory.CloseAddForm{}); err != nil {
		s.fail(w, r, "manual-cancel", err)
		return
	}
	s.redirect(w, r, "/")
}

// ManualAddSubmit handles POST /machines/manual. The intent field selects
// "save", which closes the panel, or "another", which keeps it open.
func (s *Server) ManualAddSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := SessionID(ctx)

	if err := parseForm(w, r, maxMachineForm); err != nil {
		slog.Warn("failed to parse manual add form", "error", err)
		s.redirect(w, r, "/#manual", errorFlash(formError(err)))
		return
	}
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}

	fields := machineFields(r)
	action := inventory.AddManual{Fields: fields, KeepOpen: r.FormValue("intent") == "another"}

	// Validation runs before the photo is stored.
	if action.Fields.Trimmed().Type == "" {
		s.rejectManual(w, r, fields, "Please enter a machine type")
		return
	}

	if files := formFiles(r, "photo"); len(files) > 0 {
		p, err := s.savePhoto(ctx, id, store.PhotoMachine, files[0])
		if err != nil {
			if msg := photoError(err); msg != "" {
				slog.Warn("rejected machine photo", "error", err)
				s.rejectManual(w, r, fields, msg)
				return
			}
			slog.Error("failed to save machine photo", "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		action.PhotoID = p.ID
	}

	out, err := s.apply(ctx, id, action)
	if err != nil {
		if action.PhotoID != "" {
			if derr := store.DeletePhotos(ctx, s.DB, id, action.PhotoID); derr != nil {
				slog.Error("failed to delete photo", "error", derr)
			}
		}
		var verr *inventory.ValidationError
		if errors.As(err, &verr) {
			s.rejectManual(w, r, fields, verr.Message)
			return
		}
		s.fail(w, r, "manual-add", err)
		return
	}

	target := "/"
	if action.KeepOpen {
		target = "/#manual"
	}
	slog.Info("machine added", "session", id, "type", out.Added.Type, "quantity", out.Added.Quantity)
	s.redirect(w, r, target, celebrationFlashes(out)...)
}

// rejectManual re-renders the form with the manual-add panel open and the
// typed values kept.
func (s *Server) rejectManual(w http.ResponseWriter, r *http.Request, fields model.Template, msg string) {
	var state inventory.State
	sess, err := store.GetSession(r.Context(), s.DB, SessionID(r.Context()))
	if err != nil {
		slog.Error("failed to load session", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if sess != nil {
		state = sess.State
	}
	state.ShowAddForm = true

	s.renderIndex(w, r, http.StatusUnprocessableEntity, state, nil, manualForm{
		Type:     fields.Type,
		Model:    fields.Model,
		Info:     fields.Info,
		Quantity: model.NormalizeQuantity(fields.Quantity),
		Error:    msg,
	})
}

// EditBeginSubmit handles POST /machines/{id}/edit.
func (s *Server) EditBeginSubmit(w http.ResponseWriter, r *http.Request) {
	if _, err := s.apply(r.Context(), SessionID(r.Context()), inventory.BeginEdit{ID: r.PathValue("id")}); err != nil {
		s.fail(w, r, "edit", err)
		return
	}
	s.redirect(w, r, "/#edit")
}

// EditSubmit handles POST /machines/{id}. The intent field selects "save"
// (update and close), "apply" (update, keep editing) or "cancel" (restore).
func (s *Server) EditSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := SessionID(ctx)
	machineID := r.PathValue("id")

	if err := parseForm(w, r, maxMachineForm); err != nil {
		slog.Warn("failed to parse edit form", "error", err)
		s.redirect(w, r, "/#edit", errorFlash(formError(err)))
		return
	}
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}

	intent := r.FormValue("intent")
	switch intent {
	case "save", "apply", "cancel":
	default:
		http.Error(w, "invalid intent", http.StatusBadRequest)
		return
	}

	update := inventory.UpdateEdit{Fields: machineFields(r).Trimmed()}
	if intent != "cancel" {
		if files := formFiles(r, "photo"); len(files) > 0 {
			p, err := s.savePhoto(ctx, id, store.PhotoMachine, files[0])
			if err != nil {
				if msg := photoError(err); msg != "" {
					slog.Warn("rejected machine photo", "error", err)
					s.redirect(w, r, "/#edit", errorFlash(msg))
					return
				}
				slog.Error("failed to save machine photo", "error", err)
				http.Error(w, "internal error", http.StatusInternalServerError)
				return
			}
			update.PhotoID = p.ID
			update.ReplacePhoto = true
		} else if r.FormValue("remove_photo") != "" {
			update.ReplacePhoto = true
		}
	}

	out, err := s.update(ctx, id, func(st inventory.State) ([]inventory.Action, error) {
		if st.EditingID != machineID {
			return nil, inventory.ErrNoActiveEdit
		}
		switch intent {
		case "cancel":
			return []inventory.Action{inventory.CancelEdit{}}, nil
		case "apply":
			return []inventory.Action{update}, nil
		default:
			return []inventory.Action{update, inventory.CommitEdit{}}, nil
		}
	})
	if err != nil {
		if update.PhotoID != "" {
			if derr := store.DeletePhotos(ctx, s.DB, id, update.PhotoID); derr != nil {
				slog.Error("failed to delete photo", "error", derr)
			}
		}
		s.fail(w, r, "edit-"+intent, err)
		return
	}

	if intent == "apply" {
		s.redirect(w, r, "/#edit", noticeFlash("Changes applied."))
		return
	}
	s.redirect(w, r, "/", celebrationFlashes(out)...)
}

// RemoveSubmit handles POST /machines/{id}/remove.
func (s *Server) RemoveSubmit(w http.ResponseWriter, r *http.Request) {
	if _, err := s.apply(r.Context(), SessionID(r.Context()), inventory.RemoveMachine{ID: r.PathValue("id")}); err != nil {
		s.fail(w, r, "remove", err)
		return
	}
	s.redirect(w, r, "/")
}
