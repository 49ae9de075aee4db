package web

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/erazemk/onboard/internal/imaging"
	"github.com/erazemk/onboard/internal/inventory"
	"github.com/erazemk/onboard/internal/model"
	"github.com/erazemk/onboard/internal/store"
)

// errSessionGone is returned when the session row disappeared between the
// middleware lookup and the update, e.g. after a purge.
var errSessionGone = errors.New("session no longer exists")

// Upload limits for request bodies.
const (
	maxMachineForm = imaging.MaxUploadSize + 1<<20
	maxSubmitForm  = 64 << 20
	formMemory     = 8 << 20
)

// update loads the session state, applies the actions built from it and
// saves the result. Photos released by the transition are deleted.
func (s *Server) update(ctx context.Context, id string, build func(inventory.State) ([]inventory.Action, error)) (inventory.Outcome, error) {
	unlock := s.lock(id)
	defer unlock()
	return s.applyLocked(ctx, id, build)
}

// applyLocked is update for callers already holding the session lock.
func (s *Server) applyLocked(ctx context.Context, id string, build func(inventory.State) ([]inventory.Action, error)) (inventory.Outcome, error) {
	sess, err := store.GetSession(ctx, s.DB, id)
	if err != nil {
		return inventory.Outcome{}, err
	}
	if sess == nil {
		return inventory.Outcome{}, errSessionGone
	}

	actions, err := build(sess.State)
	if err != nil {
		return inventory.Outcome{}, err
	}

	state := sess.State
	var total inventory.Outcome
	for _, a := range actions {
		next, out, err := s.Reducer.Apply(state, a)
		if err != nil {
			return inventory.Outcome{}, err
		}
		state = next
		if out.Celebration != "" {
			total.Celebration = out.Celebration
		}
		if out.Added != nil {
			total.Added = out.Added
		}
		total.Released = append(total.Released, out.Released...)
	}

	if err := store.SaveSession(ctx, s.DB, id, state); err != nil {
		return inventory.Outcome{}, err
	}
	if len(total.Released) > 0 {
		if err := store.DeletePhotos(ctx, s.DB, id, total.Released...); err != nil {
			slog.Error("failed to delete released photos", "session", id, "error", err)
		}
	}
	if total.Celebration != "" {
		s.Metrics.Celebrated()
	}
	return total, nil
}

// apply is update for a fixed list of actions.
func (s *Server) apply(ctx context.Context, id string, actions ...inventory.Action) (inventory.Outcome, error) {
	return s.update(ctx, id, func(inventory.State) ([]inventory.Action, error) {
		return actions, nil
	})
}

// redirect stores flashes for the next page view and sends the browser to target.
func (s *Server) redirect(w http.ResponseWriter, r *http.Request, target string, flashes ...store.Flash) {
	if len(flashes) > 0 {
		if err := store.SetFlash(r.Context(), s.DB, SessionID(r.Context()), flashes...); err != nil {
			slog.Error("failed to set flash", "error", err)
		}
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// fail maps an update error to a flash message, or to a 500 for internal errors.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, action string, err error) {
	switch {
	case errors.Is(err, errSessionGone):
		http.Redirect(w, r, "/", http.StatusSeeOther)
	case errors.Is(err, inventory.ErrNotFound):
		slog.Warn("machine not found", "action", action, "session", SessionID(r.Context()))
		s.redirect(w, r, "/", errorFlash("That machine is no longer in your list."))
	case errors.Is(err, inventory.ErrNoActiveEdit):
		slog.Warn("no active edit", "action", action, "session", SessionID(r.Context()))
		s.redirect(w, r, "/", errorFlash("That machine is no longer being edited."))
	default:
		slog.Error("failed to update session", "action", action, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func noticeFlash(msg string) store.Flash {
	return store.Flash{Kind: store.FlashNotice, Message: msg}
}

func errorFlash(msg string) store.Flash {
	return store.Flash{Kind: store.FlashError, Message: msg}
}

// celebrationFlashes returns the celebration of out as a flash, if any.
func celebrationFlashes(out inventory.Outcome) []store.Flash {
	if out.Celebration == "" {
		return nil
	}
	return []store.Flash{{Kind: store.FlashCelebration, Message: out.Celebration}}
}

// parseForm parses a multipart or urlencoded body of at most limit bytes.
func parseForm(w http.ResponseWriter, r *http.Request, limit int64) error {
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		return r.ParseMultipartForm(formMemory)
	}
	return r.ParseForm()
}

// formError maps a body parsing failure to a user-facing message.
func formError(err error) string {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return "The upload is too large. Photos must be smaller than 5 MB."
	}
	return "The form could not be read. Please try again."
}

// formFiles returns the uploaded files of field, skipping empty file inputs.
func formFiles(r *http.Request, field string) []*multipart.FileHeader {
	if r.MultipartForm == nil {
		return nil
	}
	var files []*multipart.FileHeader
	for _, fh := range r.MultipartForm.File[field] {
		if fh.Filename == "" && fh.Size == 0 {
			continue
		}
		files = append(files, fh)
	}
	return files
}

// machineFields reads the machine inputs shared by the manual-add and edit forms.
func machineFields(r *http.Request) model.Template {
	qty, err := strconv.Atoi(strings.TrimSpace(r.FormValue("quantity")))
	if err != nil {
		qty = 1
	}
	return model.Template{
		Type:     r.FormValue("type"),
		Model:    r.FormValue("model"),
		Info:     r.FormValue("info"),
		Quantity: qty,
	}
}

// savePhoto processes an upload and stores it for the session.
func (s *Server) savePhoto(ctx context.Context, sessionID, kind string, fh *multipart.FileHeader) (*store.Photo, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("opening upload: %w", err)
	}
	defer f.Close()

	p, err := imaging.Process(f)
	if err != nil {
		return nil, err
	}
	return store.SavePhoto(ctx, s.DB, sessionID, kind, p.MIME, p.Checksum, p.Data)
}

// savePhotos stores every upload of field. On failure the photos stored so
// far are deleted again.
func (s *Server) savePhotos(ctx context.Context, r *http.Request, sessionID, kind, field string) ([]string, error) {
	var ids []string
	for _, fh := range formFiles(r, field) {
		p, err := s.savePhoto(ctx, sessionID, kind, fh)
		if err != nil {
			if len(ids) > 0 {
				if derr := store.DeletePhotos(ctx, s.DB, sessionID, ids...); derr != nil {
					slog.Error("failed to delete photos", "error", derr)
				}
			}
			return nil, err
		}
		ids = append(ids, p.ID)
	}
	return ids, nil
}

// photoError maps an upload failure to a user-facing message. An empty
// result means the failure is internal.
func photoError(err error) string {
	switch {
	case errors.Is(err, imaging.ErrUnsupported):
		return "Photos must be JPEG or PNG images."
	case errors.Is(err, imaging.ErrTooLarge):
		return "Photos must be smaller than 5 MB."
	case errors.Is(err, imaging.ErrCorrupt):
		return "That photo could not be read. Please try another file."
	default:
		return ""
	}
}
