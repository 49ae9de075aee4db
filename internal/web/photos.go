package web

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/erazemk/onboard/internal/store"
)

// PhotoGet handles GET /photos/{id}. Only photos of the caller's session
// are served.
func (s *Server) PhotoGet(w http.ResponseWriter, r *http.Request) {
	id := SessionID(r.Context())
	if id == "" {
		http.Error(w, "photo not found", http.StatusNotFound)
		return
	}

	photo, err := store.GetPhoto(r.Context(), s.DB, id, r.PathValue("id"))
	if err != nil {
		slog.Error("failed to get photo", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if photo == nil {
		http.Error(w, "photo not found", http.StatusNotFound)
		return
	}

	etag := `"` + photo.Checksum + `"`
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "private, max-age=3600")

	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", photo.Mime)
	w.Header().Set("Content-Length", strconv.Itoa(len(photo.Data)))
	w.Write(photo.Data)
}
