package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/erazemk/onboard/internal/metrics"
	"github.com/erazemk/onboard/internal/model"
	"github.com/erazemk/onboard/internal/suggest"
)

// SuggestionsHandler handles the suggestion endpoints.
type SuggestionsHandler struct {
	Suggester Suggester
	Metrics   *metrics.Metrics
}

type suggestionsResponse struct {
	Industry string           `json:"industry"`
	Source   suggest.Source   `json:"source"`
	Degraded bool             `json:"degraded"`
	Machines []model.Template `json:"machines"`
}

// Industries handles GET /api/industries.
func (h *SuggestionsHandler) Industries(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, map[string]any{
		"industries": model.Industries,
		"default":    model.DefaultIndustry,
	})
}

// Suggest handles GET /api/suggestions?industry=.
func (h *SuggestionsHandler) Suggest(w http.ResponseWriter, r *http.Request) {
	industry := r.URL.Query().Get("industry")
	if industry == "" {
		industry = model.DefaultIndustry
	}
	if !model.ValidIndustry(industry) {
		jsonError(w, http.StatusBadRequest, "unknown industry")
		return
	}

	res, err := h.Suggester.Suggest(r.Context(), industry)
	h.Metrics.ObserveSuggestion(res, err)

	var rerr *suggest.RemoteError
	if errors.As(err, &rerr) {
		slog.Warn("suggestion service failed", "industry", industry, "error", err)
		jsonError(w, http.StatusBadGateway, "suggestion service unavailable")
		return
	}
	if err != nil {
		slog.Error("suggesting machines", "industry", industry, "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to get suggestions")
		return
	}

	jsonResponse(w, http.StatusOK, suggestionsResponse{
		Industry: industry,
		Source:   res.Source,
		Degraded: res.Degraded,
		Machines: res.Templates,
	})
}
