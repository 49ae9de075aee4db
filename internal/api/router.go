// Package api serves the JSON endpoints: health, industries and a
// suggestion preview that never touches a session.
package api

import (
	"context"
	"database/sql"
	"net/http"

	"github.com/erazemk/onboard/internal/metrics"
	"github.com/erazemk/onboard/internal/suggest"
)

// Suggester produces machine suggestions for an industry.
type Suggester interface {
	Suggest(ctx context.Context, industry string) (suggest.Result, error)
}

// NewRouter creates the API router with all endpoints registered.
func NewRouter(db *sql.DB, suggester Suggester, m *metrics.Metrics) http.Handler {
	mux := http.NewServeMux()

	health := &HealthHandler{DB: db}
	suggestions := &SuggestionsHandler{Suggester: suggester, Metrics: m}

	handle := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, m.Middleware(pattern, h))
	}

	handle("GET /healthz", health.Check)
	handle("GET /api/industries", suggestions.Industries)
	handle("GET /api/suggestions", suggestions.Suggest)

	return mux
}
