// Package web serves the onboarding form.
package web

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/moby/locker"

	"github.com/erazemk/onboard/internal/inventory"
	"github.com/erazemk/onboard/internal/metrics"
	"github.com/erazemk/onboard/internal/model"
	"github.com/erazemk/onboard/internal/suggest"
	webembed "github.com/erazemk/onboard/web"
)

// Suggester produces machine suggestions for an industry.
type Suggester interface {
	Suggest(ctx context.Context, industry string) (suggest.Result, error)
}

// Inviter emails the teammate named in a submission.
type Inviter interface {
	SendInvite(ctx context.Context, s *model.Summary) error
}

// EventPublisher hands a submission to downstream consumers.
type EventPublisher interface {
	PublishSubmission(ctx context.Context, sessionID string, s *model.Summary) error
}

// Config holds the dependencies of the web router. Inviter and Events may
// be nil.
type Config struct {
	DB         *sql.DB
	Secret     string
	SessionTTL time.Duration
	CountMode  model.CountMode
	Suggester  Suggester
	Inviter    Inviter
	Events     EventPublisher
	Metrics    *metrics.Metrics
}

// NewRouter creates the web page router with all page routes registered.
func NewRouter(cfg Config) (http.Handler, error) {
	templates, err := LoadTemplates()
	if err != nil {
		return nil, err
	}

	s := &Server{
		DB:         cfg.DB,
		Templates:  templates,
		Secret:     cfg.Secret,
		SessionTTL: cfg.SessionTTL,
		CountMode:  cfg.CountMode,
		Reducer:    inventory.NewReducer(),
		Suggester:  cfg.Suggester,
		Inviter:    cfg.Inviter,
		Events:     cfg.Events,
		Metrics:    cfg.Metrics,
		locks:      locker.New(),
	}

	mux := http.NewServeMux()
	// Reads never create a session; anything that changes state does.
	read := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, s.Metrics.Middleware(pattern, s.OptionalSession(h)))
	}
	handle := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, s.Metrics.Middleware(pattern, s.SessionMiddleware(h)))
	}

	// Static assets.
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(webembed.StaticFS()))))

	read("GET /{$}", s.IndexPage)

	handle("POST /machines", s.AddMachineSubmit)
	handle("POST /machines/magic", s.MagicFillSubmit)
	handle("POST /machines/suggest", s.SuggestSubmit)
	handle("POST /machines/manual/open", s.ManualOpenSubmit)
	handle("POST /machines/manual/cancel", s.ManualCancelSubmit)
	handle("POST /machines/manual", s.ManualAddSubmit)
	handle("POST /machines/{id}/edit", s.EditBeginSubmit)
	handle("POST /machines/{id}", s.EditSubmit)
	handle("POST /machines/{id}/remove", s.RemoveSubmit)

	read("GET /photos/{id}", s.PhotoGet)

	handle("POST /submit", s.SubmitForm)
	handle("POST /reset", s.ResetSubmit)

	return mux, nil
}
