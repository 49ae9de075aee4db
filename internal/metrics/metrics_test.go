package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/erazemk/onboard/internal/suggest"
)

func TestMiddlewareRecordsRequests(t *testing.T) {
	m := New(nil)
	h := m.Middleware("POST /machines/{id}", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusSeeOther)
	}))

	for i := 0; i < 3; i++ {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/machines/abc", nil))
	}

	got := testutil.ToFloat64(m.httpRequestsTotal.WithLabelValues(http.MethodPost, "POST /machines/{id}", "303"))
	if got != 3 {
		t.Errorf("requests: got %v, want 3", got)
	}
	if v := testutil.ToFloat64(m.httpRequestsInFlight); v != 0 {
		t.Errorf("in flight: got %v, want 0", v)
	}
}

func TestApplicationCounters(t *testing.T) {
	m := New(nil)
	m.Suggestion("remote", OutcomeOK)
	m.Suggestion("fallback", OutcomeDegraded)
	m.Suggestion("fallback", OutcomeDegraded)
	m.Celebrated()
	m.Submitted()

	if v := testutil.ToFloat64(m.suggestionsTotal.WithLabelValues("fallback", OutcomeDegraded)); v != 2 {
		t.Errorf("degraded suggestions: got %v, want 2", v)
	}
	if v := testutil.ToFloat64(m.celebrationsTotal); v != 1 {
		t.Errorf("celebrations: got %v, want 1", v)
	}
	if v := testutil.ToFloat64(m.submissionsTotal); v != 1 {
		t.Errorf("submissions: got %v, want 1", v)
	}
}

func TestSessionCollector(t *testing.T) {
	m := New(func() (int, error) { return 7, nil })

	expected := `
# HELP onboard_sessions Number of onboarding sessions currently stored.
# TYPE onboard_sessions gauge
onboard_sessions 7
`
	if err := testutil.GatherAndCompare(m.registry, strings.NewReader(expected), "onboard_sessions"); err != nil {
		t.Error(err)
	}
}

func TestSessionCollectorError(t *testing.T) {
	m := New(func() (int, error) { return 0, errors.New("db closed") })

	if _, err := m.registry.Gather(); err == nil {
		t.Error("expected gather error when the session count fails")
	}
}

func TestHandlerServesMetrics(t *testing.T) {
	m := New(func() (int, error) { return 2, nil })
	m.Submitted()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	for _, want := range []string{"onboard_submissions_total 1", "onboard_sessions 2", "go_goroutines"} {
		if !strings.Contains(string(body), want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

func TestObserveSuggestion(t *testing.T) {
	m := New(nil)
	m.ObserveSuggestion(suggest.Result{Source: suggest.SourceRemote}, nil)
	m.ObserveSuggestion(suggest.Result{Source: suggest.SourceFallback, Degraded: true}, nil)
	m.ObserveSuggestion(suggest.Result{}, &suggest.RemoteError{Industry: "Aerospace"})

	for _, tc := range []struct{ source, outcome string }{
		{"remote", OutcomeOK},
		{"fallback", OutcomeDegraded},
		{"remote", OutcomeError},
	} {
		if v := testutil.ToFloat64(m.suggestionsTotal.WithLabelValues(tc.source, tc.outcome)); v != 1 {
			t.Errorf("%s/%s: got %v, want 1", tc.source, tc.outcome, v)
		}
	}
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	m.Celebrated()
	m.Submitted()
	m.ObserveSuggestion(suggest.Result{}, nil)

	called := false
	h := m.Middleware("GET /", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if !called {
		t.Error("nil metrics middleware should pass requests through")
	}
}
