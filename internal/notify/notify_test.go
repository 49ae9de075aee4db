package notify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/erazemk/onboard/internal/model"
)

func testSummary(invite bool) *model.Summary {
	machines := []model.Machine{
		{ID: "a", Type: "Lathe", Model: "ST-10", Quantity: 2, PhotoID: "p1"},
		{ID: "b", Type: "Mill", Quantity: 1},
	}
	sub := model.Submission{
		ContactName:    "Ana",
		ContactEmail:   "ana@example.com",
		Layout:         model.LayoutSkip,
		InviteTeammate: invite,
		TeammateName:   "Bo",
		TeammateEmail:  "bo@example.com",
	}
	return model.BuildSummary(machines, sub, model.CountUnits, time.Unix(1700000000, 0))
}

// newTestMailer returns a mailer pointed at a server answering with handler.
func newTestMailer(t *testing.T, handler http.HandlerFunc) *Mailer {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	m := NewMailer("test-key", "onboarding@example.com")
	m.host = srv.URL
	return m
}

func TestNewMailerDisabled(t *testing.T) {
	if NewMailer("", "from@example.com") != nil || NewMailer("key", "") != nil {
		t.Error("expected nil mailer without key or sender")
	}

	var m *Mailer
	if err := m.SendInvite(context.Background(), testSummary(true)); err != nil {
		t.Errorf("disabled mailer returned %v", err)
	}
}

func TestSendInvite(t *testing.T) {
	var body map[string]any
	m := newTestMailer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method: got %q, want POST", r.Method)
		}
		if r.URL.Path != "/v3/mail/send" {
			t.Errorf("path: got %q", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("auth header: got %q", r.Header.Get("Authorization"))
		}
		data, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(data, &body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusAccepted)
	})

	if err := m.SendInvite(context.Background(), testSummary(true)); err != nil {
		t.Fatalf("SendInvite: %v", err)
	}

	if body["subject"] != "Ana invited you to help set up Guidewheel" {
		t.Errorf("subject: got %v", body["subject"])
	}
	encoded, _ := json.Marshal(body)
	for _, want := range []string{"bo@example.com", "onboarding@example.com", "Lathe (ST-10): 2"} {
		if !strings.Contains(string(encoded), want) {
			t.Errorf("request body missing %q: %s", want, encoded)
		}
	}
}

func TestSendInviteSkipsWithoutTeammate(t *testing.T) {
	called := false
	m := newTestMailer(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusAccepted)
	})

	if err := m.SendInvite(context.Background(), testSummary(false)); err != nil {
		t.Fatalf("SendInvite: %v", err)
	}
	if called {
		t.Error("no email should be sent when the invite box is unchecked")
	}
}

func TestSendInviteServerError(t *testing.T) {
	m := newTestMailer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"errors":[{"message":"bad from"}]}`))
	})

	err := m.SendInvite(context.Background(), testSummary(true))
	if err == nil || !strings.Contains(err.Error(), "status=400") {
		t.Errorf("expected status error, got %v", err)
	}
}

func TestEncodeSubmission(t *testing.T) {
	data, err := EncodeSubmission("session-1", testSummary(true))
	if err != nil {
		t.Fatalf("EncodeSubmission: %v", err)
	}

	var ev struct {
		SessionID string `json:"session_id"`
		Summary   struct {
			ContactName   string `json:"contact_name"`
			TotalMachines int    `json:"total_machines"`
			Machines      []struct {
				Type string `json:"type"`
			} `json:"machines"`
			Teammate *struct {
				Email string `json:"email"`
			} `json:"teammate"`
		} `json:"summary"`
	}
	if err := json.Unmarshal(data, &ev); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if ev.SessionID != "session-1" || ev.Summary.ContactName != "Ana" || ev.Summary.TotalMachines != 3 {
		t.Errorf("unexpected event: %+v", ev)
	}
	if len(ev.Summary.Machines) != 2 || ev.Summary.Teammate == nil || ev.Summary.Teammate.Email != "bo@example.com" {
		t.Errorf("unexpected summary payload: %s", data)
	}
}

func TestNewPublisherDisabled(t *testing.T) {
	p, err := NewPublisher("", "")
	if err != nil || p != nil {
		t.Fatalf("expected nil publisher, got %v, %v", p, err)
	}
	if err := p.PublishSubmission(context.Background(), "s", testSummary(false)); err != nil {
		t.Errorf("disabled publisher returned %v", err)
	}
	p.Close()
}

func TestNewPublisherUnreachable(t *testing.T) {
	// Nothing listens on port 1.
	p, err := NewPublisher("nats://127.0.0.1:1", "")
	if err == nil {
		p.Close()
		t.Fatal("expected connection error")
	}
}
