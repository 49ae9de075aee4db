package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/erazemk/onboard/internal/model"
)

// DefaultSubject is the subject submissions are published on.
const DefaultSubject = "onboarding.submitted"

// SubmissionEvent is the payload published for every submission. It never
// carries image data.
type SubmissionEvent struct {
	SessionID string         `json:"session_id"`
	Summary   *model.Summary `json:"summary"`
}

// Publisher publishes submission events to NATS. A nil Publisher is disabled.
type Publisher struct {
	nc      *nats.Conn
	subject string
}

// NewPublisher connects to the NATS server at url. An empty url disables
// publishing and returns nil.
func NewPublisher(url, subject string) (*Publisher, error) {
	if url == "" {
		return nil, nil
	}
	if subject == "" {
		subject = DefaultSubject
	}

	opts := []nats.Option{
		nats.Name("onboard"),
		nats.Timeout(5 * time.Second),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				slog.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			slog.Info("nats reconnected", "url", nc.ConnectedUrl())
		}),
	}
	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("connecting to nats: %w", err)
	}
	return &Publisher{nc: nc, subject: subject}, nil
}

// EncodeSubmission returns the event payload for a submission.
func EncodeSubmission(sessionID string, s *model.Summary) ([]byte, error) {
	data, err := json.Marshal(SubmissionEvent{SessionID: sessionID, Summary: s})
	if err != nil {
		return nil, fmt.Errorf("encoding submission event: %w", err)
	}
	return data, nil
}

// PublishSubmission publishes the submission event. It does nothing when
// the publisher is disabled.
func (p *Publisher) PublishSubmission(ctx context.Context, sessionID string, s *model.Summary) error {
	if p == nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if p.nc.IsClosed() {
		return errors.New("nats connection closed")
	}

	data, err := EncodeSubmission(sessionID, s)
	if err != nil {
		return err
	}
	if err := p.nc.Publish(p.subject, data); err != nil {
		return fmt.Errorf("publishing submission: %w", err)
	}
	return nil
}

// Close drains pending messages and closes the connection.
func (p *Publisher) Close() {
	if p == nil {
		return
	}
	if err := p.nc.Drain(); err != nil {
		slog.Warn("draining nats connection", "error", err)
	}
	p.nc.Close()
}
