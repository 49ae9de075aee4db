// Package suggest maps an industry to a list of machine templates, asking a
// chat-completion service when one is configured and falling back to a
// built-in table otherwise.
package suggest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/erazemk/onboard/internal/model"
)

// DefaultTimeout bounds a single remote suggestion request.
const DefaultTimeout = 30 * time.Second

// Source tells where suggestions came from.
type Source string

// Suggestion sources.
const (
	SourceFallback Source = "fallback"
	SourceRemote   Source = "remote"
)

// Policy decides what happens when the remote service fails.
type Policy string

// Failure policies.
const (
	// PolicyFallback answers with the built-in table.
	PolicyFallback Policy = "fallback"
	// PolicySurfaceError returns a *RemoteError to the caller.
	PolicySurfaceError Policy = "surface_error"
)

// ParsePolicy parses a failure policy name.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case PolicyFallback, PolicySurfaceError:
		return Policy(s), nil
	default:
		return "", fmt.Errorf("invalid failure policy %q (want %q or %q)", s, PolicyFallback, PolicySurfaceError)
	}
}

// RemoteError is returned under PolicySurfaceError when the remote service
// could not produce usable suggestions.
type RemoteError struct {
	Industry string
	Err      error
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("suggestions for %s: %v", e.Industry, e.Err)
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

// Completer sends a system and user prompt to a chat-completion service and
// returns the reply text.
type Completer interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// Result is the outcome of one suggestion request.
type Result struct {
	Templates []model.Template
	Source    Source
	// Degraded is set when the remote service failed and the fallback table
	// was used in its place.
	Degraded bool
}

// Provider produces machine suggestions.
type Provider struct {
	// Client is the remote service. When nil the fallback table is always used.
	Client  Completer
	Policy  Policy
	Timeout time.Duration
}

// Suggest returns machine templates for industry.
func (p *Provider) Suggest(ctx context.Context, industry string) (Result, error) {
	if p.Client == nil {
		return Result{Templates: Fallback(industry), Source: SourceFallback}, nil
	}

	templates, err := p.remote(ctx, industry)
	if err == nil {
		return Result{Templates: templates, Source: SourceRemote}, nil
	}

	if p.Policy == PolicySurfaceError {
		return Result{}, &RemoteError{Industry: industry, Err: err}
	}
	slog.Warn("remote suggestions failed, using fallback", "industry", industry, "error", err)
	return Result{Templates: Fallback(industry), Source: SourceFallback, Degraded: true}, nil
}

func (p *Provider) remote(ctx context.Context, industry string) ([]model.Template, error) {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	content, err := p.Client.Complete(ctx, systemPrompt, Prompt(industry))
	if err != nil {
		return nil, err
	}
	return ParseTemplates(content)
}
