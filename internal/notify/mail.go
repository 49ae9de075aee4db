// Package notify hands finished submissions to the outside world: an invite
// email for the teammate and an event for downstream consumers.
package notify

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/erazemk/onboard/internal/model"
)

const senderName = "Guidewheel Onboarding"

// Mailer sends teammate invites through SendGrid. A nil Mailer is disabled.
type Mailer struct {
	apiKey string
	from   string
	host   string
}

// NewMailer returns a Mailer, or nil when apiKey or from is empty.
func NewMailer(apiKey, from string) *Mailer {
	if apiKey == "" || from == "" {
		return nil
	}
	return &Mailer{apiKey: apiKey, from: from}
}

// SendInvite emails the teammate named in s. It does nothing when the
// mailer is disabled or no teammate email was given.
func (m *Mailer) SendInvite(ctx context.Context, s *model.Summary) error {
	if m == nil || s.Teammate == nil || strings.TrimSpace(s.Teammate.Email) == "" {
		return nil
	}

	subject, body := inviteText(s)
	message := mail.NewSingleEmail(
		mail.NewEmail(senderName, m.from),
		subject,
		mail.NewEmail(s.Teammate.Name, s.Teammate.Email),
		body,
		"<pre>"+html.EscapeString(body)+"</pre>",
	)

	req := sendgrid.GetRequest(m.apiKey, "/v3/mail/send", m.host)
	req.Method = "POST"
	req.Body = mail.GetRequestBody(message)

	resp, err := sendgrid.MakeRequestWithContext(ctx, req)
	if err != nil {
		return fmt.Errorf("sending invite: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("sending invite: status=%d, body=%s", resp.StatusCode, resp.Body)
	}

	slog.Info("teammate invite sent", "status", resp.StatusCode)
	return nil
}

func inviteText(s *model.Summary) (subject, body string) {
	inviter := s.ContactName
	if inviter == "" {
		inviter = "A colleague"
	}
	subject = inviter + " invited you to help set up Guidewheel"

	var b strings.Builder
	name := s.Teammate.Name
	if name == "" {
		name = "there"
	}
	fmt.Fprintf(&b, "Hi %s,\n\n", name)
	fmt.Fprintf(&b, "%s has started onboarding your factory with Guidewheel and would like your help.\n\n", inviter)
	fmt.Fprintf(&b, "Machines so far: %d\n", s.TotalMachines)
	for _, m := range s.Machines {
		fmt.Fprintf(&b, "  - %s\n", model.MachineLine(m))
	}
	if s.ContactEmail != "" {
		fmt.Fprintf(&b, "\nReply to %s with any questions.\n", s.ContactEmail)
	}
	return subject, b.String()
}
