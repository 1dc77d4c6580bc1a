package resend

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/resend/resend-go/v2"

	"destiny_blue/internal/adapters/observability"
	"destiny_blue/internal/domain"
)

// Emailer mails alert notices to the host. Buttons are not rendered.
type Emailer struct {
	client *resend.Client
	from   string
	to     []string
}

// New returns nil when the API key is empty so callers can skip the channel.
func New(apiKey, from string, to []string) *Emailer {
	if apiKey == "" {
		return nil
	}
	return &Emailer{client: resend.NewClient(apiKey), from: from, to: to}
}

// NewWithClient is used by tests to point at a fake API.
func NewWithClient(c *resend.Client, from string, to []string) *Emailer {
	return &Emailer{client: c, from: from, to: to}
}

func (e *Emailer) IsConfigured() bool {
	return e != nil && e.client != nil && e.from != "" && len(e.to) > 0
}

func (e *Emailer) Notify(ctx context.Context, n domain.Notice) (string, error) {
	if !e.IsConfigured() {
		return "", errors.New("resend: not configured")
	}
	params := &resend.SendEmailRequest{
		From:    e.from,
		To:      e.to,
		Subject: n.Title,
		Html:    formatHTML(n),
		Text:    formatText(n),
	}
	start := time.Now()
	sent, err := e.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		observability.ObserveExternal("resend", "emails", 500, time.Since(start))
		return "", fmt.Errorf("resend send failed: %w", err)
	}
	observability.ObserveExternal("resend", "emails", 200, time.Since(start))
	return sent.Id, nil
}

func formatText(n domain.Notice) string {
	var b strings.Builder
	b.WriteString(n.Title)
	b.WriteString("\n\n")
	for _, f := range n.Fields {
		fmt.Fprintf(&b, "%s: %s\n", f.Name, f.Value)
	}
	if n.Footer != "" {
		b.WriteString("\n")
		b.WriteString(n.Footer)
	}
	return b.String()
}

func formatHTML(n domain.Notice) string {
	var rows strings.Builder
	for _, f := range n.Fields {
		fmt.Fprintf(&rows, `<p style="margin: 8px 0;"><strong>%s:</strong> %s</p>`,
			html.EscapeString(f.Name), strings.ReplaceAll(html.EscapeString(f.Value), "\n", "<br>"))
	}
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="font-family: -apple-system, 'Segoe UI', Roboto, Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
  <div style="border-left: 4px solid #%06x; padding: 16px; background: #f8f9fa;">
    <h2 style="margin: 0 0 16px 0;">%s</h2>
    %s
  </div>
  <p style="color: #999; font-size: 12px;">%s</p>
</body>
</html>`, n.Color, html.EscapeString(n.Title), rows.String(), html.EscapeString(n.Footer))
}
