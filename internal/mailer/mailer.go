// Package mailer renders and delivers guest emails through Mailgun.
package mailer

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Sender delivers one rendered email. The queue consumer depends on this
// interface so tests can swap in a recording fake.
type Sender interface {
	Send(ctx context.Context, to, subject, html string) error
}

// Mailgun sends email through the Mailgun messages API.
type Mailgun struct {
	apiKey string
	domain string
	from   string
	client *http.Client
}

// NewMailgun returns a Mailgun sender. from is the bare address; the
// display name is added on send.
func NewMailgun(apiKey, domain, from string) *Mailgun {
	return &Mailgun{
		apiKey: apiKey,
		domain: domain,
		from:   from,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

// Send posts one message to the Mailgun API.
func (m *Mailgun) Send(ctx context.Context, to, subject, html string) error {
	form := url.Values{}
	form.Set("from", fmt.Sprintf("Seagull Restaurant <%s>", m.from))
	form.Set("to", to)
	form.Set("subject", subject)
	form.Set("html", html)

	endpoint := fmt.Sprintf("https://api.mailgun.net/v3/%s/messages", m.domain)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth("api", m.apiKey)

	resp, err := m.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("mailgun: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}
