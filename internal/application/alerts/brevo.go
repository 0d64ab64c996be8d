// Package alerts sends defect notifications: validator errors on the read
// model and failed recalculation runs.
package alerts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const brevoAPI = "https://api.brevo.com/v3/smtp/email"

// BrevoSendRequest matches Brevo API v3 send transactional email body.
type BrevoSendRequest struct {
	Sender      BrevoSender `json:"sender"`
	To          []BrevoTo   `json:"to"`
	Subject     string      `json:"subject"`
	HTMLContent string      `json:"htmlContent"`
}

type BrevoSender struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

type BrevoTo struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// Defect is one alert: a short subject plus the facts worth reading.
type Defect struct {
	Subject string
	Fields  map[string]string
	Lines   []string
}

// Notifier delivers defect alerts. Nil = no-op.
type Notifier interface {
	NotifyDefect(ctx context.Context, d Defect) error
}

// BrevoClient emails defects via Brevo (Sendinblue). Without an API key or a
// recipient it does nothing.
type BrevoClient struct {
	APIKey   string
	MailFrom string
	To       string
	Endpoint string
	Client   *http.Client
}

func (c *BrevoClient) endpoint() string {
	if c.Endpoint != "" {
		return c.Endpoint
	}
	return brevoAPI
}

func (c *BrevoClient) Enabled() bool {
	return c != nil && c.APIKey != "" && strings.TrimSpace(c.To) != ""
}

func (c *BrevoClient) NotifyDefect(ctx context.Context, d Defect) error {
	if !c.Enabled() {
		return nil
	}
	subject := "[clientbook] " + d.Subject
	return c.send(ctx, subject, DefectLayout(d))
}

func (c *BrevoClient) send(ctx context.Context, subject, html string) error {
	body := BrevoSendRequest{
		Sender:      BrevoSender{Email: c.MailFrom, Name: "clientbook"},
		To:          []BrevoTo{{Email: strings.TrimSpace(c.To)}},
		Subject:     subject,
		HTMLContent: html,
	}
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(), bytes.NewReader(bodyBytes))
	if err != nil {
		return err
	}
	req.Header.Set("api-key", c.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.Client == nil {
		c.Client = &http.Client{Timeout: 15 * time.Second}
	}
	resp, err := c.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("brevo send failed: status %d", resp.StatusCode)
	}
	return nil
}
