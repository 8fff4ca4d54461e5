package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTPMailer sends mail through a Brevo-compatible transactional email API.
type HTTPMailer struct {
	apiURL     string
	apiKey     string
	fromName   string
	fromEmail  string
	httpClient *http.Client
}

// NewHTTPMailer constructs an HTTP API mailer.
func NewHTTPMailer(apiURL, apiKey, fromName, fromEmail string) *HTTPMailer {
	return &HTTPMailer{
		apiURL:     apiURL,
		apiKey:     apiKey,
		fromName:   fromName,
		fromEmail:  fromEmail,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

type apiAddress struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email"`
}

type apiPayload struct {
	Sender      apiAddress   `json:"sender"`
	To          []apiAddress `json:"to"`
	Subject     string       `json:"subject"`
	HTMLContent string       `json:"htmlContent"`
	TextContent string       `json:"textContent"`
}

func (m *HTTPMailer) Send(ctx context.Context, e Email) error {
	payload := apiPayload{
		Sender:      apiAddress{Name: m.fromName, Email: m.fromEmail},
		To:          []apiAddress{{Email: e.To}},
		Subject:     e.Subject,
		HTMLContent: e.HTML,
		TextContent: e.Text,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.apiURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Api-Key", m.apiKey)

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("mail api request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("mail api status %d: %s", resp.StatusCode, msg)
	}
	return nil
}
