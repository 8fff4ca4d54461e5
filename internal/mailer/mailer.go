// Package mailer sends transactional email over SMTP or an HTTP API.
package mailer

import "context"

// Email is a single outbound message with both HTML and plain-text bodies.
type Email struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

// Mailer delivers email. Implementations must be safe for concurrent use.
type Mailer interface {
	Send(ctx context.Context, e Email) error
}
