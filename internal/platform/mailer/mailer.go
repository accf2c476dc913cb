// Package mailer delivers transactional email over SMTP.
package mailer

import "context"

// Mailer sends a single HTML message. Implementations are synchronous; the
// caller decides what a failed send means.
type Mailer interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}
