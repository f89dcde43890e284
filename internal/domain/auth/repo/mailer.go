package repo

import "context"

// Mailer delivers out-of-band notifications. The service only ever enqueues;
// delivery failures must never surface to the caller of ForgotPassword.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}
