package port

import "context"

// Notifier delivers account emails. Delivery internals are out of scope for
// the API core; implementations may log, enqueue, or hand off to a mailer.
type Notifier interface {
	SendVerificationEmail(ctx context.Context, email, name, link string) error
	SendPasswordResetEmail(ctx context.Context, email, link string) error
}
