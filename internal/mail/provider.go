// Package mail renders and sends the service's outbound email: comment
// confirmation requests and follow-up notifications. Sending goes through a
// pluggable Provider so production (Brevo) and development (mock) differ
// only in wiring.
package mail

import "context"

// Provider defines the interface for email sending implementations.
type Provider interface {
	// Send sends an email. htmlBody may be empty, in which case providers
	// send a plain-text message.
	Send(ctx context.Context, to, subject, textBody, htmlBody string) error
}
