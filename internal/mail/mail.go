// Package mail holds outbound mail delivery. Production deployments plug a
// real provider in behind auth.Mailer; the dev mailer just logs the link.
package mail

import (
	"context"
	"time"

	"kotiva.org/internal/auth"
	"kotiva.org/internal/obs"
)

// DevMailer writes reset links to the structured log instead of sending
// them. Useful for local development and demo environments where no mail
// provider is configured.
type DevMailer struct{}

var _ auth.Mailer = DevMailer{}

// SendPasswordResetEmail logs the link and always reports success.
func (DevMailer) SendPasswordResetEmail(_ context.Context, to, displayName, resetURL string) bool {
	obs.LogRequest(map[string]any{
		"ts":        time.Now().UTC().Format(time.RFC3339Nano),
		"level":     "info",
		"msg":       "password_reset_email",
		"to":        to,
		"recipient": displayName,
		"reset_url": resetURL,
	})
	return true
}
