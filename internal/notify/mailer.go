package notify

import (
	"context"

	"github.com/rs/zerolog"

	"gymhub/api/internal/models"
)

// Mailer sends member-facing notifications. Sending is best-effort
// everywhere it is called; implementations should not retry indefinitely.
type Mailer interface {
	SendWelcome(ctx context.Context, account models.Account, tenant models.Tenant) error
}

// LogMailer records outgoing mail in the log only. Stands in for the real
// delivery provider in development and tests.
type LogMailer struct {
	log zerolog.Logger
}

func NewLogMailer(log zerolog.Logger) *LogMailer {
	return &LogMailer{log: log}
}

func (m *LogMailer) SendWelcome(_ context.Context, account models.Account, tenant models.Tenant) error {
	m.log.Info().
		Str("email", account.Email).
		Str("tenant", tenant.Subdomain).
		Msg("welcome mail queued")
	return nil
}
