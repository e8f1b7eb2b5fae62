package notify

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
)

// Mailer delivers an email.
type Mailer interface {
	Send(ctx context.Context, email Email) error
}

// LogMailer writes emails to the log instead of an SMTP relay.
type LogMailer struct {
	logger zerolog.Logger
}

// NewLogMailer constructs a mailer that logs each message.
func NewLogMailer(logger zerolog.Logger) *LogMailer {
	return &LogMailer{logger: logger.With().Str("component", "log_mailer").Logger()}
}

func (m *LogMailer) Send(ctx context.Context, email Email) error {
	m.logger.Info().
		Str("sender", email.Sender).
		Str("subject", email.Subject).
		Str("recipients", strings.Join(email.Recipients, ",")).
		Int("body_length", len(email.Body)).
		Msg("email delivered")
	return nil
}
