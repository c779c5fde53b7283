package mail

import (
	"fmt"
	"net/smtp"

	"github.com/rs/zerolog"

	"news-site-backend/internal/config"
	"news-site-backend/internal/domain/ports/adapter"
)

var _ adapter.Mailer = (*SMTPMailer)(nil)

// SMTPMailer sends plain-text mail over SMTP with PLAIN auth.
type SMTPMailer struct {
	addr     string
	user     string
	password string
	from     string
	host     string
	log      *zerolog.Logger
}

func NewSMTPMailer(cfg *config.MailConfig, logger *zerolog.Logger) *SMTPMailer {
	lg := logger.With().Str("component", "smtp_mailer").Logger()
	return &SMTPMailer{
		addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		user:     cfg.User,
		password: cfg.Password,
		from:     cfg.From,
		host:     cfg.Host,
		log:      &lg,
	}
}

func (m *SMTPMailer) Send(to, subject, body string) error {
	if m.host == "" || m.user == "" {
		return fmt.Errorf("smtp not fully configured")
	}

	auth := smtp.PlainAuth("", m.user, m.password, m.host)
	msg := []byte(fmt.Sprintf("To: %s\r\nSubject: %s\r\n\r\n%s\r\n", to, subject, body))

	if err := smtp.SendMail(m.addr, auth, m.from, []string{to}, msg); err != nil {
		m.log.Error().Err(err).Str("to", to).Msg("send mail failed")
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

var _ adapter.Mailer = (*NoopMailer)(nil)

// NoopMailer logs instead of sending; used in dev and tests.
type NoopMailer struct {
	log *zerolog.Logger
}

func NewNoopMailer(logger *zerolog.Logger) *NoopMailer {
	lg := logger.With().Str("component", "noop_mailer").Logger()
	return &NoopMailer{log: &lg}
}

func (m *NoopMailer) Send(to, subject, body string) error {
	m.log.Info().Str("to", to).Str("subject", subject).Msg("mail suppressed (noop)")
	return nil
}
