package mailer

import (
	"context"

	"github.com/diagnosis/luxsuv-hotel/pkg/config"
	"github.com/diagnosis/luxsuv-hotel/pkg/logger"
)

// Service sends one email and returns the provider's message id when it has
// one.
type Service interface {
	Send(ctx context.Context, toEmail, toName, subject, text, html string) (string, error)
}

// New picks a transport from cfg: MailerSend when an API key is set and dev
// mode is off, SMTP when a host is set, otherwise the dev mailer.
func New(cfg config.EmailConfig) Service {
	if cfg.MailerSendKey != "" && !cfg.DevMode {
		m, err := NewMailerSendMailer(cfg.MailerSendKey, cfg.FromName, cfg.FromEmail, "reservations")
		if err == nil {
			logger.Info("Using MailerSend for email")
			return m
		}
		logger.Warn("MailerSend not usable, falling back", "error", err)
	}
	if cfg.SMTPHost != "" {
		logger.Info("Using SMTP for email", "host", cfg.SMTPHost, "port", cfg.SMTPPort)
		return NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.FromName, cfg.FromEmail, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPUseTLS)
	}
	logger.Info("Using dev mailer, emails are logged only")
	return NewDevMailer(nil)
}
