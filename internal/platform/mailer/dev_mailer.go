package mailer

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/diagnosis/luxsuv-hotel/pkg/logger"
)

// DevMailer logs emails instead of sending them and remembers what it sent.
type DevMailer struct {
	log *slog.Logger

	mu   sync.Mutex
	sent []SentMail
}

type SentMail struct {
	ID      string
	To      string
	Name    string
	Subject string
	Text    string
	HTML    string
}

func NewDevMailer(log *slog.Logger) *DevMailer {
	if log == nil {
		log = logger.Default()
	}
	return &DevMailer{log: log}
}

func (d *DevMailer) Send(ctx context.Context, toEmail, toName, subject, text, html string) (string, error) {
	id := uuid.NewString()
	logger.FromContext(ctx, d.log).Info("[DEV MAIL] email",
		"id", id,
		"to", toEmail,
		"name", toName,
		"subject", subject,
		"text", text,
	)

	d.mu.Lock()
	d.sent = append(d.sent, SentMail{ID: id, To: toEmail, Name: toName, Subject: subject, Text: text, HTML: html})
	d.mu.Unlock()
	return id, nil
}

// Sent returns a copy of everything sent so far.
func (d *DevMailer) Sent() []SentMail {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]SentMail(nil), d.sent...)
}
