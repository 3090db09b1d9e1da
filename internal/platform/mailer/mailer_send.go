package mailer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mailersend/mailersend-go"
)

const mailerSendTimeout = 10 * time.Second

// MailerSendMailer sends through the MailerSend HTTP API. Every message is
// tagged so delivery stats can be split per event.
type MailerSendMailer struct {
	client *mailersend.Mailersend
	from   mailersend.From
	tags   []string
}

func NewMailerSendMailer(apiKey, fromName, fromEmail string, tags ...string) (*MailerSendMailer, error) {
	if apiKey == "" || fromEmail == "" {
		return nil, errors.New("mailersend needs MAILERSEND_API_KEY and MAILER_FROM")
	}
	return &MailerSendMailer{
		client: mailersend.NewMailersend(apiKey),
		from:   mailersend.From{Name: fromName, Email: fromEmail},
		tags:   tags,
	}, nil
}

func (m *MailerSendMailer) Send(ctx context.Context, toEmail, toName, subject, text, html string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, mailerSendTimeout)
	defer cancel()

	msg := m.client.Email.NewMessage()
	msg.SetFrom(m.from)
	msg.SetRecipients([]mailersend.Recipient{{Name: toName, Email: toEmail}})
	msg.SetSubject(subject)
	if len(m.tags) > 0 {
		msg.SetTags(m.tags)
	}
	if strings.TrimSpace(text) != "" {
		msg.SetText(text)
	}
	if strings.TrimSpace(html) != "" {
		msg.SetHTML(html)
	}

	res, err := m.client.Email.Send(ctx, msg)
	if err != nil {
		return "", fmt.Errorf("mailersend: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 4<<10))
		return "", fmt.Errorf("mailersend: status=%d body=%s", res.StatusCode, strings.TrimSpace(string(body)))
	}
	return res.Header.Get("X-Message-Id"), nil
}
