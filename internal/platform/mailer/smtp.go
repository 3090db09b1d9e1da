package mailer

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"mime"
	"net"
	"net/mail"
	"net/smtp"
	"strconv"
	"strings"
)

const mimeBoundary = "hotel-mail-alt"

// SMTPMailer talks to a plain SMTP relay. With UseTLS it dials implicit TLS
// (port 465); otherwise net/smtp upgrades with STARTTLS when offered.
type SMTPMailer struct {
	addr   string
	host   string
	from   mail.Address
	auth   smtp.Auth
	useTLS bool
}

func NewSMTPMailer(host string, port int, fromName, fromEmail, user, pass string, useTLS bool) *SMTPMailer {
	host = strings.TrimSpace(host)
	m := &SMTPMailer{
		addr:   net.JoinHostPort(host, strconv.Itoa(port)),
		host:   host,
		from:   mail.Address{Name: fromName, Address: strings.TrimSpace(fromEmail)},
		useTLS: useTLS,
	}
	if user = strings.TrimSpace(user); user != "" {
		m.auth = smtp.PlainAuth("", user, strings.TrimSpace(pass), host)
	}
	return m
}

// Send has no message id to return. net/smtp takes no context, so ctx is only
// checked before dialing.
func (s *SMTPMailer) Send(ctx context.Context, toEmail, toName, subject, text, html string) (string, error) {
	toEmail = strings.TrimSpace(toEmail)
	if toEmail == "" {
		return "", errors.New("empty recipient email")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	msg := buildMessage(s.from, mail.Address{Name: toName, Address: toEmail}, subject, text, html)
	if !s.useTLS {
		return "", smtp.SendMail(s.addr, s.auth, s.from.Address, []string{toEmail}, msg)
	}
	return "", s.sendTLS(toEmail, msg)
}

func (s *SMTPMailer) sendTLS(to string, msg []byte) error {
	conn, err := tls.Dial("tcp", s.addr, &tls.Config{ServerName: s.host})
	if err != nil {
		return fmt.Errorf("smtp dial: %w", err)
	}
	c, err := smtp.NewClient(conn, s.host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("smtp client: %w", err)
	}
	defer c.Close()

	if s.auth != nil {
		if err := c.Auth(s.auth); err != nil {
			return fmt.Errorf("smtp auth: %w", err)
		}
	}
	if err := c.Mail(s.from.Address); err != nil {
		return err
	}
	if err := c.Rcpt(to); err != nil {
		return err
	}
	w, err := c.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return c.Quit()
}

// buildMessage renders a text/plain message, or multipart/alternative when
// html is set. Header values are RFC 2047 encoded.
func buildMessage(from, to mail.Address, subject, text, html string) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "From: %s\r\n", from.String())
	fmt.Fprintf(&buf, "To: %s\r\n", to.String())
	fmt.Fprintf(&buf, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject))
	buf.WriteString("MIME-Version: 1.0\r\n")

	if html == "" {
		buf.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")
		buf.WriteString(text)
		buf.WriteString("\r\n")
		return buf.Bytes()
	}

	fmt.Fprintf(&buf, "Content-Type: multipart/alternative; boundary=%s\r\n\r\n", mimeBoundary)
	for _, part := range []struct{ kind, body string }{{"text/plain", text}, {"text/html", html}} {
		fmt.Fprintf(&buf, "--%s\r\n", mimeBoundary)
		fmt.Fprintf(&buf, "Content-Type: %s; charset=utf-8\r\n\r\n", part.kind)
		fmt.Fprintf(&buf, "%s\r\n", part.body)
	}
	fmt.Fprintf(&buf, "--%s--\r\n", mimeBoundary)
	return buf.Bytes()
}
