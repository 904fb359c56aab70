package notifier

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// EmailNotifier sends the monthly summary over SMTP.
type EmailNotifier struct {
	Server    string
	Port      int
	Username  string
	Password  string
	Sender    string
	Recipient string
}

// NewEmailNotifier creates a notifier. An empty server or recipient
// disables sending without being an error.
func NewEmailNotifier(server string, port int, username, password, sender, recipient string) *EmailNotifier {
	if sender == "" {
		sender = username
	}
	return &EmailNotifier{
		Server:    server,
		Port:      port,
		Username:  username,
		Password:  password,
		Sender:    sender,
		Recipient: recipient,
	}
}

// Enabled reports whether the notifier is configured to send.
func (e *EmailNotifier) Enabled() bool {
	return e.Server != "" && e.Recipient != ""
}

// Send delivers a plain-text message.
func (e *EmailNotifier) Send(subject, body string) error {
	if !e.Enabled() {
		return fmt.Errorf("email notifier not configured")
	}

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", e.Sender)
	fmt.Fprintf(&msg, "To: %s\r\n", e.Recipient)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(body)

	addr := fmt.Sprintf("%s:%d", e.Server, e.Port)
	var auth smtp.Auth
	if e.Username != "" {
		auth = smtp.PlainAuth("", e.Username, e.Password, e.Server)
	}
	if err := smtp.SendMail(addr, auth, e.Sender, []string{e.Recipient}, []byte(msg.String())); err != nil {
		return fmt.Errorf("send mail via %s: %w", addr, err)
	}
	return nil
}

// SendWithRetry sends with exponential backoff.
func (e *EmailNotifier) SendWithRetry(ctx context.Context, subject, body string, maxRetries int) error {
	var lastErr error
	for i := 0; i <= maxRetries; i++ {
		if err := e.Send(subject, body); err != nil {
			lastErr = err
			backoff := time.Duration(1<<uint(i)) * time.Second
			log.Warn().Err(err).Dur("backoff", backoff).Int("attempt", i+1).Msg("email send failed, retrying")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			continue
		}
		return nil
	}
	return fmt.Errorf("send email after %d retries: %w", maxRetries, lastErr)
}
