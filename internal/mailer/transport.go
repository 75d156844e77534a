package mailer

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/go-gomail/gomail"

	"billmailer/internal/logging"
)

// ErrTransport marks failures reported by the mail relay (dial, auth, rejected
// address, aborted DATA).
var ErrTransport = errors.New("mail transport error")

// Transport delivers a composed message.
type Transport interface {
	Send(ctx context.Context, msg *Message) error
}

// SMTPConfig describes the relay and the credentials used to submit mail.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	// ServerName overrides the TLS server name; defaults to Host.
	ServerName string
}

type dialSender interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPTransport submits each message over a fresh authenticated connection.
// Port 465 uses implicit TLS; other ports upgrade with STARTTLS when offered.
type SMTPTransport struct {
	dialer dialSender
}

// NewSMTPTransport builds a transport for the configured relay.
func NewSMTPTransport(cfg SMTPConfig) *SMTPTransport {
	d := gomail.NewDialer(strings.TrimSpace(cfg.Host), cfg.Port, cfg.Username, cfg.Password)
	serverName := strings.TrimSpace(cfg.ServerName)
	if serverName == "" {
		serverName = d.Host
	}
	d.TLSConfig = &tls.Config{ServerName: serverName, MinVersion: tls.VersionTLS12}
	return &SMTPTransport{dialer: d}
}

// Send delivers msg. A cancelled context stops the send before dialing.
func (t *SMTPTransport) Send(ctx context.Context, msg *Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := msg.Validate(); err != nil {
		return err
	}
	if err := t.dialer.DialAndSend(buildMessage(msg)); err != nil {
		return fmt.Errorf("%w: send to %s: %w", ErrTransport, msg.To, err)
	}
	return nil
}

func buildMessage(msg *Message) *gomail.Message {
	m := gomail.NewMessage()
	if msg.From != "" {
		m.SetHeader("From", msg.From)
	}
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.Body)

	for _, a := range msg.Attachments {
		content := a.Content
		contentType := a.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		m.Attach(a.Filename,
			gomail.SetHeader(map[string][]string{
				"Content-Type": {contentType},
			}),
			gomail.SetCopyFunc(func(w io.Writer) error {
				_, err := w.Write(content)
				return err
			}),
		)
	}
	return m
}

// DryRunTransport accepts every valid message without contacting a relay. It
// records what would have been sent.
type DryRunTransport struct {
	logger *slog.Logger

	mu   sync.Mutex
	sent []*Message
}

// NewDryRunTransport returns a transport that only logs.
func NewDryRunTransport(logger *slog.Logger) *DryRunTransport {
	return &DryRunTransport{logger: logging.NewComponentLogger(logger, "mailer")}
}

// Send validates msg and records it.
func (t *DryRunTransport) Send(ctx context.Context, msg *Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := msg.Validate(); err != nil {
		return err
	}
	t.mu.Lock()
	t.sent = append(t.sent, msg)
	t.mu.Unlock()
	t.logger.Debug("dry run: message not sent",
		logging.String(logging.FieldEmail, msg.To),
		logging.Int("attachments", len(msg.Attachments)),
	)
	return nil
}

// Sent returns the messages accepted so far.
func (t *DryRunTransport) Sent() []*Message {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]*Message, len(t.sent))
	copy(out, t.sent)
	return out
}
