package mail

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

const (
	// DriverSMTP delivers through an SMTP relay.
	DriverSMTP = "smtp"
	// DriverLog only logs outgoing messages.
	DriverLog = "log"
)

// ErrUnknownDriver indicates an unsupported mail driver.
var ErrUnknownDriver = errors.New("mail: unknown driver")

// Message represents an email payload.
type Message struct {
	// From is an optional explicit sender; the configured default is used otherwise.
	From     string
	To       []string
	Cc       []string
	Bcc      []string
	Subject  string
	TextBody string
	HTMLBody string
}

func (m Message) recipients() []string {
	out := make([]string, 0, len(m.To)+len(m.Cc)+len(m.Bcc))
	out = append(out, m.To...)
	out = append(out, m.Cc...)
	return append(out, m.Bcc...)
}

// Mail abstracts an email provider.
type Mail interface {
	io.Closer
	Send(ctx context.Context, msg Message) error
}

// NewFromDriver constructs a Mail implementation by driver name.
func NewFromDriver(driver string, cfg SMTPConfig) (Mail, error) {
	switch strings.TrimSpace(driver) {
	case DriverSMTP:
		return NewSMTP(cfg)
	case DriverLog, "":
		return Log{}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownDriver, driver)
	}
}

// Log is a Mail that writes each message to slog at info level.
type Log struct{}

func (Log) Send(ctx context.Context, msg Message) error {
	if len(msg.recipients()) == 0 {
		return ErrSMTPNoRecipients
	}
	slog.InfoContext(ctx, "mail not delivered, log driver active",
		"to", msg.To, "subject", msg.Subject, "text_bytes", len(msg.TextBody))
	return nil
}

func (Log) Close() error { return nil }
