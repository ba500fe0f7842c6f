package mail

import (
	"context"
	"errors"
	"io"
	"strings"
)

const (
	// DriverSMTP delivers through an SMTP relay.
	DriverSMTP = "smtp"
	// DriverResend delivers through the Resend HTTP API.
	DriverResend = "resend"
)

var (
	// ErrUnknownDriver is returned by NewFromDriver for an unsupported driver name.
	ErrUnknownDriver = errors.New("unknown mail driver")
	// ErrNoRecipients is returned when To/Cc/Bcc are all empty.
	ErrNoRecipients = errors.New("no recipients provided")
	// ErrNoSender is returned when both Message.From and the configured default From are empty.
	ErrNoSender = errors.New("no sender provided")
)

// Message represents an email payload.
type Message struct {
	// From is an optional explicit sender; the driver default is used when empty.
	From     string
	To       []string
	Cc       []string
	Bcc      []string
	Subject  string
	TextBody string
	HTMLBody string
	// IdempotencyKey lets API providers drop duplicate submissions.
	IdempotencyKey string
}

// Mail abstracts an email provider.
type Mail interface {
	io.Closer
	Send(ctx context.Context, msg Message) error
}

// Config is the union of every driver's settings.
type Config struct {
	From string

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string

	ResendAPIKey  string
	ResendBaseURL string
}

// NewFromDriver builds the Mail implementation named by driver.
func NewFromDriver(driver string, cfg Config) (Mail, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case DriverSMTP:
		return NewSMTP(SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.From,
		})
	case DriverResend:
		return NewResend(ResendConfig{APIKey: cfg.ResendAPIKey, From: cfg.From, BaseURL: cfg.ResendBaseURL})
	default:
		return nil, ErrUnknownDriver
	}
}

func resolveSender(msg Message, fallback string) (string, []string, error) {
	recipients := make([]string, 0, len(msg.To)+len(msg.Cc)+len(msg.Bcc))
	recipients = append(recipients, msg.To...)
	recipients = append(recipients, msg.Cc...)
	recipients = append(recipients, msg.Bcc...)
	if len(recipients) == 0 {
		return "", nil, ErrNoRecipients
	}

	from := msg.From
	if from == "" {
		from = fallback
	}
	if from == "" {
		return "", nil, ErrNoSender
	}

	return from, recipients, nil
}
