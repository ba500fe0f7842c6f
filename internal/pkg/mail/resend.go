package mail

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/resend/resend-go/v2"
	"github.com/sethvargo/go-retry"
)

// ErrResendAPIKeyRequired is returned when the Resend API key is empty.
var ErrResendAPIKeyRequired = errors.New("resend api key is required")

// ResendConfig configures the Resend implementation.
type ResendConfig struct {
	APIKey string
	// From is the default sender when Message.From is empty.
	From string
	// BaseURL overrides the API endpoint (tests, regional hosts).
	BaseURL string
	// MaxRetries bounds retries on rate limiting; 0 uses the default of 2.
	MaxRetries uint64
}

// Resend is a Mail implementation backed by the Resend HTTP API.
type Resend struct {
	client      *resend.Client
	defaultFrom string
	maxRetries  uint64
}

// NewResend constructs a Resend mail sender.
func NewResend(cfg ResendConfig) (*Resend, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrResendAPIKeyRequired
	}

	client := resend.NewClient(cfg.APIKey)
	if cfg.BaseURL != "" {
		u, err := url.Parse(strings.TrimSuffix(cfg.BaseURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("parse resend base url: %w", err)
		}
		client.BaseURL = u
	}

	maxRetries := cfg.MaxRetries
	if maxRetries == 0 {
		maxRetries = 2
	}

	return &Resend{client: client, defaultFrom: cfg.From, maxRetries: maxRetries}, nil
}

// Send delivers a message through the Resend API, retrying rate-limited calls.
func (r *Resend) Send(ctx context.Context, msg Message) error {
	from, _, err := resolveSender(msg, r.defaultFrom)
	if err != nil {
		return err
	}

	params := &resend.SendEmailRequest{
		From:    from,
		To:      msg.To,
		Cc:      msg.Cc,
		Bcc:     msg.Bcc,
		Subject: msg.Subject,
		Text:    msg.TextBody,
		Html:    msg.HTMLBody,
	}
	opts := &resend.SendEmailOptions{IdempotencyKey: strings.TrimSpace(msg.IdempotencyKey)}

	backoff := retry.WithMaxRetries(r.maxRetries, retry.NewExponential(500*time.Millisecond))

	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		_, err := r.client.Emails.SendWithOptions(ctx, params, opts)
		if err == nil {
			return nil
		}

		var rateLimitErr *resend.RateLimitError
		if errors.As(err, &rateLimitErr) {
			return retry.RetryableError(err)
		}

		return fmt.Errorf("resend send failed: %w", err)
	})
}

// Close implements io.Closer.
func (r *Resend) Close() error {
	return nil
}
