package email

import (
	"context"
	"errors"
	"slices"
	"strings"

	"github.com/samber/lo"
	"github.com/shandysiswandi/otpauth/internal/pkg/instrument"
	"github.com/shandysiswandi/otpauth/internal/pkg/mail"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// ErrEmptyMessage is returned for a message with no recipient or no body.
var ErrEmptyMessage = errors.New("email: message has no recipient or body")

// Sender hands rendered notifications to the mail transport.
type Sender struct {
	client mail.Mail
	from   string
	ins    instrument.Instrumentation
}

// New builds a Sender. A non-empty from overrides the transport default.
func New(client mail.Mail, from string, ins instrument.Instrumentation) *Sender {
	return &Sender{client: client, from: strings.TrimSpace(from), ins: ins}
}

func (s *Sender) Send(ctx context.Context, msg mail.Message) error {
	ctx, span := s.ins.Tracer("notification.outbound.email").Start(ctx, "Send")
	defer span.End()

	msg.To = recipients(msg.To)
	msg.Cc = lo.Without(recipients(msg.Cc), msg.To...)
	msg.Bcc = lo.Without(recipients(msg.Bcc), slices.Concat(msg.To, msg.Cc)...)
	if msg.From == "" {
		msg.From = s.from
	}

	span.SetAttributes(
		attribute.Int("mail.recipients", len(msg.To)+len(msg.Cc)+len(msg.Bcc)),
		attribute.Bool("mail.idempotent", msg.IdempotencyKey != ""),
		attribute.Bool("mail.html", msg.HTMLBody != ""),
	)

	if len(msg.To) == 0 || (msg.TextBody == "" && msg.HTMLBody == "") {
		span.SetStatus(codes.Error, ErrEmptyMessage.Error())
		return ErrEmptyMessage
	}

	if err := s.client.Send(ctx, msg); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}

// recipients trims addresses, drops blanks and removes case-insensitive duplicates.
func recipients(list []string) []string {
	list = lo.Compact(lo.Map(list, func(addr string, _ int) string { return strings.TrimSpace(addr) }))
	return lo.UniqBy(list, strings.ToLower)
}
