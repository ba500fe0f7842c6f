// Package mail hands issued codes straight to the notification mailer in the
// same process, skipping the broker.
package mail

import (
	"context"

	"github.com/shandysiswandi/otpauth/internal/auth/usecase"
	"github.com/shandysiswandi/otpauth/internal/pkg/instrument"
	"github.com/shandysiswandi/otpauth/internal/shared/event"
	"go.opentelemetry.io/otel/codes"
)

type mailer interface {
	SendOTPEmail(ctx context.Context, in event.OTPIssuedMessage) error
}

type Mail struct {
	mailer mailer
	ins    instrument.Instrumentation
}

func New(mailer mailer, ins instrument.Instrumentation) *Mail {
	return &Mail{mailer: mailer, ins: ins}
}

func (m *Mail) DispatchOTP(ctx context.Context, msg usecase.OTPNotification) error {
	ctx, span := m.ins.Tracer("auth.outbound.mail").Start(ctx, "DispatchOTP")
	defer span.End()

	if err := m.mailer.SendOTPEmail(ctx, event.OTPIssuedMessage{
		ID:        msg.ID,
		Email:     msg.Email,
		Code:      msg.Code,
		ExpiresAt: msg.ExpiresAt,
		Resend:    msg.Resend,
	}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}
