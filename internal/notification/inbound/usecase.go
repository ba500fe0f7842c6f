package inbound

import (
	"context"

	"github.com/shandysiswandi/otpauth/internal/shared/event"
)

type uc interface {
	SendOTPEmail(ctx context.Context, in event.OTPIssuedMessage) error
}
