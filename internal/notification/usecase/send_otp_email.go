package usecase

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shandysiswandi/otpauth/internal/notification/entity"
	"github.com/shandysiswandi/otpauth/internal/pkg/goerror"
	"github.com/shandysiswandi/otpauth/internal/pkg/idempotency"
	"github.com/shandysiswandi/otpauth/internal/pkg/mail"
	"github.com/shandysiswandi/otpauth/internal/shared/event"
)

// SendOTPEmail renders and mails an issued code. Each issuance is mailed at
// most once, so a redelivered event for the same code is skipped.
func (s *Usecase) SendOTPEmail(ctx context.Context, in event.OTPIssuedMessage) error {
	ctx, span := s.startSpan(ctx, "SendOTPEmail")
	defer span.End()

	in.Email = strings.TrimSpace(in.Email)
	if err := s.validator.Validate(in); err != nil {
		slog.ErrorContext(ctx, "Validation failed", "id", in.ID, "error", err)
		return goerror.NewInvalidInput(err)
	}

	key := "notification:otp:" + strconv.FormatInt(in.ID, 10)
	err := s.idempotency.Exec(ctx, key, func(ctx context.Context) error {
		return s.sendOTPEmail(ctx, in)
	})
	switch {
	case err == nil:
		return nil
	case errors.Is(err, idempotency.ErrAlreadyCompleted):
		slog.InfoContext(ctx, "otp email already sent, skipping", "id", in.ID)
		return nil
	case errors.Is(err, idempotency.ErrAlreadyInProgress):
		slog.WarnContext(ctx, "otp email is being sent by another worker", "id", in.ID)
		return err
	default:
		return err
	}
}

func (s *Usecase) sendOTPEmail(ctx context.Context, in event.OTPIssuedMessage) error {
	data := s.baseEmailTemplateData()
	data["code"] = in.Code
	data["email"] = in.Email
	data["resend"] = in.Resend
	data["expires_at"] = in.ExpiresAt.UTC().Format(time.RFC1123)
	data["expires_in_minutes"] = max(1, int(math.Ceil(in.ExpiresAt.Sub(s.clock.Now()).Minutes())))

	msg, err := s.renderEmail(ctx, entity.TriggerKeyOTPCode, data)
	if err != nil {
		slog.ErrorContext(ctx, "failed to render otp email", "id", in.ID, "error", err)
		return goerror.NewServer(err)
	}

	if err := s.repoMail.Send(ctx, mail.Message{
		To:             []string{in.Email},
		Subject:        msg.Subject,
		TextBody:       msg.Text,
		HTMLBody:       msg.HTML,
		IdempotencyKey: "otp-" + strconv.FormatInt(in.ID, 10),
	}); err != nil {
		slog.ErrorContext(ctx, "failed to send otp email", "id", in.ID, "email", in.Email, "error", err)
		return err
	}

	slog.InfoContext(ctx, "otp email sent", "id", in.ID, "email", in.Email, "resend", in.Resend)

	return nil
}

func (s *Usecase) renderEmail(ctx context.Context, tk entity.TriggerKey, data map[string]any) (*entity.Email, error) {
	out := &entity.Email{}

	for _, part := range entity.EmailTemplateParts {
		tpl, err := s.getTemplate(ctx, tk, part)
		if err != nil {
			return nil, err
		}

		rendered, err := s.renderTemplate(entity.TemplateFile(tk, part), part, tpl, data)
		if err != nil {
			return nil, err
		}

		switch part {
		case entity.TemplatePartSubject:
			out.Subject = strings.TrimSpace(rendered)
		case entity.TemplatePartText:
			out.Text = rendered
		case entity.TemplatePartHTML:
			out.HTML = rendered
		}
	}

	return out, nil
}
