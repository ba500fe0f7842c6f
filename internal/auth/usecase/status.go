package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shandysiswandi/otpauth/internal/auth/entity"
	"github.com/shandysiswandi/otpauth/internal/pkg/goerror"
)

type StatusInput struct {
	Email string `validate:"required,email,max=254"`
}

// StatusOutput drives the client countdown. It never carries code material.
// Active, ExpiresAt and AttemptsLeft are only filled when Detailed is set.
type StatusOutput struct {
	Detailed     bool
	Active       bool
	ExpiresAt    time.Time
	AttemptsLeft int
	ResendAfter  time.Duration
}

func (s *Usecase) Status(ctx context.Context, in StatusInput) (*StatusOutput, error) {
	ctx, span := s.startSpan(ctx, "Status")
	defer span.End()

	in.Email = entity.NormalizeIdentity(in.Email)

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	resendAfter, err := s.throttle.Remaining(ctx, in.Email, s.resendCooldown())
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo throttle remaining", "email", in.Email, "error", err)
		return nil, goerror.NewServer(err)
	}

	out := &StatusOutput{ResendAfter: resendAfter}

	// the endpoint is public, so record details stay hidden unless enabled
	if !s.cfg.GetBool("modules.auth.status.expose_details") {
		return out, nil
	}
	out.Detailed = true

	rec, err := s.store.Get(ctx, in.Email)
	if errors.Is(err, goerror.ErrNotFound) {
		return out, nil
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get otp record", "email", in.Email, "error", err)
		return nil, goerror.NewServer(err)
	}

	if rec.Consumed {
		return out, nil
	}

	maxAttempts := s.maxAttempts()
	out.Active = !rec.Locked(maxAttempts)
	out.ExpiresAt = rec.ExpiresAt
	out.AttemptsLeft = rec.AttemptsLeft(maxAttempts)

	return out, nil
}
