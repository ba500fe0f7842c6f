package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/shandysiswandi/otpauth/internal/auth/entity"
	"github.com/shandysiswandi/otpauth/internal/pkg/goerror"
)

type IssueInput struct {
	Email string `validate:"required,email,max=254"`
}

type IssueOutput struct {
	ExpiresAt   time.Time
	ResendAfter time.Duration
}

// Issue creates a fresh code for the email, replacing any earlier one, and
// dispatches it.
func (s *Usecase) Issue(ctx context.Context, in IssueInput) (*IssueOutput, error) {
	ctx, span := s.startSpan(ctx, "Issue")
	defer span.End()

	in.Email = entity.NormalizeIdentity(in.Email)

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	return s.issue(ctx, in.Email, false)
}

func (s *Usecase) issue(ctx context.Context, identity string, resend bool) (*IssueOutput, error) {
	cooldown := s.resendCooldown()

	allowed, retryAfter, err := s.throttle.Allow(ctx, identity, cooldown)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo throttle allow", "email", identity, "error", err)
		return nil, goerror.NewServer(err)
	}

	if !allowed {
		slog.WarnContext(ctx, "otp issuance throttled", "email", identity, "retry_after", retryAfter.String())
		return nil, errThrottled(retryAfter)
	}

	code, err := s.generator.Generate()
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate otp code", "error", err)
		s.releaseThrottle(ctx, identity)
		return nil, goerror.NewServer(err)
	}

	codeHash, err := s.hash.Hash(entity.CodeSubject(identity, code))
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash otp code", "error", err)
		s.releaseThrottle(ctx, identity)
		return nil, goerror.NewServer(err)
	}

	now := s.clock.Now()
	rec := entity.OTPRecord{
		ID:        s.uid.Generate(),
		Identity:  identity,
		CodeHash:  string(codeHash),
		IssuedAt:  now,
		ExpiresAt: now.Add(s.ttl()),
	}

	if err := s.store.Put(ctx, rec); err != nil {
		slog.ErrorContext(ctx, "failed to repo put otp record", "email", identity, "error", err)
		s.releaseThrottle(ctx, identity)
		return nil, goerror.NewServer(err)
	}

	if err := s.dispatcher.DispatchOTP(ctx, OTPNotification{
		ID:        rec.ID,
		Email:     identity,
		Code:      code,
		ExpiresAt: rec.ExpiresAt,
		Resend:    resend,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to dispatch otp", "email", identity, "otp_id", rec.ID, "error", err)
		s.releaseThrottle(ctx, identity)
		return nil, errDispatch(err)
	}

	slog.InfoContext(ctx, "otp issued", "email", identity, "otp_id", rec.ID, "resend", resend)

	return &IssueOutput{ExpiresAt: rec.ExpiresAt, ResendAfter: cooldown}, nil
}

func (s *Usecase) releaseThrottle(ctx context.Context, identity string) {
	if err := s.throttle.Release(ctx, identity); err != nil {
		slog.ErrorContext(ctx, "failed to repo throttle release", "email", identity, "error", err)
	}
}
