package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shandysiswandi/otpauth/internal/auth/entity"
	"github.com/shandysiswandi/otpauth/internal/pkg/goerror"
	"github.com/shandysiswandi/otpauth/internal/pkg/otp"
)

type VerifyInput struct {
	Email string `validate:"required,email,max=254"`
	OTP   string `validate:"required,otpcode"`
}

type VerifyOutput struct {
	AccessToken string
	TokenType   string
	ExpiresAt   time.Time
}

// Verify checks a submitted code. Attempts for the same email are serialized
// by the identity lock; store mutations are additionally guarded by record ID.
func (s *Usecase) Verify(ctx context.Context, in VerifyInput) (*VerifyOutput, error) {
	ctx, span := s.startSpan(ctx, "Verify")
	defer span.End()

	in.Email = entity.NormalizeIdentity(in.Email)
	in.OTP = otp.Normalize(in.OTP)

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	unlock, err := s.lock(ctx, in.Email)
	if err != nil {
		return nil, err
	}
	defer unlock()

	rec, err := s.store.Get(ctx, in.Email)
	if errors.Is(err, goerror.ErrNotFound) {
		return nil, errNotFoundOrExpired()
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get otp record", "email", in.Email, "error", err)
		return nil, goerror.NewServer(err)
	}

	if rec.Consumed {
		return nil, errAlreadyConsumed()
	}

	maxAttempts := s.maxAttempts()
	if rec.Locked(maxAttempts) {
		return nil, errAttemptsExceeded()
	}

	if !s.hash.Verify(rec.CodeHash, entity.CodeSubject(in.Email, in.OTP)) {
		attempts, err := s.store.IncrementAttempts(ctx, in.Email, rec.ID, maxAttempts)
		if err != nil {
			return nil, s.storeError(ctx, "increment otp attempts", in.Email, err)
		}

		slog.WarnContext(ctx, "otp code mismatch", "email", in.Email, "otp_id", rec.ID, "attempts", attempts)
		return nil, errInvalidCode(maxAttempts - attempts)
	}

	if err := s.store.Consume(ctx, in.Email, rec.ID, maxAttempts); err != nil {
		return nil, s.storeError(ctx, "consume otp record", in.Email, err)
	}

	token, err := s.jwt.Generate(in.Email)
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate access token", "email", in.Email, "error", err)
		return nil, goerror.NewServer(err)
	}

	slog.InfoContext(ctx, "otp verified", "email", in.Email, "otp_id", rec.ID)

	return &VerifyOutput{
		AccessToken: token.Value,
		TokenType:   "Bearer",
		ExpiresAt:   token.ExpiresAt,
	}, nil
}

func (s *Usecase) lock(ctx context.Context, identity string) (func(), error) {
	lockCtx, cancel := context.WithTimeout(ctx, s.lockWait())
	defer cancel()

	unlock, err := s.locker.Lock(lockCtx, identity, s.lockLease())
	if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		slog.WarnContext(ctx, "otp verification lock busy", "email", identity)
		return nil, errVerifyInProgress()
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo lock identity", "email", identity, "error", err)
		return nil, goerror.NewServer(err)
	}

	return unlock, nil
}
