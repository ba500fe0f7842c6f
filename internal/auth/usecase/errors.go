package usecase

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"strconv"
	"time"

	"github.com/shandysiswandi/otpauth/internal/auth/entity"
	"github.com/shandysiswandi/otpauth/internal/pkg/goerror"
)

const (
	fieldRetryAfter   = "retry_after_seconds"
	fieldAttemptsLeft = "attempts_left"
)

func errNotFoundOrExpired() error {
	return goerror.NewBusiness("otp not found or expired", goerror.CodeNotFound,
		goerror.WithCause(entity.ErrNotFoundOrExpired),
		goerror.WithReason(entity.ReasonNotFoundOrExpired))
}

func errInvalidCode(attemptsLeft int) error {
	return goerror.NewBusiness("otp code is invalid", goerror.CodeUnauthorized,
		goerror.WithCause(entity.ErrInvalidCode),
		goerror.WithReason(entity.ReasonInvalidCode),
		goerror.WithFields(fieldAttemptsLeft, strconv.Itoa(attemptsLeft)))
}

func errAttemptsExceeded() error {
	return goerror.NewBusiness("too many failed attempts, request a new code", goerror.CodeForbidden,
		goerror.WithCause(entity.ErrAttemptsExceeded),
		goerror.WithReason(entity.ReasonAttemptsExceeded))
}

func errAlreadyConsumed() error {
	return goerror.NewBusiness("otp has already been used", goerror.CodeConflict,
		goerror.WithCause(entity.ErrAlreadyConsumed),
		goerror.WithReason(entity.ReasonAlreadyConsumed))
}

func errThrottled(retryAfter time.Duration) error {
	return goerror.NewBusiness("please wait before requesting another code", goerror.CodeTooManyRequest,
		goerror.WithCause(entity.ErrThrottled),
		goerror.WithReason(entity.ReasonThrottled),
		goerror.WithFields(fieldRetryAfter, strconv.Itoa(ceilSeconds(retryAfter))))
}

func errDispatch(err error) error {
	return goerror.NewBusiness("failed to deliver the code, try again", goerror.CodeUnavailable,
		goerror.WithCause(errors.Join(entity.ErrDispatch, err)),
		goerror.WithReason(entity.ReasonDispatchFailed))
}

func errVerifyInProgress() error {
	return goerror.NewBusiness("verification in progress, try again", goerror.CodeTimeout,
		goerror.WithReason(entity.ReasonVerifyInProgress))
}

// storeError turns a store mutation failure into the client-facing error.
func (s *Usecase) storeError(ctx context.Context, op, identity string, err error) error {
	switch {
	case errors.Is(err, entity.ErrNotFoundOrExpired), errors.Is(err, goerror.ErrNotFound):
		return errNotFoundOrExpired()
	case errors.Is(err, entity.ErrAlreadyConsumed):
		return errAlreadyConsumed()
	case errors.Is(err, entity.ErrAttemptsExceeded):
		return errAttemptsExceeded()
	default:
		slog.ErrorContext(ctx, "failed to repo "+op, "email", identity, "error", err)
		return goerror.NewServer(err)
	}
}

// ceilSeconds rounds d up to whole seconds, never below one.
func ceilSeconds(d time.Duration) int {
	return max(1, int(math.Ceil(d.Seconds())))
}
