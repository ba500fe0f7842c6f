package usecase

import (
	"context"
	"log/slog"

	"github.com/shandysiswandi/otpauth/internal/pkg/goerror"
)

// CleanupExpired removes records whose expiry has passed.
func (s *Usecase) CleanupExpired(ctx context.Context) (int64, error) {
	ctx, span := s.startSpan(ctx, "CleanupExpired")
	defer span.End()

	n, err := s.store.DeleteExpired(ctx, s.clock.Now())
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo delete expired otp records", "error", err)
		return 0, goerror.NewServer(err)
	}

	if n > 0 {
		slog.InfoContext(ctx, "expired otp records removed", "count", n)
	}

	return n, nil
}
