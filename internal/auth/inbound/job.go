package inbound

import (
	"context"
	"log/slog"
	"time"

	"github.com/shandysiswandi/otpauth/internal/pkg/config"
	"github.com/shandysiswandi/otpauth/internal/pkg/goroutine"
)

const defaultCleanupInterval = time.Minute

type ucCleanup interface {
	CleanupExpired(ctx context.Context) (int64, error)
}

// RegisterCleanupJob sweeps expired records on the goroutine manager until ctx ends.
func RegisterCleanupJob(ctx context.Context, cfg config.Config, routine *goroutine.Manager, uc ucCleanup) {
	interval := cfg.GetSecond("modules.auth.cleanup_interval_seconds")
	if interval <= 0 {
		interval = defaultCleanupInterval
	}

	routine.Go(ctx, func(pCtx context.Context) error {
		slog.InfoContext(pCtx, "Running job for cleaning expired otp", "interval", interval.String())

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-pCtx.Done():
				return nil
			case <-ticker.C:
				// failures are logged by the usecase; the next tick retries
				_, _ = uc.CleanupExpired(pCtx)
			}
		}
	})
}
