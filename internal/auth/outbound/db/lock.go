package db

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
)

var errLockBusy = errors.New("db: identity lock busy")

const minLockLease = time.Second

// Lock claims the otp_locks row of identity, polling until it is free, its
// lease has run out, or ctx ends. No connection is held between polls, so
// lock holders never starve the pool used by the store calls they make.
func (s *DB) Lock(ctx context.Context, identity string, lease time.Duration) (_ func(), err error) {
	ctx, span := s.startSpan(ctx, "Lock")
	defer func() { s.endSpan(span, err) }()

	lease = max(lease, minLockLease)
	token := uuid.NewString()

	backoff := retry.WithCappedDuration(200*time.Millisecond, retry.NewExponential(10*time.Millisecond))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		tag, err := s.conn.Exec(ctx, `
			INSERT INTO otp_locks (identity, token, expires_at)
			VALUES ($1, $2, clock_timestamp() + make_interval(secs => $3))
			ON CONFLICT (identity) DO UPDATE
			SET token = EXCLUDED.token, expires_at = EXCLUDED.expires_at
			WHERE otp_locks.expires_at <= clock_timestamp()`,
			identity, token, lease.Seconds())
		if err != nil {
			return s.mapError(err)
		}
		if tag.RowsAffected() == 0 {
			return retry.RetryableError(errLockBusy)
		}
		return nil
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, err
	}

	unlockCtx := context.WithoutCancel(ctx)
	var once sync.Once
	return func() {
		once.Do(func() {
			ctx, cancel := context.WithTimeout(unlockCtx, time.Second)
			defer cancel()

			// only the holder's token releases; a lease taken over stays intact
			if _, err := s.conn.Exec(ctx, `DELETE FROM otp_locks WHERE identity = $1 AND token = $2`, identity, token); err != nil {
				slog.ErrorContext(ctx, "failed to release identity lock", "identity", identity, "error", err)
			}
		})
	}, nil
}
