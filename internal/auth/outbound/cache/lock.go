package cache

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sethvargo/go-retry"
)

var errLockBusy = errors.New("cache: identity lock busy")

// KEYS[1] lock; ARGV token. Only the holder may release.
var unlockScript = redis.NewScript(`
if redis.call('GET', KEYS[1]) == ARGV[1] then
  return redis.call('DEL', KEYS[1])
end
return 0
`)

// Lock polls SET NX until the identity is free or ctx ends. The lease bounds
// how long a crashed holder blocks others.
func (c *Cache) Lock(ctx context.Context, identity string, lease time.Duration) (_ func(), err error) {
	ctx, span := c.startSpan(ctx, "Lock")
	defer func() { c.endSpan(span, err) }()

	key := prefixLock + identity
	token := c.uuid.Generate()

	backoff := retry.WithCappedDuration(200*time.Millisecond, retry.NewExponential(10*time.Millisecond))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		ok, err := c.client.SetNX(ctx, key, token, lease).Result()
		if err != nil {
			return err
		}
		if !ok {
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

			if err := unlockScript.Run(ctx, c.client, []string{key}, token).Err(); err != nil {
				slog.ErrorContext(ctx, "failed to release identity lock", "key", key, "error", err)
			}
		})
	}, nil
}
