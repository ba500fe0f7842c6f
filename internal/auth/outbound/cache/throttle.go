package cache

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// KEYS[1] throttle; ARGV now(ms), cooldown(ms).
// Returns 0 when the slot was taken, else the milliseconds left.
var allowScript = redis.NewScript(`
local last = redis.call('GET', KEYS[1])
if last then
  local left = tonumber(ARGV[2]) - (tonumber(ARGV[1]) - tonumber(last))
  if left > 0 then
    return left
  end
end
redis.call('SET', KEYS[1], ARGV[1], 'PX', ARGV[2])
return 0
`)

func (c *Cache) Allow(ctx context.Context, identity string, cooldown time.Duration) (_ bool, _ time.Duration, err error) {
	ctx, span := c.startSpan(ctx, "Allow")
	defer func() { c.endSpan(span, err) }()

	left, err := allowScript.Run(ctx, c.client, []string{prefixThrottle + identity},
		nowMillis(c.clock.Now()), max(cooldown.Milliseconds(), 1)).Int64()
	if err != nil {
		return false, 0, err
	}

	if left > 0 {
		return false, time.Duration(left) * time.Millisecond, nil
	}

	return true, 0, nil
}

func (c *Cache) Remaining(ctx context.Context, identity string, cooldown time.Duration) (_ time.Duration, err error) {
	ctx, span := c.startSpan(ctx, "Remaining")
	defer func() { c.endSpan(span, err) }()

	raw, err := c.client.Get(ctx, prefixThrottle+identity).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	last, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, err
	}

	left := cooldown - c.clock.Now().Sub(time.UnixMilli(last))
	return max(left, 0), nil
}

func (c *Cache) Release(ctx context.Context, identity string) (err error) {
	ctx, span := c.startSpan(ctx, "Release")
	defer func() { c.endSpan(span, err) }()

	return c.client.Del(ctx, prefixThrottle+identity).Err()
}
