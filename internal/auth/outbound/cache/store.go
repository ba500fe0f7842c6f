package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/otpauth/internal/auth/entity"
	"github.com/shandysiswandi/otpauth/internal/pkg/goerror"
)

const (
	mutateIncrement = "incr"
	mutateConsume   = "consume"
)

// KEYS[1] record; ARGV id, now(ms), max attempts, mode.
// Returns the attempt count, or -1 missing/replaced/expired, -2 consumed, -3 locked.
var mutateScript = redis.NewScript(`
local rec = redis.call('HMGET', KEYS[1], 'id', 'expires_at', 'attempts', 'consumed')
if not rec[1] or rec[1] ~= ARGV[1] or tonumber(ARGV[2]) > tonumber(rec[2]) then
  return -1
end
if rec[4] == '1' then
  return -2
end
local attempts = tonumber(rec[3])
if attempts >= tonumber(ARGV[3]) then
  return -3
end
if ARGV[4] == 'consume' then
  redis.call('HSET', KEYS[1], 'consumed', '1')
  return attempts
end
return redis.call('HINCRBY', KEYS[1], 'attempts', 1)
`)

// KEYS[1] record; ARGV now(ms). Deletes the record only when it is expired.
var deleteExpiredScript = redis.NewScript(`
local exp = redis.call('HGET', KEYS[1], 'expires_at')
if exp and tonumber(exp) < tonumber(ARGV[1]) then
  return redis.call('DEL', KEYS[1])
end
return 0
`)

func (c *Cache) Put(ctx context.Context, rec entity.OTPRecord) (err error) {
	ctx, span := c.startSpan(ctx, "Put")
	defer func() { c.endSpan(span, err) }()

	key := prefixRecord + rec.Identity

	_, err = c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key, map[string]any{
			"id":         strconv.FormatInt(rec.ID, 10),
			"code_hash":  rec.CodeHash,
			"issued_at":  nowMillis(rec.IssuedAt),
			"expires_at": nowMillis(rec.ExpiresAt),
			"attempts":   0,
			"consumed":   "0",
		})
		pipe.PExpireAt(ctx, key, rec.ExpiresAt)
		return nil
	})
	return err
}

func (c *Cache) Get(ctx context.Context, identity string) (_ *entity.OTPRecord, err error) {
	ctx, span := c.startSpan(ctx, "Get")
	defer func() { c.endSpan(span, err) }()

	fields, err := c.client.HGetAll(ctx, prefixRecord+identity).Result()
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, goerror.ErrNotFound
	}

	rec, err := decodeRecord(identity, fields)
	if err != nil {
		return nil, err
	}

	if rec.Expired(c.clock.Now()) {
		return nil, goerror.ErrNotFound
	}

	return rec, nil
}

func (c *Cache) IncrementAttempts(ctx context.Context, identity string, id int64, maxAttempts int) (_ int, err error) {
	ctx, span := c.startSpan(ctx, "IncrementAttempts")
	defer func() { c.endSpan(span, err) }()

	return c.mutate(ctx, identity, id, maxAttempts, mutateIncrement)
}

func (c *Cache) Consume(ctx context.Context, identity string, id int64, maxAttempts int) (err error) {
	ctx, span := c.startSpan(ctx, "Consume")
	defer func() { c.endSpan(span, err) }()

	_, err = c.mutate(ctx, identity, id, maxAttempts, mutateConsume)
	return err
}

func (c *Cache) mutate(ctx context.Context, identity string, id int64, maxAttempts int, mode string) (int, error) {
	n, err := mutateScript.Run(ctx, c.client, []string{prefixRecord + identity},
		strconv.FormatInt(id, 10), nowMillis(c.clock.Now()), maxAttempts, mode).Int()
	if err != nil {
		return 0, err
	}

	switch n {
	case -1:
		return 0, entity.ErrNotFoundOrExpired
	case -2:
		return 0, entity.ErrAlreadyConsumed
	case -3:
		return 0, entity.ErrAttemptsExceeded
	}

	return n, nil
}

// DeleteExpired sweeps records the key TTL has not removed yet, which happens
// when the service clock runs ahead of the Redis clock.
func (c *Cache) DeleteExpired(ctx context.Context, now time.Time) (_ int64, err error) {
	ctx, span := c.startSpan(ctx, "DeleteExpired")
	defer func() { c.endSpan(span, err) }()

	var deleted int64
	iter := c.client.Scan(ctx, 0, prefixRecord+"*", 100).Iterator()
	for iter.Next(ctx) {
		n, err := deleteExpiredScript.Run(ctx, c.client, []string{iter.Val()}, nowMillis(now)).Int64()
		if err != nil {
			return deleted, err
		}
		deleted += n
	}

	return deleted, iter.Err()
}

func decodeRecord(identity string, fields map[string]string) (*entity.OTPRecord, error) {
	id, err := strconv.ParseInt(fields["id"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("cache: malformed otp id: %w", err)
	}

	issuedAt, err := strconv.ParseInt(fields["issued_at"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("cache: malformed issued_at: %w", err)
	}

	expiresAt, err := strconv.ParseInt(fields["expires_at"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("cache: malformed expires_at: %w", err)
	}

	attempts, err := strconv.Atoi(fields["attempts"])
	if err != nil {
		return nil, fmt.Errorf("cache: malformed attempts: %w", err)
	}

	return &entity.OTPRecord{
		ID:        id,
		Identity:  identity,
		CodeHash:  fields["code_hash"],
		IssuedAt:  time.UnixMilli(issuedAt),
		ExpiresAt: time.UnixMilli(expiresAt),
		Attempts:  attempts,
		Consumed:  fields["consumed"] == "1",
	}, nil
}
