package idempotency

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis keeps key state in redis so every replica shares it.
type Redis struct {
	client *redis.Client
	opts   options
}

func NewRedis(client *redis.Client, opts ...Option) *Redis {
	return &Redis{client: client, opts: newOptions(opts)}
}

func (r *Redis) Exec(ctx context.Context, key string, fn func(context.Context) error) error {
	fk := r.opts.prefix + key

	acquired, err := r.client.SetNX(ctx, fk, StateInProgress.String(), r.opts.lockDuration).Result()
	if err != nil {
		return err
	}
	if !acquired {
		state, err := r.client.Get(ctx, fk).Result()
		if errors.Is(err, redis.Nil) {
			// released between SETNX and GET; let the caller redeliver
			return ErrAlreadyInProgress
		}
		if err != nil {
			return err
		}
		return stateError(State(state))
	}

	if err := fn(ctx); err != nil {
		relCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
		defer cancel()
		if delErr := r.client.Del(relCtx, fk).Err(); delErr != nil {
			return errors.Join(err, delErr)
		}
		return err
	}

	return r.client.Set(context.WithoutCancel(ctx), fk, StateCompleted.String(), r.opts.stateTTL).Err()
}
