// Package idempotency runs a keyed operation at most once to completion,
// so redelivered queue messages do not repeat side effects.
package idempotency

import (
	"context"
	"errors"
	"time"
)

var (
	ErrAlreadyInProgress = errors.New("operation already in progress")
	ErrAlreadyCompleted  = errors.New("operation already completed")
)

type State string

const (
	StateInProgress State = "in_progress"
	StateCompleted  State = "completed"
)

func (s State) String() string {
	return string(s)
}

// Idempotency guards a keyed operation. A failed fn releases the key so the
// next delivery can try again; a successful one marks it completed for the
// state TTL.
type Idempotency interface {
	Exec(ctx context.Context, key string, fn func(context.Context) error) error
}

const (
	defaultLockDuration = time.Minute
	defaultStateTTL     = 24 * time.Hour
	defaultPrefix       = "idempotency:"
)

type Option func(*options)

type options struct {
	lockDuration time.Duration
	stateTTL     time.Duration
	prefix       string
}

// WithLockDuration bounds how long an in-progress key blocks other callers
// when the holder dies without releasing it.
func WithLockDuration(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.lockDuration = d
		}
	}
}

// WithStateTTL sets how long a completed key is remembered.
func WithStateTTL(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.stateTTL = d
		}
	}
}

func WithPrefix(prefix string) Option {
	return func(o *options) {
		o.prefix = prefix
	}
}

func newOptions(opts []Option) options {
	o := options{lockDuration: defaultLockDuration, stateTTL: defaultStateTTL, prefix: defaultPrefix}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func stateError(s State) error {
	if s == StateCompleted {
		return ErrAlreadyCompleted
	}
	return ErrAlreadyInProgress
}
