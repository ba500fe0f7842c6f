// Package cache stores OTP state in Redis. Records are hashes whose key TTL
// follows the record expiry; attempt and consume mutations run as Lua
// scripts so they are atomic per identity.
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/otpauth/internal/pkg/goerror"
	"github.com/shandysiswandi/otpauth/internal/pkg/instrument"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	prefixRecord   = "otp:record:"
	prefixThrottle = "otp:throttle:"
	prefixLock     = "otp:lock:"
)

type clocker interface {
	Now() time.Time
}

type generator interface {
	Generate() string
}

type Cache struct {
	client *redis.Client
	clock  clocker
	uuid   generator
	ins    instrument.Instrumentation
}

func New(client *redis.Client, clock clocker, uuid generator, ins instrument.Instrumentation) *Cache {
	return &Cache{client: client, clock: clock, uuid: uuid, ins: ins}
}

func (c *Cache) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return c.ins.Tracer("auth.outbound.cache").Start(ctx, name)
}

func (c *Cache) endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, goerror.ErrNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func nowMillis(t time.Time) int64 {
	return t.UnixMilli()
}
