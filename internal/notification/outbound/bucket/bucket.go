// Package bucket reads email templates from object storage.
package bucket

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/shandysiswandi/otpauth/internal/pkg/goerror"
	"github.com/shandysiswandi/otpauth/internal/pkg/instrument"
	"github.com/shandysiswandi/otpauth/internal/pkg/storage"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const maxTemplateBytes = 256 << 10

type Bucket struct {
	client storage.Storage
	bucket string
	prefix string
	ins    instrument.Instrumentation
}

// New returns a template bucket. A nil client makes every lookup miss, which
// sends callers to their built-in templates.
func New(client storage.Storage, bucket, prefix string, ins instrument.Instrumentation) *Bucket {
	return &Bucket{client: client, bucket: bucket, prefix: prefix, ins: ins}
}

func (b *Bucket) startSpan(ctx context.Context, name, key string) (context.Context, trace.Span) {
	return b.ins.Tracer("notification.outbound.bucket").Start(ctx, name,
		trace.WithAttributes(attribute.String("storage.key", key)))
}

func (b *Bucket) endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, goerror.ErrNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func backoff() retry.Backoff {
	return retry.WithMaxRetries(2, retry.NewExponential(50*time.Millisecond))
}

// GetTemplate returns goerror.ErrNotFound when the object does not exist.
func (b *Bucket) GetTemplate(ctx context.Context, file string) (_ string, err error) {
	key := b.prefix + file
	ctx, span := b.startSpan(ctx, "GetTemplate", key)
	defer func() { b.endSpan(span, err) }()

	if b.client == nil || b.bucket == "" {
		return "", goerror.ErrNotFound
	}

	var content string
	err = retry.Do(ctx, backoff(), func(ctx context.Context) error {
		rc, _, err := b.client.GetObject(ctx, b.bucket, key)
		if errors.Is(err, storage.ErrObjectNotFound) {
			return goerror.ErrNotFound
		}
		if err != nil {
			return retry.RetryableError(err)
		}
		defer rc.Close()

		data, err := io.ReadAll(io.LimitReader(rc, maxTemplateBytes))
		if err != nil {
			return retry.RetryableError(err)
		}

		content = string(data)
		return nil
	})
	if err != nil {
		return "", err
	}

	return content, nil
}

// SeedTemplate uploads content only when the object is missing, so edits
// made in the bucket survive restarts. It reports whether it wrote.
func (b *Bucket) SeedTemplate(ctx context.Context, file, content string) (_ bool, err error) {
	key := b.prefix + file
	ctx, span := b.startSpan(ctx, "SeedTemplate", key)
	defer func() { b.endSpan(span, err) }()

	if b.client == nil || b.bucket == "" {
		return false, nil
	}

	_, err = b.client.StatObject(ctx, b.bucket, key)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, storage.ErrObjectNotFound) {
		return false, err
	}

	_, err = b.client.PutObject(ctx, b.bucket, key, strings.NewReader(content), storage.PutOptions{
		Size:        int64(len(content)),
		ContentType: "text/plain; charset=utf-8",
		Metadata:    map[string]string{"seeded-by": "otpauth"},
	})
	if err != nil {
		return false, err
	}

	return true, nil
}
