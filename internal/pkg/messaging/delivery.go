package messaging

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/shandysiswandi/otpauth/internal/pkg/stacktrace"
	"go.uber.org/atomic"
)

// delivery adapts every broker message to Message. ack and nack run at most
// once between them.
type delivery struct {
	id        string
	body      []byte
	headers   map[string]string
	timestamp time.Time
	ack       func(ctx context.Context) error
	nack      func(ctx context.Context) error

	responded atomic.Bool
}

func (d *delivery) ID() string               { return d.id }
func (d *delivery) Body() []byte             { return d.body }
func (d *delivery) Header(key string) string { return d.headers[key] }
func (d *delivery) Timestamp() time.Time     { return d.timestamp }

func (d *delivery) Ack(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d.responded.Swap(true) || d.ack == nil {
		return nil
	}
	return d.ack(ctx)
}

func (d *delivery) Nack(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d.responded.Swap(true) || d.nack == nil {
		return nil
	}
	return d.nack(ctx)
}

// dispatch runs handler with panic recovery and applies auto-ack. It returns
// the handler error (or the ack error when the handler succeeded).
func dispatch(ctx context.Context, kind string, d *delivery, handler Handler, autoAck bool) (err error) {
	defer func() {
		if rvr := recover(); rvr != nil {
			stack := debug.Stack()
			if paths := stacktrace.InternalPaths(stack); len(paths) > 0 {
				slog.ErrorContext(ctx, "panic in messaging handler", "kind", kind, "panic", rvr, "stack", paths)
			} else {
				slog.ErrorContext(ctx, "panic in messaging handler", "kind", kind, "panic", rvr, "stack", string(stack))
			}
			err = fmt.Errorf("messaging: panic in %s handler: %v", kind, rvr)
		}
		if autoAck && !d.responded.Load() {
			if err == nil {
				err = d.Ack(ctx)
			} else if nerr := d.Nack(ctx); nerr != nil {
				slog.WarnContext(ctx, "failed to nack message", "kind", kind, "id", d.id, "error", nerr)
			}
		}
	}()

	return handler(ctx, d)
}

func validateConsume(ctx context.Context, source string, handler Handler) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if source == "" {
		return ErrDestinationRequired
	}
	if handler == nil {
		return ErrHandlerRequired
	}
	return nil
}
