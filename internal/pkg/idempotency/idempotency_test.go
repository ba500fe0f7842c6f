package idempotency

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/otpauth/internal/pkg/clock"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"
)

func runExecSuite(t *testing.T, g Idempotency) {
	t.Helper()
	ctx := context.Background()

	t.Run("completes once", func(t *testing.T) {
		calls := 0
		fn := func(context.Context) error { calls++; return nil }

		if err := g.Exec(ctx, "k1", fn); err != nil {
			t.Fatalf("first Exec() = %v", err)
		}
		if err := g.Exec(ctx, "k1", fn); !errors.Is(err, ErrAlreadyCompleted) {
			t.Fatalf("second Exec() = %v, want ErrAlreadyCompleted", err)
		}
		if calls != 1 {
			t.Errorf("calls = %d, want 1", calls)
		}
	})

	t.Run("failure releases key", func(t *testing.T) {
		boom := errors.New("boom")

		if err := g.Exec(ctx, "k2", func(context.Context) error { return boom }); !errors.Is(err, boom) {
			t.Fatalf("Exec() = %v, want boom", err)
		}
		if err := g.Exec(ctx, "k2", func(context.Context) error { return nil }); err != nil {
			t.Fatalf("retry Exec() = %v, want nil", err)
		}
	})

	t.Run("in progress", func(t *testing.T) {
		err := g.Exec(ctx, "k3", func(ctx context.Context) error {
			return g.Exec(ctx, "k3", func(context.Context) error { return nil })
		})
		if !errors.Is(err, ErrAlreadyInProgress) {
			t.Fatalf("nested Exec() = %v, want ErrAlreadyInProgress", err)
		}
	})
}

func TestMemory(t *testing.T) {
	runExecSuite(t, NewMemory(clock.New()))
}

func TestMemory_StateTTL(t *testing.T) {
	// Arrange
	clk := clock.NewFake(time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC))
	g := NewMemory(clk, WithStateTTL(time.Minute))
	ok := func(context.Context) error { return nil }
	if err := g.Exec(context.Background(), "k", ok); err != nil {
		t.Fatalf("Exec() = %v", err)
	}

	// Act
	clk.Advance(time.Minute)
	err := g.Exec(context.Background(), "k", ok)

	// Assert
	if err != nil {
		t.Errorf("Exec() after TTL = %v, want nil", err)
	}
}

func TestRedis(t *testing.T) {
	if testing.Short() || os.Getenv("OTPAUTH_INTEGRATION") != "1" {
		t.Skip("set OTPAUTH_INTEGRATION=1 to run redis integration tests")
	}

	ctx := context.Background()
	ctr, err := tcredis.Run(ctx, "redis:7-alpine",
		testcontainers.WithWaitStrategy(wait.ForListeningPort(nat.Port("6379/tcp")).WithStartupTimeout(time.Minute)))
	testcontainers.CleanupContainer(t, ctr)
	if err != nil {
		t.Fatalf("start redis: %v", err)
	}

	uri, err := ctr.ConnectionString(ctx)
	if err != nil {
		t.Fatalf("connection string: %v", err)
	}
	opt, err := redis.ParseURL(uri)
	if err != nil {
		t.Fatalf("parse url: %v", err)
	}
	client := redis.NewClient(opt)
	t.Cleanup(func() { _ = client.Close() })

	runExecSuite(t, NewRedis(client, WithPrefix("test:idem:")))
}
