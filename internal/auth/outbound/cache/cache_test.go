package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/otpauth/internal/auth/outbound/storetest"
	"github.com/shandysiswandi/otpauth/internal/pkg/clock"
	"github.com/shandysiswandi/otpauth/internal/pkg/instrument"
	"github.com/shandysiswandi/otpauth/internal/pkg/uid"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"
)

func newRedis(t *testing.T) *redis.Client {
	t.Helper()

	if testing.Short() || os.Getenv("OTPAUTH_INTEGRATION") != "1" {
		t.Skip("set OTPAUTH_INTEGRATION=1 to run redis integration tests")
	}

	ctx := context.Background()
	ctr, err := tcredis.Run(ctx, "redis:7-alpine",
		testcontainers.WithWaitStrategy(wait.ForListeningPort(nat.Port("6379/tcp")).WithStartupTimeout(time.Minute)),
	)
	testcontainers.CleanupContainer(t, ctr)
	if err != nil {
		t.Fatalf("start redis container: %v", err)
	}

	uri, err := ctr.ConnectionString(ctx)
	if err != nil {
		t.Fatalf("redis connection string: %v", err)
	}

	opts, err := redis.ParseURL(uri)
	if err != nil {
		t.Fatalf("parse redis url: %v", err)
	}

	client := redis.NewClient(opts)
	t.Cleanup(func() { _ = client.Close() })

	return client
}

func TestCache(t *testing.T) {
	client := newRedis(t)

	build := func(clk *clock.Fake) *Cache {
		return New(client, clk, uid.NewUUID(), instrument.NewNoop())
	}

	storetest.Run(t, storetest.Driver{
		Store: func(_ *testing.T, clk *clock.Fake) storetest.Store {
			return build(clk)
		},
		Throttle: func(_ *testing.T, clk *clock.Fake) storetest.Throttle {
			return build(clk)
		},
		Locker: func(*testing.T) storetest.Locker {
			return build(clock.NewFake(time.Now()))
		},
	})
}

func TestDecodeRecord(t *testing.T) {
	tests := []struct {
		name    string
		fields  map[string]string
		wantErr bool
	}{
		{
			name:   "Success",
			fields: map[string]string{"id": "7", "code_hash": "h", "issued_at": "1000", "expires_at": "2000", "attempts": "2", "consumed": "1"},
		},
		{
			name:    "ErrorMalformedID",
			fields:  map[string]string{"id": "x", "issued_at": "1000", "expires_at": "2000", "attempts": "0"},
			wantErr: true,
		},
		{
			name:    "ErrorMissingAttempts",
			fields:  map[string]string{"id": "7", "issued_at": "1000", "expires_at": "2000"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := decodeRecord("a@b.com", tt.fields)

			if tt.wantErr {
				if err == nil {
					t.Fatal("decodeRecord() error = nil, want error")
				}
				return
			}
			if err != nil {
				t.Fatalf("decodeRecord() error = %v", err)
			}
			if rec.ID != 7 || rec.Attempts != 2 || !rec.Consumed || !rec.ExpiresAt.Equal(time.UnixMilli(2000)) {
				t.Errorf("decodeRecord() = %+v", rec)
			}
		})
	}
}
