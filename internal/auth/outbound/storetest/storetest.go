// Package storetest holds the behaviour every OTP state driver (memory,
// redis, postgres) must share, runnable against any of them.
package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shandysiswandi/otpauth/internal/auth/entity"
	"github.com/shandysiswandi/otpauth/internal/pkg/clock"
	"github.com/shandysiswandi/otpauth/internal/pkg/goerror"
)

type Store interface {
	Put(ctx context.Context, rec entity.OTPRecord) error
	Get(ctx context.Context, identity string) (*entity.OTPRecord, error)
	IncrementAttempts(ctx context.Context, identity string, id int64, maxAttempts int) (int, error)
	Consume(ctx context.Context, identity string, id int64, maxAttempts int) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type Throttle interface {
	Allow(ctx context.Context, identity string, cooldown time.Duration) (bool, time.Duration, error)
	Remaining(ctx context.Context, identity string, cooldown time.Duration) (time.Duration, error)
	Release(ctx context.Context, identity string) error
}

type Locker interface {
	Lock(ctx context.Context, identity string, lease time.Duration) (func(), error)
}

// Driver builds fresh driver instances reading time from clk.
type Driver struct {
	Store    func(t *testing.T, clk *clock.Fake) Store
	Throttle func(t *testing.T, clk *clock.Fake) Throttle
	Locker   func(t *testing.T) Locker
}

const maxAttempts = 3

// Run executes the shared driver behaviour. Identities are suffixed with the
// test name so drivers backed by a shared server need no cleanup.
func Run(t *testing.T, d Driver) {
	t.Helper()

	t.Run("Store", func(t *testing.T) { runStore(t, d) })
	t.Run("Throttle", func(t *testing.T) { runThrottle(t, d) })
	t.Run("Locker", func(t *testing.T) { runLocker(t, d) })
}

func newRecord(clk *clock.Fake, id int64, identity string) entity.OTPRecord {
	now := clk.Now()
	return entity.OTPRecord{
		ID:        id,
		Identity:  identity,
		CodeHash:  "hash-of-" + identity,
		IssuedAt:  now,
		ExpiresAt: now.Add(5 * time.Minute),
	}
}

func runStore(t *testing.T, d Driver) {
	ctx := context.Background()

	t.Run("PutGet", func(t *testing.T) {
		// Arrange
		clk := clock.NewFake(time.Now().Truncate(time.Millisecond))
		s := d.Store(t, clk)
		rec := newRecord(clk, 1, "put-get@example.com")

		// Act
		if err := s.Put(ctx, rec); err != nil {
			t.Fatalf("Put() error = %v", err)
		}
		got, err := s.Get(ctx, rec.Identity)

		// Assert
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if got.ID != rec.ID || got.CodeHash != rec.CodeHash || got.Attempts != 0 || got.Consumed {
			t.Fatalf("Get() = %+v, want %+v", got, rec)
		}
		if !got.ExpiresAt.Equal(rec.ExpiresAt) {
			t.Fatalf("ExpiresAt = %v, want %v", got.ExpiresAt, rec.ExpiresAt)
		}
	})

	t.Run("GetMissing", func(t *testing.T) {
		s := d.Store(t, clock.NewFake(time.Now()))

		if _, err := s.Get(ctx, "missing@example.com"); !errors.Is(err, goerror.ErrNotFound) {
			t.Fatalf("Get() error = %v, want %v", err, goerror.ErrNotFound)
		}
	})

	t.Run("ReplaceResetsAttempts", func(t *testing.T) {
		// Arrange
		clk := clock.NewFake(time.Now())
		s := d.Store(t, clk)
		first := newRecord(clk, 10, "replace@example.com")
		mustPut(t, s, first)
		if _, err := s.IncrementAttempts(ctx, first.Identity, first.ID, maxAttempts); err != nil {
			t.Fatalf("IncrementAttempts() error = %v", err)
		}

		// Act
		second := newRecord(clk, 11, first.Identity)
		mustPut(t, s, second)

		// Assert
		got, err := s.Get(ctx, first.Identity)
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if got.ID != second.ID || got.Attempts != 0 {
			t.Fatalf("Get() = %+v, want fresh record %d", got, second.ID)
		}
		if _, err := s.IncrementAttempts(ctx, first.Identity, first.ID, maxAttempts); !errors.Is(err, entity.ErrNotFoundOrExpired) {
			t.Fatalf("IncrementAttempts(old id) error = %v, want %v", err, entity.ErrNotFoundOrExpired)
		}
	})

	t.Run("IncrementUntilExceeded", func(t *testing.T) {
		clk := clock.NewFake(time.Now())
		s := d.Store(t, clk)
		rec := newRecord(clk, 20, "increment@example.com")
		mustPut(t, s, rec)

		for want := 1; want <= maxAttempts; want++ {
			got, err := s.IncrementAttempts(ctx, rec.Identity, rec.ID, maxAttempts)
			if err != nil {
				t.Fatalf("IncrementAttempts() #%d error = %v", want, err)
			}
			if got != want {
				t.Fatalf("IncrementAttempts() #%d = %d, want %d", want, got, want)
			}
		}

		if _, err := s.IncrementAttempts(ctx, rec.Identity, rec.ID, maxAttempts); !errors.Is(err, entity.ErrAttemptsExceeded) {
			t.Fatalf("IncrementAttempts() past max error = %v, want %v", err, entity.ErrAttemptsExceeded)
		}
		if err := s.Consume(ctx, rec.Identity, rec.ID, maxAttempts); !errors.Is(err, entity.ErrAttemptsExceeded) {
			t.Fatalf("Consume() on locked record error = %v, want %v", err, entity.ErrAttemptsExceeded)
		}
	})

	t.Run("ConsumeOnce", func(t *testing.T) {
		clk := clock.NewFake(time.Now())
		s := d.Store(t, clk)
		rec := newRecord(clk, 30, "consume@example.com")
		mustPut(t, s, rec)

		if err := s.Consume(ctx, rec.Identity, rec.ID, maxAttempts); err != nil {
			t.Fatalf("Consume() error = %v", err)
		}
		if err := s.Consume(ctx, rec.Identity, rec.ID, maxAttempts); !errors.Is(err, entity.ErrAlreadyConsumed) {
			t.Fatalf("second Consume() error = %v, want %v", err, entity.ErrAlreadyConsumed)
		}
		if _, err := s.IncrementAttempts(ctx, rec.Identity, rec.ID, maxAttempts); !errors.Is(err, entity.ErrAlreadyConsumed) {
			t.Fatalf("IncrementAttempts() after consume error = %v, want %v", err, entity.ErrAlreadyConsumed)
		}

		got, err := s.Get(ctx, rec.Identity)
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if !got.Consumed {
			t.Fatal("Get().Consumed = false, want true")
		}
	})

	t.Run("LazyExpiry", func(t *testing.T) {
		clk := clock.NewFake(time.Now())
		s := d.Store(t, clk)
		rec := newRecord(clk, 40, "expiry@example.com")
		mustPut(t, s, rec)

		clk.Advance(5*time.Minute + time.Second)

		if _, err := s.Get(ctx, rec.Identity); !errors.Is(err, goerror.ErrNotFound) {
			t.Fatalf("Get() after expiry error = %v, want %v", err, goerror.ErrNotFound)
		}
		if err := s.Consume(ctx, rec.Identity, rec.ID, maxAttempts); !errors.Is(err, entity.ErrNotFoundOrExpired) {
			t.Fatalf("Consume() after expiry error = %v, want %v", err, entity.ErrNotFoundOrExpired)
		}
	})

	t.Run("DeleteExpired", func(t *testing.T) {
		clk := clock.NewFake(time.Now())
		s := d.Store(t, clk)
		old := newRecord(clk, 50, "gc-old@example.com")
		old.ExpiresAt = clk.Now().Add(time.Second)
		mustPut(t, s, old)
		fresh := newRecord(clk, 51, "gc-fresh@example.com")
		mustPut(t, s, fresh)

		clk.Advance(2 * time.Second)
		n, err := s.DeleteExpired(ctx, clk.Now())
		if err != nil {
			t.Fatalf("DeleteExpired() error = %v", err)
		}
		if n < 1 {
			t.Fatalf("DeleteExpired() = %d, want at least 1", n)
		}

		if _, err := s.Get(ctx, fresh.Identity); err != nil {
			t.Fatalf("Get(fresh) error = %v", err)
		}
	})
}

func runThrottle(t *testing.T, d Driver) {
	ctx := context.Background()
	cooldown := time.Minute

	t.Run("AllowThenDeny", func(t *testing.T) {
		// Arrange
		clk := clock.NewFake(time.Now())
		th := d.Throttle(t, clk)
		identity := "throttle@example.com"

		// Act
		first, _, err := th.Allow(ctx, identity, cooldown)
		if err != nil {
			t.Fatalf("Allow() error = %v", err)
		}
		clk.Advance(20 * time.Second)
		second, retryAfter, err := th.Allow(ctx, identity, cooldown)
		if err != nil {
			t.Fatalf("Allow() error = %v", err)
		}

		// Assert
		if !first || second {
			t.Fatalf("Allow() = %v then %v, want true then false", first, second)
		}
		if retryAfter <= 0 || retryAfter > 40*time.Second {
			t.Fatalf("retryAfter = %v, want (0, 40s]", retryAfter)
		}

		left, err := th.Remaining(ctx, identity, cooldown)
		if err != nil {
			t.Fatalf("Remaining() error = %v", err)
		}
		if left <= 0 || left > 40*time.Second {
			t.Fatalf("Remaining() = %v, want (0, 40s]", left)
		}
	})

	t.Run("AllowAfterCooldown", func(t *testing.T) {
		clk := clock.NewFake(time.Now())
		th := d.Throttle(t, clk)
		identity := "cooldown@example.com"

		if ok, _, err := th.Allow(ctx, identity, cooldown); err != nil || !ok {
			t.Fatalf("Allow() = %v, %v; want true", ok, err)
		}
		clk.Advance(cooldown)

		if ok, _, err := th.Allow(ctx, identity, cooldown); err != nil || !ok {
			t.Fatalf("Allow() after cooldown = %v, %v; want true", ok, err)
		}
	})

	t.Run("Release", func(t *testing.T) {
		clk := clock.NewFake(time.Now())
		th := d.Throttle(t, clk)
		identity := "release@example.com"

		if ok, _, err := th.Allow(ctx, identity, cooldown); err != nil || !ok {
			t.Fatalf("Allow() = %v, %v; want true", ok, err)
		}
		if err := th.Release(ctx, identity); err != nil {
			t.Fatalf("Release() error = %v", err)
		}

		if ok, _, err := th.Allow(ctx, identity, cooldown); err != nil || !ok {
			t.Fatalf("Allow() after release = %v, %v; want true", ok, err)
		}
		if left, err := th.Remaining(ctx, "never@example.com", cooldown); err != nil || left != 0 {
			t.Fatalf("Remaining(unknown) = %v, %v; want 0", left, err)
		}
	})
}

func runLocker(t *testing.T, d Driver) {
	// Arrange
	l := d.Locker(t)
	identity := "locker@example.com"

	unlock, err := l.Lock(context.Background(), identity, 5*time.Second)
	if err != nil {
		t.Fatalf("Lock() error = %v", err)
	}

	// Act
	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	_, busyErr := l.Lock(ctx, identity, 5*time.Second)
	cancel()

	other, otherErr := l.Lock(context.Background(), "other-"+identity, 5*time.Second)

	// Assert
	if !errors.Is(busyErr, context.DeadlineExceeded) {
		t.Fatalf("Lock() while held error = %v, want %v", busyErr, context.DeadlineExceeded)
	}
	if otherErr != nil {
		t.Fatalf("Lock(other identity) error = %v", otherErr)
	}
	other()

	unlock()
	again, err := l.Lock(context.Background(), identity, 5*time.Second)
	if err != nil {
		t.Fatalf("Lock() after unlock error = %v", err)
	}
	again()
}

func mustPut(t *testing.T, s Store, rec entity.OTPRecord) {
	t.Helper()
	if err := s.Put(context.Background(), rec); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
}
