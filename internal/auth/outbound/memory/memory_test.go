package memory

import (
	"context"
	"testing"
	"time"

	"github.com/shandysiswandi/otpauth/internal/auth/entity"
	"github.com/shandysiswandi/otpauth/internal/auth/outbound/storetest"
	"github.com/shandysiswandi/otpauth/internal/pkg/clock"
)

func TestMemory(t *testing.T) {
	storetest.Run(t, storetest.Driver{
		Store:    func(_ *testing.T, clk *clock.Fake) storetest.Store { return NewStore(clk) },
		Throttle: func(_ *testing.T, clk *clock.Fake) storetest.Throttle { return NewThrottle(clk) },
		Locker:   func(*testing.T) storetest.Locker { return NewLocker() },
	})
}

func TestLocker_ReleasesSlots(t *testing.T) {
	l := NewLocker()

	unlock, err := l.Lock(context.Background(), "a@b.com", time.Second)
	if err != nil {
		t.Fatalf("Lock() error = %v", err)
	}
	unlock()
	unlock()

	if n := len(l.slots); n != 0 {
		t.Fatalf("slots = %d after unlock, want 0", n)
	}
}

func TestStore_GetDropsExpired(t *testing.T) {
	// Arrange
	clk := clock.NewFake(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	s := NewStore(clk)
	rec := entity.OTPRecord{ID: 1, Identity: "a@b.com", ExpiresAt: clk.Now().Add(time.Minute)}
	if err := s.Put(context.Background(), rec); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	// Act
	clk.Advance(time.Minute + time.Nanosecond)
	_, _ = s.Get(context.Background(), rec.Identity)

	// Assert
	if _, ok := s.records[rec.Identity]; ok {
		t.Fatal("expired record still stored after Get")
	}
}
