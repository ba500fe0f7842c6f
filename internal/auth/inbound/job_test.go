package inbound

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shandysiswandi/otpauth/internal/pkg/config"
	"github.com/shandysiswandi/otpauth/internal/pkg/goroutine"
)

type countingCleanup struct {
	calls atomic.Int64
}

func (c *countingCleanup) CleanupExpired(context.Context) (int64, error) {
	c.calls.Add(1)
	return 0, nil
}

func TestRegisterCleanupJob(t *testing.T) {
	// Arrange
	cfg, err := config.NewViperFromBytes("yaml", []byte("modules:\n  auth:\n    cleanup_interval_seconds: 1\n"))
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	routine := goroutine.NewManager(1)
	uc := &countingCleanup{}

	// Act
	RegisterCleanupJob(ctx, cfg, routine, uc)
	deadline := time.Now().Add(3 * time.Second)
	for uc.calls.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(20 * time.Millisecond)
	}
	cancel()

	// Assert
	if err := routine.Wait(); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if uc.calls.Load() == 0 {
		t.Error("CleanupExpired was never called")
	}
}
