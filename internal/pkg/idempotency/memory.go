package idempotency

import (
	"context"
	"sync"
	"time"
)

type clocker interface {
	Now() time.Time
}

type memoryEntry struct {
	state     State
	expiresAt time.Time
}

// Memory keeps key state in the process. It only dedupes deliveries handled
// by the same replica.
type Memory struct {
	mu      sync.Mutex
	clock   clocker
	opts    options
	entries map[string]memoryEntry
}

func NewMemory(clock clocker, opts ...Option) *Memory {
	return &Memory{clock: clock, opts: newOptions(opts), entries: make(map[string]memoryEntry)}
}

func (m *Memory) Exec(ctx context.Context, key string, fn func(context.Context) error) error {
	if err := m.acquire(key); err != nil {
		return err
	}

	if err := fn(ctx); err != nil {
		m.mu.Lock()
		delete(m.entries, key)
		m.mu.Unlock()
		return err
	}

	m.mu.Lock()
	m.entries[key] = memoryEntry{state: StateCompleted, expiresAt: m.clock.Now().Add(m.opts.stateTTL)}
	m.mu.Unlock()

	return nil
}

func (m *Memory) acquire(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock.Now()
	if e, ok := m.entries[key]; ok && now.Before(e.expiresAt) {
		return stateError(e.state)
	}

	m.entries[key] = memoryEntry{state: StateInProgress, expiresAt: now.Add(m.opts.lockDuration)}

	// sweep so a long-lived consumer does not grow without bound
	for k, e := range m.entries {
		if !now.Before(e.expiresAt) {
			delete(m.entries, k)
		}
	}

	return nil
}
