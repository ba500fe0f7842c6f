// Package memory keeps OTP state in process memory. It backs tests and
// single-node development; state is lost on restart.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/shandysiswandi/otpauth/internal/auth/entity"
	"github.com/shandysiswandi/otpauth/internal/pkg/goerror"
)

type clocker interface {
	Now() time.Time
}

type Store struct {
	mu      sync.Mutex
	clock   clocker
	records map[string]entity.OTPRecord
}

func NewStore(clock clocker) *Store {
	return &Store{clock: clock, records: make(map[string]entity.OTPRecord)}
}

func (s *Store) Put(_ context.Context, rec entity.OTPRecord) error {
	rec.Attempts = 0
	rec.Consumed = false

	s.mu.Lock()
	s.records[rec.Identity] = rec
	s.mu.Unlock()

	return nil
}

func (s *Store) Get(_ context.Context, identity string) (*entity.OTPRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[identity]
	if !ok {
		return nil, goerror.ErrNotFound
	}

	if rec.Expired(s.clock.Now()) {
		delete(s.records, identity)
		return nil, goerror.ErrNotFound
	}

	return &rec, nil
}

func (s *Store) IncrementAttempts(_ context.Context, identity string, id int64, maxAttempts int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.mutable(identity, id, maxAttempts)
	if err != nil {
		return 0, err
	}

	rec.Attempts++
	s.records[identity] = rec

	return rec.Attempts, nil
}

func (s *Store) Consume(_ context.Context, identity string, id int64, maxAttempts int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.mutable(identity, id, maxAttempts)
	if err != nil {
		return err
	}

	rec.Consumed = true
	s.records[identity] = rec

	return nil
}

func (s *Store) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for identity, rec := range s.records {
		if rec.Expired(now) {
			delete(s.records, identity)
			n++
		}
	}

	return n, nil
}

// mutable must be called with mu held.
func (s *Store) mutable(identity string, id int64, maxAttempts int) (entity.OTPRecord, error) {
	rec, ok := s.records[identity]
	switch {
	case !ok, rec.ID != id, rec.Expired(s.clock.Now()):
		return rec, entity.ErrNotFoundOrExpired
	case rec.Consumed:
		return rec, entity.ErrAlreadyConsumed
	case rec.Locked(maxAttempts):
		return rec, entity.ErrAttemptsExceeded
	}
	return rec, nil
}

type Throttle struct {
	mu     sync.Mutex
	clock  clocker
	issued map[string]time.Time
}

func NewThrottle(clock clocker) *Throttle {
	return &Throttle{clock: clock, issued: make(map[string]time.Time)}
}

func (t *Throttle) Allow(_ context.Context, identity string, cooldown time.Duration) (bool, time.Duration, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.clock.Now()
	if last, ok := t.issued[identity]; ok {
		if left := cooldown - now.Sub(last); left > 0 {
			return false, left, nil
		}
	}

	t.issued[identity] = now
	return true, 0, nil
}

func (t *Throttle) Remaining(_ context.Context, identity string, cooldown time.Duration) (time.Duration, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	last, ok := t.issued[identity]
	if !ok {
		return 0, nil
	}

	left := cooldown - t.clock.Now().Sub(last)
	if left <= 0 {
		delete(t.issued, identity)
		return 0, nil
	}

	return left, nil
}

func (t *Throttle) Release(_ context.Context, identity string) error {
	t.mu.Lock()
	delete(t.issued, identity)
	t.mu.Unlock()

	return nil
}

// Locker serializes callers per identity. The lease is ignored because a
// holder cannot outlive the process.
type Locker struct {
	mu    sync.Mutex
	slots map[string]*slot
}

type slot struct {
	ch   chan struct{}
	refs int
}

func NewLocker() *Locker {
	return &Locker{slots: make(map[string]*slot)}
}

func (l *Locker) Lock(ctx context.Context, identity string, _ time.Duration) (func(), error) {
	l.mu.Lock()
	s, ok := l.slots[identity]
	if !ok {
		s = &slot{ch: make(chan struct{}, 1)}
		l.slots[identity] = s
	}
	s.refs++
	l.mu.Unlock()

	select {
	case s.ch <- struct{}{}:
	case <-ctx.Done():
		l.release(identity, s)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-s.ch
			l.release(identity, s)
		})
	}, nil
}

func (l *Locker) release(identity string, s *slot) {
	l.mu.Lock()
	defer l.mu.Unlock()

	s.refs--
	if s.refs == 0 {
		delete(l.slots, identity)
	}
}
