package usecase

import (
	"context"
	"time"

	"github.com/shandysiswandi/otpauth/internal/auth/entity"
	"github.com/shandysiswandi/otpauth/internal/pkg/clock"
	"github.com/shandysiswandi/otpauth/internal/pkg/config"
	"github.com/shandysiswandi/otpauth/internal/pkg/hash"
	"github.com/shandysiswandi/otpauth/internal/pkg/instrument"
	"github.com/shandysiswandi/otpauth/internal/pkg/jwt"
	"github.com/shandysiswandi/otpauth/internal/pkg/otp"
	"github.com/shandysiswandi/otpauth/internal/pkg/uid"
	"github.com/shandysiswandi/otpauth/internal/pkg/validator"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultTTL            = 5 * time.Minute
	defaultMaxAttempts    = 5
	defaultResendCooldown = 60 * time.Second
	defaultLockWait       = 2 * time.Second
	defaultLockLease      = 10 * time.Second
)

// OTPNotification is what a dispatcher needs to deliver a code.
type OTPNotification struct {
	ID        int64
	Email     string
	Code      string
	ExpiresAt time.Time
	Resend    bool
}

// repoStore keeps at most one record per identity. Expired records are
// reported as goerror.ErrNotFound by Get and entity.ErrNotFoundOrExpired by
// the mutating calls.
type repoStore interface {
	Put(ctx context.Context, rec entity.OTPRecord) error
	Get(ctx context.Context, identity string) (*entity.OTPRecord, error)
	IncrementAttempts(ctx context.Context, identity string, id int64, maxAttempts int) (int, error)
	Consume(ctx context.Context, identity string, id int64, maxAttempts int) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type repoThrottle interface {
	Allow(ctx context.Context, identity string, cooldown time.Duration) (bool, time.Duration, error)
	Remaining(ctx context.Context, identity string, cooldown time.Duration) (time.Duration, error)
	Release(ctx context.Context, identity string) error
}

type repoLocker interface {
	Lock(ctx context.Context, identity string, lease time.Duration) (func(), error)
}

type repoDispatcher interface {
	DispatchOTP(ctx context.Context, msg OTPNotification) error
}

type Usecase struct {
	store      repoStore
	throttle   repoThrottle
	locker     repoLocker
	dispatcher repoDispatcher
	validator  validator.Validator
	cfg        config.Config
	hash       hash.Hash
	generator  otp.Generator
	uid        uid.NumberID
	clock      clock.Clocker
	jwt        jwt.JWT
	ins        instrument.Instrumentation
}

type Dependency struct {
	RepoStore      repoStore
	RepoThrottle   repoThrottle
	RepoLocker     repoLocker
	RepoDispatcher repoDispatcher
	Validator      validator.Validator
	Config         config.Config
	Hash           hash.Hash
	Generator      otp.Generator
	UID            uid.NumberID
	Clock          clock.Clocker
	JWT            jwt.JWT
	Instrument     instrument.Instrumentation
}

func New(dep Dependency) *Usecase {
	return &Usecase{
		store:      dep.RepoStore,
		throttle:   dep.RepoThrottle,
		locker:     dep.RepoLocker,
		dispatcher: dep.RepoDispatcher,
		validator:  dep.Validator,
		cfg:        dep.Config,
		hash:       dep.Hash,
		generator:  dep.Generator,
		uid:        dep.UID,
		clock:      dep.Clock,
		jwt:        dep.JWT,
		ins:        dep.Instrument,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("auth.usecase").Start(ctx, name)
}

func (s *Usecase) ttl() time.Duration {
	if d := s.cfg.GetSecond("modules.auth.otp.ttl_seconds"); d > 0 {
		return d
	}
	return defaultTTL
}

func (s *Usecase) maxAttempts() int {
	if n := s.cfg.GetInt("modules.auth.otp.max_attempts"); n > 0 {
		return n
	}
	return defaultMaxAttempts
}

func (s *Usecase) resendCooldown() time.Duration {
	if d := s.cfg.GetSecond("modules.auth.otp.resend_cooldown_seconds"); d > 0 {
		return d
	}
	return defaultResendCooldown
}

func (s *Usecase) lockWait() time.Duration {
	if d := s.cfg.GetMillisecond("modules.auth.lock.wait_millis"); d > 0 {
		return d
	}
	return defaultLockWait
}

func (s *Usecase) lockLease() time.Duration {
	if d := s.cfg.GetSecond("modules.auth.lock.lease_seconds"); d > 0 {
		return d
	}
	return defaultLockLease
}
