package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shandysiswandi/otpauth/internal/pkg/clock"
	"github.com/shandysiswandi/otpauth/internal/pkg/config"
	"github.com/shandysiswandi/otpauth/internal/pkg/goroutine"
	"github.com/shandysiswandi/otpauth/internal/pkg/hash"
	"github.com/shandysiswandi/otpauth/internal/pkg/instrument"
	"github.com/shandysiswandi/otpauth/internal/pkg/jwt"
	"github.com/shandysiswandi/otpauth/internal/pkg/otp"
	"github.com/shandysiswandi/otpauth/internal/pkg/router"
	"github.com/shandysiswandi/otpauth/internal/pkg/uid"
	"github.com/shandysiswandi/otpauth/internal/pkg/validator"
	"github.com/shandysiswandi/otpauth/internal/shared/event"

	pqotp "github.com/pquerna/otp"
)

type nopMailer struct{}

func (nopMailer) SendOTPEmail(context.Context, event.OTPIssuedMessage) error { return nil }

func newDependency(t *testing.T, yaml string) Dependency {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte(yaml))
	if err != nil {
		t.Fatalf("config: %v", err)
	}

	clk := clock.New()
	signer, err := jwt.NewHS512(jwt.Config{Secret: []byte(strings.Repeat("s", 64)), Clock: clk, UUID: uid.NewUUID()})
	if err != nil {
		t.Fatalf("jwt: %v", err)
	}

	gen, err := otp.NewNumeric(pqotp.DigitsSix)
	if err != nil {
		t.Fatalf("generator: %v", err)
	}

	snow, err := uid.NewSnowflake(1)
	if err != nil {
		t.Fatalf("snowflake: %v", err)
	}

	v, err := validator.NewV10Validator()
	if err != nil {
		t.Fatalf("validator: %v", err)
	}

	return Dependency{
		Mailer:     nopMailer{},
		Goroutine:  goroutine.NewManager(2),
		Router:     router.NewRouter(router.Config{Config: cfg, UUID: uid.NewUUID(), JWT: signer, Instrument: instrument.NewNoop()}),
		Config:     cfg,
		Instrument: instrument.NewNoop(),
		UID:        snow,
		UUID:       uid.NewUUID(),
		HMAC:       hash.NewHMACSHA256("pepper"),
		Clock:      clk,
		Generator:  gen,
		Validator:  v,
		JWT:        signer,
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr error
		wantAny bool
	}{
		{name: "defaults to memory and mail", yaml: "modules:\n  auth: {}\n"},
		{name: "unknown driver", yaml: "modules:\n  auth:\n    driver: mongo\n", wantErr: ErrUnknownDriver},
		{name: "unknown dispatcher", yaml: "modules:\n  auth:\n    dispatcher: sms\n", wantErr: ErrUnknownDispatcher},
		{name: "redis without connection", yaml: "modules:\n  auth:\n    driver: redis\n", wantAny: true},
		{name: "messaging without client", yaml: "modules:\n  auth:\n    dispatcher: messaging\n", wantAny: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			dep := newDependency(t, tt.yaml)

			// Act
			err := New(dep)

			// Assert
			switch {
			case tt.wantErr != nil:
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("New() error = %v, want %v", err, tt.wantErr)
				}
			case tt.wantAny:
				if err == nil {
					t.Fatal("New() error = nil, want error")
				}
			default:
				if err != nil {
					t.Fatalf("New() error = %v", err)
				}
			}
		})
	}
}

func TestNew_RunsCleanupJob(t *testing.T) {
	// Arrange
	dep := newDependency(t, "modules:\n  auth:\n    cleanup_interval_seconds: 1\n")
	ctx, cancel := context.WithCancel(context.Background())
	dep.Ctx = ctx

	// Act
	err := New(dep)

	// Assert
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	deadline := time.Now().Add(time.Second)
	for dep.Goroutine.Running() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if dep.Goroutine.Running() != 1 {
		t.Errorf("Running() = %d, want 1", dep.Goroutine.Running())
	}

	cancel()
	if err := dep.Goroutine.Wait(); err != nil {
		t.Errorf("Wait() error = %v", err)
	}
}
