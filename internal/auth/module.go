package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/otpauth/internal/auth/inbound"
	"github.com/shandysiswandi/otpauth/internal/auth/outbound/cache"
	"github.com/shandysiswandi/otpauth/internal/auth/outbound/db"
	"github.com/shandysiswandi/otpauth/internal/auth/outbound/mail"
	"github.com/shandysiswandi/otpauth/internal/auth/outbound/memory"
	"github.com/shandysiswandi/otpauth/internal/auth/outbound/mq"
	"github.com/shandysiswandi/otpauth/internal/auth/usecase"
	"github.com/shandysiswandi/otpauth/internal/pkg/clock"
	"github.com/shandysiswandi/otpauth/internal/pkg/config"
	"github.com/shandysiswandi/otpauth/internal/pkg/goroutine"
	"github.com/shandysiswandi/otpauth/internal/pkg/hash"
	"github.com/shandysiswandi/otpauth/internal/pkg/instrument"
	"github.com/shandysiswandi/otpauth/internal/pkg/jwt"
	"github.com/shandysiswandi/otpauth/internal/pkg/messaging"
	"github.com/shandysiswandi/otpauth/internal/pkg/otp"
	"github.com/shandysiswandi/otpauth/internal/pkg/router"
	"github.com/shandysiswandi/otpauth/internal/pkg/uid"
	"github.com/shandysiswandi/otpauth/internal/pkg/validator"
	"github.com/shandysiswandi/otpauth/internal/shared/event"
)

const (
	DriverMemory   = "memory"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"

	DispatcherMail      = "mail"
	DispatcherMessaging = "messaging"
)

var (
	ErrUnknownDriver     = errors.New("auth: unknown store driver")
	ErrUnknownDispatcher = errors.New("auth: unknown dispatcher")
)

// Mailer delivers an issued code in-process.
type Mailer interface {
	SendOTPEmail(ctx context.Context, in event.OTPIssuedMessage) error
}

type Dependency struct {
	Ctx        context.Context
	DBConn     *pgxpool.Pool
	CacheConn  *redis.Client
	Messaging  messaging.Messaging
	Mailer     Mailer
	Goroutine  *goroutine.Manager         `validate:"required"`
	Router     *router.Router             `validate:"required"`
	Config     config.Config              `validate:"required"`
	Instrument instrument.Instrumentation `validate:"required"`
	UID        uid.NumberID               `validate:"required"`
	UUID       uid.StringID               `validate:"required"`
	HMAC       hash.Hash                  `validate:"required"`
	Clock      clock.Clocker              `validate:"required"`
	Generator  otp.Generator              `validate:"required"`
	Validator  validator.Validator        `validate:"required"`
	JWT        jwt.JWT                    `validate:"required"`
}

func New(dep Dependency) error {
	if err := dep.Validator.Validate(dep); err != nil {
		return err
	}

	ucDep := usecase.Dependency{
		Validator:  dep.Validator,
		Config:     dep.Config,
		Hash:       dep.HMAC,
		Generator:  dep.Generator,
		UID:        dep.UID,
		Clock:      dep.Clock,
		JWT:        dep.JWT,
		Instrument: dep.Instrument,
	}

	if err := setRepositories(dep, &ucDep); err != nil {
		return err
	}

	if err := setDispatcher(dep, &ucDep); err != nil {
		return err
	}

	uc := usecase.New(ucDep)

	inbound.RegisterHTTPEndpoint(dep.Router, uc)
	if dep.Ctx != nil {
		inbound.RegisterCleanupJob(dep.Ctx, dep.Config, dep.Goroutine, uc)
	}

	return nil
}

// setRepositories fills the store, throttle and locker of ucDep from the
// configured driver.
func setRepositories(dep Dependency, ucDep *usecase.Dependency) error {
	driver := strings.ToLower(strings.TrimSpace(dep.Config.GetString("modules.auth.driver")))
	if driver == "" {
		driver = DriverMemory
	}

	slog.Info("auth store driver selected", "driver", driver)

	switch driver {
	case DriverMemory:
		ucDep.RepoStore = memory.NewStore(dep.Clock)
		ucDep.RepoThrottle = memory.NewThrottle(dep.Clock)
		ucDep.RepoLocker = memory.NewLocker()
		return nil
	case DriverRedis:
		if dep.CacheConn == nil {
			return fmt.Errorf("auth: driver %q needs a redis connection", driver)
		}
		c := cache.New(dep.CacheConn, dep.Clock, dep.UUID, dep.Instrument)
		ucDep.RepoStore, ucDep.RepoThrottle, ucDep.RepoLocker = c, c, c
		return nil
	case DriverPostgres:
		if dep.DBConn == nil {
			return fmt.Errorf("auth: driver %q needs a database connection", driver)
		}
		if dep.Config.GetBool("modules.auth.migrate") {
			if err := db.Migrate(dep.DBConn); err != nil {
				return fmt.Errorf("auth: migrate: %w", err)
			}
		}
		d := db.NewDB(dep.DBConn, dep.Clock, dep.Instrument)
		ucDep.RepoStore, ucDep.RepoThrottle, ucDep.RepoLocker = d, d, d
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}
}

func setDispatcher(dep Dependency, ucDep *usecase.Dependency) error {
	name := strings.ToLower(strings.TrimSpace(dep.Config.GetString("modules.auth.dispatcher")))
	if name == "" {
		name = DispatcherMail
	}

	switch name {
	case DispatcherMail:
		if dep.Mailer == nil {
			return fmt.Errorf("auth: dispatcher %q needs the notification module", name)
		}
		ucDep.RepoDispatcher = mail.New(dep.Mailer, dep.Instrument)
		return nil
	case DispatcherMessaging:
		if dep.Messaging == nil {
			return fmt.Errorf("auth: dispatcher %q needs a messaging client", name)
		}
		ucDep.RepoDispatcher = mq.NewMessaging(dep.Messaging, dep.Instrument)
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownDispatcher, name)
	}
}
