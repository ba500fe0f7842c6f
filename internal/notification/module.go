package notification

import (
	"context"
	"log/slog"
	"time"

	"github.com/shandysiswandi/otpauth/internal/notification/inbound"
	"github.com/shandysiswandi/otpauth/internal/notification/outbound/bucket"
	"github.com/shandysiswandi/otpauth/internal/notification/outbound/email"
	"github.com/shandysiswandi/otpauth/internal/notification/usecase"
	"github.com/shandysiswandi/otpauth/internal/pkg/clock"
	"github.com/shandysiswandi/otpauth/internal/pkg/config"
	"github.com/shandysiswandi/otpauth/internal/pkg/goroutine"
	"github.com/shandysiswandi/otpauth/internal/pkg/idempotency"
	"github.com/shandysiswandi/otpauth/internal/pkg/instrument"
	"github.com/shandysiswandi/otpauth/internal/pkg/mail"
	"github.com/shandysiswandi/otpauth/internal/pkg/messaging"
	"github.com/shandysiswandi/otpauth/internal/pkg/storage"
	"github.com/shandysiswandi/otpauth/internal/pkg/uid"
	"github.com/shandysiswandi/otpauth/internal/pkg/validator"
)

const seedTimeout = 30 * time.Second

type Dependency struct {
	Ctx         context.Context
	Messaging   messaging.Messaging
	Storage     storage.Storage
	Mail        mail.Mail                  `validate:"required"`
	Idempotency idempotency.Idempotency    `validate:"required"`
	Config      config.Config              `validate:"required"`
	Instrument  instrument.Instrumentation `validate:"required"`
	UUID        uid.StringID               `validate:"required"`
	Clock       clock.Clocker              `validate:"required"`
	Goroutine   *goroutine.Manager         `validate:"required"`
	Validator   validator.Validator        `validate:"required"`
}

// New wires the notification module and returns its usecase so the auth
// module can hand codes to it in-process.
func New(dep Dependency) (*usecase.Usecase, error) {
	if err := dep.Validator.Validate(dep); err != nil {
		return nil, err
	}

	repoMail := email.New(dep.Mail, dep.Config.GetString("modules.notification.from"), dep.Instrument)
	repoTemplate := bucket.New(
		dep.Storage,
		dep.Config.GetString("storage.bucket"),
		dep.Config.GetString("modules.notification.template_prefix"),
		dep.Instrument,
	)

	uc := usecase.NewNotification(usecase.Dependency{
		RepoMail:     repoMail,
		RepoTemplate: repoTemplate,
		Idempotency:  dep.Idempotency,
		Config:       dep.Config,
		Clock:        dep.Clock,
		Validator:    dep.Validator,
		Instrument:   dep.Instrument,
	})

	if dep.Ctx == nil {
		return uc, nil
	}

	if dep.Storage != nil && dep.Config.GetBool("modules.notification.seed_templates") {
		ctx, cancel := context.WithTimeout(dep.Ctx, seedTimeout)
		if _, err := uc.SeedTemplates(ctx); err != nil {
			slog.WarnContext(ctx, "failed to seed notification templates, built-in copies stay in use", "error", err)
		}
		cancel()
	}

	if dep.Messaging != nil {
		inbound.RegisterMQConsumer(dep.Ctx, dep.Config, dep.Goroutine, dep.Messaging, dep.UUID, uc, dep.Instrument)
	}

	return uc, nil
}
