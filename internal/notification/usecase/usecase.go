package usecase

import (
	"bytes"
	"context"
	"embed"
	"errors"
	htmltemplate "html/template"
	"log/slog"
	"sync"
	"text/template"
	"time"

	"github.com/shandysiswandi/otpauth/internal/notification/entity"
	"github.com/shandysiswandi/otpauth/internal/pkg/clock"
	"github.com/shandysiswandi/otpauth/internal/pkg/config"
	"github.com/shandysiswandi/otpauth/internal/pkg/goerror"
	"github.com/shandysiswandi/otpauth/internal/pkg/idempotency"
	"github.com/shandysiswandi/otpauth/internal/pkg/instrument"
	"github.com/shandysiswandi/otpauth/internal/pkg/mail"
	"github.com/shandysiswandi/otpauth/internal/pkg/validator"
	"go.opentelemetry.io/otel/trace"
)

//go:embed templates/*.tmpl
var builtinTemplates embed.FS

const defaultTemplateCacheTTL = 5 * time.Minute

type repoMail interface {
	Send(ctx context.Context, msg mail.Message) error
}

type repoTemplate interface {
	GetTemplate(ctx context.Context, file string) (string, error)
	SeedTemplate(ctx context.Context, file, content string) (bool, error)
}

type cachedTemplate struct {
	content  string
	loadedAt time.Time
}

type Usecase struct {
	repoMail     repoMail
	repoTemplate repoTemplate
	idempotency  idempotency.Idempotency
	cfg          config.Config
	clock        clock.Clocker
	validator    validator.Validator
	ins          instrument.Instrumentation

	tplMu    sync.RWMutex
	tplCache map[string]cachedTemplate
}

type Dependency struct {
	RepoMail     repoMail
	RepoTemplate repoTemplate
	Idempotency  idempotency.Idempotency
	Config       config.Config
	Clock        clock.Clocker
	Validator    validator.Validator
	Instrument   instrument.Instrumentation
}

func NewNotification(dep Dependency) *Usecase {
	return &Usecase{
		repoMail:     dep.RepoMail,
		repoTemplate: dep.RepoTemplate,
		idempotency:  dep.Idempotency,
		cfg:          dep.Config,
		clock:        dep.Clock,
		validator:    dep.Validator,
		ins:          dep.Instrument,
		tplCache:     make(map[string]cachedTemplate),
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("notification.usecase").Start(ctx, name)
}

func (s *Usecase) renderTemplate(name string, part entity.TemplatePart, tpl string, data map[string]any) (string, error) {
	var buf bytes.Buffer

	if part == entity.TemplatePartHTML {
		t, err := htmltemplate.New(name).Option("missingkey=zero").Parse(tpl)
		if err != nil {
			return "", err
		}
		if err := t.Execute(&buf, data); err != nil {
			return "", err
		}
		return buf.String(), nil
	}

	t, err := template.New(name).Option("missingkey=zero").Parse(tpl)
	if err != nil {
		return "", err
	}
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}

func (s *Usecase) baseEmailTemplateData() map[string]any {
	return map[string]any{
		"support_email":   s.cfgString("modules.notification.brand.support_email", "support@otpauth.dev"),
		"company_name":    s.cfgString("modules.notification.brand.company_name", "OTP Auth"),
		"company_address": s.cfgString("modules.notification.brand.company_address", "Kota Jakarta Selatan, Daerah Khusus Ibukota Jakarta 12160"),
		"year":            s.clock.Now().Format("2006"),
	}
}

func (s *Usecase) cfgString(key, fallback string) string {
	if v := s.cfg.GetString(key); v != "" {
		return v
	}
	return fallback
}

func (s *Usecase) templateCacheTTL() time.Duration {
	if d := s.cfg.GetSecond("modules.notification.template_cache_seconds"); d > 0 {
		return d
	}
	return defaultTemplateCacheTTL
}

// getTemplate prefers the bucket copy and falls back to the built-in one
// when the bucket has none or cannot be reached.
func (s *Usecase) getTemplate(ctx context.Context, tk entity.TriggerKey, part entity.TemplatePart) (string, error) {
	file := entity.TemplateFile(tk, part)
	now := s.clock.Now()

	s.tplMu.RLock()
	cached, ok := s.tplCache[file]
	s.tplMu.RUnlock()
	if ok && now.Sub(cached.loadedAt) < s.templateCacheTTL() {
		return cached.content, nil
	}

	content, err := s.repoTemplate.GetTemplate(ctx, file)
	switch {
	case err == nil:
	case errors.Is(err, goerror.ErrNotFound):
		slog.DebugContext(ctx, "notification template not in bucket, using built-in", "file", file)
		content, err = builtinTemplate(file)
	default:
		slog.WarnContext(ctx, "failed to repo get template, using built-in", "file", file, "error", err)
		content, err = builtinTemplate(file)
	}
	if err != nil {
		return "", err
	}

	s.tplMu.Lock()
	s.tplCache[file] = cachedTemplate{content: content, loadedAt: now}
	s.tplMu.Unlock()

	return content, nil
}

func builtinTemplate(file string) (string, error) {
	data, err := builtinTemplates.ReadFile("templates/" + file)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
