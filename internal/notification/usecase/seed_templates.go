package usecase

import (
	"context"
	"log/slog"

	"github.com/shandysiswandi/otpauth/internal/notification/entity"
)

// SeedTemplates uploads the built-in templates that the bucket is missing
// and returns how many it wrote.
func (s *Usecase) SeedTemplates(ctx context.Context) (int, error) {
	ctx, span := s.startSpan(ctx, "SeedTemplates")
	defer span.End()

	seeded := 0
	for _, part := range entity.EmailTemplateParts {
		file := entity.TemplateFile(entity.TriggerKeyOTPCode, part)

		content, err := builtinTemplate(file)
		if err != nil {
			return seeded, err
		}

		wrote, err := s.repoTemplate.SeedTemplate(ctx, file, content)
		if err != nil {
			slog.ErrorContext(ctx, "failed to repo seed template", "file", file, "error", err)
			return seeded, err
		}
		if wrote {
			seeded++
		}
	}

	slog.InfoContext(ctx, "notification templates seeded", "count", seeded)

	return seeded, nil
}
