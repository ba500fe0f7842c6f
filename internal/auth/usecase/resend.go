package usecase

import (
	"context"

	"github.com/shandysiswandi/otpauth/internal/auth/entity"
	"github.com/shandysiswandi/otpauth/internal/pkg/goerror"
)

type ResendInput struct {
	Email string `validate:"required,email,max=254"`
}

// Resend issues a replacement code once the cooldown of the previous one has passed.
func (s *Usecase) Resend(ctx context.Context, in ResendInput) (*IssueOutput, error) {
	ctx, span := s.startSpan(ctx, "Resend")
	defer span.End()

	in.Email = entity.NormalizeIdentity(in.Email)

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	return s.issue(ctx, in.Email, true)
}
