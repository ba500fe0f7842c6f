package inbound

import (
	"math"
	"time"

	"github.com/shandysiswandi/otpauth/internal/auth/usecase"
	"github.com/shandysiswandi/otpauth/internal/pkg/router"
)

// HTTPEndpoint exposes HTTP handlers for the email OTP flow.
type HTTPEndpoint struct {
	uc uc
}

// Send issues a code for the email and mails it.
// @Summary Send OTP
// @Description Issues a one-time code for the email, replacing any earlier code.
// @Tags Auth, OTP
// @Accept json
// @Produce json
// @Param request body SendRequest true "Send payload"
// @Success 200 {object} router.successResponse{data=SendResponse} "Code sent"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 429 {object} router.errorResponse "Resend cooldown active"
// @Failure 503 {object} router.errorResponse "Mail transport failed"
// @Router /api/v1/auth/otp/send [post]
func (h *HTTPEndpoint) Send(r *router.Request) (any, error) {
	var req SendRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.Issue(r.Context(), usecase.IssueInput{Email: req.Email})
	if err != nil {
		return nil, err
	}

	return SendResponse{
		ExpiresAt:          resp.ExpiresAt,
		ResendAfterSeconds: seconds(resp.ResendAfter),
	}, nil
}

// Resend issues a replacement code once the cooldown has passed.
// @Summary Resend OTP
// @Tags Auth, OTP
// @Accept json
// @Produce json
// @Param request body SendRequest true "Resend payload"
// @Success 200 {object} router.successResponse{data=ResendResponse} "Code resent"
// @Failure 429 {object} router.errorResponse "Resend cooldown active"
// @Router /api/v1/auth/otp/resend [post]
func (h *HTTPEndpoint) Resend(r *router.Request) (any, error) {
	var req SendRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.Resend(r.Context(), usecase.ResendInput{Email: req.Email})
	if err != nil {
		return nil, err
	}

	return ResendResponse{
		ExpiresAt:          resp.ExpiresAt,
		ResendAfterSeconds: seconds(resp.ResendAfter),
	}, nil
}

// Verify checks a submitted code and returns an access token.
// @Summary Verify OTP
// @Tags Auth, OTP
// @Accept json
// @Produce json
// @Param request body VerifyRequest true "Verify payload"
// @Success 200 {object} router.successResponse{data=VerifyResponse} "Verified"
// @Failure 401 {object} router.errorResponse "OTP_INVALID_CODE"
// @Failure 403 {object} router.errorResponse "OTP_ATTEMPTS_EXCEEDED"
// @Failure 404 {object} router.errorResponse "OTP_NOT_FOUND_OR_EXPIRED"
// @Failure 409 {object} router.errorResponse "OTP_ALREADY_CONSUMED"
// @Router /api/v1/auth/otp/verify [post]
func (h *HTTPEndpoint) Verify(r *router.Request) (any, error) {
	var req VerifyRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.Verify(r.Context(), usecase.VerifyInput{Email: req.Email, OTP: req.OTP})
	if err != nil {
		return nil, err
	}

	return VerifyResponse{
		AccessToken: resp.AccessToken,
		TokenType:   resp.TokenType,
		ExpiresAt:   resp.ExpiresAt,
	}, nil
}

// Status reports whether a code is outstanding and the cooldown left.
// @Summary OTP status
// @Tags Auth, OTP
// @Produce json
// @Param email query string true "Email"
// @Success 200 {object} router.successResponse{data=StatusResponse} "Status"
// @Router /api/v1/auth/otp/status [get]
func (h *HTTPEndpoint) Status(r *router.Request) (any, error) {
	resp, err := h.uc.Status(r.Context(), usecase.StatusInput{Email: r.GetQuery("email")})
	if err != nil {
		return nil, err
	}

	out := StatusResponse{ResendAfterSeconds: seconds(resp.ResendAfter)}
	if !resp.Detailed {
		return out, nil
	}

	out.Active = &resp.Active
	out.AttemptsLeft = &resp.AttemptsLeft
	if !resp.ExpiresAt.IsZero() {
		out.ExpiresAt = &resp.ExpiresAt
	}

	return out, nil
}

// Session returns the email proven by the bearer token.
// @Summary Current session
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} router.successResponse{data=SessionResponse} "Session"
// @Failure 401 {object} router.errorResponse "Authentication required"
// @Router /api/v1/auth/session [get]
func (h *HTTPEndpoint) Session(r *router.Request) (any, error) {
	resp, err := h.uc.Session(r.Context())
	if err != nil {
		return nil, err
	}

	return SessionResponse{Email: resp.Email, ExpiresAt: resp.ExpiresAt}, nil
}

func seconds(d time.Duration) int {
	return int(math.Ceil(d.Seconds()))
}
