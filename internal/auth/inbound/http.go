package inbound

import (
	"context"
	"net/http"

	"github.com/shandysiswandi/otpauth/internal/auth/usecase"
	"github.com/shandysiswandi/otpauth/internal/pkg/router"
)

type uc interface {
	Issue(ctx context.Context, in usecase.IssueInput) (*usecase.IssueOutput, error)
	Resend(ctx context.Context, in usecase.ResendInput) (*usecase.IssueOutput, error)
	Verify(ctx context.Context, in usecase.VerifyInput) (*usecase.VerifyOutput, error)
	Status(ctx context.Context, in usecase.StatusInput) (*usecase.StatusOutput, error)
	Session(ctx context.Context) (*usecase.SessionOutput, error)
}

func RegisterHTTPEndpoint(r *router.Router, uc uc) {
	end := &HTTPEndpoint{uc: uc}

	// OTP (public)
	for _, path := range []string{"/api/v1/auth/otp/send", "/sendOTP"} {
		r.POST(path, end.Send)
		r.Public(http.MethodPost, path)
	}
	for _, path := range []string{"/api/v1/auth/otp/resend", "/resendOTP"} {
		r.POST(path, end.Resend)
		r.Public(http.MethodPost, path)
	}
	for _, path := range []string{"/api/v1/auth/otp/verify", "/verifyOTP"} {
		r.POST(path, end.Verify)
		r.Public(http.MethodPost, path)
	}
	r.GET("/api/v1/auth/otp/status", end.Status)
	r.Public(http.MethodGet, "/api/v1/auth/otp/status")

	// Session (need authenticated)
	r.GET("/api/v1/auth/session", end.Session)
}
