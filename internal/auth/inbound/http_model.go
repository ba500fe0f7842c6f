package inbound

import "time"

type SendRequest struct {
	Email string `json:"email"`
}

type SendResponse struct {
	ExpiresAt          time.Time `json:"expires_at"`
	ResendAfterSeconds int       `json:"resend_after_seconds"`
}

func (SendResponse) Message() string {
	return "A verification code has been sent to your email."
}

type ResendResponse SendResponse

func (ResendResponse) Message() string {
	return "A new verification code has been sent to your email."
}

type VerifyRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

type VerifyResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

func (VerifyResponse) Message() string {
	return "Email verified."
}

// StatusResponse omits the record fields unless the server exposes them.
type StatusResponse struct {
	Active             *bool      `json:"active,omitempty"`
	ExpiresAt          *time.Time `json:"expires_at,omitempty"`
	AttemptsLeft       *int       `json:"attempts_left,omitempty"`
	ResendAfterSeconds int        `json:"resend_after_seconds"`
}

type SessionResponse struct {
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expires_at"`
}
