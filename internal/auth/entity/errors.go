package entity

import "errors"

var (
	ErrNotFoundOrExpired = errors.New("auth: otp not found or expired")
	ErrInvalidCode       = errors.New("auth: otp code is invalid")
	ErrAttemptsExceeded  = errors.New("auth: otp attempts exceeded")
	ErrAlreadyConsumed   = errors.New("auth: otp already consumed")
	ErrThrottled         = errors.New("auth: otp issuance throttled")
	ErrDispatch          = errors.New("auth: otp dispatch failed")
)

// Stable statuses returned to clients in the response envelope.
const (
	ReasonNotFoundOrExpired = "OTP_NOT_FOUND_OR_EXPIRED"
	ReasonInvalidCode       = "OTP_INVALID_CODE"
	ReasonAttemptsExceeded  = "OTP_ATTEMPTS_EXCEEDED"
	ReasonAlreadyConsumed   = "OTP_ALREADY_CONSUMED"
	ReasonThrottled         = "OTP_THROTTLED"
	ReasonDispatchFailed    = "OTP_DISPATCH_FAILED"
	ReasonVerifyInProgress  = "OTP_VERIFICATION_IN_PROGRESS"
)
