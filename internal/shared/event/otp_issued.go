package event

import "time"

const OTPIssuedDestination string = "otp_issued"
const OTPIssuedDestinationConsumerNotification string = "otp_issued_notification"

type OTPIssuedMessage struct {
	ID        int64     `json:"id" validate:"required,gt=0"`
	Email     string    `json:"email" validate:"required,email"`
	Code      string    `json:"code" validate:"required,otpcode"`
	ExpiresAt time.Time `json:"expires_at" validate:"required"`
	Resend    bool      `json:"resend"`
}
