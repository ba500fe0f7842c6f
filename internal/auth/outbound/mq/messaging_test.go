package mq

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shandysiswandi/otpauth/internal/auth/usecase"
	"github.com/shandysiswandi/otpauth/internal/pkg/instrument"
	"github.com/shandysiswandi/otpauth/internal/pkg/messaging"
	"github.com/shandysiswandi/otpauth/internal/shared/event"
)

type fakeBroker struct {
	err         error
	destination string
	msg         messaging.OutgoingMessage
}

func (f *fakeBroker) Publish(_ context.Context, destination string, msg messaging.OutgoingMessage) (messaging.PublishResult, error) {
	f.destination = destination
	f.msg = msg
	return messaging.PublishResult{}, f.err
}

func (f *fakeBroker) Consume(context.Context, string, messaging.Handler, ...messaging.ConsumeOption) error {
	return messaging.ErrUnsupported
}

func (f *fakeBroker) Close() error { return nil }

func TestMessaging_DispatchOTP(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantErr bool
	}{
		{name: "Success"},
		{name: "ErrorPublish", err: errors.New("broker down"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			broker := &fakeBroker{err: tt.err}
			m := NewMessaging(broker, instrument.NewNoop())
			ctx := instrument.SetCorrelationID(context.Background(), "cid-9")
			exp := time.Date(2025, 1, 1, 10, 5, 0, 0, time.UTC)

			// Act
			err := m.DispatchOTP(ctx, usecase.OTPNotification{ID: 42, Email: "a@b.com", Code: "123456", ExpiresAt: exp, Resend: true})

			// Assert
			if (err != nil) != tt.wantErr {
				t.Fatalf("DispatchOTP() error = %v, wantErr %v", err, tt.wantErr)
			}
			if broker.destination != event.OTPIssuedDestination {
				t.Errorf("destination = %q, want %q", broker.destination, event.OTPIssuedDestination)
			}
			if broker.msg.Headers[keyOfCorrelationID] != "cid-9" || string(broker.msg.Key) != "a@b.com" {
				t.Errorf("headers = %v key = %q", broker.msg.Headers, broker.msg.Key)
			}

			var got event.OTPIssuedMessage
			if err := json.Unmarshal(broker.msg.Body, &got); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if got.ID != 42 || got.Code != "123456" || !got.Resend || !got.ExpiresAt.Equal(exp) {
				t.Errorf("body = %+v", got)
			}
		})
	}
}
