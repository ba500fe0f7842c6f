package email

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/shandysiswandi/otpauth/internal/pkg/instrument"
	"github.com/shandysiswandi/otpauth/internal/pkg/mail"
)

type fakeClient struct {
	sent []mail.Message
	err  error
}

func (f *fakeClient) Send(_ context.Context, msg mail.Message) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakeClient) Close() error { return nil }

func TestSender_Send(t *testing.T) {
	transportDown := errors.New("smtp down")

	tests := []struct {
		name      string
		from      string
		clientErr error
		in        mail.Message
		want      mail.Message
		wantErr   error
	}{
		{
			name: "applies sender and cleans recipients",
			from: " OTP Auth <no-reply@otpauth.dev> ",
			in: mail.Message{
				To:       []string{" a@b.com ", "A@B.com", ""},
				Cc:       []string{"a@b.com", "c@d.com"},
				Bcc:      []string{"c@d.com", "e@f.com"},
				TextBody: "hi",
			},
			want: mail.Message{
				From:     "OTP Auth <no-reply@otpauth.dev>",
				To:       []string{"a@b.com"},
				Cc:       []string{"c@d.com"},
				Bcc:      []string{"e@f.com"},
				TextBody: "hi",
			},
		},
		{
			name: "explicit from wins",
			from: "default@otpauth.dev",
			in:   mail.Message{From: "x@otpauth.dev", To: []string{"a@b.com"}, HTMLBody: "<p>hi</p>"},
			want: mail.Message{From: "x@otpauth.dev", To: []string{"a@b.com"}, Cc: []string{}, Bcc: []string{}, HTMLBody: "<p>hi</p>"},
		},
		{
			name:    "no recipient",
			in:      mail.Message{To: []string{" "}, TextBody: "hi"},
			wantErr: ErrEmptyMessage,
		},
		{
			name:    "no body",
			in:      mail.Message{To: []string{"a@b.com"}},
			wantErr: ErrEmptyMessage,
		},
		{
			name:      "transport error",
			clientErr: transportDown,
			in:        mail.Message{To: []string{"a@b.com"}, TextBody: "hi"},
			wantErr:   transportDown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			client := &fakeClient{err: tt.clientErr}
			s := New(client, tt.from, instrument.NewNoop())

			// Act
			err := s.Send(context.Background(), tt.in)

			// Assert
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Send() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr != nil {
				if len(client.sent) != 0 {
					t.Errorf("sent = %d, want 0", len(client.sent))
				}
				return
			}
			if len(client.sent) != 1 {
				t.Fatalf("sent = %d, want 1", len(client.sent))
			}
			if got := client.sent[0]; !reflect.DeepEqual(got, tt.want) {
				t.Errorf("sent = %+v, want %+v", got, tt.want)
			}
		})
	}
}
