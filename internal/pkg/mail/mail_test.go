package mail

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/smtp"
	"strings"
	"testing"
)

func TestNewFromDriver(t *testing.T) {
	tests := []struct {
		name    string
		driver  string
		cfg     Config
		wantErr error
	}{
		{name: "smtp", driver: "smtp", cfg: Config{SMTPHost: "localhost", SMTPPort: 1025}},
		{name: "smtp missing host", driver: "SMTP", cfg: Config{}, wantErr: ErrSMTPHostPortRequired},
		{name: "resend", driver: "resend", cfg: Config{ResendAPIKey: "re_123"}},
		{name: "resend missing key", driver: "resend", wantErr: ErrResendAPIKeyRequired},
		{name: "unknown", driver: "carrier-pigeon", wantErr: ErrUnknownDriver},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := NewFromDriver(tt.driver, tt.cfg)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("NewFromDriver() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr == nil && m == nil {
				t.Fatal("NewFromDriver() returned nil Mail")
			}
		})
	}
}

func TestSMTP_Send(t *testing.T) {
	// Arrange
	s, err := NewSMTP(SMTPConfig{Host: "localhost", Port: 1025, From: "noreply@otpauth.dev"})
	if err != nil {
		t.Fatalf("NewSMTP() error = %v", err)
	}

	var gotFrom string
	var gotTo []string
	var gotRaw string
	s.send = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		gotFrom, gotTo, gotRaw = from, to, string(msg)
		return nil
	}

	// Act
	err = s.Send(context.Background(), Message{
		To:       []string{"a@b.com"},
		Bcc:      []string{"audit@otpauth.dev"},
		Subject:  "Your code",
		TextBody: "code 123456",
		HTMLBody: "<b>123456</b>",
	})

	// Assert
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if gotFrom != "noreply@otpauth.dev" {
		t.Errorf("from = %q, want default sender", gotFrom)
	}
	if len(gotTo) != 2 {
		t.Errorf("recipients = %v, want to+bcc", gotTo)
	}
	if strings.Contains(gotRaw, "audit@otpauth.dev") {
		t.Error("bcc recipient leaked into headers")
	}
	if !strings.Contains(gotRaw, "multipart/alternative") {
		t.Error("message with text and html should be multipart")
	}
}

func TestSMTP_SendErrors(t *testing.T) {
	s, err := NewSMTP(SMTPConfig{Host: "localhost", Port: 1025})
	if err != nil {
		t.Fatalf("NewSMTP() error = %v", err)
	}
	s.send = func(string, smtp.Auth, string, []string, []byte) error { return nil }

	if err := s.Send(context.Background(), Message{From: "x@y.z"}); !errors.Is(err, ErrNoRecipients) {
		t.Errorf("Send() error = %v, want ErrNoRecipients", err)
	}
	if err := s.Send(context.Background(), Message{To: []string{"a@b.com"}}); !errors.Is(err, ErrNoSender) {
		t.Errorf("Send() error = %v, want ErrNoSender", err)
	}
}

func TestResend_Send(t *testing.T) {
	// Arrange
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/emails" {
			http.NotFound(w, r)
			return
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"email-1"}`))
	}))
	defer srv.Close()

	r, err := NewResend(ResendConfig{APIKey: "re_test", From: "noreply@otpauth.dev", BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("NewResend() error = %v", err)
	}

	// Act
	err = r.Send(context.Background(), Message{To: []string{"a@b.com"}, Subject: "Your code", TextBody: "123456"})

	// Assert
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if body["from"] != "noreply@otpauth.dev" || body["subject"] != "Your code" {
		t.Errorf("request body = %v", body)
	}
}
