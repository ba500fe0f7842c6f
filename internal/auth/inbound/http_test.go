package inbound

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shandysiswandi/otpauth/internal/auth/usecase"
	"github.com/shandysiswandi/otpauth/internal/pkg/clock"
	"github.com/shandysiswandi/otpauth/internal/pkg/config"
	"github.com/shandysiswandi/otpauth/internal/pkg/goerror"
	"github.com/shandysiswandi/otpauth/internal/pkg/instrument"
	"github.com/shandysiswandi/otpauth/internal/pkg/jwt"
	"github.com/shandysiswandi/otpauth/internal/pkg/router"
	"github.com/shandysiswandi/otpauth/internal/pkg/uid"
)

var testNow = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

type fakeUsecase struct {
	issueErr  error
	verifyErr error
	lastEmail string
	lastOTP   string
	status    *usecase.StatusOutput
}

func (f *fakeUsecase) Issue(_ context.Context, in usecase.IssueInput) (*usecase.IssueOutput, error) {
	f.lastEmail = in.Email
	if f.issueErr != nil {
		return nil, f.issueErr
	}
	return &usecase.IssueOutput{ExpiresAt: testNow.Add(5 * time.Minute), ResendAfter: time.Minute}, nil
}

func (f *fakeUsecase) Resend(ctx context.Context, in usecase.ResendInput) (*usecase.IssueOutput, error) {
	return f.Issue(ctx, usecase.IssueInput(in))
}

func (f *fakeUsecase) Verify(_ context.Context, in usecase.VerifyInput) (*usecase.VerifyOutput, error) {
	f.lastEmail, f.lastOTP = in.Email, in.OTP
	if f.verifyErr != nil {
		return nil, f.verifyErr
	}
	return &usecase.VerifyOutput{AccessToken: "tok", TokenType: "Bearer", ExpiresAt: testNow.Add(15 * time.Minute)}, nil
}

func (f *fakeUsecase) Status(_ context.Context, in usecase.StatusInput) (*usecase.StatusOutput, error) {
	f.lastEmail = in.Email
	if f.status != nil {
		return f.status, nil
	}
	return &usecase.StatusOutput{Detailed: true, AttemptsLeft: 0, ResendAfter: 1500 * time.Millisecond}, nil
}

func (f *fakeUsecase) Session(ctx context.Context) (*usecase.SessionOutput, error) {
	clm := jwt.GetAuth(ctx)
	if clm == nil {
		return nil, goerror.NewBusiness("Authentication required", goerror.CodeUnauthorized)
	}
	return &usecase.SessionOutput{Email: clm.Email, ExpiresAt: clm.ExpiresAt.Time}, nil
}

type envelope struct {
	Status  string            `json:"status"`
	Message string            `json:"message"`
	Data    map[string]any    `json:"data"`
	Error   map[string]string `json:"error"`
}

func newServer(t *testing.T, uc *fakeUsecase) (*router.Router, jwt.JWT) {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte("instrument:\n  log_mask_fields: [otp]\n"))
	if err != nil {
		t.Fatalf("config: %v", err)
	}

	signer, err := jwt.NewHS512(jwt.Config{
		Secret: []byte(strings.Repeat("k", 64)),
		Issuer: "otpauth",
		Clock:  clock.NewFake(time.Now()),
		UUID:   uid.NewUUID(),
	})
	if err != nil {
		t.Fatalf("jwt: %v", err)
	}

	r := router.NewRouter(router.Config{Config: cfg, UUID: uid.NewUUID(), JWT: signer, Instrument: instrument.NewNoop()})
	RegisterHTTPEndpoint(r, uc)

	return r, signer
}

func do(t *testing.T, h http.Handler, method, path, body, token string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("decode body %q: %v", rec.Body.String(), err)
		}
	}
	return rec, env
}

func TestSend_Aliases(t *testing.T) {
	for _, path := range []string{"/api/v1/auth/otp/send", "/sendOTP", "/api/v1/auth/otp/resend", "/resendOTP"} {
		t.Run(path, func(t *testing.T) {
			// Arrange
			uc := &fakeUsecase{}
			h, _ := newServer(t, uc)

			// Act
			rec, env := do(t, h, http.MethodPost, path, `{"email":"a@b.com"}`, "")

			// Assert
			if rec.Code != http.StatusOK {
				t.Fatalf("code = %d, want 200; body %s", rec.Code, rec.Body.String())
			}
			if env.Status != router.StatusOK {
				t.Errorf("status = %q, want OK", env.Status)
			}
			if env.Data["resend_after_seconds"] != float64(60) {
				t.Errorf("resend_after_seconds = %v, want 60", env.Data["resend_after_seconds"])
			}
			if uc.lastEmail != "a@b.com" {
				t.Errorf("email = %q", uc.lastEmail)
			}
		})
	}
}

func TestSend_Throttled(t *testing.T) {
	// Arrange
	uc := &fakeUsecase{issueErr: goerror.NewBusiness("wait", goerror.CodeTooManyRequest,
		goerror.WithReason("OTP_THROTTLED"), goerror.WithFields(router.FieldRetryAfter, "42"))}
	h, _ := newServer(t, uc)

	// Act
	rec, env := do(t, h, http.MethodPost, "/sendOTP", `{"email":"a@b.com"}`, "")

	// Assert
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("code = %d, want 429", rec.Code)
	}
	if env.Status != "OTP_THROTTLED" {
		t.Errorf("status = %q, want OTP_THROTTLED", env.Status)
	}
	if got := rec.Header().Get("Retry-After"); got != "42" {
		t.Errorf("Retry-After = %q, want 42", got)
	}
}

func TestVerify(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantCode   int
		wantStatus string
	}{
		{name: "success", wantCode: http.StatusOK, wantStatus: router.StatusOK},
		{
			name:       "invalid code",
			err:        goerror.NewBusiness("bad", goerror.CodeUnauthorized, goerror.WithReason("OTP_INVALID_CODE")),
			wantCode:   http.StatusUnauthorized,
			wantStatus: "OTP_INVALID_CODE",
		},
		{
			name:       "expired",
			err:        goerror.NewBusiness("gone", goerror.CodeNotFound, goerror.WithReason("OTP_NOT_FOUND_OR_EXPIRED")),
			wantCode:   http.StatusNotFound,
			wantStatus: "OTP_NOT_FOUND_OR_EXPIRED",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			uc := &fakeUsecase{verifyErr: tt.err}
			h, _ := newServer(t, uc)

			// Act
			rec, env := do(t, h, http.MethodPost, "/verifyOTP", `{"email":"a@b.com","otp":"123456"}`, "")

			// Assert
			if rec.Code != tt.wantCode {
				t.Fatalf("code = %d, want %d", rec.Code, tt.wantCode)
			}
			if env.Status != tt.wantStatus {
				t.Errorf("status = %q, want %q", env.Status, tt.wantStatus)
			}
			if uc.lastOTP != "123456" {
				t.Errorf("otp = %q, want 123456", uc.lastOTP)
			}
			if tt.err == nil && env.Data["access_token"] != "tok" {
				t.Errorf("access_token = %v", env.Data["access_token"])
			}
		})
	}
}

func TestVerify_MalformedBody(t *testing.T) {
	h, _ := newServer(t, &fakeUsecase{})

	rec, _ := do(t, h, http.MethodPost, "/api/v1/auth/otp/verify", `{"email":`, "")

	if rec.Code != http.StatusBadRequest {
		t.Errorf("code = %d, want 400", rec.Code)
	}
}

func TestStatus(t *testing.T) {
	// Arrange
	uc := &fakeUsecase{}
	h, _ := newServer(t, uc)

	// Act
	rec, env := do(t, h, http.MethodGet, "/api/v1/auth/otp/status?email=a@b.com", "", "")

	// Assert
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d, want 200", rec.Code)
	}
	if uc.lastEmail != "a@b.com" {
		t.Errorf("email = %q", uc.lastEmail)
	}
	if _, ok := env.Data["expires_at"]; ok {
		t.Errorf("expires_at present for inactive status")
	}
	if env.Data["resend_after_seconds"] != float64(2) {
		t.Errorf("resend_after_seconds = %v, want 2", env.Data["resend_after_seconds"])
	}
}

func TestStatus_Details(t *testing.T) {
	expiresAt := time.Date(2025, 3, 1, 9, 5, 0, 0, time.UTC)

	tests := []struct {
		name     string
		out      *usecase.StatusOutput
		wantKeys []string
		noKeys   []string
	}{
		{
			name:     "hidden",
			out:      &usecase.StatusOutput{ResendAfter: 30 * time.Second},
			wantKeys: []string{"resend_after_seconds"},
			noKeys:   []string{"active", "attempts_left", "expires_at"},
		},
		{
			name:     "exposed",
			out:      &usecase.StatusOutput{Detailed: true, Active: true, ExpiresAt: expiresAt, AttemptsLeft: 4, ResendAfter: 30 * time.Second},
			wantKeys: []string{"resend_after_seconds", "active", "attempts_left", "expires_at"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			h, _ := newServer(t, &fakeUsecase{status: tt.out})

			// Act
			rec, env := do(t, h, http.MethodGet, "/api/v1/auth/otp/status?email=a@b.com", "", "")

			// Assert
			if rec.Code != http.StatusOK {
				t.Fatalf("code = %d, want 200", rec.Code)
			}
			for _, k := range tt.wantKeys {
				if _, ok := env.Data[k]; !ok {
					t.Errorf("%s missing from %v", k, env.Data)
				}
			}
			for _, k := range tt.noKeys {
				if _, ok := env.Data[k]; ok {
					t.Errorf("%s present in %v", k, env.Data)
				}
			}
		})
	}
}

func TestSession(t *testing.T) {
	// Arrange
	h, signer := newServer(t, &fakeUsecase{})
	tok, err := signer.Generate("a@b.com")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	// Act
	anon, _ := do(t, h, http.MethodGet, "/api/v1/auth/session", "", "")
	rec, env := do(t, h, http.MethodGet, "/api/v1/auth/session", "", tok.Value)

	// Assert
	if anon.Code != http.StatusUnauthorized {
		t.Errorf("anonymous code = %d, want 401", anon.Code)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d, want 200; body %s", rec.Code, rec.Body.String())
	}
	if env.Data["email"] != "a@b.com" {
		t.Errorf("email = %v, want a@b.com", env.Data["email"])
	}
}
