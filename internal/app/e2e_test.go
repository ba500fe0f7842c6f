package app_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"
)

// These tests run against a live server (make run) and are skipped unless
// OTPAUTH_E2E_BASE_URL is set. The server must be able to deliver mail.

var httpClient = &http.Client{Timeout: 5 * time.Second}

type envelope struct {
	Status  string            `json:"status"`
	Message string            `json:"message"`
	Data    json.RawMessage   `json:"data"`
	Error   map[string]string `json:"error"`
}

func baseURL(t *testing.T) string {
	t.Helper()

	base := strings.TrimSpace(os.Getenv("OTPAUTH_E2E_BASE_URL"))
	if base == "" {
		t.Skip("OTPAUTH_E2E_BASE_URL not set")
	}
	return strings.TrimRight(base, "/")
}

func doJSON(t *testing.T, method, url string, payload any, token string) (int, http.Header, envelope) {
	t.Helper()

	var body io.Reader
	if payload != nil {
		buf := &bytes.Buffer{}
		if err := json.NewEncoder(buf).Encode(payload); err != nil {
			t.Fatalf("encode json: %v", err)
		}
		body = buf
	}

	req, err := http.NewRequest(method, url, body)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()

	var env envelope
	if resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
			t.Fatalf("decode envelope: %v", err)
		}
	}

	return resp.StatusCode, resp.Header, env
}

func uniqueEmail(prefix string) string {
	return fmt.Sprintf("%s-%d@example.com", prefix, time.Now().UnixNano())
}

func TestE2E_Health(t *testing.T) {
	base := baseURL(t)

	status, _, env := doJSON(t, http.MethodGet, base+"/health", nil, "")
	if status != http.StatusOK {
		t.Fatalf("status = %d, want %d (%s)", status, http.StatusOK, env.Message)
	}
}

func TestE2E_StatusUnknownEmail(t *testing.T) {
	base := baseURL(t)

	status, _, env := doJSON(t, http.MethodGet, base+"/api/v1/auth/otp/status?email="+uniqueEmail("status"), nil, "")
	if status != http.StatusOK {
		t.Fatalf("status = %d, want %d (%s)", status, http.StatusOK, env.Message)
	}

	var data struct {
		Active bool `json:"active"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if data.Active {
		t.Error("active = true, want false for an unknown email")
	}
}

func TestE2E_SendRejectsBadEmail(t *testing.T) {
	base := baseURL(t)

	status, _, _ := doJSON(t, http.MethodPost, base+"/api/v1/auth/otp/send", map[string]string{"email": "not-an-email"}, "")
	if status != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want %d", status, http.StatusUnprocessableEntity)
	}
}

func TestE2E_VerifyWithoutCode(t *testing.T) {
	base := baseURL(t)

	payload := map[string]string{"email": uniqueEmail("verify"), "otp": "123456"}
	status, _, env := doJSON(t, http.MethodPost, base+"/api/v1/auth/otp/verify", payload, "")
	if status != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", status, http.StatusNotFound)
	}
	if env.Status != "OTP_NOT_FOUND_OR_EXPIRED" {
		t.Errorf("reason = %q, want OTP_NOT_FOUND_OR_EXPIRED", env.Status)
	}
}

func TestE2E_SendThenThrottleThenWrongCode(t *testing.T) {
	base := baseURL(t)
	email := uniqueEmail("flow")

	// Act: first send succeeds
	status, _, env := doJSON(t, http.MethodPost, base+"/api/v1/auth/otp/send", map[string]string{"email": email}, "")
	if status != http.StatusOK {
		t.Fatalf("send status = %d, want %d (%s)", status, http.StatusOK, env.Message)
	}

	// Act: an immediate resend is throttled
	status, header, env := doJSON(t, http.MethodPost, base+"/api/v1/auth/otp/resend", map[string]string{"email": email}, "")
	if status != http.StatusTooManyRequests {
		t.Fatalf("resend status = %d, want %d", status, http.StatusTooManyRequests)
	}
	if env.Status != "OTP_THROTTLED" {
		t.Errorf("reason = %q, want OTP_THROTTLED", env.Status)
	}
	if header.Get("Retry-After") == "" {
		t.Error("Retry-After header missing")
	}

	// Act: a wrong code is rejected and the code stays active
	status, _, env = doJSON(t, http.MethodPost, base+"/api/v1/auth/otp/verify", map[string]string{"email": email, "otp": "000000"}, "")
	if status != http.StatusUnauthorized && status != http.StatusOK {
		t.Fatalf("verify status = %d, want %d", status, http.StatusUnauthorized)
	}
	if status == http.StatusOK {
		t.Skip("generated code happened to be 000000")
	}
	if env.Status != "OTP_INVALID_CODE" {
		t.Errorf("reason = %q, want OTP_INVALID_CODE", env.Status)
	}
}

func TestE2E_SessionRequiresToken(t *testing.T) {
	base := baseURL(t)

	status, _, _ := doJSON(t, http.MethodGet, base+"/api/v1/auth/session", nil, "")
	if status != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", status, http.StatusUnauthorized)
	}
}
