package config

import (
	"reflect"
	"testing"
	"time"
)

const sample = `
app:
  name: otpauth
  debug: true
modules:
  auth:
    ttl_seconds: 300
    lock:
      wait_millis: 1500
router:
  cors:
    origins: "http://a.test, http://b.test,"
    methods:
      - GET
      - POST
jwt:
  secret: c2VjcmV0
`

func TestViperFromBytes(t *testing.T) {
	cfg, err := NewViperFromBytes("yaml", []byte(sample), WithDefaults(map[string]any{
		"modules.auth.max_attempts": 5,
	}))
	if err != nil {
		t.Fatalf("NewViperFromBytes() error = %v", err)
	}
	t.Cleanup(func() { _ = cfg.Close() })

	if got := cfg.GetString("app.name"); got != "otpauth" {
		t.Errorf("GetString() = %q, want otpauth", got)
	}
	if !cfg.GetBool("app.debug") {
		t.Error("GetBool() = false, want true")
	}
	if got := cfg.GetSecond("modules.auth.ttl_seconds"); got != 5*time.Minute {
		t.Errorf("GetSecond() = %v, want 5m", got)
	}
	if got := cfg.GetMillisecond("modules.auth.lock.wait_millis"); got != 1500*time.Millisecond {
		t.Errorf("GetMillisecond() = %v, want 1.5s", got)
	}
	if got := cfg.GetInt("modules.auth.max_attempts"); got != 5 {
		t.Errorf("GetInt() default = %d, want 5", got)
	}
	if got := string(cfg.GetBinary("jwt.secret")); got != "secret" {
		t.Errorf("GetBinary() = %q, want secret", got)
	}
	if got := cfg.GetBinary("app.name"); got != nil {
		t.Errorf("GetBinary() on non base64 = %q, want nil", got)
	}

	tests := []struct {
		key  string
		want []string
	}{
		{key: "router.cors.origins", want: []string{"http://a.test", "http://b.test"}},
		{key: "router.cors.methods", want: []string{"GET", "POST"}},
		{key: "router.cors.missing", want: []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			if got := cfg.GetArray(tt.key); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("GetArray(%q) = %#v, want %#v", tt.key, got, tt.want)
			}
		})
	}
}

func TestViperFromBytes_EnvOverride(t *testing.T) {
	t.Setenv("OTPAUTH_MODULES_AUTH_TTL_SECONDS", "60")

	cfg, err := NewViperFromBytes("yaml", []byte(sample))
	if err != nil {
		t.Fatalf("NewViperFromBytes() error = %v", err)
	}

	if got := cfg.GetSecond("modules.auth.ttl_seconds"); got != time.Minute {
		t.Errorf("GetSecond() = %v, want env override 1m", got)
	}
}

func TestViperFromBytes_MissingType(t *testing.T) {
	if _, err := NewViperFromBytes(" ", []byte(sample)); err == nil {
		t.Fatal("NewViperFromBytes() error = nil, want error")
	}
}
