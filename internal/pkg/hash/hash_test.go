package hash

import (
	"errors"
	"strings"
	"testing"
)

func TestHashVerify(t *testing.T) {
	tests := []struct {
		name   string
		driver string
	}{
		{name: "hmac", driver: DriverHMACSHA256},
		{name: "default driver", driver: ""},
		{name: "bcrypt", driver: DriverBcrypt},
		{name: "argon2id", driver: DriverArgon2id},
	}

	long := strings.Repeat("x", 120) + "@example.com:123456"

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := NewFromDriver(tt.driver, Options{Secret: "pepper", BcryptCost: 4})
			if err != nil {
				t.Fatalf("NewFromDriver() error = %v", err)
			}

			for _, plain := range []string{"a@b.com:123456", long} {
				hashed, err := h.Hash(plain)
				if err != nil {
					t.Fatalf("Hash() error = %v", err)
				}
				if string(hashed) == plain {
					t.Fatal("Hash() returned plaintext")
				}
				if !h.Verify(string(hashed), plain) {
					t.Errorf("Verify(%q) = false, want true", plain)
				}
				if h.Verify(string(hashed), plain+"0") {
					t.Errorf("Verify(%q+0) = true, want false", plain)
				}
			}
		})
	}
}

func TestHMACSHA256_Deterministic(t *testing.T) {
	h := NewHMACSHA256("k")
	a, _ := h.Hash("a@b.com:000001")
	b, _ := h.Hash("a@b.com:000001")
	if string(a) != string(b) {
		t.Fatalf("Hash() not deterministic: %s != %s", a, b)
	}
	if other, _ := NewHMACSHA256("other").Hash("a@b.com:000001"); string(other) == string(a) {
		t.Fatal("Hash() ignored the secret")
	}
}

func TestArgon2id_VerifyMalformed(t *testing.T) {
	h := NewArgon2id("")
	for _, hashed := range []string{"", "$argon2id$", "$bcrypt$v=19$m=1,t=1,p=1$AA$AA", "$argon2id$v=1$m=1,t=1,p=1$AA$AA"} {
		if h.Verify(hashed, "x") {
			t.Errorf("Verify(%q) = true, want false", hashed)
		}
	}
}

func TestNewFromDriver_Errors(t *testing.T) {
	if _, err := NewFromDriver("md5", Options{Secret: "x"}); !errors.Is(err, ErrUnknownDriver) {
		t.Errorf("NewFromDriver(md5) error = %v, want ErrUnknownDriver", err)
	}
	if _, err := NewFromDriver(DriverHMACSHA256, Options{}); !errors.Is(err, ErrEmptySecret) {
		t.Errorf("NewFromDriver(hmac, no secret) error = %v, want ErrEmptySecret", err)
	}
}
