package hash

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// DriverHMACSHA256 selects keyed SHA-256.
	DriverHMACSHA256 = "hmac-sha256"
	// DriverBcrypt selects bcrypt.
	DriverBcrypt = "bcrypt"
	// DriverArgon2id selects argon2id.
	DriverArgon2id = "argon2id"
)

// ErrUnknownDriver indicates an unsupported hash driver.
var ErrUnknownDriver = errors.New("hash: unknown driver")

// ErrEmptySecret is returned when a driver requires a secret and none is set.
var ErrEmptySecret = errors.New("hash: secret is required")

// Hash hashes plaintext and verifies plaintext against a stored hash.
type Hash interface {
	Hash(str string) ([]byte, error)
	Verify(hashed, str string) bool
}

// Options configures NewFromDriver.
type Options struct {
	// Secret keys the HMAC driver and peppers bcrypt/argon2id.
	Secret string
	// BcryptCost is the bcrypt work factor (bcrypt.DefaultCost when zero).
	BcryptCost int
}

// NewFromDriver constructs a Hash implementation by driver name.
func NewFromDriver(driver string, opts Options) (Hash, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "", DriverHMACSHA256:
		if opts.Secret == "" {
			return nil, ErrEmptySecret
		}
		return NewHMACSHA256(opts.Secret), nil
	case DriverBcrypt:
		return NewBcrypt(opts.BcryptCost, opts.Secret), nil
	case DriverArgon2id:
		return NewArgon2id(opts.Secret), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownDriver, driver)
	}
}
