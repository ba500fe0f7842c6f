package otp

import (
	"crypto/rand"
	"errors"
	"io"
	"math/big"
	"strings"

	"github.com/pquerna/otp"
)

const (
	// MinDigits is the shortest supported code.
	MinDigits = 4
	// MaxDigits is the longest supported code (fits otp.Digits.Format).
	MaxDigits = 9
)

// ErrInvalidDigits is returned for a code length outside [MinDigits, MaxDigits].
var ErrInvalidDigits = errors.New("otp: digits out of range")

// Generator produces one-time codes.
type Generator interface {
	Generate() (string, error)
	Digits() int
}

// Numeric generates zero-padded decimal codes.
type Numeric struct {
	digits otp.Digits
	limit  *big.Int
	random io.Reader
}

// NewNumeric returns a Numeric generator for the given code length
// (otp.DigitsSix is the usual choice).
func NewNumeric(digits otp.Digits) (*Numeric, error) {
	return newNumeric(digits, rand.Reader)
}

func newNumeric(digits otp.Digits, random io.Reader) (*Numeric, error) {
	if digits.Length() < MinDigits || digits.Length() > MaxDigits {
		return nil, ErrInvalidDigits
	}

	limit := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(digits.Length())), nil)

	return &Numeric{digits: digits, limit: limit, random: random}, nil
}

// Generate returns a uniformly distributed code of Digits() characters.
func (n *Numeric) Generate() (string, error) {
	v, err := rand.Int(n.random, n.limit)
	if err != nil {
		return "", err
	}
	return n.digits.Format(int32(v.Int64())), nil
}

// Digits returns the configured code length.
func (n *Numeric) Digits() int {
	return n.digits.Length()
}

// Normalize strips whitespace and dash separators users often paste with a code.
func Normalize(code string) string {
	return strings.Map(func(r rune) rune {
		if r == ' ' || r == '-' || r == '\t' {
			return -1
		}
		return r
	}, strings.TrimSpace(code))
}
