package entity

import (
	"strings"
	"time"
)

// OTPRecord is the outstanding one-time code of a single identity.
//
// ID identifies one issuance; store mutations are keyed by identity and ID so
// a verification never touches a record that was replaced in the meantime.
type OTPRecord struct {
	ID        int64
	Identity  string
	CodeHash  string
	IssuedAt  time.Time
	ExpiresAt time.Time
	Attempts  int
	Consumed  bool
}

// Expired reports whether the record is past its expiry at now.
func (r OTPRecord) Expired(now time.Time) bool {
	return now.After(r.ExpiresAt)
}

// Locked reports whether the failed attempts reached limit.
func (r OTPRecord) Locked(limit int) bool {
	return r.Attempts >= limit
}

// AttemptsLeft returns how many failed verifications remain before the record locks.
func (r OTPRecord) AttemptsLeft(limit int) int {
	return max(0, limit-r.Attempts)
}

// NormalizeIdentity trims and lower-cases an email so it can be used as a key.
func NormalizeIdentity(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CodeSubject is the string hashed for a code, binding it to its identity.
func CodeSubject(identity, code string) string {
	return identity + ":" + code
}
