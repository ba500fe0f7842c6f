// Package otp generates one-time codes delivered out of band (email).
//
// Codes are drawn uniformly from the decimal code space with crypto/rand and
// are never derived from time or counters.
package otp
