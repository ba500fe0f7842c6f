// Package mail sends email through a pluggable provider.
//
// Callers depend on the Mail interface and the provider-agnostic Message.
// NewFromDriver picks the concrete sender ("smtp" or "resend") from config.
package mail
