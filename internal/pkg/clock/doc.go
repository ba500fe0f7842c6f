// Package clock provides a tiny time abstraction.
//
// Production code depends on the Clocker interface instead of calling
// time.Now() directly; tests swap in Fake to drive expiry and cooldown
// windows deterministically.
package clock
