// Package backoff computes retry delays and alert thresholds for
// consecutive refresh failures. It is pure policy: no I/O, no clock.
package backoff

import "time"

// Defaults applied by New when a field is zero.
const (
	DefaultBase           = 5 * time.Minute
	DefaultMax            = 30 * time.Minute
	DefaultAlertThreshold = 3
)

// Policy computes exponential backoff delays from a consecutive-failure
// counter. The caller owns the counter and the once-per-episode alert
// arming; Policy only answers questions about a given counter value.
type Policy struct {
	// Base is the delay after the first failure.
	Base time.Duration
	// Max caps the computed delay.
	Max time.Duration
	// AlertThreshold is the failure count at which ShouldAlert fires.
	AlertThreshold int
}

// New returns a policy with defaults applied for zero fields.
func New(base, max time.Duration, alertThreshold int) Policy {
	if base <= 0 {
		base = DefaultBase
	}
	if max <= 0 {
		max = DefaultMax
	}
	if alertThreshold <= 0 {
		alertThreshold = DefaultAlertThreshold
	}
	return Policy{Base: base, Max: max, AlertThreshold: alertThreshold}
}

// NextDelay returns min(Base * 2^n, Max) for n consecutive failures.
// n counts failures already observed, so the delay after the first
// failure is NextDelay(0) = Base.
func (p Policy) NextDelay(n int) time.Duration {
	d := p.Base
	for i := 0; i < n; i++ {
		d *= 2
		if d >= p.Max || d <= 0 { // overflow guard
			return p.Max
		}
	}
	if d > p.Max {
		return p.Max
	}
	return d
}

// ShouldAlert reports whether n consecutive failures crossed the alert
// threshold. Firing at most once per failure episode is the caller's
// responsibility: re-arm only after a success resets the counter.
func (p Policy) ShouldAlert(n int) bool {
	return n >= p.AlertThreshold
}
