// SPDX-License-Identifier: MIT
package log

import "time"

// Limiter lets at most one event through per interval. The first event is
// always allowed. It is not safe for concurrent use; each owner (the capture
// read path, the render loop) keeps its own.
type Limiter struct {
	interval time.Duration
	last     time.Time
}

// NewLimiter creates a Limiter that admits one event per interval.
func NewLimiter(interval time.Duration) *Limiter {
	return &Limiter{interval: interval}
}

// Allow reports whether an event at now may be emitted, and if so starts a
// new window at now.
func (l *Limiter) Allow(now time.Time) bool {
	if !l.last.IsZero() && now.Sub(l.last) < l.interval {
		return false
	}
	l.last = now
	return true
}
