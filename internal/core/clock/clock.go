// Package clock abstracts wall-clock access so aggregates stay deterministic.
// Mutators never call time.Now directly; the orchestration layer stamps
// timestamps obtained from a Clock.
package clock

import "time"

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// System is the production Clock backed by time.Now (UTC).
type System struct{}

func (System) Now() time.Time { return time.Now().UTC() }

// Fixed is a Clock frozen at a single instant. Used in tests.
type Fixed struct {
	T time.Time
}

func (f Fixed) Now() time.Time { return f.T }
