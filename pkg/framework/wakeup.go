package framework

import "time"

// Wakeup is an optional duration: either "wake me after D" or no
// preference at all. The zero value is NoWakeup.
type Wakeup struct {
	after time.Duration
	set   bool
}

// NoWakeup expresses no preference, i.e. an unbounded wait.
var NoWakeup = Wakeup{}

// After creates a Wakeup after d. Negative durations are clamped to 0.
func After(d time.Duration) Wakeup {
	if d < 0 {
		d = 0
	}
	return Wakeup{after: d, set: true}
}

// Get returns the duration and whether it's set.
func (w Wakeup) Get() (time.Duration, bool) {
	return w.after, w.set
}

// IsSet indicates a duration is present.
func (w Wakeup) IsSet() bool {
	return w.set
}

// String implements fmt.Stringer.
func (w Wakeup) String() string {
	if !w.set {
		return "none"
	}
	return w.after.String()
}

// MinWakeup returns the earlier of two wakeups. NoWakeup is treated as
// unbounded on both sides, so the result is NoWakeup only if both are.
func MinWakeup(a, b Wakeup) Wakeup {
	switch {
	case !a.set:
		return b
	case !b.set:
		return a
	case b.after < a.after:
		return b
	}
	return a
}
