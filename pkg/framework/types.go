package framework

import (
	"context"
	"time"
)

// Named is an abstraction for things with a name.
type Named interface {
	Name() string
}

// Runnable defines a generic interface for background runners.
type Runnable interface {
	Run(context.Context) error
}

// TimeSource provides the time for scheduling logic.
type TimeSource interface {
	Time() time.Time
}

// TimeFunc is the func form of TimeSource.
type TimeFunc func() time.Time

// Time implements TimeSource.
func (f TimeFunc) Time() time.Time {
	return f()
}

// SystemTime reads the wall clock.
var SystemTime TimeSource = TimeFunc(time.Now)

// Activator performs one unit of work each time its thread wakes up.
// It can't assume why it was woken and must re-derive pending work.
type Activator interface {
	// OnActivation returns the duration after which the thread wants to
	// be activated again, or NoWakeup.
	OnActivation() Wakeup
}

// ActivateFunc is the func form of Activator.
type ActivateFunc func() Wakeup

// OnActivation implements Activator.
func (f ActivateFunc) OnActivation() Wakeup {
	return f()
}

// Priority is the static priority of a thread, fixed at creation.
type Priority int

// Predefined priorities.
const (
	PriorityLow Priority = iota + 1
	PriorityNormal
	PriorityHigh
)

// String implements fmt.Stringer.
func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityNormal:
		return "normal"
	case PriorityHigh:
		return "high"
	}
	return "unknown"
}
