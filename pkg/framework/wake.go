package framework

import (
	"context"
	"time"
)

// WakeSignal is a binary semaphore used as a cross-thread doorbell.
// Multiple releases before an acquire collapse into one pending wake.
type WakeSignal struct {
	ch chan struct{}
}

// NewWakeSignal creates an idle WakeSignal.
func NewWakeSignal() *WakeSignal {
	return &WakeSignal{ch: make(chan struct{}, 1)}
}

// Release signals the owner. It never blocks.
func (s *WakeSignal) Release() {
	select {
	case s.ch <- struct{}{}:
	default:
	}
}

// Acquire blocks until signaled, then resets the signal.
func (s *WakeSignal) Acquire() {
	<-s.ch
}

// TryAcquire consumes a pending signal without blocking.
func (s *WakeSignal) TryAcquire() bool {
	select {
	case <-s.ch:
		return true
	default:
		return false
	}
}

// TryAcquireFor blocks up to d and reports whether a signal was observed.
func (s *WakeSignal) TryAcquireFor(d time.Duration) bool {
	if d <= 0 {
		return s.TryAcquire()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-s.ch:
		return true
	case <-timer.C:
		return false
	}
}

// AcquireContext blocks until signaled or ctx is done.
func (s *WakeSignal) AcquireContext(ctx context.Context) error {
	select {
	case <-s.ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// IsSignaled peeks at the signal without consuming it.
func (s *WakeSignal) IsSignaled() bool {
	return len(s.ch) > 0
}
