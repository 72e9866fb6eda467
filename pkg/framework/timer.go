package framework

import (
	"fmt"
	"time"
)

// MaxTimers is the capacity of a TimerManager.
const MaxTimers = 8

// TimerFunc is called on expiry. Returning After(d) rearms the timer
// d after the firing instant, NoWakeup frees it.
type TimerFunc func() Wakeup

// TimerManager is a fixed set of timers owned by one thread.
// It must only be used from the owning thread.
type TimerManager struct {
	clock TimeSource
	wake  *WakeSignal

	entries [MaxTimers]timerEntry
	nextID  uint64

	expiring        bool
	pass            uint64
	pendingRemovals [MaxTimers]int
	pendingCount    int
}

type timerEntry struct {
	id        uint64
	timeout   time.Duration
	dueAt     time.Time
	fn        TimerFunc
	active    bool
	cancelled bool
	armedPass uint64
}

// Timer is the owner-scoped handle of a started timer.
type Timer struct {
	m     *TimerManager
	index int
	id    uint64
}

// NewTimerManager creates a TimerManager. wake, if not nil, is released
// whenever a timer is started so the owner recomputes its wait.
func NewTimerManager(clock TimeSource, wake *WakeSignal) *TimerManager {
	if clock == nil {
		clock = SystemTime
	}
	return &TimerManager{clock: clock, wake: wake}
}

// StartTimer arms a timer firing after timeout. A nil fn expires once.
// It panics when all MaxTimers slots are in use.
func (m *TimerManager) StartTimer(timeout time.Duration, fn TimerFunc) *Timer {
	if fn == nil {
		fn = func() Wakeup { return NoWakeup }
	}
	index := -1
	for n := range m.entries {
		if !m.entries[n].active {
			index = n
			break
		}
	}
	if index < 0 {
		panic(fmt.Errorf("timer set: %w (%d)", ErrCapacityExceeded, MaxTimers))
	}
	m.nextID++
	m.entries[index] = timerEntry{
		id:      m.nextID,
		timeout: timeout,
		dueAt:   m.clock.Time().Add(timeout),
		fn:      fn,
		active:  true,
	}
	if m.expiring {
		m.entries[index].armedPass = m.pass
	}
	if m.wake != nil {
		m.wake.Release()
	}
	return &Timer{m: m, index: index, id: m.nextID}
}

// Expire fires all due timers and returns the time until the next
// deadline, or NoWakeup if no timer is active.
func (m *TimerManager) Expire() Wakeup {
	now := m.clock.Time()
	m.pass++
	m.expiring = true
	for n := range m.entries {
		e := &m.entries[n]
		if !e.active || e.cancelled || e.armedPass == m.pass {
			continue
		}
		if e.dueAt.After(now) {
			continue
		}
		id := e.id
		next := e.fn()
		if e.id != id || e.cancelled {
			// cancelled from inside the callback, freed after the pass.
			continue
		}
		if d, ok := next.Get(); ok {
			e.timeout = d
			e.dueAt = now.Add(d)
		} else {
			m.free(n)
		}
	}
	m.expiring = false
	for i := 0; i < m.pendingCount; i++ {
		m.free(m.pendingRemovals[i])
	}
	m.pendingCount = 0

	next := NoWakeup
	for n := range m.entries {
		if e := &m.entries[n]; e.active {
			next = MinWakeup(next, After(e.dueAt.Sub(now)))
		}
	}
	return next
}

// ActiveCount returns the number of active timers.
func (m *TimerManager) ActiveCount() (count int) {
	for n := range m.entries {
		if m.entries[n].active {
			count++
		}
	}
	return
}

func (m *TimerManager) free(index int) {
	m.entries[index] = timerEntry{}
}

func (m *TimerManager) cancel(index int, id uint64) {
	e := &m.entries[index]
	if !e.active || e.id != id || e.cancelled {
		return
	}
	if m.expiring {
		e.cancelled = true
		m.pendingRemovals[m.pendingCount] = index
		m.pendingCount++
		return
	}
	m.free(index)
}

func (t *Timer) entry() *timerEntry {
	if e := &t.m.entries[t.index]; e.active && e.id == t.id && !e.cancelled {
		return e
	}
	return nil
}

// Cancel stops the timer. It's safe to call more than once, after
// expiry, and from inside any timer callback of the same manager.
func (t *Timer) Cancel() {
	t.m.cancel(t.index, t.id)
}

// IsExpired indicates the timer is no longer active.
func (t *Timer) IsExpired() bool {
	return t.entry() == nil
}

// TimeLeft returns the time until the timer fires, 0 if expired.
func (t *Timer) TimeLeft() time.Duration {
	e := t.entry()
	if e == nil {
		return 0
	}
	if d := e.dueAt.Sub(t.m.clock.Time()); d > 0 {
		return d
	}
	return 0
}
