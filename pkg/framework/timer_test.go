package framework

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeTime struct {
	now time.Time
}

func newFakeTime() *fakeTime {
	return &fakeTime{now: time.Unix(1000, 0)}
}

func (f *fakeTime) Time() time.Time {
	return f.now
}

func (f *fakeTime) advance(d time.Duration) {
	f.now = f.now.Add(d)
}

func TestTimerRearmTwiceThenExpire(t *testing.T) {
	clock := newFakeTime()
	m := NewTimerManager(clock, nil)
	fired := 0
	m.StartTimer(50*time.Millisecond, func() Wakeup {
		fired++
		if fired < 3 {
			return After(50 * time.Millisecond)
		}
		return NoWakeup
	})
	require.Equal(t, 1, m.ActiveCount())

	for i := 0; i < 3; i++ {
		clock.advance(50 * time.Millisecond)
		m.Expire()
	}
	require.Equal(t, 3, fired)
	require.Equal(t, 0, m.ActiveCount())
	require.False(t, m.Expire().IsSet())
}

func TestTimerNextDeadline(t *testing.T) {
	clock := newFakeTime()
	m := NewTimerManager(clock, nil)
	require.Equal(t, NoWakeup, m.Expire())

	m.StartTimer(300*time.Millisecond, nil)
	m.StartTimer(100*time.Millisecond, nil)
	m.StartTimer(200*time.Millisecond, nil)

	d, ok := m.Expire().Get()
	require.True(t, ok)
	require.Equal(t, 100*time.Millisecond, d)

	clock.advance(150 * time.Millisecond)
	d, ok = m.Expire().Get()
	require.True(t, ok)
	require.Equal(t, 50*time.Millisecond, d)
	require.Equal(t, 2, m.ActiveCount())
}

func TestTimerCancelBeforeExpiry(t *testing.T) {
	clock := newFakeTime()
	m := NewTimerManager(clock, nil)
	fired := false
	timer := m.StartTimer(10*time.Millisecond, func() Wakeup {
		fired = true
		return NoWakeup
	})
	require.False(t, timer.IsExpired())
	require.Equal(t, 10*time.Millisecond, timer.TimeLeft())
	timer.Cancel()
	timer.Cancel()
	require.True(t, timer.IsExpired())

	clock.advance(time.Second)
	require.Equal(t, NoWakeup, m.Expire())
	require.False(t, fired)
}

func TestTimerCancelSiblingDuringPass(t *testing.T) {
	clock := newFakeTime()
	m := NewTimerManager(clock, nil)
	var order []string
	var second *Timer
	m.StartTimer(10*time.Millisecond, func() Wakeup {
		order = append(order, "first")
		second.Cancel()
		// the cancelled slot must stay reserved until the pass ends.
		require.Equal(t, 2, m.ActiveCount())
		return NoWakeup
	})
	second = m.StartTimer(10*time.Millisecond, func() Wakeup {
		order = append(order, "second")
		return NoWakeup
	})

	clock.advance(10 * time.Millisecond)
	require.Equal(t, NoWakeup, m.Expire())
	require.Equal(t, []string{"first"}, order)
	require.Equal(t, 0, m.ActiveCount())
	require.True(t, second.IsExpired())
}

func TestTimerCancelSelfDuringCallback(t *testing.T) {
	clock := newFakeTime()
	m := NewTimerManager(clock, nil)
	var self *Timer
	fired := 0
	self = m.StartTimer(10*time.Millisecond, func() Wakeup {
		fired++
		self.Cancel()
		return After(10 * time.Millisecond)
	})
	other := m.StartTimer(time.Second, nil)

	clock.advance(10 * time.Millisecond)
	m.Expire()
	require.Equal(t, 1, fired)
	require.Equal(t, 1, m.ActiveCount())

	// the freed slot is reusable and the stale handle doesn't touch it.
	reused := m.StartTimer(time.Second, nil)
	self.Cancel()
	require.False(t, reused.IsExpired())
	require.False(t, other.IsExpired())
	require.Equal(t, 2, m.ActiveCount())
}

func TestTimerNoDoubleFireInPass(t *testing.T) {
	clock := newFakeTime()
	m := NewTimerManager(clock, nil)
	fired := 0
	m.StartTimer(0, func() Wakeup {
		fired++
		return After(0)
	})
	started := 0
	m.StartTimer(0, func() Wakeup {
		started++
		m.StartTimer(0, func() Wakeup {
			started += 10
			return NoWakeup
		})
		return NoWakeup
	})

	m.Expire()
	require.Equal(t, 1, fired)
	require.Equal(t, 1, started)

	m.Expire()
	require.Equal(t, 2, fired)
	require.Equal(t, 11, started)
}

func TestTimerCapacity(t *testing.T) {
	m := NewTimerManager(newFakeTime(), nil)
	for i := 0; i < MaxTimers; i++ {
		m.StartTimer(time.Second, nil)
	}
	require.Panics(t, func() { m.StartTimer(time.Second, nil) })
}

func TestTimerStartReleasesWake(t *testing.T) {
	wake := NewWakeSignal()
	m := NewTimerManager(newFakeTime(), wake)
	m.StartTimer(time.Second, nil)
	require.True(t, wake.TryAcquire())
}
