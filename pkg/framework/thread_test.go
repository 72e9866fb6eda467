package framework

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWakeSignal(t *testing.T) {
	s := NewWakeSignal()
	require.False(t, s.TryAcquire())
	require.False(t, s.TryAcquireFor(time.Millisecond))

	s.Release()
	s.Release()
	require.True(t, s.IsSignaled())
	require.True(t, s.TryAcquireFor(time.Second))
	require.False(t, s.IsSignaled())
	require.False(t, s.TryAcquire())

	go func() {
		time.Sleep(10 * time.Millisecond)
		s.Release()
	}()
	s.Acquire()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.Equal(t, context.Canceled, s.AcquireContext(ctx))
}

func TestMinWakeup(t *testing.T) {
	testCases := []struct {
		name   string
		a, b   Wakeup
		expect Wakeup
	}{
		{"both none", NoWakeup, NoWakeup, NoWakeup},
		{"left none", NoWakeup, After(time.Second), After(time.Second)},
		{"right none", After(time.Second), NoWakeup, After(time.Second)},
		{"left smaller", After(time.Millisecond), After(time.Second), After(time.Millisecond)},
		{"right smaller", After(time.Second), After(0), After(0)},
		{"negative clamped", After(-time.Second), NoWakeup, After(0)},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.expect, MinWakeup(tc.a, tc.b))
		})
	}
}

func TestThreadActivatesOnAwake(t *testing.T) {
	var count int32
	activated := make(chan struct{}, 16)
	th := NewThread("test", ActivateFunc(func() Wakeup {
		atomic.AddInt32(&count, 1)
		activated <- struct{}{}
		return NoWakeup
	}))
	th.Start()
	defer th.Stop()

	<-activated
	th.Awake()
	select {
	case <-activated:
	case <-time.After(time.Second):
		t.Fatal("no activation after Awake")
	}
	require.Equal(t, int32(2), atomic.LoadInt32(&count))
	require.Equal(t, ThreadRunning, th.State())
}

func TestThreadActivationWakeup(t *testing.T) {
	var count int32
	th := NewThread("periodic", ActivateFunc(func() Wakeup {
		atomic.AddInt32(&count, 1)
		return After(5 * time.Millisecond)
	}))
	th.Start()
	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&count) >= 5
	}, time.Second, time.Millisecond)
	th.Stop()
	<-th.Done()
	require.Equal(t, ThreadTerminated, th.State())
}

func TestThreadTimerWakesLoop(t *testing.T) {
	fired := make(chan struct{}, 1)
	th := &Thread{}
	th.Init("timers", ActivateFunc(func() Wakeup { return NoWakeup }))
	th.StartTimer(10*time.Millisecond, func() Wakeup {
		fired <- struct{}{}
		return NoWakeup
	})
	th.Start()
	defer th.Stop()
	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("timer did not fire")
	}
}

func TestThreadStopCompletesActivation(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	var completed int32
	th := NewThread("stop", ActivateFunc(func() Wakeup {
		if atomic.LoadInt32(&completed) == 0 {
			close(entered)
			<-release
		}
		atomic.AddInt32(&completed, 1)
		return NoWakeup
	}))
	th.Start()
	<-entered
	th.Stop()
	require.Equal(t, ThreadStopping, th.State())
	close(release)
	<-th.Done()
	require.Equal(t, int32(1), atomic.LoadInt32(&completed))
	require.Equal(t, context.Canceled, th.Context().Err())
}

func TestThreadRunContextCancel(t *testing.T) {
	th := NewThread("ctx", ActivateFunc(func() Wakeup { return NoWakeup }))
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- th.Run(ctx) }()
	cancel()
	select {
	case err := <-errCh:
		require.Equal(t, context.Canceled, err)
	case <-time.After(time.Second):
		t.Fatal("thread did not stop on context cancel")
	}
}

func TestRunnerWait(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r := NewRunnerWith(ctx)
	a := NewThread("a", ActivateFunc(func() Wakeup { return NoWakeup }))
	b := NewThread("b", ActivateFunc(func() Wakeup { return NoWakeup }))
	r.Go(a).Settle(time.Millisecond).Go(b)
	cancel()
	require.NoError(t, r.Wait())
	require.Equal(t, ThreadTerminated, a.State())
	require.Equal(t, ThreadTerminated, b.State())
}

type closeCounter int32

func (c *closeCounter) Close() error {
	atomic.AddInt32((*int32)(c), 1)
	return nil
}

func TestThreadClosesOnExit(t *testing.T) {
	var owned closeCounter
	th := NewThread("owner", ActivateFunc(func() Wakeup { return NoWakeup }))
	th.CloseOnExit(&owned)
	th.Start()
	require.Zero(t, atomic.LoadInt32((*int32)(&owned)))
	th.Stop()
	<-th.Done()
	require.Equal(t, int32(1), atomic.LoadInt32((*int32)(&owned)))
}
