package framework

import (
	"context"
	"io"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/golang/glog"
)

// ThreadState is the lifecycle state of a Thread.
type ThreadState int32

// Thread states.
const (
	ThreadIdle ThreadState = iota
	ThreadRunning
	ThreadStopping
	ThreadTerminated
)

// String implements fmt.Stringer.
func (s ThreadState) String() string {
	switch s {
	case ThreadIdle:
		return "idle"
	case ThreadRunning:
		return "running"
	case ThreadStopping:
		return "stopping"
	case ThreadTerminated:
		return "terminated"
	}
	return "unknown"
}

// Thread couples one WakeSignal and one TimerManager into an event
// loop driving a single Activator. Workers embed Thread and call Init
// with themselves as the Activator.
type Thread struct {
	Priority Priority

	name      string
	activator Activator
	wake      *WakeSignal
	timers    *TimerManager

	state   int32
	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}
	started int32
	once    sync.Once
	owned   []io.Closer
}

// NewThread creates a Thread.
func NewThread(name string, activator Activator) *Thread {
	t := &Thread{}
	t.Init(name, activator)
	return t
}

// Init initializes an embedded Thread with the system clock.
func (t *Thread) Init(name string, activator Activator) {
	t.InitWithTime(name, activator, SystemTime)
}

// InitWithTime initializes an embedded Thread reading timer deadlines
// from clock.
func (t *Thread) InitWithTime(name string, activator Activator, clock TimeSource) {
	t.name = name
	t.activator = activator
	t.wake = NewWakeSignal()
	t.timers = NewTimerManager(clock, t.wake)
	t.ctx, t.cancel = context.WithCancel(context.Background())
	t.done = make(chan struct{})
	if t.Priority == 0 {
		t.Priority = PriorityLow
	}
}

// Name implements Named.
func (t *Thread) Name() string {
	return t.name
}

// WakeSignal returns the signal the loop blocks on.
func (t *Thread) WakeSignal() *WakeSignal {
	return t.wake
}

// Awake interrupts the current wait, leading to one more activation.
func (t *Thread) Awake() {
	t.wake.Release()
}

// StartTimer arms a timer on this thread. The callback runs on the
// thread itself, so it must be short and never block.
func (t *Thread) StartTimer(timeout time.Duration, fn TimerFunc) *Timer {
	return t.timers.StartTimer(timeout, fn)
}

// CloseOnExit closes c when the loop terminates. Workers hand their
// listener registrations here so a stopped worker frees its slots.
// Call it before the thread starts.
func (t *Thread) CloseOnExit(c ...io.Closer) {
	t.owned = append(t.owned, c...)
}

// Context is canceled when the thread is asked to stop. Collaborators
// blocking inside an activation should honor it.
func (t *Thread) Context() context.Context {
	return t.ctx
}

// State returns current lifecycle state.
func (t *Thread) State() ThreadState {
	return ThreadState(atomic.LoadInt32(&t.state))
}

// Done is closed when the loop has terminated.
func (t *Thread) Done() <-chan struct{} {
	return t.done
}

// Start runs the loop on a new goroutine.
func (t *Thread) Start() {
	go t.Run(context.Background())
}

// Stop requests the loop to exit. The flag is observed at the top of
// the loop, so an in-flight activation completes, but Context is
// canceled right away and collaborators blocked on it return early.
func (t *Thread) Stop() {
	if atomic.CompareAndSwapInt32(&t.state, int32(ThreadRunning), int32(ThreadStopping)) ||
		atomic.CompareAndSwapInt32(&t.state, int32(ThreadIdle), int32(ThreadStopping)) {
		t.cancel()
		t.wake.Release()
	}
}

// Run implements Runnable. It returns when Stop is called or ctx is done.
func (t *Thread) Run(ctx context.Context) error {
	if !atomic.CompareAndSwapInt32(&t.started, 0, 1) {
		panic("thread " + t.name + " already started")
	}
	if t.Priority >= PriorityHigh {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
	}
	defer t.terminate()
	atomic.CompareAndSwapInt32(&t.state, int32(ThreadIdle), int32(ThreadRunning))

	stopCh := make(chan struct{})
	defer close(stopCh)
	go func() {
		select {
		case <-ctx.Done():
			t.Stop()
		case <-stopCh:
		}
	}()

	glog.V(2).Infof("thread[%s] running, priority %s", t.name, t.Priority)
	for t.State() == ThreadRunning {
		next := MinWakeup(t.activator.OnActivation(), t.timers.Expire())
		if d, ok := next.Get(); ok {
			t.wake.TryAcquireFor(d)
		} else {
			t.wake.Acquire()
		}
	}
	glog.V(2).Infof("thread[%s] stopped", t.name)
	return ctx.Err()
}

func (t *Thread) terminate() {
	atomic.StoreInt32(&t.state, int32(ThreadTerminated))
	t.once.Do(func() {
		t.cancel()
		for _, c := range t.owned {
			if err := c.Close(); err != nil {
				glog.Warningf("thread[%s] close: %v", t.name, err)
			}
		}
		close(t.done)
	})
}
