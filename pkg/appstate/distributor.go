package appstate

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/golang/glog"

	fx "github.com/robotalks/plotter.go/pkg/framework"
)

// MaxListeners is the capacity of the distributor's listener registry.
const MaxListeners = 4

// Distributor owns the canonical State.
type Distributor struct {
	mu        sync.Mutex
	canonical atomic.Pointer[State]
	listeners [MaxListeners]*Listener
}

// Transaction is a private copy of the canonical state. Mutate the
// embedded State, then call Release exactly once.
type Transaction struct {
	State

	d        *Distributor
	released bool
}

// Listener is a registered wake signal.
type Listener struct {
	d     *Distributor
	index int
	wake  *fx.WakeSignal
}

// NewDistributor creates a Distributor holding initial.
func NewDistributor(initial State) *Distributor {
	d := &Distributor{}
	d.canonical.Store(&initial)
	return d
}

// Checkout locks the distributor and returns a copy of the canonical
// state. Other checkouts block until the transaction is released, so
// keep it short.
func (d *Distributor) Checkout() *Transaction {
	d.mu.Lock()
	return &Transaction{State: *d.canonical.Load(), d: d}
}

// CheckoutReadonly returns the current canonical snapshot without
// locking. The snapshot is immutable and must not be modified; later
// commits replace it rather than change it.
func (d *Distributor) CheckoutReadonly() *State {
	return d.canonical.Load()
}

// Update runs fn inside a transaction and reports whether it changed
// the state.
func (d *Distributor) Update(fn func(*State)) (changed bool) {
	tx := d.Checkout()
	defer func() { changed = tx.Release() }()
	fn(&tx.State)
	return
}

// Release commits the copy if it differs from the canonical state and
// wakes every listener in that case. The lock is released either way.
// It returns whether the state changed. Further calls are no-ops.
func (t *Transaction) Release() bool {
	if t.released {
		return false
	}
	t.released = true
	d := t.d
	defer d.mu.Unlock()
	if *d.canonical.Load() == t.State {
		return false
	}
	next := t.State
	d.canonical.Store(&next)
	glog.V(3).Infof("state: %s", next)
	for _, l := range d.listeners {
		if l != nil {
			l.wake.Release()
		}
	}
	return true
}

// AttachListener registers sig to be released on every change. It
// panics when the registry is full.
func (d *Distributor) AttachListener(sig *fx.WakeSignal) *Listener {
	d.mu.Lock()
	defer d.mu.Unlock()
	for n, l := range d.listeners {
		if l == nil {
			l = &Listener{d: d, index: n, wake: sig}
			d.listeners[n] = l
			return l
		}
	}
	panic(fmt.Errorf("state listeners: %w (%d)", fx.ErrCapacityExceeded, MaxListeners))
}

// ListenerCount returns the number of registered listeners.
func (d *Distributor) ListenerCount() (count int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, l := range d.listeners {
		if l != nil {
			count++
		}
	}
	return
}

// Close deregisters the listener. It must not be called while holding
// a transaction on the same distributor.
func (l *Listener) Close() error {
	l.d.mu.Lock()
	defer l.d.mu.Unlock()
	if l.d.listeners[l.index] == l {
		l.d.listeners[l.index] = nil
	}
	return nil
}
