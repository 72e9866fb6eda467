// Package port implements producer/consumer fan-out with bounded
// per-consumer queues and deferred, producer-owned teardown.
//
// A Producer owns a fixed table of MaxListeners ports. Consumers get a
// Port from AttachListener and read it with Poll, which only returns the
// newest item: staleness matters more than completeness here. Closing a
// Port from any goroutine only flags its slot stale and wakes the
// producer; the producer retires the slot on its own goroutine with
// Retire, so the table is never mutated under the producer's feet.
package port

import (
	"fmt"
	"sync"
	"sync/atomic"

	fx "github.com/robotalks/plotter.go/pkg/framework"
)

// MaxListeners is the capacity of a Producer's listener table.
const MaxListeners = 4

// Producer fans out items of type T to attached ports.
type Producer[T any] struct {
	wake *fx.WakeSignal

	slots [MaxListeners]atomic.Pointer[Port[T]]
	stale [MaxListeners]atomic.Bool

	attachLock sync.Mutex
}

// Port is a consumer's mailbox attached to a Producer.
type Port[T any] struct {
	index int
	back  backRef

	queue   latestQueue[T]
	wake    atomic.Pointer[fx.WakeSignal]
	dropped atomic.Uint64
	closed  atomic.Bool
}

// backRef lets a port flag its slot and nudge the producer without
// holding the producer itself.
type backRef struct {
	stale *atomic.Bool
	wake  *fx.WakeSignal
}

// NewProducer creates a Producer. wake is released when a port is
// closed so the producer runs Retire soon.
func NewProducer[T any](wake *fx.WakeSignal) *Producer[T] {
	p := &Producer[T]{}
	p.Init(wake)
	return p
}

// Init initializes an embedded Producer.
func (p *Producer[T]) Init(wake *fx.WakeSignal) {
	p.wake = wake
}

// AttachListener registers a new port. It panics if the table is full.
func (p *Producer[T]) AttachListener() *Port[T] {
	port, ok := p.TryAttachListener()
	if !ok {
		panic(fmt.Errorf("listener table: %w (%d)", fx.ErrCapacityExceeded, MaxListeners))
	}
	return port
}

// TryAttachListener registers a new port if a slot is free.
// Slots closed but not yet retired are not free.
func (p *Producer[T]) TryAttachListener() (*Port[T], bool) {
	p.attachLock.Lock()
	defer p.attachLock.Unlock()
	for n := range p.slots {
		if p.slots[n].Load() != nil {
			continue
		}
		port := &Port[T]{
			index: n,
			back:  backRef{stale: &p.stale[n], wake: p.wake},
		}
		if p.slots[n].CompareAndSwap(nil, port) {
			return port, true
		}
	}
	return nil, false
}

// Retire removes closed ports. It must be called by the producer's own
// goroutine, typically at the top of each activation before Push.
func (p *Producer[T]) Retire() (retired int) {
	for n := range p.slots {
		if p.stale[n].CompareAndSwap(true, false) {
			p.slots[n].Store(nil)
			retired++
		}
	}
	return
}

// Push delivers v to every live port. It never blocks: a port whose
// queue is full loses its oldest unread item.
func (p *Producer[T]) Push(v T) {
	for n := range p.slots {
		if p.stale[n].Load() {
			continue
		}
		if port := p.slots[n].Load(); port != nil {
			port.push(v)
		}
	}
}

// Count returns the number of slots in use, including closed ports not
// yet retired.
func (p *Producer[T]) Count() (count int) {
	for n := range p.slots {
		if p.slots[n].Load() != nil {
			count++
		}
	}
	return
}

func (p *Port[T]) push(v T) {
	p.queue.push(v)
	if w := p.wake.Load(); w != nil {
		w.Release()
	}
}

// Index is the port's slot in the producer's table.
func (p *Port[T]) Index() int {
	return p.index
}

// AwakeOn makes every push release sig. Without it the consumer is
// responsible for its own polling cadence.
func (p *Port[T]) AwakeOn(sig *fx.WakeSignal) {
	p.wake.Store(sig)
}

// Poll drains the queue and returns only the newest item.
func (p *Port[T]) Poll() (T, bool) {
	v, skipped, ok := p.queue.drainLatest()
	if skipped > 0 {
		p.dropped.Add(skipped)
	}
	return v, ok
}

// Pending returns the number of unread items, capped at QueueCapacity.
func (p *Port[T]) Pending() int {
	return p.queue.len()
}

// Dropped returns how many items were discarded without being returned
// by Poll.
func (p *Port[T]) Dropped() uint64 {
	return p.dropped.Load()
}

// Close detaches the port. The producer retires the slot later.
func (p *Port[T]) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	p.back.stale.Store(true)
	if p.back.wake != nil {
		p.back.wake.Release()
	}
	return nil
}
