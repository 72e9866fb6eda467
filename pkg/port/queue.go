package port

import "sync/atomic"

// QueueCapacity is the number of unread items a Port keeps.
const QueueCapacity = 8

// latestQueue is a lock-free single-producer/single-consumer ring.
// When full the producer overwrites the oldest slot. Every item carries
// its sequence number so the consumer never sees an item twice, even
// when the slot it reads was overwritten by a newer push.
type latestQueue[T any] struct {
	slots [QueueCapacity]atomic.Pointer[queueItem[T]]
	tail  atomic.Uint64 // written by producer only
	head  atomic.Uint64 // written by consumer only
}

type queueItem[T any] struct {
	seq uint64
	v   T
}

func (q *latestQueue[T]) push(v T) {
	t := q.tail.Load()
	q.slots[t%QueueCapacity].Store(&queueItem[T]{seq: t, v: v})
	q.tail.Store(t + 1)
}

// drainLatest consumes everything queued and returns the newest item
// along with the number of older items skipped.
func (q *latestQueue[T]) drainLatest() (v T, skipped uint64, ok bool) {
	t, h := q.tail.Load(), q.head.Load()
	if t <= h {
		return
	}
	item := q.slots[(t-1)%QueueCapacity].Load()
	v, ok = item.v, true
	skipped = item.seq - h
	q.head.Store(item.seq + 1)
	return
}

// len returns the number of unread items, capped at the capacity.
func (q *latestQueue[T]) len() int {
	t, h := q.tail.Load(), q.head.Load()
	if t <= h {
		return 0
	}
	if n := t - h; n < QueueCapacity {
		return int(n)
	}
	return QueueCapacity
}
