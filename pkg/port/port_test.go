package port

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	fx "github.com/robotalks/plotter.go/pkg/framework"
)

func TestFanOutScenario(t *testing.T) {
	producerWake := fx.NewWakeSignal()
	p := NewProducer[string](producerWake)
	c1 := p.AttachListener()
	c2 := p.AttachListener()
	require.Equal(t, 2, p.Count())

	p.Push("A")
	p.Push("B")
	v, ok := c1.Poll()
	require.True(t, ok)
	require.Equal(t, "B", v)

	require.NoError(t, c2.Close())
	require.True(t, producerWake.TryAcquire())
	require.Equal(t, 2, p.Count())

	// next producer iteration
	require.Equal(t, 1, p.Retire())
	require.Equal(t, 1, p.Count())
	p.Push("C")

	v, ok = c1.Poll()
	require.True(t, ok)
	require.Equal(t, "C", v)
	_, ok = c2.Poll()
	require.True(t, ok, "closed port keeps what was queued before closing")
}

func TestPollReturnsNewest(t *testing.T) {
	p := NewProducer[int](nil)
	c := p.AttachListener()

	_, ok := c.Poll()
	require.False(t, ok)

	for i := 1; i <= 3*QueueCapacity; i++ {
		p.Push(i)
	}
	require.Equal(t, QueueCapacity, c.Pending())
	v, ok := c.Poll()
	require.True(t, ok)
	require.Equal(t, 3*QueueCapacity, v)
	require.Equal(t, uint64(3*QueueCapacity-1), c.Dropped())
	require.Equal(t, 0, c.Pending())

	_, ok = c.Poll()
	require.False(t, ok)
}

func TestAwakeOn(t *testing.T) {
	p := NewProducer[int](nil)
	c := p.AttachListener()
	p.Push(1)

	sig := fx.NewWakeSignal()
	c.AwakeOn(sig)
	require.False(t, sig.IsSignaled())
	p.Push(2)
	require.True(t, sig.TryAcquire())
}

func TestCapacity(t *testing.T) {
	p := NewProducer[int](nil)
	ports := make([]*Port[int], 0, MaxListeners)
	for i := 0; i < MaxListeners; i++ {
		ports = append(ports, p.AttachListener())
	}
	require.Panics(t, func() { p.AttachListener() })

	ports[1].Close()
	_, ok := p.TryAttachListener()
	require.False(t, ok, "stale slot is not free until retired")

	p.Retire()
	port, ok := p.TryAttachListener()
	require.True(t, ok)
	require.Equal(t, 1, port.Index())
}

func TestCloseIdempotent(t *testing.T) {
	p := NewProducer[int](fx.NewWakeSignal())
	c := p.AttachListener()
	require.NoError(t, c.Close())
	require.NoError(t, c.Close())
	require.Equal(t, 1, p.Retire())
	require.Equal(t, 0, p.Retire())
	p.Push(1)
	require.Equal(t, 0, c.Pending())
}

func TestInterleavedAttachDetachPush(t *testing.T) {
	p := NewProducer[int](fx.NewWakeSignal())
	var wg sync.WaitGroup
	const pushes = 2000

	done := make(chan struct{})
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 1; i <= pushes; i++ {
			p.Retire()
			p.Push(i)
		}
		close(done)
	}()

	for n := 0; n < 3; n++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-done:
					return
				default:
				}
				c, ok := p.TryAttachListener()
				if !ok {
					continue
				}
				last := 0
				for i := 0; i < 10; i++ {
					if v, ok := c.Poll(); ok {
						if v <= last {
							t.Errorf("stale item %d after %d", v, last)
						}
						last = v
					}
				}
				c.Close()
			}
		}()
	}
	wg.Wait()
}
