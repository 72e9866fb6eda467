package gps

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/plotter.go/pkg/appstate"
	fx "github.com/robotalks/plotter.go/pkg/framework"
	"github.com/robotalks/plotter.go/pkg/mapdata"
	"github.com/robotalks/plotter.go/pkg/port"
	"github.com/robotalks/plotter.go/pkg/route"
)

// Simulator pacing.
const (
	DemoBaseTick  = 82 * time.Millisecond
	DemoBaseSpeed = 20
	// MaxHeadingStep is the maximum heading change per demo step.
	MaxHeadingStep = 3
	// RouteRequestTimeout is how long to wait for a requested route
	// before asking for another one.
	RouteRequestTimeout = 5 * time.Second
)

// RouteService is what the simulator needs from the route service.
type RouteService interface {
	AttachListener() *port.Port[route.Event]
	RequestRoute(from, to mapdata.Point)
	RandomWaterPoint() mapdata.Point
	CreateRouteIterator(*route.Route) *route.Iterator
}

// SimState is the simulator mode.
type SimState int

// Simulator states.
const (
	SimForwarding SimState = iota
	SimRequestRoute
	SimDemo

	simStateCount
)

// String implements fmt.Stringer.
func (s SimState) String() string {
	switch s {
	case SimForwarding:
		return "forwarding"
	case SimRequestRoute:
		return "request-route"
	case SimDemo:
		return "demo"
	}
	return "unknown"
}

// maxTransitions bounds the state changes in one activation. Every
// chain settles after visiting each state at most once.
const maxTransitions = int(simStateCount)

// Simulator follows routes from the route service and produces fixes
// while demo mode is on.
type Simulator struct {
	fx.Thread

	chart   *mapdata.Metadata
	state   *appstate.Distributor
	routes  RouteService
	events  *port.Port[route.Event]
	hasData *fx.WakeSignal
	rand    *rand.Rand

	mode     SimState
	iterator *route.Iterator
	next     *mapdata.Point
	dir      mapdata.Vector
	awaiting *fx.Timer

	lock     sync.Mutex
	position mapdata.Point
	angle    int
	speed    int
}

// NewSimulator creates a Simulator.
func NewSimulator(chart *mapdata.Metadata, state *appstate.Distributor, routes RouteService, seed int64) *Simulator {
	s := &Simulator{
		chart:   chart,
		state:   state,
		routes:  routes,
		hasData: fx.NewWakeSignal(),
		rand:    rand.New(rand.NewSource(seed)),
	}
	s.Init("gps-simulator", s)
	s.events = routes.AttachListener()
	s.events.AwakeOn(s.WakeSignal())
	s.CloseOnExit(s.events, state.AttachListener(s.WakeSignal()))
	return s
}

// Mode returns the current state machine mode. Only meaningful on the
// simulator's own goroutine or after it stopped.
func (s *Simulator) Mode() SimState {
	return s.mode
}

// OnActivation implements Activator.
func (s *Simulator) OnActivation() fx.Wakeup {
	if ev, ok := s.events.Poll(); ok {
		s.onRouteEvent(ev)
	}

	for transitions := 0; ; transitions++ {
		if transitions > maxTransitions {
			panic(fmt.Sprintf("gps simulator: no fixed point after %d transitions, in %s", transitions, s.mode))
		}
		next, wakeup, settled := s.step()
		if next != s.mode {
			glog.V(2).Infof("gps simulator: %s -> %s", s.mode, next)
			s.mode = next
		}
		if settled {
			return wakeup
		}
	}
}

// step runs one state and reports whether the machine settled.
func (s *Simulator) step() (SimState, fx.Wakeup, bool) {
	demo := s.state.CheckoutReadonly().DemoMode
	switch s.mode {
	case SimForwarding:
		if demo {
			return SimRequestRoute, fx.NoWakeup, false
		}
		return SimForwarding, fx.NoWakeup, true
	case SimRequestRoute:
		if s.iterator == nil && s.awaiting == nil {
			from, to := s.routes.RandomWaterPoint(), s.routes.RandomWaterPoint()
			glog.Infof("gps simulator: request route %s -> %s", from, to)
			s.routes.RequestRoute(from, to)
			s.awaiting = s.StartTimer(RouteRequestTimeout, func() fx.Wakeup {
				s.awaiting = nil
				return fx.NoWakeup
			})
		}
		return SimDemo, fx.NoWakeup, false
	case SimDemo:
		if !demo {
			return SimForwarding, fx.NoWakeup, false
		}
		if s.iterator == nil && s.awaiting == nil {
			return SimRequestRoute, fx.NoWakeup, false
		}
		s.runDemo()
		s.lock.Lock()
		speed := s.speed
		s.lock.Unlock()
		return SimDemo, fx.After(DemoBaseTick + time.Duration(speed)*time.Millisecond), true
	}
	panic(fmt.Sprintf("gps simulator: bad state %d", s.mode))
}

func (s *Simulator) onRouteEvent(ev route.Event) {
	s.iterator, s.next = nil, nil
	if s.awaiting != nil {
		s.awaiting.Cancel()
		s.awaiting = nil
	}
	if ev.Type != route.EventReady {
		return
	}
	it := s.routes.CreateRouteIterator(ev.Route)
	pos, ok := it.Next()
	if !ok {
		return
	}
	s.lock.Lock()
	defer s.lock.Unlock()
	s.position = pos
	next, ok := it.Next()
	if !ok {
		// a single point route is already arrived
		s.dir = mapdata.Standstill
		return
	}
	s.iterator, s.next = it, &next
	s.dir = mapdata.PointPairToDirection(pos, next)
	s.angle = s.dir.Angle()
	s.speed = DemoBaseSpeed
}

func (s *Simulator) runDemo() {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.angle = easeHeading(s.angle, s.dir.Angle())
	if s.iterator != nil && (s.next == nil || s.position == *s.next) {
		next, ok := mapdata.Point{}, false
		if s.next != nil {
			next, ok = s.iterator.Next()
		}
		if ok {
			s.next = &next
			s.dir = mapdata.PointPairToDirection(s.position, next)
			s.speed = DemoBaseSpeed + s.rand.Intn(10)
		} else {
			// arrived, the next activation asks for a new route
			s.iterator, s.next, s.dir = nil, nil, mapdata.Standstill
		}
	}
	s.position = s.position.Add(s.dir)
	s.hasData.Release()
}

// easeHeading turns from towards target by at most MaxHeadingStep
// degrees along the shorter side.
func easeHeading(from, target int) int {
	diff := target - from
	if diff > 180 {
		diff -= 360
	} else if diff < -180 {
		diff += 360
	}
	step := diff
	if step > MaxHeadingStep {
		step = MaxHeadingStep
	} else if step < -MaxHeadingStep {
		step = -MaxHeadingStep
	}
	return ((from+step)%360 + 360) % 360
}

// WaitForFix implements Source. It blocks until the next demo step.
func (s *Simulator) WaitForFix(ctx context.Context, wake *fx.WakeSignal) (Fix, error) {
	if err := s.hasData.AcquireContext(ctx); err != nil {
		return Fix{}, err
	}
	s.lock.Lock()
	fix := Fix{
		Position: s.chart.PointToPosition(s.position),
		Point:    s.position,
		Heading:  s.angle,
		Speed:    s.speed,
		Time:     time.Now(),
	}
	s.lock.Unlock()
	if wake != nil {
		wake.Release()
	}
	return fix, nil
}
