package route

import (
	"math/rand"
	"sync"

	"github.com/golang/glog"
	"github.com/google/uuid"

	fx "github.com/robotalks/plotter.go/pkg/framework"
	"github.com/robotalks/plotter.go/pkg/mapdata"
	"github.com/robotalks/plotter.go/pkg/port"
)

// randomPointTries bounds the search for a water point.
const randomPointTries = 1000

// Service plans routes on its own thread and publishes them.
type Service struct {
	fx.Thread

	chart  *mapdata.Map
	finder Pathfinder
	events port.Producer[Event]

	lock    sync.Mutex
	rand    *rand.Rand
	pending *request
	current *Route
}

type request struct {
	clear    bool
	from, to mapdata.Point
}

// NewService creates a Service. A nil finder means LinePathfinder.
func NewService(chart *mapdata.Map, finder Pathfinder, seed int64) *Service {
	if finder == nil {
		finder = &LinePathfinder{Chart: chart}
	}
	s := &Service{
		chart:  chart,
		finder: finder,
		rand:   rand.New(rand.NewSource(seed)),
	}
	s.Priority = fx.PriorityNormal
	s.Init("route", s)
	s.events.Init(s.WakeSignal())
	return s
}

// AttachListener subscribes to route events.
func (s *Service) AttachListener() *port.Port[Event] {
	return s.events.AttachListener()
}

// RequestRoute asks for a route. Only the latest request is planned.
func (s *Service) RequestRoute(from, to mapdata.Point) {
	s.lock.Lock()
	s.pending = &request{from: from, to: to}
	s.lock.Unlock()
	s.Awake()
}

// ClearRoute drops the current route.
func (s *Service) ClearRoute() {
	s.lock.Lock()
	s.pending = &request{clear: true}
	s.lock.Unlock()
	s.Awake()
}

// Current returns the last route made ready, or nil.
func (s *Service) Current() *Route {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.current
}

// RandomWaterPoint picks a random navigable point on the chart. If none
// is found it returns the chart center.
func (s *Service) RandomWaterPoint() mapdata.Point {
	s.lock.Lock()
	defer s.lock.Unlock()
	w, h := s.chart.Width(), s.chart.Height()
	if w > 0 && h > 0 {
		for i := 0; i < randomPointTries; i++ {
			p := mapdata.Point{X: s.rand.Int31n(w), Y: s.rand.Int31n(h)}
			if s.chart.IsWater(p) {
				return p
			}
		}
	}
	return mapdata.Point{X: w / 2, Y: h / 2}
}

// CreateRouteIterator walks r.
func (s *Service) CreateRouteIterator(r *Route) *Iterator {
	return NewIterator(r)
}

// OnActivation implements Activator.
func (s *Service) OnActivation() fx.Wakeup {
	s.events.Retire()

	s.lock.Lock()
	req := s.pending
	s.pending = nil
	s.lock.Unlock()
	if req == nil {
		return fx.NoWakeup
	}

	if req.clear {
		s.setCurrent(nil)
		s.events.Push(Event{Type: EventCleared})
		return fx.NoWakeup
	}

	points, err := s.finder.FindPath(req.from, req.to)
	if err != nil {
		glog.Warningf("route %s->%s: %v", req.from, req.to, err)
		return fx.NoWakeup
	}
	r := &Route{ID: uuid.New(), From: req.from, To: req.to, Points: points}
	s.setCurrent(r)
	glog.V(2).Infof("%s ready", r)
	s.events.Push(Event{Type: EventReady, Route: r})
	return fx.NoWakeup
}

func (s *Service) setCurrent(r *Route) {
	s.lock.Lock()
	s.current = r
	s.lock.Unlock()
}
