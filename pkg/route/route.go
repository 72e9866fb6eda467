// Package route plans routes over the chart and publishes them to
// listeners as events.
package route

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/robotalks/plotter.go/pkg/mapdata"
)

// ErrNoPath indicates the pathfinder found no water path.
var ErrNoPath = errors.New("no path")

// Route is a planned path. Points are waypoints, the first is From and
// the last is To.
type Route struct {
	ID     uuid.UUID
	From   mapdata.Point
	To     mapdata.Point
	Points []mapdata.Point
}

// String implements fmt.Stringer.
func (r *Route) String() string {
	return fmt.Sprintf("route %s %s->%s via %d points", r.ID, r.From, r.To, len(r.Points))
}

// EventType is the kind of a route event.
type EventType int

// Event types.
const (
	EventReady EventType = iota
	EventCleared
)

// String implements fmt.Stringer.
func (t EventType) String() string {
	switch t {
	case EventReady:
		return "ready"
	case EventCleared:
		return "cleared"
	}
	return "unknown"
}

// Event is pushed to route listeners. Route is nil for EventCleared.
type Event struct {
	Type  EventType
	Route *Route
}

// Iterator yields every grid position along a route one unit step at a
// time. It is forward-only and can't be restarted.
type Iterator struct {
	points []mapdata.Point
	pos    mapdata.Point
	next   int
	begun  bool
}

// NewIterator creates an Iterator over r.
func NewIterator(r *Route) *Iterator {
	it := &Iterator{}
	if r != nil {
		it.points = r.Points
	}
	return it
}

// Next returns the next position or false at the end.
func (it *Iterator) Next() (mapdata.Point, bool) {
	if !it.begun {
		if len(it.points) == 0 {
			return mapdata.Point{}, false
		}
		it.begun = true
		it.pos, it.next = it.points[0], 1
		return it.pos, true
	}
	for it.next < len(it.points) {
		target := it.points[it.next]
		if it.pos == target {
			it.next++
			continue
		}
		it.pos = it.pos.Add(mapdata.PointPairToDirection(it.pos, target))
		return it.pos, true
	}
	return mapdata.Point{}, false
}
