package route

import (
	"github.com/robotalks/plotter.go/pkg/mapdata"
)

// Chart is what a pathfinder needs to know about the map.
type Chart interface {
	IsWater(mapdata.Point) bool
}

// Pathfinder finds a water path between two points and returns its
// waypoints, starting with from and ending with to.
type Pathfinder interface {
	FindPath(from, to mapdata.Point) ([]mapdata.Point, error)
}

// PathfinderFunc is the func form of Pathfinder.
type PathfinderFunc func(from, to mapdata.Point) ([]mapdata.Point, error)

// FindPath implements Pathfinder.
func (f PathfinderFunc) FindPath(from, to mapdata.Point) ([]mapdata.Point, error) {
	return f(from, to)
}

// LinePathfinder tries the direct line first, then the two one-corner
// detours. It is a stand-in for a real search.
type LinePathfinder struct {
	Chart Chart
}

// FindPath implements Pathfinder.
func (f *LinePathfinder) FindPath(from, to mapdata.Point) ([]mapdata.Point, error) {
	if !f.Chart.IsWater(from) || !f.Chart.IsWater(to) {
		return nil, ErrNoPath
	}
	if f.clear(from, to) {
		return []mapdata.Point{from, to}, nil
	}
	for _, corner := range []mapdata.Point{{X: from.X, Y: to.Y}, {X: to.X, Y: from.Y}} {
		if f.clear(from, corner) && f.clear(corner, to) {
			return []mapdata.Point{from, corner, to}, nil
		}
	}
	return nil, ErrNoPath
}

// clear walks the unit steps from a to b.
func (f *LinePathfinder) clear(a, b mapdata.Point) bool {
	for p := a; p != b; {
		p = p.Add(mapdata.PointPairToDirection(p, b))
		if !f.Chart.IsWater(p) {
			return false
		}
	}
	return true
}
