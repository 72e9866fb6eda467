package mapdata

import "fmt"

// Index is a flattened pixel position (y*width + x).
type Index uint32

// Position is a geographic position in degrees.
type Position struct {
	Latitude  float64
	Longitude float64
}

// String implements fmt.Stringer.
func (p Position) String() string {
	return fmt.Sprintf("%.6f,%.6f", p.Latitude, p.Longitude)
}

// Point is a pixel position on the chart.
type Point struct {
	X, Y int32
}

// Add moves p by v.
func (p Point) Add(v Vector) Point {
	return Point{X: p.X + int32(v.DX), Y: p.Y + int32(v.DY)}
}

// Cell returns the pathfinder cell containing p.
func (p Point) Cell() Point {
	return Point{X: p.X / PathFinderTileSize, Y: p.Y / PathFinderTileSize}
}

// String implements fmt.Stringer.
func (p Point) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// Vector is a unit step on the grid. Y grows southwards.
type Vector struct {
	DX, DY int8
}

// Directions.
var (
	Standstill = Vector{0, 0}
	Up         = Vector{0, -1}
	Down       = Vector{0, 1}
	Left       = Vector{-1, 0}
	Right      = Vector{1, 0}
	UpLeft     = Vector{-1, -1}
	UpRight    = Vector{1, -1}
	DownLeft   = Vector{-1, 1}
	DownRight  = Vector{1, 1}
)

// IsDiagonal tells whether both components are non-zero.
func (v Vector) IsDiagonal() bool {
	return v.DX != 0 && v.DY != 0
}

// Perpendicular rotates v by 90 degrees.
func (v Vector) Perpendicular() Vector {
	return Vector{DX: -v.DY, DY: v.DX}
}

// Scale multiplies both components by n.
func (v Vector) Scale(n int) Vector {
	return Vector{DX: int8(int(v.DX) * n), DY: int8(int(v.DY) * n)}
}

// Angle is the compass heading of v in degrees, 0 is north and angles
// grow clockwise. Standstill is 0.
func (v Vector) Angle() int {
	switch v {
	case UpRight:
		return 45
	case Right:
		return 90
	case DownRight:
		return 135
	case Down:
		return 180
	case DownLeft:
		return 225
	case Left:
		return 270
	case UpLeft:
		return 315
	}
	return 0
}

// PointPairToDirection returns the unit step leading from towards to.
func PointPairToDirection(from, to Point) Vector {
	return Vector{DX: clampUnit(to.X - from.X), DY: clampUnit(to.Y - from.Y)}
}

func clampUnit(d int32) int8 {
	switch {
	case d > 0:
		return 1
	case d < 0:
		return -1
	}
	return 0
}
