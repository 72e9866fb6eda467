// Package gps ingests position fixes from a device or the demo
// simulator and fans them out to listeners.
package gps

import (
	"context"
	"errors"
	"fmt"
	"time"

	fx "github.com/robotalks/plotter.go/pkg/framework"
	"github.com/robotalks/plotter.go/pkg/mapdata"
)

// ErrNoFix indicates the receiver has no valid position.
var ErrNoFix = errors.New("no fix")

// Fix is one GPS reading. Point is the chart position, filled in by
// the Reader.
type Fix struct {
	Position mapdata.Position
	Point    mapdata.Point
	// Heading in degrees, 0 is north.
	Heading int
	// Speed in knots.
	Speed int
	Time  time.Time
}

// String implements fmt.Stringer.
func (f Fix) String() string {
	return fmt.Sprintf("%s hdg %d° %dkn", f.Position, f.Heading, f.Speed)
}

// Source yields fixes. WaitForFix blocks until the next fix or ctx is
// done. A source may release wake to get its caller activated again
// right away.
type Source interface {
	WaitForFix(ctx context.Context, wake *fx.WakeSignal) (Fix, error)
}

// SourceFunc is the func form of Source.
type SourceFunc func(ctx context.Context, wake *fx.WakeSignal) (Fix, error)

// WaitForFix implements Source.
func (f SourceFunc) WaitForFix(ctx context.Context, wake *fx.WakeSignal) (Fix, error) {
	return f(ctx, wake)
}
