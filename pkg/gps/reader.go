package gps

import (
	"time"

	"github.com/golang/glog"

	fx "github.com/robotalks/plotter.go/pkg/framework"
	"github.com/robotalks/plotter.go/pkg/mapdata"
	"github.com/robotalks/plotter.go/pkg/port"
)

// ErrorBackoff delays the next read after a source error.
const ErrorBackoff = time.Second

// Reader waits on a Source and fans every fix out to its listeners.
type Reader struct {
	fx.Thread

	source Source
	chart  *mapdata.Metadata
	fixes  port.Producer[Fix]
}

// NewReader creates a Reader. chart converts positions to chart points.
func NewReader(chart *mapdata.Metadata, source Source) *Reader {
	r := &Reader{source: source, chart: chart}
	r.Init("gps-reader", r)
	r.fixes.Init(r.WakeSignal())
	return r
}

// AttachListener subscribes to fixes. It panics when the listener table
// is full.
func (r *Reader) AttachListener() *port.Port[Fix] {
	return r.fixes.AttachListener()
}

// TryAttachListener subscribes to fixes if a listener slot is free.
func (r *Reader) TryAttachListener() (*port.Port[Fix], bool) {
	return r.fixes.TryAttachListener()
}

// OnActivation implements Activator.
func (r *Reader) OnActivation() fx.Wakeup {
	r.fixes.Retire()
	fix, err := r.source.WaitForFix(r.Context(), r.WakeSignal())
	if err != nil {
		if r.Context().Err() != nil {
			return fx.NoWakeup
		}
		glog.Warningf("gps: %v", err)
		return fx.After(ErrorBackoff)
	}
	if r.chart != nil {
		fix.Point = r.chart.PositionToPoint(fix.Position)
	}
	// listeners may have left while we were blocked
	r.fixes.Retire()
	r.fixes.Push(fix)
	return fx.NoWakeup
}
