// Package ui renders the plotter status on a text display.
package ui

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/plotter.go/pkg/appstate"
	fx "github.com/robotalks/plotter.go/pkg/framework"
	"github.com/robotalks/plotter.go/pkg/gps"
	"github.com/robotalks/plotter.go/pkg/mapdata"
	"github.com/robotalks/plotter.go/pkg/port"
	"github.com/robotalks/plotter.go/pkg/route"
	"github.com/robotalks/plotter.go/pkg/tile"
)

// FixTimeout marks the fix stale when no new fix arrives in time.
const FixTimeout = 3 * time.Second

// TileRequester is the part of the tile producer the UI drives.
type TileRequester interface {
	RequestArea(center mapdata.Point)
}

// Sources are the ports the UI reads.
type Sources struct {
	Fixes  *port.Port[gps.Fix]
	Routes *port.Port[route.Event]
	Areas  *port.Port[tile.Area]
	Tiles  TileRequester
}

// UI redraws a status line whenever anything it shows changes.
type UI struct {
	fx.Thread

	out   io.Writer
	state *appstate.Distributor
	src   Sources

	view     View
	watchdog *fx.Timer
	stale    bool
	last     string
}

// View is everything shown on the display.
type View struct {
	State appstate.State
	Fix   *gps.Fix
	Stale bool
	Route *route.Route
	Tiles int
}

// New creates the UI. It runs at PriorityHigh.
func New(out io.Writer, state *appstate.Distributor, src Sources) *UI {
	u := &UI{out: out, state: state, src: src}
	u.Priority = fx.PriorityHigh
	u.Init("ui", u)
	u.CloseOnExit(state.AttachListener(u.WakeSignal()))
	if src.Fixes != nil {
		src.Fixes.AwakeOn(u.WakeSignal())
		u.CloseOnExit(src.Fixes)
	}
	if src.Routes != nil {
		src.Routes.AwakeOn(u.WakeSignal())
		u.CloseOnExit(src.Routes)
	}
	if src.Areas != nil {
		src.Areas.AwakeOn(u.WakeSignal())
		u.CloseOnExit(src.Areas)
	}
	return u
}

// OnActivation implements Activator.
func (u *UI) OnActivation() fx.Wakeup {
	if u.src.Fixes != nil {
		if fix, ok := u.src.Fixes.Poll(); ok {
			u.view.Fix = &fix
			u.stale = false
			u.resetWatchdog()
			if u.src.Tiles != nil {
				u.src.Tiles.RequestArea(fix.Point)
			}
		}
	}
	if u.src.Routes != nil {
		if ev, ok := u.src.Routes.Poll(); ok {
			u.view.Route = ev.Route
		}
	}
	if u.src.Areas != nil {
		if area, ok := u.src.Areas.Poll(); ok {
			u.view.Tiles = len(area.Tiles)
		}
	}
	u.view.State = *u.state.CheckoutReadonly()
	u.view.Stale = u.stale

	if line := u.view.Render(); line != u.last {
		u.last = line
		if _, err := fmt.Fprintln(u.out, line); err != nil {
			glog.Warningf("ui: %v", err)
		}
	}
	return fx.NoWakeup
}

func (u *UI) resetWatchdog() {
	if u.watchdog != nil {
		u.watchdog.Cancel()
	}
	u.watchdog = u.StartTimer(FixTimeout, func() fx.Wakeup {
		u.stale = true
		u.Awake()
		return fx.NoWakeup
	})
}

// Render formats the status line.
func (v View) Render() string {
	var b strings.Builder
	switch {
	case v.Fix == nil:
		b.WriteString("no fix")
	default:
		fmt.Fprintf(&b, "%s hdg %03d°", v.Fix.Position, v.Fix.Heading)
		if v.State.ShowSpeedometer {
			fmt.Fprintf(&b, " %2dkn", v.Fix.Speed)
		}
		if v.Stale {
			b.WriteString(" (stale)")
		}
	}
	if v.Route != nil {
		fmt.Fprintf(&b, " | to %s", v.Route.To)
	}
	var flags []string
	if v.State.DemoMode {
		flags = append(flags, "DEMO")
	}
	if v.State.GPSConnected {
		flags = append(flags, "GPS")
	}
	if v.State.BluetoothConnected {
		flags = append(flags, "BT")
	}
	if len(flags) > 0 {
		fmt.Fprintf(&b, " | %s", strings.Join(flags, " "))
	}
	if v.Tiles > 0 {
		fmt.Fprintf(&b, " | %d tiles", v.Tiles)
	}
	return b.String()
}
