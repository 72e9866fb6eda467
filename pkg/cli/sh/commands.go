package sh

import (
	"fmt"
	"strconv"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/plotter.go/pkg/appstate"
	"github.com/robotalks/plotter.go/pkg/gps"
	"github.com/robotalks/plotter.go/pkg/mapdata"
	"github.com/robotalks/plotter.go/pkg/telemetry"
)

// currentPoint is the latest fix position, or a random water point
// when there is no fix.
func (s *Shell) currentPoint(c *ishell.Context) mapdata.Point {
	fix, err := s.WaitFix(FixWaitTimeout)
	if err != nil {
		p := s.Plotter.Routes.RandomWaterPoint()
		c.Printf("no fix (%v), starting from %s\n", err, p)
		return p
	}
	return fix.Point
}

func (s *Shell) pointArg(c *ishell.Context) (mapdata.Point, bool) {
	p, err := ParsePoint(c.Args)
	if err != nil {
		c.Err(err)
		return p, false
	}
	if !s.Plotter.Chart.Contains(p) {
		c.Err(fmt.Errorf("%s is off chart", p))
		return p, false
	}
	return p, true
}

var (
	// StateCmd prints the state.
	StateCmd = ishell.Cmd{
		Name:    "state",
		Aliases: []string{"s"},
		Help:    "print state",
		Func: func(c *ishell.Context) {
			ShellFrom(c).PrintState(c)
		},
	}

	// DemoCmd switches demo mode.
	DemoCmd = ishell.Cmd{
		Name: "demo",
		Help: "[on|off]",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			on, err := ParseSwitch(c.Args, s.Plotter.State.CheckoutReadonly().DemoMode)
			if err != nil {
				c.Err(err)
				return
			}
			s.Update(c, func(st *appstate.State) { st.DemoMode = on })
		},
	}

	// SpeedoCmd shows or hides the speedometer.
	SpeedoCmd = ishell.Cmd{
		Name: "speedo",
		Help: "[on|off]",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			on, err := ParseSwitch(c.Args, s.Plotter.State.CheckoutReadonly().ShowSpeedometer)
			if err != nil {
				c.Err(err)
				return
			}
			s.Update(c, func(st *appstate.State) { st.ShowSpeedometer = on })
		},
	}

	// HomeCmd sets the home position.
	HomeCmd = ishell.Cmd{
		Name: "home",
		Help: "[X Y], current position without arguments",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			var p mapdata.Point
			if len(c.Args) == 0 {
				fix, err := s.WaitFix(FixWaitTimeout)
				if err != nil {
					c.Err(err)
					return
				}
				p = fix.Point
			} else {
				var ok bool
				if p, ok = s.pointArg(c); !ok {
					return
				}
			}
			index := s.Plotter.Chart.PointToIndex(p)
			s.Update(c, func(st *appstate.State) { st.HomePosition = index })
		},
	}

	// RouteCmd requests a route from the current position.
	RouteCmd = ishell.Cmd{
		Name:    "route",
		Aliases: []string{"r"},
		Help:    "X Y",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			to, ok := s.pointArg(c)
			if !ok {
				return
			}
			from := s.currentPoint(c)
			s.Plotter.Routes.RequestRoute(from, to)
			c.Printf("route %s -> %s requested\n", from, to)
		},
	}

	// ClearCmd clears the route.
	ClearCmd = ishell.Cmd{
		Name: "clear",
		Help: "clear route",
		Func: func(c *ishell.Context) {
			ShellFrom(c).Plotter.Routes.ClearRoute()
			c.Println("OK")
		},
	}

	// VisitCmd routes to a stored position, or home.
	VisitCmd = ishell.Cmd{
		Name: "visit",
		Help: "[N], home without arguments",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			snap := s.Plotter.State.CheckoutReadonly()
			index := snap.HomePosition
			if len(c.Args) > 0 {
				n, err := strconv.Atoi(c.Args[0])
				if err != nil || n < 0 || n >= snap.StoredPositions.Len() {
					c.Err(fmt.Errorf("no stored position %q, %d stored", c.Args[0], snap.StoredPositions.Len()))
					return
				}
				index = snap.StoredPositions.At(n)
			}
			to := s.Plotter.Chart.IndexToPoint(index)
			from := s.currentPoint(c)
			s.Plotter.Routes.RequestRoute(from, to)
			c.Printf("route %s -> %s requested\n", from, to)
		},
	}

	// FixCmd prints the next fix.
	FixCmd = ishell.Cmd{
		Name:    "fix",
		Aliases: []string{"f"},
		Help:    "[nmea]",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			fix, err := s.WaitFix(FixWaitTimeout)
			if err != nil {
				c.Err(err)
				return
			}
			switch {
			case len(c.Args) > 0 && c.Args[0] == "nmea":
				c.Println(gps.FormatRMC(fix.Time, fix.Position, fix.Speed, fix.Heading))
			case s.OutputJSON:
				s.printJSON(c, telemetry.NewFixReport(fix))
			default:
				c.Println(fix.String())
			}
		},
	}

	// PortsCmd lists serial ports a GPS receiver could be on.
	PortsCmd = ishell.Cmd{
		Name: "ports",
		Help: "list serial ports",
		Func: func(c *ishell.Context) {
			ports, err := gps.ListSerialPorts()
			if err != nil {
				c.Err(err)
				return
			}
			if len(ports) == 0 {
				c.Println("No serial ports found")
				return
			}
			for _, p := range ports {
				c.Println(p)
			}
		},
	}
)
