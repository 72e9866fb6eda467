// Package sh provides an interactive console to inspect and change the
// plotter state while it runs.
package sh

import (
	"encoding/json"
	"flag"
	"fmt"
	"strconv"
	"time"

	"github.com/abiosoft/ishell"
	"github.com/golang/glog"

	"github.com/robotalks/plotter.go/pkg/appstate"
	fx "github.com/robotalks/plotter.go/pkg/framework"
	"github.com/robotalks/plotter.go/pkg/gps"
	"github.com/robotalks/plotter.go/pkg/mapdata"
	"github.com/robotalks/plotter.go/pkg/port"
	"github.com/robotalks/plotter.go/pkg/route"
	"github.com/robotalks/plotter.go/pkg/telemetry"
)

// FixWaitTimeout bounds how long the fix command waits for a fix.
const FixWaitTimeout = 2 * time.Second

// Plotter is what the console operates on.
type Plotter struct {
	Chart  *mapdata.Map
	State  *appstate.Distributor
	Routes *route.Service
	Fixes  interface {
		TryAttachListener() (*port.Port[gps.Fix], bool)
	}
}

// Shell provides an ishell backed console.
type Shell struct {
	Interactive bool
	OutputJSON  bool

	Shell   *ishell.Shell
	Plotter *Plotter
}

const (
	shellKey = "$shell"
	prompt   = "plotter > "
)

var (
	evalOnly   bool
	outputJSON bool

	commands = []*ishell.Cmd{
		&StateCmd,
		&DemoCmd,
		&SpeedoCmd,
		&HomeCmd,
		&RouteCmd,
		&ClearCmd,
		&VisitCmd,
		&FixCmd,
		&PortsCmd,
	}
)

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive console.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print output in JSON.")
}

// Enabled tells whether the console should run.
func Enabled(args []string) bool {
	return !evalOnly || len(args) > 0
}

// New creates a console.
func New(p *Plotter) *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		OutputJSON:  outputJSON,
		Shell:       ishell.New(),
		Plotter:     p,
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(prompt)
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// Run evaluates args, or runs the interactive console when there are
// none. It returns when the console exits.
func (s *Shell) Run(args ...string) error {
	if len(args) > 0 {
		return s.Shell.Process(args...)
	}
	if s.Interactive {
		s.Shell.Run()
	}
	return nil
}

// Update applies fn in a state transaction and prints the result.
func (s *Shell) Update(c *ishell.Context, fn func(*appstate.State)) {
	if s.Plotter.State.Update(fn) {
		glog.V(2).Info("console: state changed")
	}
	s.PrintState(c)
}

// PrintState prints the current state snapshot.
func (s *Shell) PrintState(c *ishell.Context) {
	snap := s.Plotter.State.CheckoutReadonly()
	if s.OutputJSON {
		s.printJSON(c, telemetry.NewStateReport(snap))
		return
	}
	c.Println(snap.String())
}

func (s *Shell) printJSON(c *ishell.Context, v interface{}) {
	out, err := json.Marshal(v)
	if err != nil {
		c.Err(err)
		return
	}
	c.Println(string(out))
}

// WaitFix waits for the next fix from the GPS reader.
func (s *Shell) WaitFix(timeout time.Duration) (gps.Fix, error) {
	if s.Plotter.Fixes == nil {
		return gps.Fix{}, fmt.Errorf("no GPS reader")
	}
	fixes, ok := s.Plotter.Fixes.TryAttachListener()
	if !ok {
		return gps.Fix{}, fmt.Errorf("GPS reader busy")
	}
	defer fixes.Close()
	wake := fx.NewWakeSignal()
	fixes.AwakeOn(wake)
	deadline := time.Now().Add(timeout)
	for {
		if fix, ok := fixes.Poll(); ok {
			return fix, nil
		}
		left := time.Until(deadline)
		if left <= 0 {
			return gps.Fix{}, gps.ErrNoFix
		}
		wake.TryAcquireFor(left)
	}
}

// ParseSwitch parses on/off. With no argument the current value flips.
func ParseSwitch(args []string, current bool) (bool, error) {
	if len(args) == 0 {
		return !current, nil
	}
	switch args[0] {
	case "on", "true", "1":
		return true, nil
	case "off", "false", "0":
		return false, nil
	}
	return current, fmt.Errorf("expect on or off, got %q", args[0])
}

// ParsePoint parses "X Y" chart pixel coordinates.
func ParsePoint(args []string) (mapdata.Point, error) {
	if len(args) < 2 {
		return mapdata.Point{}, fmt.Errorf("expect X Y")
	}
	x, err := strconv.ParseInt(args[0], 10, 32)
	if err != nil {
		return mapdata.Point{}, fmt.Errorf("bad X %q", args[0])
	}
	y, err := strconv.ParseInt(args[1], 10, 32)
	if err != nil {
		return mapdata.Point{}, fmt.Errorf("bad Y %q", args[1])
	}
	return mapdata.Point{X: int32(x), Y: int32(y)}, nil
}
