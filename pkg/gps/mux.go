package gps

import (
	"context"
	"errors"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/plotter.go/pkg/appstate"
	fx "github.com/robotalks/plotter.go/pkg/framework"
)

// DefaultModeCheckInterval bounds how long the mux waits on one source
// before checking whether demo mode flipped.
const DefaultModeCheckInterval = 500 * time.Millisecond

// Mux forwards fixes from the device, or from the simulator while demo
// mode is on, and keeps GPSConnected up to date.
type Mux struct {
	ModeCheckInterval time.Duration

	state  *appstate.Distributor
	device Source
	demo   Source
}

// NewMux creates a Mux. device may be nil when no receiver is fitted.
func NewMux(state *appstate.Distributor, device, demo Source) *Mux {
	return &Mux{
		ModeCheckInterval: DefaultModeCheckInterval,
		state:             state,
		device:            device,
		demo:              demo,
	}
}

// WaitForFix implements Source.
func (m *Mux) WaitForFix(ctx context.Context, wake *fx.WakeSignal) (Fix, error) {
	for {
		demo := m.state.CheckoutReadonly().DemoMode
		src := m.device
		if demo {
			src = m.demo
		}
		fix, err := m.wait(ctx, src, wake)
		switch {
		case err == nil:
			if !demo {
				m.setConnected(true)
			}
			return fix, nil
		case ctx.Err() != nil:
			return fix, ctx.Err()
		case errors.Is(err, context.DeadlineExceeded):
			continue
		}
		if !demo {
			m.setConnected(false)
		}
		return fix, err
	}
}

func (m *Mux) wait(ctx context.Context, src Source, wake *fx.WakeSignal) (Fix, error) {
	cctx, cancel := context.WithTimeout(ctx, m.ModeCheckInterval)
	defer cancel()
	if src == nil {
		m.setConnected(false)
		<-cctx.Done()
		return Fix{}, cctx.Err()
	}
	return src.WaitForFix(cctx, wake)
}

func (m *Mux) setConnected(connected bool) {
	if m.state.CheckoutReadonly().GPSConnected == connected {
		return
	}
	if m.state.Update(func(s *appstate.State) { s.GPSConnected = connected }) {
		glog.Infof("gps: connected=%v", connected)
	}
}
