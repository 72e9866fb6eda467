// Package storage persists the home position, the stored positions and
// display preferences across restarts.
package storage

import (
	"sync/atomic"
	"time"

	"github.com/golang/glog"
	"github.com/golang/protobuf/proto"

	"github.com/robotalks/plotter.go/pkg/appstate"
	fx "github.com/robotalks/plotter.go/pkg/framework"
	"github.com/robotalks/plotter.go/pkg/mapdata"
	"github.com/robotalks/plotter.go/pkg/port"
	"github.com/robotalks/plotter.go/pkg/route"
)

// StateKey is the NVM key of the state record.
const StateKey = "state"

// RetryDelay is the wait before retrying a failed NVM access.
const RetryDelay = time.Second

// Storage restores the state record at start and writes it back
// whenever the persisted fields change.
type Storage struct {
	fx.Thread

	nvm    NVM
	chart  *mapdata.Metadata
	state  *appstate.Distributor
	routes *port.Port[route.Event]

	restored atomic.Bool
	saved    *Record
}

// New creates a Storage. routes may be nil.
func New(nvm NVM, chart *mapdata.Metadata, state *appstate.Distributor, routes *port.Port[route.Event]) *Storage {
	s := &Storage{nvm: nvm, chart: chart, state: state, routes: routes}
	s.Init("storage", s)
	s.CloseOnExit(state.AttachListener(s.WakeSignal()))
	if routes != nil {
		routes.AwakeOn(s.WakeSignal())
		s.CloseOnExit(routes)
	}
	return s
}

// Restored tells whether the initial restore completed.
func (s *Storage) Restored() bool {
	return s.restored.Load()
}

// OnActivation implements Activator.
func (s *Storage) OnActivation() fx.Wakeup {
	if !s.restored.Load() {
		if err := s.restore(); err != nil {
			glog.Errorf("storage: restore: %v", err)
			return fx.After(RetryDelay)
		}
		s.restored.Store(true)
	}

	if s.routes != nil {
		if ev, ok := s.routes.Poll(); ok && ev.Type == route.EventReady && s.chart != nil {
			dest := s.chart.PointToIndex(ev.Route.To)
			s.state.Update(func(st *appstate.State) { st.StoredPositions.Push(dest) })
		}
	}

	rec := RecordOf(s.state.CheckoutReadonly())
	if s.saved != nil && proto.Equal(rec, s.saved) {
		return fx.NoWakeup
	}
	data, err := proto.Marshal(rec)
	if err == nil {
		err = s.nvm.Write(StateKey, data)
	}
	if err != nil {
		glog.Errorf("storage: save: %v", err)
		return fx.After(RetryDelay)
	}
	glog.V(2).Infof("storage: saved %s", rec)
	s.saved = rec
	return fx.NoWakeup
}

func (s *Storage) restore() error {
	data, err := s.nvm.Read(StateKey)
	if err == ErrNotFound {
		glog.Info("storage: no saved state")
		return nil
	}
	if err != nil {
		return err
	}
	var rec Record
	if err := proto.Unmarshal(data, &rec); err != nil {
		// a corrupt record is dropped, the next save replaces it
		glog.Warningf("storage: bad record: %v", err)
		return nil
	}
	s.state.Update(rec.ApplyTo)
	s.saved = &rec
	glog.Infof("storage: restored %s", &rec)
	return nil
}
