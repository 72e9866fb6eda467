package telemetry

import (
	"sync/atomic"
	"time"

	"github.com/golang/glog"
	"github.com/golang/protobuf/proto"

	"github.com/robotalks/plotter.go/pkg/appstate"
	fx "github.com/robotalks/plotter.go/pkg/framework"
	"github.com/robotalks/plotter.go/pkg/gps"
	"github.com/robotalks/plotter.go/pkg/port"
	"github.com/robotalks/plotter.go/pkg/route"
)

// DefaultFixInterval is how often the latest fix is published.
const DefaultFixInterval = time.Second

// Topic suffixes under the device id.
const (
	TopicFix   = "fix"
	TopicState = "state"
	TopicRoute = "route"
)

// Sink accepts encoded envelopes.
type Sink interface {
	Publish(topic string, payload []byte) error
}

// Publisher reports the latest fix, route events and state changes.
// The fix port is sampled on a timer instead of waking the thread, so
// fixes are sent at most once per interval.
type Publisher struct {
	fx.Thread

	sink     Sink
	deviceID string
	interval time.Duration
	clock    fx.TimeSource

	state  *appstate.Distributor
	fixes  *port.Port[gps.Fix]
	routes *port.Port[route.Event]

	lastState *appstate.State
	published atomic.Uint64
}

// NewPublisher creates the Publisher. fixes and routes may be nil.
func NewPublisher(sink Sink, deviceID string, interval time.Duration,
	state *appstate.Distributor, fixes *port.Port[gps.Fix], routes *port.Port[route.Event]) *Publisher {
	if interval <= 0 {
		interval = DefaultFixInterval
	}
	p := &Publisher{
		sink:     sink,
		deviceID: deviceID,
		interval: interval,
		clock:    fx.SystemTime,
		state:    state,
		fixes:    fixes,
		routes:   routes,
	}
	p.Priority = fx.PriorityLow
	p.Init("telemetry", p)
	p.CloseOnExit(state.AttachListener(p.WakeSignal()))
	if fixes != nil {
		p.CloseOnExit(fixes)
	}
	if routes != nil {
		routes.AwakeOn(p.WakeSignal())
		p.CloseOnExit(routes)
	}
	p.StartTimer(interval, p.sampleFix)
	return p
}

// Published returns the number of messages sent.
func (p *Publisher) Published() uint64 {
	return p.published.Load()
}

// OnActivation implements Activator.
func (p *Publisher) OnActivation() fx.Wakeup {
	if snap := p.state.CheckoutReadonly(); p.lastState == nil || *snap != *p.lastState {
		p.lastState = snap
		p.send(TopicState, NewStateReport(snap))
	}
	if p.routes != nil {
		if ev, ok := p.routes.Poll(); ok {
			p.send(TopicRoute, NewRouteReport(ev))
		}
	}
	return fx.NoWakeup
}

func (p *Publisher) sampleFix() fx.Wakeup {
	if p.fixes != nil {
		if fix, ok := p.fixes.Poll(); ok {
			p.send(TopicFix, NewFixReport(fix))
		}
	}
	return fx.After(p.interval)
}

func (p *Publisher) send(topic string, msg proto.Message) {
	env, err := Wrap(msg)
	if err != nil {
		glog.Errorf("telemetry %s: %v", topic, err)
		return
	}
	env.DeviceId = p.deviceID
	env.Timestamp = p.clock.Time().UnixMilli()
	data, err := env.Encode()
	if err != nil {
		glog.Errorf("telemetry %s: %v", topic, err)
		return
	}
	if err := p.sink.Publish(p.deviceID+"/"+topic, data); err != nil {
		glog.Warningf("telemetry %s: %v", topic, err)
		return
	}
	p.published.Add(1)
}
