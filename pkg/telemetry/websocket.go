package telemetry

import (
	"context"
	"net/http"

	"github.com/golang/glog"
	"golang.org/x/net/websocket"

	fx "github.com/robotalks/plotter.go/pkg/framework"
	"github.com/robotalks/plotter.go/pkg/gps"
	"github.com/robotalks/plotter.go/pkg/port"
)

// FixSource hands out fix ports.
type FixSource interface {
	TryAttachListener() (*port.Port[gps.Fix], bool)
}

// LiveFixServer streams fixes to websocket clients, one fix port per
// client. Clients are refused when the fix producer has no free slot.
type LiveFixServer struct {
	Addr     string
	Source   FixSource
	DeviceID string
}

// Name implements framework.Named.
func (s *LiveFixServer) Name() string {
	return "live-fixes"
}

// Handler returns the websocket handler.
func (s *LiveFixServer) Handler() http.Handler {
	return websocket.Handler(s.serve)
}

// Run serves ws://Addr/fix until ctx is done.
func (s *LiveFixServer) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.Handle("/fix", s.Handler())
	srv := &http.Server{Addr: s.Addr, Handler: mux}
	glog.Infof("live fixes on ws://%s/fix", s.Addr)
	err := fx.RunWithContextCloser(ctx, srv, srv.ListenAndServe)
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *LiveFixServer) serve(conn *websocket.Conn) {
	defer conn.Close()
	fixes, ok := s.Source.TryAttachListener()
	if !ok {
		glog.Warningf("websocket %s: no free fix port", conn.Request().RemoteAddr)
		websocket.Message.Send(conn, "busy")
		return
	}
	defer fixes.Close()

	ctx, cancel := context.WithCancel(conn.Request().Context())
	defer cancel()
	go func() {
		defer cancel()
		var discard []byte
		for websocket.Message.Receive(conn, &discard) == nil {
		}
	}()

	wake := fx.NewWakeSignal()
	fixes.AwakeOn(wake)
	wake.Release()
	for {
		if err := wake.AcquireContext(ctx); err != nil {
			return
		}
		fix, ok := fixes.Poll()
		if !ok {
			continue
		}
		env, err := Wrap(NewFixReport(fix))
		if err != nil {
			glog.Errorf("websocket: %v", err)
			return
		}
		env.DeviceId = s.DeviceID
		if !fix.Time.IsZero() {
			env.Timestamp = fix.Time.UnixMilli()
		}
		data, err := env.Encode()
		if err != nil {
			glog.Errorf("websocket: %v", err)
			return
		}
		if err := websocket.Message.Send(conn, data); err != nil {
			glog.V(2).Infof("websocket %s: %v", conn.Request().RemoteAddr, err)
			return
		}
	}
}
