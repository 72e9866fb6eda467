package device

import (
	"fmt"
	"io"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/plotter.go/pkg/appstate"
	"github.com/robotalks/plotter.go/pkg/env"
	fx "github.com/robotalks/plotter.go/pkg/framework"
	"github.com/robotalks/plotter.go/pkg/gps"
	"github.com/robotalks/plotter.go/pkg/mapdata"
	"github.com/robotalks/plotter.go/pkg/route"
	"github.com/robotalks/plotter.go/pkg/storage"
	"github.com/robotalks/plotter.go/pkg/telemetry"
	"github.com/robotalks/plotter.go/pkg/tile"
	"github.com/robotalks/plotter.go/pkg/ui"
)

// SettleDelay separates the background workers from the UI at start.
const SettleDelay = 10 * time.Millisecond

// Device is the assembled plotter.
type Device struct {
	ID    string
	Chart *mapdata.Map
	State *appstate.Distributor

	Storage   *storage.Storage
	Simulator *gps.Simulator
	Mux       *gps.Mux
	Reader    *gps.Reader
	Tiles     *tile.Producer
	Routes    *route.Service
	UI        *ui.UI

	// Telemetry is nil unless a broker is configured.
	Telemetry *telemetry.Publisher
	Queue     *telemetry.Queue
	// LiveFixes is nil unless a listen address is configured.
	LiveFixes *telemetry.LiveFixServer

	gpsDevice *gps.NMEASource
}

// NewDevice assembles the workers. Nothing runs until Start.
func (c *Config) NewDevice(out io.Writer) (*Device, error) {
	chart, err := c.openChart()
	if err != nil {
		return nil, err
	}
	seed := c.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	initial := appstate.DefaultState()
	initial.DemoMode = c.DemoMode
	d := &Device{
		ID:    env.DeviceID(),
		Chart: chart,
		State: appstate.NewDistributor(initial),
	}

	var nvm storage.NVM = &storage.MemNVM{}
	if c.NVMDir != "" {
		nvm = &storage.FileNVM{Dir: c.NVMDir}
	}

	var device gps.Source
	if c.GPSPort != "" {
		src, err := gps.OpenSerial(c.GPSPort, c.GPSBaud)
		if err != nil {
			return nil, err
		}
		d.gpsDevice, device = src, src
	}

	d.Routes = route.NewService(chart, &route.LinePathfinder{Chart: chart}, seed)
	d.Simulator = gps.NewSimulator(&chart.Metadata, d.State, d.Routes, seed)
	d.Mux = gps.NewMux(d.State, device, d.Simulator)
	d.Reader = gps.NewReader(&chart.Metadata, d.Mux)
	d.Tiles = tile.NewProducer(chart, c.TileCacheTTL, tile.DefaultCacheCapacity)
	d.Storage = storage.New(nvm, &chart.Metadata, d.State, d.Routes.AttachListener())
	d.UI = ui.New(out, d.State, ui.Sources{
		Fixes:  d.Reader.AttachListener(),
		Routes: d.Routes.AttachListener(),
		Areas:  d.Tiles.AttachListener(),
		Tiles:  d.Tiles,
	})

	if c.MQTTURL != "" {
		opts, prefix, err := telemetry.ClientOptionsFromURL(c.MQTTURL)
		if err != nil {
			d.Close()
			return nil, fmt.Errorf("invalid MQTT URL: %v", err)
		}
		if opts.ClientID == "" {
			opts.SetClientID("plotter-" + d.ID)
		}
		d.Queue = telemetry.NewQueue(opts, prefix)
		d.Telemetry = telemetry.NewPublisher(d.Queue, d.ID, c.FixInterval,
			d.State, d.Reader.AttachListener(), d.Routes.AttachListener())
	}
	if c.WSAddr != "" {
		d.LiveFixes = &telemetry.LiveFixServer{Addr: c.WSAddr, Source: d.Reader, DeviceID: d.ID}
	}
	return d, nil
}

func (c *Config) openChart() (*mapdata.Map, error) {
	if c.MapPath == "" {
		glog.Info("no chart configured, using a synthetic one")
		data, err := SyntheticChart().Build()
		if err != nil {
			return nil, err
		}
		return mapdata.New(data)
	}
	chart, err := mapdata.Open(c.MapPath)
	if err != nil {
		return nil, fmt.Errorf("open chart %s: %v", c.MapPath, err)
	}
	return chart, nil
}

// SyntheticChart is a 4x4 tile chart with a square island in the
// middle.
func SyntheticChart() *mapdata.Builder {
	b := &mapdata.Builder{
		CornerLatitude:     59.40,
		CornerLongitude:    18.20,
		PixelLatitudeSize:  10,
		PixelLongitudeSize: 20,
		Columns:            4,
		Rows:               4,
	}
	for n := 0; n < 16; n++ {
		b.AddTile([]byte(fmt.Sprintf("tile-%02d", n)))
	}
	for y := int32(16); y < 24; y++ {
		for x := int32(16); x < 24; x++ {
			b.SetLand(mapdata.Point{X: x, Y: y})
		}
	}
	return b
}

// Start starts all workers in order on r. The UI waits for SettleDelay
// so storage has a chance to restore state first.
func (d *Device) Start(r *fx.Runner) *fx.Runner {
	glog.Infof("device %s starting", d.ID)
	r.Go(d.Storage, d.Simulator, d.Reader, d.Tiles, d.Routes).
		Settle(SettleDelay).
		Go(d.UI)
	if d.Telemetry != nil {
		r.Go(d.Queue, d.Telemetry)
	}
	if d.LiveFixes != nil {
		r.Go(d.LiveFixes)
	}
	return r
}

// Close releases the devices opened by NewDevice.
func (d *Device) Close() error {
	if d.gpsDevice != nil {
		return d.gpsDevice.Close()
	}
	return nil
}
