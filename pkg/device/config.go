// Package device composes the plotter workers and starts them in order.
package device

import (
	"flag"
	"os"
	"strconv"
	"time"

	"github.com/robotalks/plotter.go/pkg/gps"
	"github.com/robotalks/plotter.go/pkg/telemetry"
	"github.com/robotalks/plotter.go/pkg/tile"
)

// Config defines how the device is assembled.
type Config struct {
	// MapPath is the chart image. A small synthetic chart is used when
	// empty.
	MapPath string
	// NVMDir keeps the persisted state. State is kept in memory when
	// empty.
	NVMDir string
	// GPSPort is the serial port of the NMEA receiver, e.g. /dev/ttyUSB0.
	GPSPort string
	GPSBaud int
	// MQTTURL is the telemetry broker, e.g. mqtt://host:1883/plotter/.
	// Telemetry is off when empty.
	MQTTURL     string
	FixInterval time.Duration
	// WSAddr is the listen address of the live fix websocket.
	WSAddr string

	TileCacheTTL time.Duration
	DemoMode     bool
	Seed         int64
}

var defaultConfig = Config{
	GPSBaud:      gps.DefaultBaudRate,
	FixInterval:  telemetry.DefaultFixInterval,
	TileCacheTTL: tile.DefaultCacheTTL,
	DemoMode:     true,
}

func init() {
	if val := os.Getenv("PLOTTER_MAP"); val != "" {
		defaultConfig.MapPath = val
	}
	if val := os.Getenv("PLOTTER_NVM_DIR"); val != "" {
		defaultConfig.NVMDir = val
	}
	if val := os.Getenv("PLOTTER_GPS_PORT"); val != "" {
		defaultConfig.GPSPort = val
	}
	if val := os.Getenv("PLOTTER_GPS_BAUD"); val != "" {
		if baud, err := strconv.Atoi(val); err == nil {
			defaultConfig.GPSBaud = baud
		}
	}
	if val := os.Getenv("PLOTTER_MQTT_URL"); val != "" {
		defaultConfig.MQTTURL = val
	}
	if val := os.Getenv("PLOTTER_WS_ADDR"); val != "" {
		defaultConfig.WSAddr = val
	}
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.MapPath, "map", defaultConfig.MapPath, "Chart image file.")
	flag.StringVar(&defaultConfig.NVMDir, "nvm", defaultConfig.NVMDir, "Directory for persisted state.")
	flag.StringVar(&defaultConfig.GPSPort, "gps", defaultConfig.GPSPort, "Serial port of the GPS receiver.")
	flag.IntVar(&defaultConfig.GPSBaud, "gps-baud", defaultConfig.GPSBaud, "GPS receiver baud rate.")
	flag.StringVar(&defaultConfig.MQTTURL, "mqtt", defaultConfig.MQTTURL, "MQTT broker URL for telemetry.")
	flag.DurationVar(&defaultConfig.FixInterval, "fix-interval", defaultConfig.FixInterval, "Telemetry fix interval.")
	flag.StringVar(&defaultConfig.WSAddr, "ws", defaultConfig.WSAddr, "Listen address of the live fix websocket.")
	flag.DurationVar(&defaultConfig.TileCacheTTL, "tile-ttl", defaultConfig.TileCacheTTL, "Tile cache TTL.")
	flag.BoolVar(&defaultConfig.DemoMode, "demo", defaultConfig.DemoMode, "Start in demo mode.")
	flag.Int64Var(&defaultConfig.Seed, "seed", defaultConfig.Seed, "Random seed, 0 for time based.")
}

// Default gets the default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}
