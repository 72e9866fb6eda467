package device

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	fx "github.com/robotalks/plotter.go/pkg/framework"
	"github.com/robotalks/plotter.go/pkg/mapdata"
)

type lockedBuffer struct {
	lock sync.Mutex
	buf  bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.buf.String()
}

func TestSyntheticChart(t *testing.T) {
	data, err := SyntheticChart().Build()
	require.NoError(t, err)
	chart, err := mapdata.New(data)
	require.NoError(t, err)
	require.Equal(t, int32(960), chart.Width())
	require.Equal(t, uint32(16), chart.TileCount)
	tile, ok := chart.Tile(5)
	require.True(t, ok)
	require.Equal(t, "tile-05", string(tile))
	require.False(t, chart.IsWater(mapdata.Point{X: 480, Y: 480}))
	require.True(t, chart.IsWater(mapdata.Point{X: 100, Y: 100}))
}

func TestNewConfigDefaults(t *testing.T) {
	conf := NewConfig()
	require.True(t, conf.DemoMode)
	conf.DemoMode = false
	require.True(t, Default().DemoMode, "NewConfig returns a copy")
}

func TestDeviceRunsDemo(t *testing.T) {
	conf := NewConfig()
	conf.NVMDir = t.TempDir()
	conf.Seed = 7
	var out lockedBuffer
	d, err := conf.NewDevice(&out)
	require.NoError(t, err)
	defer d.Close()
	require.Nil(t, d.Telemetry)
	require.Nil(t, d.LiveFixes)
	require.True(t, d.State.CheckoutReadonly().DemoMode)

	ctx, cancel := context.WithCancel(context.Background())
	r := d.Start(fx.NewRunnerWith(ctx))
	require.Eventually(t, func() bool {
		s := out.String()
		return strings.Contains(s, "hdg") && strings.Contains(s, "DEMO")
	}, 15*time.Second, 20*time.Millisecond)
	require.Eventually(t, func() bool {
		return d.Storage.Restored()
	}, time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, r.Wait())
}

func TestDeviceWithTelemetry(t *testing.T) {
	conf := NewConfig()
	conf.MQTTURL = "mqtt://localhost:1883/boats/"
	conf.WSAddr = "127.0.0.1:0"
	d, err := conf.NewDevice(&lockedBuffer{})
	require.NoError(t, err)
	require.NotNil(t, d.Telemetry)
	require.Equal(t, "boats/", d.Queue.TopicPrefix)
	require.NotNil(t, d.LiveFixes)
	require.Equal(t, d.ID, d.LiveFixes.DeviceID)

	conf.MQTTURL = "mqtt://bad host/"
	_, err = conf.NewDevice(&lockedBuffer{})
	require.Error(t, err)
}
