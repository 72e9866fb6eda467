package tile

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	fx "github.com/robotalks/plotter.go/pkg/framework"
	"github.com/robotalks/plotter.go/pkg/mapdata"
)

func testChart(t *testing.T) *mapdata.Map {
	b := &mapdata.Builder{PixelLatitudeSize: 100, PixelLongitudeSize: 100, Columns: 3, Rows: 3}
	for i := 0; i < 9; i++ {
		b.AddTile([]byte(fmt.Sprintf("t%d", i)))
	}
	data, err := b.Build()
	require.NoError(t, err)
	m, err := mapdata.New(data)
	require.NoError(t, err)
	return m
}

func TestAreaAround(t *testing.T) {
	testCases := []struct {
		name   string
		center mapdata.Point
		expect []int
	}{
		{"middle", mapdata.Point{X: 300, Y: 300}, []int{0, 1, 2, 3, 4, 5, 6, 7, 8}},
		{"top left", mapdata.Point{X: 10, Y: 10}, []int{0, 1, 3, 4}},
		{"bottom edge", mapdata.Point{X: 300, Y: 700}, []int{3, 4, 5, 6, 7, 8}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.expect, areaAround(tc.center, 3, 3))
		})
	}
}

func TestProducerServesFromCache(t *testing.T) {
	p := NewProducer(testChart(t), 0, 0)
	require.Equal(t, fx.PriorityNormal, p.Priority)
	listener := p.AttachListener()

	p.RequestArea(mapdata.Point{X: 300, Y: 300})
	require.Equal(t, fx.NoWakeup, p.OnActivation())
	area, ok := listener.Poll()
	require.True(t, ok)
	require.Equal(t, 4, area.Center)
	require.Len(t, area.Tiles, 9)
	require.Equal(t, "t5", string(area.Tiles[5].Data))
	require.Equal(t, mapdata.Point{X: 480, Y: 240}, area.Tiles[5].Origin)
	require.Equal(t, uint64(9), p.Metrics().Misses)

	// same center tile: nothing to do
	p.RequestArea(mapdata.Point{X: 301, Y: 301})
	p.OnActivation()
	_, ok = listener.Poll()
	require.False(t, ok)

	p.RequestArea(mapdata.Point{X: 10, Y: 10})
	p.OnActivation()
	area, ok = listener.Poll()
	require.True(t, ok)
	require.Len(t, area.Tiles, 4)
	require.Equal(t, uint64(4), p.Metrics().Hits)
	require.Equal(t, uint64(9), p.Metrics().Insertions)

	// off chart
	p.RequestArea(mapdata.Point{X: -1, Y: 0})
	p.OnActivation()
	_, ok = listener.Poll()
	require.False(t, ok)
}
