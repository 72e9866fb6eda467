// Package tile serves chart tiles around the vessel to the UI.
package tile

import (
	"sync"
	"time"

	"github.com/golang/glog"
	"github.com/jellydator/ttlcache/v3"

	fx "github.com/robotalks/plotter.go/pkg/framework"
	"github.com/robotalks/plotter.go/pkg/mapdata"
	"github.com/robotalks/plotter.go/pkg/port"
)

// Cache defaults.
const (
	DefaultCacheTTL      = 30 * time.Second
	DefaultCacheCapacity = 32
	// AreaRadius is the number of tiles served around the center tile.
	AreaRadius = 1
)

// Tile is one encoded chart tile.
type Tile struct {
	Index int
	// Origin is the top-left pixel.
	Origin mapdata.Point
	Data   []byte
}

// Area is the set of tiles around a center tile. Listeners only care
// about the latest area.
type Area struct {
	Center int
	Tiles  []Tile
}

// Producer loads the tiles of the requested area, keeps the recently
// used ones cached and pushes them to listeners.
type Producer struct {
	fx.Thread

	chart *mapdata.Map
	cache *ttlcache.Cache[int, []byte]
	areas port.Producer[Area]

	lock    sync.Mutex
	pending []int
	center  int
}

// NewProducer creates a Producer.
func NewProducer(chart *mapdata.Map, ttl time.Duration, capacity uint64) *Producer {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if capacity == 0 {
		capacity = DefaultCacheCapacity
	}
	p := &Producer{
		chart: chart,
		cache: ttlcache.New[int, []byte](
			ttlcache.WithTTL[int, []byte](ttl),
			ttlcache.WithCapacity[int, []byte](capacity),
		),
		center: -1,
	}
	p.Priority = fx.PriorityNormal
	p.Init("tile-producer", p)
	p.areas.Init(p.WakeSignal())
	p.StartTimer(ttl, func() fx.Wakeup {
		p.cache.DeleteExpired()
		return fx.After(ttl)
	})
	return p
}

// AttachListener subscribes to areas.
func (p *Producer) AttachListener() *port.Port[Area] {
	return p.areas.AttachListener()
}

// RequestArea asks for the tiles around center. Requests for the same
// center tile as the last one are ignored.
func (p *Producer) RequestArea(center mapdata.Point) {
	if !p.chart.Contains(center) {
		return
	}
	n := p.chart.TileIndex(center)
	p.lock.Lock()
	if n == p.center {
		p.lock.Unlock()
		return
	}
	p.center = n
	p.pending = areaAround(center, int32(p.chart.TileRowSize), int32(p.chart.TileColumnSize))
	p.lock.Unlock()
	p.Awake()
}

// Metrics returns cache statistics.
func (p *Producer) Metrics() ttlcache.Metrics {
	return p.cache.Metrics()
}

// OnActivation implements Activator.
func (p *Producer) OnActivation() fx.Wakeup {
	p.areas.Retire()

	p.lock.Lock()
	pending, center := p.pending, p.center
	p.pending = nil
	p.lock.Unlock()
	if pending == nil {
		return fx.NoWakeup
	}

	area := Area{Center: center}
	cols := int(p.chart.TileRowSize)
	for _, n := range pending {
		data, ok := p.load(n)
		if !ok {
			continue
		}
		area.Tiles = append(area.Tiles, Tile{
			Index:  n,
			Origin: mapdata.Point{X: int32(n%cols) * mapdata.TileSize, Y: int32(n/cols) * mapdata.TileSize},
			Data:   data,
		})
	}
	glog.V(3).Infof("tiles: area %d, %d tiles", center, len(area.Tiles))
	p.areas.Push(area)
	return fx.NoWakeup
}

func (p *Producer) load(n int) ([]byte, bool) {
	if item := p.cache.Get(n); item != nil {
		return item.Value(), true
	}
	data, ok := p.chart.Tile(n)
	if !ok {
		glog.Warningf("tile %d: out of range", n)
		return nil, false
	}
	p.cache.Set(n, data, ttlcache.DefaultTTL)
	return data, true
}

// areaAround lists the tile indices within AreaRadius of the tile at
// center, row by row.
func areaAround(center mapdata.Point, cols, rows int32) []int {
	cx, cy := center.X/mapdata.TileSize, center.Y/mapdata.TileSize
	var area []int
	for y := cy - AreaRadius; y <= cy+AreaRadius; y++ {
		for x := cx - AreaRadius; x <= cx+AreaRadius; x++ {
			if x >= 0 && y >= 0 && x < cols && y < rows {
				area = append(area, int(y*cols+x))
			}
		}
	}
	return area
}
