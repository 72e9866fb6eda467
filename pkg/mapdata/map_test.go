package mapdata

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

func testChart(t *testing.T) *Map {
	b := &Builder{
		CornerLatitude:     59.5,
		CornerLongitude:    17.0,
		PixelLatitudeSize:  100,
		PixelLongitudeSize: 200,
		Columns:            2,
		Rows:               2,
	}
	b.AddTile([]byte("tile0")).AddTile([]byte("tile-1"))
	b.SetLand(Point{X: 3, Y: 2}).SetLand(Point{X: 9, Y: 0})
	data, err := b.Build()
	require.NoError(t, err)
	m, err := New(data)
	require.NoError(t, err)
	return m
}

func TestMetadataLayout(t *testing.T) {
	meta := Metadata{Magic: MetadataMagic, TileCount: 7, LandMaskDataOffset: 0x1234}
	data, err := meta.MarshalBinary()
	require.NoError(t, err)
	require.Len(t, data, MetadataSize)
	require.Equal(t, []byte("TFWSRLIT"), data[:8])
	require.Equal(t, uint32(7), binary.LittleEndian.Uint32(data[24:]))
	require.Equal(t, uint32(0x1234), binary.LittleEndian.Uint32(data[56:]))

	parsed, err := ParseMetadata(data)
	require.NoError(t, err)
	require.Equal(t, meta, *parsed)
}

func TestParseMetadataErrors(t *testing.T) {
	_, err := ParseMetadata(make([]byte, 10))
	require.ErrorIs(t, err, ErrTruncated)
	_, err = ParseMetadata(make([]byte, MetadataSize))
	require.ErrorIs(t, err, ErrBadMagic)

	meta := Metadata{Magic: MetadataMagic, TileCount: 4, TileDataOffset: MetadataSize}
	data, err := meta.MarshalBinary()
	require.NoError(t, err)
	_, err = New(data)
	require.ErrorIs(t, err, ErrTruncated)
}

func TestMapTiles(t *testing.T) {
	m := testChart(t)
	require.Equal(t, uint32(4), m.TileCount)
	tile, ok := m.Tile(0)
	require.True(t, ok)
	require.Equal(t, "tile0", string(tile))
	tile, ok = m.Tile(1)
	require.True(t, ok)
	require.Equal(t, "tile-1", string(tile))
	tile, ok = m.Tile(3)
	require.True(t, ok)
	require.Empty(t, tile)
	_, ok = m.Tile(4)
	require.False(t, ok)
	_, ok = m.Tile(-1)
	require.False(t, ok)
}

func TestMapLandMask(t *testing.T) {
	m := testChart(t)
	testCases := []struct {
		name  string
		p     Point
		water bool
	}{
		{"origin", Point{0, 0}, true},
		{"land cell", Point{3*PathFinderTileSize + 5, 2*PathFinderTileSize + 23}, false},
		{"next to land", Point{4 * PathFinderTileSize, 2 * PathFinderTileSize}, true},
		{"second mask byte", Point{9 * PathFinderTileSize, 0}, false},
		{"off chart", Point{-1, 0}, false},
		{"beyond width", Point{2 * TileSize, 0}, false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.water, m.IsWater(tc.p))
		})
	}
}

func TestCoordinates(t *testing.T) {
	m := testChart(t)
	p := Point{X: 100, Y: 50}
	pos := m.PointToPosition(p)
	require.InDelta(t, 59.5-0.005, pos.Latitude, 1e-9)
	require.InDelta(t, 17.0+0.02, pos.Longitude, 1e-9)
	require.Equal(t, p, m.PositionToPoint(pos))

	i := m.PointToIndex(p)
	require.Equal(t, Index(50*480+100), i)
	require.Equal(t, p, m.IndexToPoint(i))
	require.Equal(t, 0, m.TileIndex(p))
	require.Equal(t, 3, m.TileIndex(Point{X: 300, Y: 300}))
}

func TestVectors(t *testing.T) {
	testCases := []struct {
		from, to Point
		dir      Vector
		angle    int
	}{
		{Point{5, 5}, Point{5, 0}, Up, 0},
		{Point{5, 5}, Point{9, 1}, UpRight, 45},
		{Point{5, 5}, Point{10, 5}, Right, 90},
		{Point{5, 5}, Point{6, 6}, DownRight, 135},
		{Point{5, 5}, Point{5, 50}, Down, 180},
		{Point{5, 5}, Point{0, 7}, DownLeft, 225},
		{Point{5, 5}, Point{-3, 5}, Left, 270},
		{Point{5, 5}, Point{0, 0}, UpLeft, 315},
		{Point{5, 5}, Point{5, 5}, Standstill, 0},
	}
	for _, tc := range testCases {
		dir := PointPairToDirection(tc.from, tc.to)
		require.Equal(t, tc.dir, dir)
		require.Equal(t, tc.angle, dir.Angle())
	}
	require.True(t, UpLeft.IsDiagonal())
	require.False(t, Left.IsDiagonal())
	require.Equal(t, Right, Up.Perpendicular())
	require.Equal(t, Vector{DX: 3, DY: -3}, UpRight.Scale(3))
	require.Equal(t, Point{X: 6, Y: 4}, Point{X: 5, Y: 5}.Add(UpRight))
}
