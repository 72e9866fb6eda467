// Package mapdata reads the chart image: its fixed binary header, tile
// table and land mask, plus the grid geometry shared by the route and
// GPS workers.
package mapdata

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// Chart geometry constants.
const (
	TileSize           = 240
	PathFinderTileSize = TileSize / 10

	// MetadataMagic spells "TILRSWFT".
	MetadataMagic uint64 = 0x54494C5253574654
	// MetadataSize is the encoded header size in bytes.
	MetadataSize = 60
	// TileEntrySize is the size of one tile table entry.
	TileEntrySize = 8
)

var (
	// ErrBadMagic indicates the image doesn't start with a chart header.
	ErrBadMagic = errors.New("bad map magic")
	// ErrTruncated indicates the image is shorter than its header claims.
	ErrTruncated = errors.New("truncated map data")
)

// Metadata is the chart header. Offsets are relative to the start of
// the header. Pixel sizes are in micro-degrees.
type Metadata struct {
	Magic           uint64
	CornerLatitude  float64
	CornerLongitude float64

	TileCount          uint32
	PixelLongitudeSize uint32
	PixelLatitudeSize  uint32
	TileRowSize        uint32
	TileColumnSize     uint32

	LandMaskRowSize uint32
	LandMaskRows    uint32

	TileDataOffset     uint32
	LandMaskDataOffset uint32
}

// ParseMetadata decodes the header from the start of data.
func ParseMetadata(data []byte) (*Metadata, error) {
	if len(data) < MetadataSize {
		return nil, fmt.Errorf("metadata: %w", ErrTruncated)
	}
	var m Metadata
	if err := binary.Read(bytes.NewReader(data[:MetadataSize]), binary.LittleEndian, &m); err != nil {
		return nil, err
	}
	if m.Magic != MetadataMagic {
		return nil, fmt.Errorf("%w: %x", ErrBadMagic, m.Magic)
	}
	return &m, nil
}

// MarshalBinary encodes the header.
func (m *Metadata) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(MetadataSize)
	if err := binary.Write(&buf, binary.LittleEndian, m); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Width is the chart width in pixels.
func (m *Metadata) Width() int32 {
	return int32(m.TileRowSize) * TileSize
}

// Height is the chart height in pixels.
func (m *Metadata) Height() int32 {
	return int32(m.TileColumnSize) * TileSize
}

// Contains tells whether p is on the chart.
func (m *Metadata) Contains(p Point) bool {
	return p.X >= 0 && p.Y >= 0 && p.X < m.Width() && p.Y < m.Height()
}

// PointToIndex flattens a pixel position.
func (m *Metadata) PointToIndex(p Point) Index {
	return Index(uint32(p.Y)*uint32(m.Width()) + uint32(p.X))
}

// IndexToPoint is the inverse of PointToIndex.
func (m *Metadata) IndexToPoint(i Index) Point {
	w := uint32(m.Width())
	if w == 0 {
		return Point{}
	}
	return Point{X: int32(uint32(i) % w), Y: int32(uint32(i) / w)}
}

// PointToPosition converts a pixel to latitude/longitude. Latitude
// decreases southwards, i.e. with growing Y.
func (m *Metadata) PointToPosition(p Point) Position {
	return Position{
		Latitude:  m.CornerLatitude - float64(p.Y)*float64(m.PixelLatitudeSize)/1e6,
		Longitude: m.CornerLongitude + float64(p.X)*float64(m.PixelLongitudeSize)/1e6,
	}
}

// PositionToPoint converts latitude/longitude to the nearest pixel.
func (m *Metadata) PositionToPoint(pos Position) Point {
	if m.PixelLatitudeSize == 0 || m.PixelLongitudeSize == 0 {
		return Point{}
	}
	y := (m.CornerLatitude - pos.Latitude) * 1e6 / float64(m.PixelLatitudeSize)
	x := (pos.Longitude - m.CornerLongitude) * 1e6 / float64(m.PixelLongitudeSize)
	return Point{X: int32(math.Round(x)), Y: int32(math.Round(y))}
}

// TileIndex returns the tile covering p.
func (m *Metadata) TileIndex(p Point) int {
	return int(p.Y/TileSize)*int(m.TileRowSize) + int(p.X/TileSize)
}
