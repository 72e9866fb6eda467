package mapdata

import (
	"encoding/binary"
	"fmt"
	"os"
)

// Map is a chart image held read-only in memory: header, tile table,
// tile data and land mask.
type Map struct {
	Metadata
	data []byte
}

// Open reads the chart image from a file.
func Open(path string) (*Map, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	m, err := New(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// New wraps an in-memory chart image. data must not be modified
// afterwards.
func New(data []byte) (*Map, error) {
	meta, err := ParseMetadata(data)
	if err != nil {
		return nil, err
	}
	tableEnd := uint64(meta.TileDataOffset) + uint64(meta.TileCount)*TileEntrySize
	if tableEnd > uint64(len(data)) {
		return nil, fmt.Errorf("tile table: %w", ErrTruncated)
	}
	maskEnd := uint64(meta.LandMaskDataOffset) + uint64(meta.LandMaskRowSize)*uint64(meta.LandMaskRows)
	if maskEnd > uint64(len(data)) {
		return nil, fmt.Errorf("land mask: %w", ErrTruncated)
	}
	return &Map{Metadata: *meta, data: data}, nil
}

// Size is the image size in bytes.
func (m *Map) Size() int {
	return len(m.data)
}

// Tile returns the encoded tile n or false if n or its entry is out of
// range.
func (m *Map) Tile(n int) ([]byte, bool) {
	if n < 0 || n >= int(m.TileCount) {
		return nil, false
	}
	entry := m.data[int(m.TileDataOffset)+n*TileEntrySize:]
	size := binary.LittleEndian.Uint32(entry)
	offset := binary.LittleEndian.Uint32(entry[4:])
	end := uint64(offset) + uint64(size)
	if end > uint64(len(m.data)) {
		return nil, false
	}
	return m.data[offset:end], true
}

// IsWater tells whether the pathfinder cell holding p is navigable.
// Everything off the chart is land.
func (m *Map) IsWater(p Point) bool {
	if !m.Contains(p) {
		return false
	}
	cell := p.Cell()
	if cell.Y >= int32(m.LandMaskRows) || cell.X >= int32(m.LandMaskRowSize)*8 {
		return false
	}
	b := m.data[m.LandMaskDataOffset+uint32(cell.Y)*m.LandMaskRowSize+uint32(cell.X)/8]
	return b&(1<<(uint(cell.X)%8)) == 0
}
