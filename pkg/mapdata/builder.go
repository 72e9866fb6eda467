package mapdata

import (
	"encoding/binary"
	"fmt"
)

// Builder assembles a chart image. It is used by tools and by the
// daemon to synthesize a chart when no image is configured.
type Builder struct {
	CornerLatitude     float64
	CornerLongitude    float64
	PixelLatitudeSize  uint32
	PixelLongitudeSize uint32
	// Tiles per row and per column.
	Columns, Rows uint32

	tiles [][]byte
	land  []Point
}

// AddTile appends the encoded data of the next tile.
func (b *Builder) AddTile(data []byte) *Builder {
	b.tiles = append(b.tiles, data)
	return b
}

// SetLand marks the pathfinder cell as land.
func (b *Builder) SetLand(cell Point) *Builder {
	b.land = append(b.land, cell)
	return b
}

// Build encodes the image. Missing tiles are left empty.
func (b *Builder) Build() ([]byte, error) {
	count := b.Columns * b.Rows
	if uint32(len(b.tiles)) > count {
		return nil, fmt.Errorf("%d tiles for a %dx%d chart", len(b.tiles), b.Columns, b.Rows)
	}
	cellsX := b.Columns * TileSize / PathFinderTileSize
	cellsY := b.Rows * TileSize / PathFinderTileSize
	meta := Metadata{
		Magic:              MetadataMagic,
		CornerLatitude:     b.CornerLatitude,
		CornerLongitude:    b.CornerLongitude,
		TileCount:          count,
		PixelLongitudeSize: b.PixelLongitudeSize,
		PixelLatitudeSize:  b.PixelLatitudeSize,
		TileRowSize:        b.Columns,
		TileColumnSize:     b.Rows,
		LandMaskRowSize:    (cellsX + 7) / 8,
		LandMaskRows:       cellsY,
		TileDataOffset:     MetadataSize,
	}
	meta.LandMaskDataOffset = meta.TileDataOffset + count*TileEntrySize
	dataOffset := meta.LandMaskDataOffset + meta.LandMaskRowSize*meta.LandMaskRows

	out, err := meta.MarshalBinary()
	if err != nil {
		return nil, err
	}
	table := make([]byte, count*TileEntrySize)
	offset := dataOffset
	for n, tile := range b.tiles {
		binary.LittleEndian.PutUint32(table[n*TileEntrySize:], uint32(len(tile)))
		binary.LittleEndian.PutUint32(table[n*TileEntrySize+4:], offset)
		offset += uint32(len(tile))
	}
	mask := make([]byte, meta.LandMaskRowSize*meta.LandMaskRows)
	for _, cell := range b.land {
		if cell.X < 0 || cell.Y < 0 || uint32(cell.X) >= cellsX || uint32(cell.Y) >= cellsY {
			return nil, fmt.Errorf("land cell %s off chart", cell)
		}
		mask[uint32(cell.Y)*meta.LandMaskRowSize+uint32(cell.X)/8] |= 1 << (uint(cell.X) % 8)
	}
	out = append(out, table...)
	out = append(out, mask...)
	for _, tile := range b.tiles {
		out = append(out, tile...)
	}
	return out, nil
}
