package storage

import (
	"github.com/golang/protobuf/proto"

	"github.com/robotalks/plotter.go/pkg/appstate"
	"github.com/robotalks/plotter.go/pkg/mapdata"
)

// RecordVersion is written into every record.
const RecordVersion = 1

// Record is the persisted part of the application state.
type Record struct {
	Version         uint32   `protobuf:"varint,1,opt,name=version,proto3" json:"version,omitempty"`
	HomePosition    uint32   `protobuf:"varint,2,opt,name=home_position,json=homePosition,proto3" json:"home_position,omitempty"`
	StoredPositions []uint32 `protobuf:"varint,3,rep,packed,name=stored_positions,json=storedPositions,proto3" json:"stored_positions,omitempty"`
	ShowSpeedometer bool     `protobuf:"varint,4,opt,name=show_speedometer,json=showSpeedometer,proto3" json:"show_speedometer,omitempty"`
}

// ProtoMessage implements proto.Message.
func (m *Record) ProtoMessage() {}

// Reset implements proto.Message.
func (m *Record) Reset() { *m = Record{} }

// String implements proto.Message.
func (m *Record) String() string { return proto.CompactTextString(m) }

// RecordOf extracts the persisted fields from s.
func RecordOf(s *appstate.State) *Record {
	r := &Record{
		Version:         RecordVersion,
		HomePosition:    uint32(s.HomePosition),
		ShowSpeedometer: s.ShowSpeedometer,
	}
	for _, p := range s.StoredPositions.Slice() {
		r.StoredPositions = append(r.StoredPositions, uint32(p))
	}
	return r
}

// ApplyTo copies the persisted fields into s.
func (m *Record) ApplyTo(s *appstate.State) {
	s.HomePosition = mapdata.Index(m.HomePosition)
	s.ShowSpeedometer = m.ShowSpeedometer
	s.StoredPositions.Clear()
	for _, p := range m.StoredPositions {
		s.StoredPositions.Push(mapdata.Index(p))
	}
}
