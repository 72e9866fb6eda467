package telemetry

import (
	"github.com/golang/protobuf/proto"

	"github.com/robotalks/plotter.go/pkg/appstate"
	"github.com/robotalks/plotter.go/pkg/gps"
	"github.com/robotalks/plotter.go/pkg/route"
)

// Type IDs.
const (
	FixReportTypeID   uint32 = 0x80010001
	StateReportTypeID uint32 = 0x80010002
	RouteReportTypeID uint32 = 0x80010003
)

// FixReport is a GPS fix.
type FixReport struct {
	Latitude  float64 `protobuf:"fixed64,1,opt,name=latitude,proto3" json:"latitude,omitempty"`
	Longitude float64 `protobuf:"fixed64,2,opt,name=longitude,proto3" json:"longitude,omitempty"`
	Heading   int32   `protobuf:"varint,3,opt,name=heading,proto3" json:"heading,omitempty"`
	Speed     int32   `protobuf:"varint,4,opt,name=speed,proto3" json:"speed,omitempty"`
	X         int32   `protobuf:"varint,5,opt,name=x,proto3" json:"x,omitempty"`
	Y         int32   `protobuf:"varint,6,opt,name=y,proto3" json:"y,omitempty"`
	UnixMilli int64   `protobuf:"varint,7,opt,name=unix_milli,json=unixMilli,proto3" json:"unix_milli,omitempty"`
}

// NewFixReport converts a fix.
func NewFixReport(fix gps.Fix) *FixReport {
	r := &FixReport{
		Latitude:  fix.Position.Latitude,
		Longitude: fix.Position.Longitude,
		Heading:   int32(fix.Heading),
		Speed:     int32(fix.Speed),
		X:         fix.Point.X,
		Y:         fix.Point.Y,
	}
	if !fix.Time.IsZero() {
		r.UnixMilli = fix.Time.UnixMilli()
	}
	return r
}

// TypeID implements Serializable.
func (m *FixReport) TypeID() uint32 { return FixReportTypeID }

// ProtoMessage implements proto.Message.
func (m *FixReport) ProtoMessage() {}

// Reset implements proto.Message.
func (m *FixReport) Reset() { *m = FixReport{} }

// String implements proto.Message.
func (m *FixReport) String() string { return proto.CompactTextString(m) }

// StateReport is the application state.
type StateReport struct {
	DemoMode           bool     `protobuf:"varint,1,opt,name=demo_mode,json=demoMode,proto3" json:"demo_mode,omitempty"`
	GpsConnected       bool     `protobuf:"varint,2,opt,name=gps_connected,json=gpsConnected,proto3" json:"gps_connected,omitempty"`
	BluetoothConnected bool     `protobuf:"varint,3,opt,name=bluetooth_connected,json=bluetoothConnected,proto3" json:"bluetooth_connected,omitempty"`
	ShowSpeedometer    bool     `protobuf:"varint,4,opt,name=show_speedometer,json=showSpeedometer,proto3" json:"show_speedometer,omitempty"`
	HomePosition       uint32   `protobuf:"varint,5,opt,name=home_position,json=homePosition,proto3" json:"home_position,omitempty"`
	StoredPositions    []uint32 `protobuf:"varint,6,rep,packed,name=stored_positions,json=storedPositions,proto3" json:"stored_positions,omitempty"`
}

// NewStateReport converts a state snapshot.
func NewStateReport(s *appstate.State) *StateReport {
	r := &StateReport{
		DemoMode:           s.DemoMode,
		GpsConnected:       s.GPSConnected,
		BluetoothConnected: s.BluetoothConnected,
		ShowSpeedometer:    s.ShowSpeedometer,
		HomePosition:       uint32(s.HomePosition),
	}
	for _, p := range s.StoredPositions.Slice() {
		r.StoredPositions = append(r.StoredPositions, uint32(p))
	}
	return r
}

// TypeID implements Serializable.
func (m *StateReport) TypeID() uint32 { return StateReportTypeID }

// ProtoMessage implements proto.Message.
func (m *StateReport) ProtoMessage() {}

// Reset implements proto.Message.
func (m *StateReport) Reset() { *m = StateReport{} }

// String implements proto.Message.
func (m *StateReport) String() string { return proto.CompactTextString(m) }

// RouteReport is a route event.
type RouteReport struct {
	Ready     bool   `protobuf:"varint,1,opt,name=ready,proto3" json:"ready,omitempty"`
	Id        string `protobuf:"bytes,2,opt,name=id,proto3" json:"id,omitempty"`
	FromX     int32  `protobuf:"varint,3,opt,name=from_x,json=fromX,proto3" json:"from_x,omitempty"`
	FromY     int32  `protobuf:"varint,4,opt,name=from_y,json=fromY,proto3" json:"from_y,omitempty"`
	ToX       int32  `protobuf:"varint,5,opt,name=to_x,json=toX,proto3" json:"to_x,omitempty"`
	ToY       int32  `protobuf:"varint,6,opt,name=to_y,json=toY,proto3" json:"to_y,omitempty"`
	Waypoints uint32 `protobuf:"varint,7,opt,name=waypoints,proto3" json:"waypoints,omitempty"`
}

// NewRouteReport converts a route event.
func NewRouteReport(ev route.Event) *RouteReport {
	r := &RouteReport{Ready: ev.Type == route.EventReady}
	if rt := ev.Route; rt != nil {
		r.Id = rt.ID.String()
		r.FromX, r.FromY = rt.From.X, rt.From.Y
		r.ToX, r.ToY = rt.To.X, rt.To.Y
		r.Waypoints = uint32(len(rt.Points))
	}
	return r
}

// TypeID implements Serializable.
func (m *RouteReport) TypeID() uint32 { return RouteReportTypeID }

// ProtoMessage implements proto.Message.
func (m *RouteReport) ProtoMessage() {}

// Reset implements proto.Message.
func (m *RouteReport) Reset() { *m = RouteReport{} }

// String implements proto.Message.
func (m *RouteReport) String() string { return proto.CompactTextString(m) }
