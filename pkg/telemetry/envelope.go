// Package telemetry reports fixes, routes and state over MQTT and
// streams live fixes to websocket clients.
package telemetry

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/golang/protobuf/proto"
)

// Serializable is a message that can go into an Envelope.
type Serializable interface {
	proto.Message
	TypeID() uint32
}

// ErrUnknownType indicates an unknown type id.
type ErrUnknownType struct {
	TypeID uint32
}

// Error implements error.
func (e *ErrUnknownType) Error() string {
	return fmt.Sprintf("unknown type: %x", e.TypeID)
}

// ErrNotSerializable indicates the message has no type id.
var ErrNotSerializable = errors.New("not serializable message")

// MessageTypes maps type ids to message types.
var MessageTypes = map[uint32]reflect.Type{
	FixReportTypeID:   reflect.TypeOf(FixReport{}),
	StateReportTypeID: reflect.TypeOf(StateReport{}),
	RouteReportTypeID: reflect.TypeOf(RouteReport{}),
}

// Envelope wraps a message with its type and origin.
type Envelope struct {
	TypeId    uint32 `protobuf:"varint,1,opt,name=type_id,json=typeId,proto3" json:"type_id,omitempty"`
	Message   []byte `protobuf:"bytes,2,opt,name=message,proto3" json:"message,omitempty"`
	DeviceId  string `protobuf:"bytes,3,opt,name=device_id,json=deviceId,proto3" json:"device_id,omitempty"`
	Timestamp int64  `protobuf:"varint,4,opt,name=timestamp,proto3" json:"timestamp,omitempty"`
}

// ProtoMessage implements proto.Message.
func (m *Envelope) ProtoMessage() {}

// Reset implements proto.Message.
func (m *Envelope) Reset() { *m = Envelope{} }

// String implements proto.Message.
func (m *Envelope) String() string { return proto.CompactTextString(m) }

// Wrap creates an Envelope around msg.
func Wrap(msg proto.Message) (*Envelope, error) {
	s, ok := msg.(Serializable)
	if !ok {
		return nil, ErrNotSerializable
	}
	data, err := proto.Marshal(s)
	if err != nil {
		return nil, err
	}
	return &Envelope{TypeId: s.TypeID(), Message: data}, nil
}

// Decode decodes the wrapped message.
func (m *Envelope) Decode() (Serializable, error) {
	t, ok := MessageTypes[m.TypeId]
	if !ok {
		return nil, &ErrUnknownType{TypeID: m.TypeId}
	}
	msg := reflect.New(t).Interface().(Serializable)
	if err := proto.Unmarshal(m.Message, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

// Encode encodes the Envelope to bytes.
func (m *Envelope) Encode() ([]byte, error) {
	return proto.Marshal(m)
}

// DecodeEnvelope decodes bytes into an Envelope.
func DecodeEnvelope(data []byte) (*Envelope, error) {
	var env Envelope
	if err := proto.Unmarshal(data, &env); err != nil {
		return nil, err
	}
	return &env, nil
}
