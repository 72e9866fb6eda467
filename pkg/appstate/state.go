// Package appstate distributes the shared application state.
//
// There is one canonical State per Distributor. Workers read it either
// through a Transaction (a private copy committed back under the
// distributor's mutex) or through CheckoutReadonly (a lock-free
// snapshot). Listeners are woken only by commits that change something.
package appstate

import (
	"fmt"
	"strings"

	"github.com/robotalks/plotter.go/pkg/mapdata"
)

// MaxStoredPositions bounds the stored-position ring.
const MaxStoredPositions = 4

// State is the application state snapshot. It is a plain value and
// compares with ==.
type State struct {
	DemoMode           bool
	GPSConnected       bool
	BluetoothConnected bool
	// ShowSpeedometer is a display preference.
	ShowSpeedometer bool

	HomePosition    mapdata.Index
	StoredPositions PositionRing
}

// DefaultState is the state at boot.
func DefaultState() State {
	return State{ShowSpeedometer: true}
}

// String implements fmt.Stringer.
func (s State) String() string {
	var flags []string
	for _, f := range []struct {
		name string
		on   bool
	}{
		{"demo", s.DemoMode},
		{"gps", s.GPSConnected},
		{"bt", s.BluetoothConnected},
		{"speedo", s.ShowSpeedometer},
	} {
		if f.on {
			flags = append(flags, f.name)
		}
	}
	return fmt.Sprintf("[%s] home=%d stored=%v", strings.Join(flags, ","), s.HomePosition, s.StoredPositions.Slice())
}

// PositionRing keeps the most recent MaxStoredPositions positions in
// insertion order. Unused entries stay zero so == works on the ring.
type PositionRing struct {
	entries [MaxStoredPositions]mapdata.Index
	count   int
}

// Push appends i, evicting the oldest entry when full.
func (r *PositionRing) Push(i mapdata.Index) {
	if r.count == MaxStoredPositions {
		copy(r.entries[:], r.entries[1:])
		r.count--
	}
	r.entries[r.count] = i
	r.count++
}

// Len returns the number of entries.
func (r PositionRing) Len() int {
	return r.count
}

// At returns entry n, 0 being the oldest.
func (r PositionRing) At(n int) mapdata.Index {
	if n < 0 || n >= r.count {
		panic(fmt.Sprintf("position ring: index %d out of range [0,%d)", n, r.count))
	}
	return r.entries[n]
}

// Slice copies the entries, oldest first.
func (r PositionRing) Slice() []mapdata.Index {
	return append([]mapdata.Index(nil), r.entries[:r.count]...)
}

// Clear removes all entries.
func (r *PositionRing) Clear() {
	*r = PositionRing{}
}

// RingOf builds a ring from positions, keeping only the newest
// MaxStoredPositions.
func RingOf(positions ...mapdata.Index) PositionRing {
	var r PositionRing
	for _, p := range positions {
		r.Push(p)
	}
	return r
}
