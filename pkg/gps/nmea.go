package gps

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/golang/glog"
	"go.bug.st/serial"

	fx "github.com/robotalks/plotter.go/pkg/framework"
	"github.com/robotalks/plotter.go/pkg/mapdata"
)

// DefaultBaudRate is the usual NMEA receiver speed.
const DefaultBaudRate = 9600

// ParseRMC parses a $GPRMC/$GNRMC sentence. A sentence flagged void
// returns ErrNoFix.
func ParseRMC(line string) (Fix, error) {
	var fix Fix
	body, err := checkSentence(line)
	if err != nil {
		return fix, err
	}
	x := strings.Split(body, ",")
	if len(x) < 10 || len(x[0]) != 5 || x[0][2:] != "RMC" {
		return fix, fmt.Errorf("not an RMC sentence: %q", line)
	}
	if x[2] != "A" {
		return fix, ErrNoFix
	}
	if fix.Position.Latitude, err = parseCoordinate(x[3], x[4], 2); err != nil {
		return fix, err
	}
	if fix.Position.Longitude, err = parseCoordinate(x[5], x[6], 3); err != nil {
		return fix, err
	}
	if x[7] != "" {
		speed, err := strconv.ParseFloat(x[7], 64)
		if err != nil {
			return fix, fmt.Errorf("speed: %v", err)
		}
		fix.Speed = int(math.Round(speed))
	}
	if x[8] != "" {
		course, err := strconv.ParseFloat(x[8], 64)
		if err != nil {
			return fix, fmt.Errorf("course: %v", err)
		}
		fix.Heading = int(math.Round(course)) % 360
	}
	if t, err := time.Parse("020106150405", x[9]+strings.SplitN(x[1], ".", 2)[0]); err == nil {
		fix.Time = t
	}
	return fix, nil
}

// checkSentence validates framing and the optional checksum and returns
// the text between '$' and '*'.
func checkSentence(line string) (string, error) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "$") {
		return "", fmt.Errorf("not a sentence: %q", line)
	}
	body := line[1:]
	if star := strings.LastIndexByte(body, '*'); star >= 0 {
		sum, err := strconv.ParseUint(body[star+1:], 16, 8)
		if err != nil {
			return "", fmt.Errorf("checksum: %v", err)
		}
		body = body[:star]
		var calc byte
		for i := 0; i < len(body); i++ {
			calc ^= body[i]
		}
		if byte(sum) != calc {
			return "", fmt.Errorf("checksum mismatch: %02X != %02X", sum, calc)
		}
	}
	return body, nil
}

// parseCoordinate parses (d)ddmm.mmmm with a hemisphere letter.
func parseCoordinate(value, hemi string, degDigits int) (float64, error) {
	if len(value) < degDigits+2 {
		return 0, fmt.Errorf("bad coordinate %q", value)
	}
	deg, err := strconv.Atoi(value[:degDigits])
	if err != nil {
		return 0, fmt.Errorf("bad coordinate %q", value)
	}
	minutes, err := strconv.ParseFloat(value[degDigits:], 64)
	if err != nil {
		return 0, fmt.Errorf("bad coordinate %q", value)
	}
	v := float64(deg) + minutes/60
	switch hemi {
	case "N", "E":
	case "S", "W":
		v = -v
	default:
		return 0, fmt.Errorf("bad hemisphere %q", hemi)
	}
	return v, nil
}

// NMEASource reads RMC sentences from a stream, typically a serial
// device. Only the latest fix is kept.
type NMEASource struct {
	rd     io.ReadCloser
	fixCh  chan Fix
	doneCh chan struct{}
	once   sync.Once
	err    error
}

// OpenSerial opens an NMEA receiver on a serial port.
func OpenSerial(portName string, baudRate int) (*NMEASource, error) {
	if baudRate <= 0 {
		baudRate = DefaultBaudRate
	}
	port, err := serial.Open(portName, &serial.Mode{BaudRate: baudRate})
	if err != nil {
		return nil, fmt.Errorf("open %s: %v", portName, err)
	}
	glog.Infof("gps: %s opened at %d baud", portName, baudRate)
	return NewNMEASource(port), nil
}

// ListSerialPorts lists serial ports available for OpenSerial.
func ListSerialPorts() ([]string, error) {
	return serial.GetPortsList()
}

// NewNMEASource starts reading rd.
func NewNMEASource(rd io.ReadCloser) *NMEASource {
	s := &NMEASource{
		rd:     rd,
		fixCh:  make(chan Fix, 1),
		doneCh: make(chan struct{}),
	}
	go s.readLoop()
	return s
}

func (s *NMEASource) readLoop() {
	defer close(s.doneCh)
	scanner := bufio.NewScanner(s.rd)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.Contains(line, "RMC,") {
			continue
		}
		fix, err := ParseRMC(line)
		if err != nil {
			if err != ErrNoFix {
				glog.V(3).Infof("gps: %v", err)
			}
			continue
		}
		// keep only the newest fix
		select {
		case <-s.fixCh:
		default:
		}
		s.fixCh <- fix
	}
	s.err = scanner.Err()
	if s.err == nil {
		s.err = io.EOF
	}
}

// WaitForFix implements Source.
func (s *NMEASource) WaitForFix(ctx context.Context, wake *fx.WakeSignal) (Fix, error) {
	select {
	case fix := <-s.fixCh:
		return fix, nil
	case <-s.doneCh:
		// drain what was read before the stream ended
		select {
		case fix := <-s.fixCh:
			return fix, nil
		default:
		}
		return Fix{}, s.err
	case <-ctx.Done():
		return Fix{}, ctx.Err()
	}
}

// Close closes the underlying stream.
func (s *NMEASource) Close() error {
	var err error
	s.once.Do(func() { err = s.rd.Close() })
	return err
}

// FormatRMC produces an RMC sentence for pos, used by tools feeding
// simulated receivers.
func FormatRMC(t time.Time, pos mapdata.Position, speed, heading int) string {
	lat, latH := splitCoordinate(pos.Latitude, "N", "S")
	lon, lonH := splitCoordinate(pos.Longitude, "E", "W")
	body := fmt.Sprintf("GPRMC,%s.00,A,%02d%07.4f,%s,%03d%07.4f,%s,%.1f,%.1f,%s,,",
		t.UTC().Format("150405"),
		int(lat), (lat-math.Floor(lat))*60, latH,
		int(lon), (lon-math.Floor(lon))*60, lonH,
		float64(speed), float64(heading),
		t.UTC().Format("020106"))
	var sum byte
	for i := 0; i < len(body); i++ {
		sum ^= body[i]
	}
	return fmt.Sprintf("$%s*%02X", body, sum)
}

func splitCoordinate(v float64, pos, neg string) (float64, string) {
	if v < 0 {
		return -v, neg
	}
	return v, pos
}
