package gps

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/plotter.go/pkg/mapdata"
)

func TestParseRMC(t *testing.T) {
	testCases := []struct {
		name    string
		line    string
		lat     float64
		lon     float64
		speed   int
		heading int
		err     string
	}{
		{"classic", "$GPRMC,123519,A,4807.038,N,01131.000,E,022.4,084.4,230394,003.1,W*6A", 48.1173, 11.516667, 22, 84, ""},
		{"no checksum", "$GNRMC,081836,A,5921.000,N,01742.000,E,5.0,359.6,130998,,", 59.35, 17.7, 5, 0, ""},
		{"south west", "$GPRMC,000000,A,3351.000,S,15112.000,W,0.0,,010120,,", -33.85, -151.2, 0, 0, ""},
		{"bad checksum", "$GPRMC,123519,A,4807.038,N,01131.000,E,022.4,084.4,230394,003.1,W*00", 0, 0, 0, 0, "checksum mismatch"},
		{"not rmc", "$GPGGA,123519,4807.038,N,01131.000,E,1,08,0.9,545.4,M,46.9,M,,", 0, 0, 0, 0, "not an RMC sentence"},
		{"no dollar", "GPRMC,123519", 0, 0, 0, 0, "not a sentence"},
		{"bad hemisphere", "$GPRMC,123519,A,4807.038,X,01131.000,E,0,0,230394,,", 0, 0, 0, 0, "bad hemisphere"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			fix, err := ParseRMC(tc.line)
			if tc.err != "" {
				require.Error(t, err)
				require.Contains(t, err.Error(), tc.err)
				return
			}
			require.NoError(t, err)
			require.InDelta(t, tc.lat, fix.Position.Latitude, 1e-4)
			require.InDelta(t, tc.lon, fix.Position.Longitude, 1e-4)
			require.Equal(t, tc.speed, fix.Speed)
			require.Equal(t, tc.heading, fix.Heading)
		})
	}

	_, err := ParseRMC("$GPRMC,123519,V,,,,,,,230394,,")
	require.Equal(t, ErrNoFix, err)
}

func TestFormatRMCRoundTrip(t *testing.T) {
	ts := time.Date(2024, 6, 1, 12, 30, 45, 0, time.UTC)
	line := FormatRMC(ts, mapdata.Position{Latitude: 59.363773, Longitude: 17.725971}, 12, 270)
	fix, err := ParseRMC(line)
	require.NoError(t, err)
	require.InDelta(t, 59.363773, fix.Position.Latitude, 1e-5)
	require.InDelta(t, 17.725971, fix.Position.Longitude, 1e-5)
	require.Equal(t, 12, fix.Speed)
	require.Equal(t, 270, fix.Heading)
	require.True(t, ts.Equal(fix.Time))
}

func TestNMEASourceKeepsLatest(t *testing.T) {
	input := strings.Join([]string{
		"$GPGSV,3,1,11,03,03,111,00*74",
		FormatRMC(time.Now(), mapdata.Position{Latitude: 10, Longitude: 20}, 1, 10),
		"$GPRMC,123519,V,,,,,,,230394,,",
		FormatRMC(time.Now(), mapdata.Position{Latitude: 11, Longitude: 21}, 2, 20),
	}, "\r\n") + "\r\n"
	src := NewNMEASource(io.NopCloser(strings.NewReader(input)))
	defer src.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	<-src.doneCh
	fix, err := src.WaitForFix(ctx, nil)
	require.NoError(t, err)
	require.InDelta(t, 11, fix.Position.Latitude, 1e-5)
	require.Equal(t, 2, fix.Speed)

	_, err = src.WaitForFix(ctx, nil)
	require.Equal(t, io.EOF, err)
}

func TestNMEASourceHonorsContext(t *testing.T) {
	rd, wr := io.Pipe()
	defer wr.Close()
	src := NewNMEASource(rd)
	defer src.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := src.WaitForFix(ctx, nil)
	require.Equal(t, context.DeadlineExceeded, err)
}
