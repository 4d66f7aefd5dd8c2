// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package transport

import (
	"fmt"
	"math"
	"time"

	gonmea "github.com/adrianmo/go-nmea"
)

// MockOptions configures the simulated receiver.
type MockOptions struct {
	Latitude  float64 // decimal degrees, start position
	Longitude float64
	Altitude  float64

	// FixAfter is the number of GGA sentences sent without a position
	// before the receiver reports a fix.
	FixAfter int

	Now func() time.Time
}

// MockSource simulates a receiver on the bench: once per cycle it sends a GGA
// sentence followed by RMC and GSV traffic, then has nothing to read.
type MockSource struct {
	opts  MockOptions
	step  int
	epoch int
}

// NewMockSource creates a receiver that slowly walks north-east from the start position.
func NewMockSource(opts MockOptions) *MockSource {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &MockSource{opts: opts}
}

func (m *MockSource) ReadLine() ([]byte, error) {
	defer func() { m.step = (m.step + 1) % 4 }()

	now := m.opts.Now().UTC()
	switch m.step {
	case 0:
		line := m.gga(now)
		m.epoch++
		return []byte(line), nil
	case 1:
		return []byte(sentence(fmt.Sprintf("GNRMC,%s,V,,,,,,,%s,,,N", utcField(now), now.Format("020106")))), nil
	case 2:
		return []byte(sentence("GPGSV,1,1,04,03,45,111,38,06,30,010,35,13,60,292,40,19,12,180,28")), nil
	default:
		return nil, ErrNoData
	}
}

func (m *MockSource) Close() error { return nil }

func (m *MockSource) gga(now time.Time) string {
	if m.epoch < m.opts.FixAfter {
		return sentence(fmt.Sprintf("GNGGA,%s,,,,,0,%02d,,,,,,,", utcField(now), m.epoch))
	}

	drift := float64(m.epoch-m.opts.FixAfter) * 0.00001
	lat := m.opts.Latitude + drift
	lon := m.opts.Longitude + drift

	return sentence(fmt.Sprintf("GNGGA,%s,%s,%s,%s,%s,1,08,0.9,%.1f,M,46.9,M,,",
		utcField(now),
		formatDM(lat, 2), hemisphere(lat, "N", "S"),
		formatDM(lon, 3), hemisphere(lon, "E", "W"),
		m.opts.Altitude,
	))
}

// sentence frames an NMEA body with '$' and its checksum.
func sentence(body string) string {
	return "$" + body + "*" + gonmea.Checksum(body)
}

func utcField(t time.Time) string {
	return t.Format("150405") + ".00"
}

func hemisphere(v float64, pos, neg string) string {
	if v < 0 {
		return neg
	}
	return pos
}

// formatDM renders |v| as degrees and minutes with five minute decimals,
// e.g. 48.1173 -> "4807.03800", 11.516667 -> "01131.00002".
func formatDM(v float64, degDigits int) string {
	const unitsPerMinute = 100000
	total := int64(math.Round(math.Abs(v) * 60 * unitsPerMinute))
	deg := total / (60 * unitsPerMinute)
	rem := total % (60 * unitsPerMinute)
	return fmt.Sprintf("%0*d%02d.%05d", degDigits, deg, rem/unitsPerMinute, rem%unitsPerMinute)
}
