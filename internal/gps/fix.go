// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package gps

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/relabs-tech/gps_logger/internal/nmea"
)

// Fix is one position fix assembled from a GGA sentence.
// It is built once, handed to the sinks and then dropped.
type Fix struct {
	Timestamp time.Time // wall clock at assembly, not the satellite time

	Latitude   float64 // decimal degrees, negative south
	Longitude  float64 // decimal degrees, negative west
	Altitude   float64 // meters
	Satellites int
	Quality    nmea.FixQuality
	HDOP       float64

	// display only
	UTCTime       string
	LatHemisphere string
	LonHemisphere string
	AltitudeUnit  string
}

// Assemble converts the coordinates of g and builds a Fix stamped with now.
// ok is false while the receiver has no position (either coordinate missing or malformed).
func Assemble(g nmea.GGA, now time.Time) (Fix, bool) {
	lat, latOK := nmea.ConvertCoordinate(g.LatitudeRaw, g.LatHemisphere)
	lon, lonOK := nmea.ConvertCoordinate(g.LongitudeRaw, g.LonHemisphere)
	if !latOK || !lonOK {
		return Fix{}, false
	}

	return Fix{
		Timestamp:     now,
		Latitude:      lat,
		Longitude:     lon,
		Altitude:      g.Altitude,
		Satellites:    g.Satellites,
		Quality:       g.Quality,
		HDOP:          g.HDOP,
		UTCTime:       g.UTCTime,
		LatHemisphere: g.LatHemisphere,
		LonHemisphere: g.LonHemisphere,
		AltitudeUnit:  g.AltitudeUnit,
	}, true
}

// UnixSeconds returns t as fractional seconds since the epoch.
func UnixSeconds(t time.Time) float64 {
	return float64(t.Unix()) + float64(t.Nanosecond())/1e9
}

func round(x float64, places int) float64 {
	p := math.Pow10(places)
	return math.Round(x*p) / p
}

// Report is the multi-line human readable summary of a fix.
func (f Fix) Report() string {
	var b strings.Builder
	fmt.Fprintf(&b, "time(UTC): %s\n", nmea.FormatUTC(f.UTCTime))
	fmt.Fprintf(&b, "latitude: %.6f %s\n", f.Latitude, f.LatHemisphere)
	fmt.Fprintf(&b, "longitude: %.6f %s\n", f.Longitude, f.LonHemisphere)
	fmt.Fprintf(&b, "altitude: %.1f %s\n", f.Altitude, f.AltitudeUnit)
	fmt.Fprintf(&b, "satellites: %d\n", f.Satellites)
	fmt.Fprintf(&b, "HDOP: %.1f\n", f.HDOP)
	fmt.Fprintf(&b, "quality: %d %s", int(f.Quality), nmea.QualityLegend)
	return b.String()
}

// WaitingReport is printed instead of a fix while the receiver is still acquiring satellites.
func WaitingReport(g nmea.GGA) string {
	return "waiting for satellite fix (latitude/longitude not available)\n" +
		"satellites: " + strconv.Itoa(g.Satellites) + "\n" +
		"quality: " + strconv.Itoa(int(g.Quality)) + " " + nmea.QualityLegend
}
