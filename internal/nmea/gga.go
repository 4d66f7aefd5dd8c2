// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package nmea

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// MinGGAFields is the smallest field count of a well-formed GGA sentence.
const MinGGAFields = 15

var (
	// ErrIncomplete marks a GGA sentence with too few fields.
	ErrIncomplete = errors.New("nmea: incomplete sentence")
	// ErrField marks a GGA sentence with a field that failed numeric conversion.
	ErrField = errors.New("nmea: invalid field")
)

// GGA field positions.
//
//	0: $talker+GGA
//	1: UTC time (hhmmss.ss)
//	2: latitude (ddmm.mmmm)
//	3: N/S
//	4: longitude (dddmm.mmmm)
//	5: E/W
//	6: fix quality
//	7: number of satellites
//	8: HDOP
//	9: altitude
//	10: altitude unit (M)
const (
	fieldTime = iota + 1
	fieldLat
	fieldLatHemi
	fieldLon
	fieldLonHemi
	fieldQuality
	fieldSatellites
	fieldHDOP
	fieldAltitude
	fieldAltitudeUnit
)

// GGA holds the typed values extracted from one fix-data sentence.
// Coordinates are kept raw; see ConvertCoordinate.
type GGA struct {
	Raw string

	UTCTime       string
	LatitudeRaw   string
	LatHemisphere string
	LongitudeRaw  string
	LonHemisphere string

	Quality      FixQuality
	Satellites   int
	HDOP         float64
	Altitude     float64
	AltitudeUnit string
}

// IncompleteError is returned when a sentence has fewer than MinGGAFields fields.
type IncompleteError struct {
	Line   string
	Fields int
}

func (e *IncompleteError) Error() string {
	return fmt.Sprintf("incomplete GGA line (%d fields, want at least %d): %s", e.Fields, MinGGAFields, e.Line)
}

func (e *IncompleteError) Unwrap() error { return ErrIncomplete }

// FieldError is returned when a numeric field cannot be converted.
type FieldError struct {
	Field string
	Value string
	Line  string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("invalid %s %q: %v (line: %s)", e.Field, e.Value, e.Err, e.Line)
}

func (e *FieldError) Is(target error) bool { return target == ErrField }

func (e *FieldError) Unwrap() error { return e.Err }

// ParseGGA splits s into fields and extracts the fix-data values by position.
// Empty quality, satellite, HDOP and altitude fields default to zero.
func ParseGGA(s Sentence) (GGA, error) {
	f := strings.Split(s.Raw, ",")
	if len(f) < MinGGAFields {
		return GGA{}, &IncompleteError{Line: s.Raw, Fields: len(f)}
	}

	g := GGA{
		Raw:           s.Raw,
		UTCTime:       f[fieldTime],
		LatitudeRaw:   f[fieldLat],
		LatHemisphere: f[fieldLatHemi],
		LongitudeRaw:  f[fieldLon],
		LonHemisphere: f[fieldLonHemi],
		AltitudeUnit:  f[fieldAltitudeUnit],
	}

	q, err := parseCount("fix quality", f[fieldQuality], s.Raw)
	if err != nil {
		return GGA{}, err
	}
	g.Quality = FixQuality(q)

	if g.Satellites, err = parseCount("satellite count", f[fieldSatellites], s.Raw); err != nil {
		return GGA{}, err
	}
	if g.HDOP, err = parseDecimal("HDOP", f[fieldHDOP], s.Raw, false); err != nil {
		return GGA{}, err
	}
	if g.Altitude, err = parseDecimal("altitude", f[fieldAltitude], s.Raw, true); err != nil {
		return GGA{}, err
	}
	return g, nil
}

func parseCount(name, v, line string) (int, error) {
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, &FieldError{Field: name, Value: v, Line: line, Err: err}
	}
	if n < 0 {
		return 0, &FieldError{Field: name, Value: v, Line: line, Err: errors.New("must not be negative")}
	}
	return n, nil
}

// parseDecimal converts a float field. Altitude may be negative (below the geoid),
// dilution of precision may not.
func parseDecimal(name, v, line string, signed bool) (float64, error) {
	if v == "" {
		return 0, nil
	}
	x, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, &FieldError{Field: name, Value: v, Line: line, Err: err}
	}
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0, &FieldError{Field: name, Value: v, Line: line, Err: errors.New("not a finite number")}
	}
	if !signed && x < 0 {
		return 0, &FieldError{Field: name, Value: v, Line: line, Err: errors.New("must not be negative")}
	}
	return x, nil
}
