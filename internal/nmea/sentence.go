// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package nmea classifies and parses the NMEA 0183 fix-data (GGA) sentences
// delivered by the GPS receiver and converts their coordinates to decimal degrees.
//
// Checksums are not validated: a sentence is accepted on its prefix and field layout.
package nmea

import (
	"errors"
	"strings"
	"unicode/utf8"

	gonmea "github.com/adrianmo/go-nmea"
)

// ErrDecode is returned by Decode when the raw bytes are not valid text.
var ErrDecode = errors.New("nmea: line is not valid UTF-8")

// fixTalkers are the talker IDs whose GGA sentences are accepted:
// GN (multi-constellation) and GP (GPS only).
var fixTalkers = []string{"GN", "GP"}

// Sentence is a decoded, trimmed line that carries a recognised fix-data prefix.
type Sentence struct {
	Raw    string // full trimmed line, e.g. "$GNGGA,123519,..."
	Talker string // "GN" or "GP"
	Type   string // always gonmea.TypeGGA for now
}

// Decode turns a raw transport line into trimmed text.
func Decode(raw []byte) (string, error) {
	if !utf8.Valid(raw) {
		return "", ErrDecode
	}
	return strings.TrimSpace(string(raw)), nil
}

// Classify reports whether line starts with one of the fix-data prefixes
// ($GNGGA, $GPGGA). Every other sentence type is simply not ours.
func Classify(line string) (Sentence, bool) {
	for _, talker := range fixTalkers {
		prefix := "$" + talker + gonmea.TypeGGA
		if strings.HasPrefix(line, prefix) {
			return Sentence{Raw: line, Talker: talker, Type: gonmea.TypeGGA}, true
		}
	}
	return Sentence{}, false
}
