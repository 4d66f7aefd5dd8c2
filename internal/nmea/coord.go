package nmea

import (
	"math"
	"strconv"
	"strings"
)

// ConvertCoordinate converts an NMEA degrees-minutes magnitude and its hemisphere
// letter to signed decimal degrees. ok is false when either input is empty or the
// magnitude is malformed.
//
// Degrees and minutes are told apart by digit count only: with more than two digits
// before the decimal point the last two are whole minutes (ddmm / dddmm), otherwise
// the whole integer part is degrees and the fraction is read as "0.<fraction>" minutes.
func ConvertCoordinate(raw, hemisphere string) (deg float64, ok bool) {
	if raw == "" || hemisphere == "" {
		return 0, false
	}

	parts := strings.Split(raw, ".")
	if len(parts) != 2 {
		return 0, false
	}
	intPart, frac := parts[0], parts[1]

	degPart, minPart := intPart, "0"
	if len(intPart) > 2 {
		degPart = intPart[:len(intPart)-2]
		minPart = intPart[len(intPart)-2:]
	}
	if !unsignedDigits(degPart) || !unsignedDigits(minPart) || (frac != "" && !unsignedDigits(frac)) {
		return 0, false
	}

	degrees, err := strconv.ParseFloat(degPart, 64)
	if err != nil {
		return 0, false
	}
	minutes, err := strconv.ParseFloat(minPart+"."+frac, 64)
	if err != nil {
		return 0, false
	}

	value := degrees + minutes/60.0
	if math.IsNaN(value) || value < 0 || value > 180 {
		return 0, false
	}

	if hemisphere == "S" || hemisphere == "W" {
		value = -value
	}
	return value, true
}

func unsignedDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// FormatUTC renders an hhmmss[.ss] field as HH:MM:SS. Shorter values are returned unchanged.
func FormatUTC(s string) string {
	if len(s) < 6 {
		return s
	}
	return s[0:2] + ":" + s[2:4] + ":" + s[4:6]
}
