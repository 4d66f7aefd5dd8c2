package nmea

import "strconv"

// FixQuality is the GGA fix quality indicator.
type FixQuality int

const (
	QualityInvalid FixQuality = 0 // no fix
	QualityGPS     FixQuality = 1 // GPS fix
	QualityDGPS    FixQuality = 2 // differential GPS fix
)

func (q FixQuality) String() string {
	switch q {
	case QualityInvalid:
		return "invalid"
	case QualityGPS:
		return "gps"
	case QualityDGPS:
		return "dgps"
	default:
		return "reserved(" + strconv.Itoa(int(q)) + ")"
	}
}

// QualityLegend is printed next to raw quality values in human readable reports.
const QualityLegend = "(0:invalid, 1:GPS fix, 2:DGPS fix)"
