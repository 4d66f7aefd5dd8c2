package gps

import (
	"strconv"
	"strings"
)

// MessageType tags fix messages on stdout and on the message buses.
const MessageType = "gps"

// Message is the JSON form of a fix consumed by dashboards and subscribers.
type Message struct {
	Type          string  `json:"type"`
	Latitude      float64 `json:"latitude"`
	Longitude     float64 `json:"longitude"`
	Timestamp     Seconds `json:"timestamp"`
	Altitude      float64 `json:"altitude"`
	NumSatellites int     `json:"num_satellites"`
	GPSQuality    int     `json:"gps_quality"`
	HDOP          float64 `json:"hdop"`
}

// Seconds is a unix time in seconds. It is always written with a fractional
// part, so a whole second reads 1700000000.0.
type Seconds float64

func (s Seconds) String() string {
	v := strconv.FormatFloat(float64(s), 'f', -1, 64)
	if !strings.Contains(v, ".") {
		v += ".0"
	}
	return v
}

func (s Seconds) MarshalJSON() ([]byte, error) {
	return []byte(s.String()), nil
}

// NewMessage rounds coordinates to 6 decimals and altitude/HDOP to 1.
func NewMessage(f Fix) Message {
	return Message{
		Type:          MessageType,
		Latitude:      round(f.Latitude, 6),
		Longitude:     round(f.Longitude, 6),
		Timestamp:     Seconds(UnixSeconds(f.Timestamp)),
		Altitude:      round(f.Altitude, 1),
		NumSatellites: f.Satellites,
		GPSQuality:    int(f.Quality),
		HDOP:          round(f.HDOP, 1),
	}
}

// CSVHeader is the header row of the fix log.
var CSVHeader = []string{"Timestamp", "Latitude", "Longitude", "Altitude", "Satellites", "GPS_Quality", "HDOP"}

// CSVRecord formats f as one fix log row, in CSVHeader order.
func CSVRecord(f Fix) []string {
	return []string{
		Seconds(UnixSeconds(f.Timestamp)).String(),
		strconv.FormatFloat(f.Latitude, 'f', 6, 64),
		strconv.FormatFloat(f.Longitude, 'f', 6, 64),
		strconv.FormatFloat(f.Altitude, 'f', 1, 64),
		strconv.Itoa(f.Satellites),
		strconv.Itoa(int(f.Quality)),
		strconv.FormatFloat(f.HDOP, 'f', 1, 64),
	}
}
