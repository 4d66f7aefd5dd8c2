package config

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// GPS sources.
const (
	SourceSerial = "serial"
	SourceFile   = "file"
	SourceMock   = "mock"
)

// Config holds all application configuration values.
type Config struct {
	// GPS receiver
	GPSSource       string // "serial", "file" or "mock"
	GPSSerialPort   string
	GPSBaudRate     int
	GPSReadTimeout  int // milliseconds
	GPSReplayFile   string
	GPSPollInterval int // milliseconds

	// Output
	SerialOutput bool // JSON fix messages on stdout
	RecordToCSV  bool
	CSVFilename  string

	// MQTT
	MQTTBroker          string
	MQTTClientIDGPS     string
	MQTTClientIDConsole string
	MQTTClientIDWeb     string
	TopicGPS            string

	// NATS
	NATSURL        string
	NATSSubjectGPS string

	// Redis
	RedisAddr       string
	RedisKeyGPS     string
	RedisTTLSeconds int

	// HTTP
	MetricsAddr   string
	WebServerPort int

	// Simulated receiver
	MockLatitude  float64
	MockLongitude float64
	MockAltitude  float64
	MockFixAfter  int
}

// keys lists every configuration key; each may also be set from the environment.
var keys = []string{
	"GPS_SOURCE", "GPS_SERIAL_PORT", "GPS_BAUD_RATE", "GPS_READ_TIMEOUT_MS", "GPS_REPLAY_FILE", "GPS_POLL_INTERVAL_MS",
	"SERIAL_OUTPUT", "RECORD_TO_CSV", "CSV_FILENAME",
	"MQTT_BROKER", "MQTT_CLIENT_ID_GPS", "MQTT_CLIENT_ID_CONSOLE", "MQTT_CLIENT_ID_WEB", "TOPIC_GPS",
	"NATS_URL", "NATS_SUBJECT_GPS",
	"REDIS_ADDR", "REDIS_KEY_GPS", "REDIS_TTL_SECONDS",
	"METRICS_ADDR", "WEB_SERVER_PORT",
	"MOCK_LATITUDE", "MOCK_LONGITUDE", "MOCK_ALTITUDE", "MOCK_FIX_AFTER",
}

// Default returns the configuration used for keys that are not set.
func Default() *Config {
	return &Config{
		GPSSource:       SourceSerial,
		GPSSerialPort:   "/dev/serial0",
		GPSBaudRate:     115200,
		GPSReadTimeout:  100,
		GPSPollInterval: 100,

		SerialOutput: true,
		RecordToCSV:  true,
		CSVFilename:  "gps_log.csv",

		MQTTClientIDGPS:     "inertial-gps-producer",
		MQTTClientIDConsole: "inertial-console-subscriber",
		MQTTClientIDWeb:     "inertial-web-subscriber",
		TopicGPS:            "inertial/gps",

		NATSSubjectGPS: "gps.fix",

		RedisKeyGPS:     "gps:latest",
		RedisTTLSeconds: 60,

		WebServerPort: 8080,

		MockLatitude:  48.1173,
		MockLongitude: 11.516667,
		MockAltitude:  545.4,
		MockFixAfter:  3,
	}
}

// Load reads KEY=VALUE pairs from configPath on top of the defaults.
// Environment variables with the same names take precedence over the file.
// An empty configPath uses the defaults and the environment only.
func Load(configPath string) (*Config, error) {
	values := map[string]string{}
	if configPath != "" {
		var err error
		values, err = godotenv.Read(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}
	for _, key := range keys {
		if v, ok := os.LookupEnv(key); ok {
			values[key] = v
		}
	}

	names := make([]string, 0, len(values))
	for k := range values {
		names = append(names, k)
	}
	sort.Strings(names)

	cfg := Default()
	for _, key := range names {
		if err := cfg.setValue(key, strings.TrimSpace(values[key])); err != nil {
			return nil, fmt.Errorf("config %s: %w", key, err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	var err error
	switch key {
	// GPS receiver
	case "GPS_SOURCE":
		c.GPSSource = strings.ToLower(value)
	case "GPS_SERIAL_PORT":
		c.GPSSerialPort = value
	case "GPS_BAUD_RATE":
		c.GPSBaudRate, err = parseInt(value, 1)
	case "GPS_READ_TIMEOUT_MS":
		c.GPSReadTimeout, err = parseInt(value, 0)
	case "GPS_REPLAY_FILE":
		c.GPSReplayFile = value
	case "GPS_POLL_INTERVAL_MS":
		c.GPSPollInterval, err = parseInt(value, 1)

	// Output
	case "SERIAL_OUTPUT":
		c.SerialOutput, err = strconv.ParseBool(value)
	case "RECORD_TO_CSV":
		c.RecordToCSV, err = strconv.ParseBool(value)
	case "CSV_FILENAME":
		c.CSVFilename = value

	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID_GPS":
		c.MQTTClientIDGPS = value
	case "MQTT_CLIENT_ID_CONSOLE":
		c.MQTTClientIDConsole = value
	case "MQTT_CLIENT_ID_WEB":
		c.MQTTClientIDWeb = value
	case "TOPIC_GPS":
		c.TopicGPS = value

	// NATS
	case "NATS_URL":
		c.NATSURL = value
	case "NATS_SUBJECT_GPS":
		c.NATSSubjectGPS = value

	// Redis
	case "REDIS_ADDR":
		c.RedisAddr = value
	case "REDIS_KEY_GPS":
		c.RedisKeyGPS = value
	case "REDIS_TTL_SECONDS":
		c.RedisTTLSeconds, err = parseInt(value, 0)

	// HTTP
	case "METRICS_ADDR":
		c.MetricsAddr = value
	case "WEB_SERVER_PORT":
		c.WebServerPort, err = parseInt(value, 1)

	// Simulated receiver
	case "MOCK_LATITUDE":
		c.MockLatitude, err = parseDegrees(value, 90)
	case "MOCK_LONGITUDE":
		c.MockLongitude, err = parseDegrees(value, 180)
	case "MOCK_ALTITUDE":
		c.MockAltitude, err = strconv.ParseFloat(value, 64)
	case "MOCK_FIX_AFTER":
		c.MockFixAfter, err = parseInt(value, 0)

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	if err != nil {
		return fmt.Errorf("invalid value %q: %w", value, err)
	}
	return nil
}

func parseInt(value string, min int) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}
	if n < min {
		return 0, fmt.Errorf("must be at least %d", min)
	}
	return n, nil
}

func parseDegrees(value string, limit float64) (float64, error) {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, err
	}
	if v < -limit || v > limit {
		return 0, fmt.Errorf("must be within ±%g", limit)
	}
	return v, nil
}

// validate checks that the fields required by the selected options are set.
func (c *Config) validate() error {
	switch c.GPSSource {
	case SourceSerial:
		if c.GPSSerialPort == "" {
			return fmt.Errorf("GPS_SERIAL_PORT is required")
		}
	case SourceFile:
		if c.GPSReplayFile == "" {
			return fmt.Errorf("GPS_REPLAY_FILE is required when GPS_SOURCE=file")
		}
	case SourceMock:
	default:
		return fmt.Errorf("GPS_SOURCE must be one of serial, file, mock, got %q", c.GPSSource)
	}
	if c.RecordToCSV && c.CSVFilename == "" {
		return fmt.Errorf("CSV_FILENAME is required when RECORD_TO_CSV is on")
	}
	if c.MQTTBroker != "" && c.TopicGPS == "" {
		return fmt.Errorf("TOPIC_GPS is required when MQTT_BROKER is set")
	}
	return nil
}

// PollInterval is the pause between receiver polls while no line is available.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.GPSPollInterval) * time.Millisecond
}

// ReadTimeout is the serial read timeout.
func (c *Config) ReadTimeout() time.Duration {
	return time.Duration(c.GPSReadTimeout) * time.Millisecond
}

// RedisTTL is the lifetime of the latest-fix key.
func (c *Config) RedisTTL() time.Duration {
	return time.Duration(c.RedisTTLSeconds) * time.Second
}
