package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// clearEnv unsets every config key for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range keys {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gps_config.txt")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.GPSSource != SourceSerial {
		t.Errorf("GPSSource = %q, want %q", cfg.GPSSource, SourceSerial)
	}
	if cfg.GPSBaudRate != 115200 {
		t.Errorf("GPSBaudRate = %d, want 115200", cfg.GPSBaudRate)
	}
	if cfg.ReadTimeout() != 100*time.Millisecond {
		t.Errorf("ReadTimeout() = %v, want 100ms", cfg.ReadTimeout())
	}
	if cfg.PollInterval() != 100*time.Millisecond {
		t.Errorf("PollInterval() = %v, want 100ms", cfg.PollInterval())
	}
	if !cfg.SerialOutput || !cfg.RecordToCSV {
		t.Errorf("SerialOutput=%v RecordToCSV=%v, want both on", cfg.SerialOutput, cfg.RecordToCSV)
	}
	if cfg.CSVFilename != "gps_log.csv" {
		t.Errorf("CSVFilename = %q, want gps_log.csv", cfg.CSVFilename)
	}
	if cfg.TopicGPS != "inertial/gps" {
		t.Errorf("TopicGPS = %q, want inertial/gps", cfg.TopicGPS)
	}
	if cfg.RedisTTL() != time.Minute {
		t.Errorf("RedisTTL() = %v, want 1m", cfg.RedisTTL())
	}
	if cfg.MQTTBroker != "" || cfg.NATSURL != "" || cfg.RedisAddr != "" {
		t.Errorf("network sinks should be off by default: %+v", cfg)
	}
}

func TestLoad_File(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `# GPS receiver
GPS_SOURCE=file
GPS_REPLAY_FILE=capture.nmea
GPS_POLL_INTERVAL_MS=250

# Output
SERIAL_OUTPUT=false
CSV_FILENAME=track.csv

MQTT_BROKER=tcp://localhost:1883
TOPIC_GPS=rover/gps
REDIS_ADDR=localhost:6379
REDIS_TTL_SECONDS=5
MOCK_FIX_AFTER=0
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.GPSSource != SourceFile || cfg.GPSReplayFile != "capture.nmea" {
		t.Errorf("source = %q %q, want file capture.nmea", cfg.GPSSource, cfg.GPSReplayFile)
	}
	if cfg.PollInterval() != 250*time.Millisecond {
		t.Errorf("PollInterval() = %v, want 250ms", cfg.PollInterval())
	}
	if cfg.SerialOutput {
		t.Error("SerialOutput = true, want false")
	}
	if cfg.CSVFilename != "track.csv" {
		t.Errorf("CSVFilename = %q, want track.csv", cfg.CSVFilename)
	}
	if cfg.MQTTBroker != "tcp://localhost:1883" || cfg.TopicGPS != "rover/gps" {
		t.Errorf("mqtt = %q %q", cfg.MQTTBroker, cfg.TopicGPS)
	}
	if cfg.RedisTTL() != 5*time.Second {
		t.Errorf("RedisTTL() = %v, want 5s", cfg.RedisTTL())
	}
	if cfg.MockFixAfter != 0 {
		t.Errorf("MockFixAfter = %d, want 0", cfg.MockFixAfter)
	}
}

func TestLoad_EnvironmentOverridesFile(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "GPS_SOURCE=serial\nGPS_SERIAL_PORT=/dev/ttyAMA0\nCSV_FILENAME=file.csv\n")
	t.Setenv("GPS_SOURCE", "mock")
	t.Setenv("CSV_FILENAME", "env.csv")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.GPSSource != SourceMock {
		t.Errorf("GPSSource = %q, want mock", cfg.GPSSource)
	}
	if cfg.CSVFilename != "env.csv" {
		t.Errorf("CSVFilename = %q, want env.csv", cfg.CSVFilename)
	}
	if cfg.GPSSerialPort != "/dev/ttyAMA0" {
		t.Errorf("GPSSerialPort = %q, want /dev/ttyAMA0", cfg.GPSSerialPort)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	clearEnv(t)
	if _, err := Load(filepath.Join(t.TempDir(), "absent.txt")); err == nil {
		t.Fatal("Load() should fail for a missing file")
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"unknown key", "GPS_SPEED=1\n", "unknown config key"},
		{"bad baud", "GPS_BAUD_RATE=fast\n", "GPS_BAUD_RATE"},
		{"zero baud", "GPS_BAUD_RATE=0\n", "must be at least 1"},
		{"bad bool", "RECORD_TO_CSV=maybe\n", "RECORD_TO_CSV"},
		{"negative ttl", "REDIS_TTL_SECONDS=-1\n", "REDIS_TTL_SECONDS"},
		{"latitude out of range", "MOCK_LATITUDE=91\n", "MOCK_LATITUDE"},
		{"unknown source", "GPS_SOURCE=usb\n", "GPS_SOURCE must be one of"},
		{"file without path", "GPS_SOURCE=file\n", "GPS_REPLAY_FILE is required"},
		{"serial without port", "GPS_SERIAL_PORT=\n", "GPS_SERIAL_PORT is required"},
		{"csv without name", "CSV_FILENAME=\n", "CSV_FILENAME is required"},
		{"mqtt without topic", "MQTT_BROKER=tcp://b:1883\nTOPIC_GPS=\n", "TOPIC_GPS is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			_, err := Load(writeConfig(t, tt.content))
			if err == nil {
				t.Fatalf("Load() should have failed")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Load() error = %q, want it to contain %q", err, tt.want)
			}
		})
	}
}
