package transport

import (
	"fmt"
	"os"
	"time"

	serial "github.com/jacobsa/go-serial/serial"
)

// SerialOptions selects the receiver's UART.
type SerialOptions struct {
	PortName    string // /dev/serial0, /dev/ttyAMA0, /dev/ttyUSB0, ...
	BaudRate    uint
	ReadTimeout time.Duration // rounded to 100 ms by the tty driver
}

// OpenSerial opens the port 8N1. Reads return after ReadTimeout without data,
// so the caller regains control regularly.
func OpenSerial(o SerialOptions) (*StreamReader, error) {
	timeout := uint(o.ReadTimeout / time.Millisecond)
	if timeout < 100 {
		timeout = 100
	}
	opts := serial.OpenOptions{
		PortName:              o.PortName,
		BaudRate:              o.BaudRate,
		DataBits:              8,
		StopBits:              1,
		MinimumReadSize:       0,
		ParityMode:            serial.PARITY_NONE,
		InterCharacterTimeout: timeout / 100 * 100,
	}

	port, err := serial.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", o.PortName, err)
	}
	return NewPollingLineReader(port), nil
}

// OpenFile replays a recorded NMEA capture.
func OpenFile(path string) (*StreamReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open capture %s: %w", path, err)
	}
	return NewLineReader(f), nil
}
