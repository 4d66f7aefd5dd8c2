// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package transport supplies raw NMEA lines from the GPS receiver: a serial
// port, a recorded capture file or a simulated receiver.
package transport

import (
	"bytes"
	"errors"
	"io"
)

// MaxLineLength bounds a single line. NMEA sentences are at most 82 characters,
// anything this long is line noise.
const MaxLineLength = 4096

var (
	// ErrNoData means no complete line is available yet; poll again later.
	ErrNoData = errors.New("transport: no complete line available")
	// ErrLineTooLong is returned once for an oversized line; reading resumes at the next newline.
	ErrLineTooLong = errors.New("transport: line too long")
)

// LineReader yields one raw line per call, without its terminator.
type LineReader interface {
	ReadLine() ([]byte, error)
}

// Source is a LineReader holding an underlying device or file.
type Source interface {
	LineReader
	io.Closer
}

// StreamReader splits a byte stream into lines, keeping partial lines across reads.
type StreamReader struct {
	r     io.Reader
	chunk []byte
	buf   []byte

	// idleEOF treats io.EOF as "nothing to read right now", the way a serial
	// port with a read timeout reports an empty read.
	idleEOF    bool
	eof        bool
	discarding bool
}

// NewLineReader reads lines from a finite stream; a trailing unterminated line is
// returned at EOF, then io.EOF.
func NewLineReader(r io.Reader) *StreamReader {
	return &StreamReader{r: r, chunk: make([]byte, 256)}
}

// NewPollingLineReader reads lines from a device whose reads time out with
// (0, io.EOF). Such reads surface as ErrNoData.
func NewPollingLineReader(r io.Reader) *StreamReader {
	s := NewLineReader(r)
	s.idleEOF = true
	return s
}

func (s *StreamReader) ReadLine() ([]byte, error) {
	for {
		if i := bytes.IndexByte(s.buf, '\n'); i >= 0 {
			line := make([]byte, i)
			copy(line, s.buf[:i])
			s.buf = s.buf[i+1:]
			if s.discarding {
				// tail of a line already reported as too long
				s.discarding = false
				continue
			}
			if i > MaxLineLength {
				return nil, ErrLineTooLong
			}
			return bytes.TrimSuffix(line, []byte{'\r'}), nil
		}

		if s.eof {
			if len(s.buf) == 0 || s.discarding {
				s.buf = nil
				s.discarding = false
				return nil, io.EOF
			}
			line := s.buf
			s.buf = nil
			if len(line) > MaxLineLength {
				return nil, ErrLineTooLong
			}
			return line, nil
		}

		if len(s.buf) > MaxLineLength {
			s.buf = s.buf[:0]
			if !s.discarding {
				s.discarding = true
				return nil, ErrLineTooLong
			}
		}

		n, err := s.r.Read(s.chunk)
		s.buf = append(s.buf, s.chunk[:n]...)
		switch {
		case errors.Is(err, io.EOF) && s.idleEOF:
			if n == 0 {
				return nil, ErrNoData
			}
		case errors.Is(err, io.EOF):
			s.eof = true
		case err != nil:
			return nil, err
		case n == 0:
			return nil, ErrNoData
		}
	}
}

// Close closes the underlying stream when it is closable.
func (s *StreamReader) Close() error {
	if c, ok := s.r.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
