// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sink

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"

	"github.com/relabs-tech/gps_logger/internal/gps"
)

// CSVLog is the append-only fix log.
//
// The file is opened, appended and closed for every record so an interrupted
// process always leaves complete lines behind. Appends never create the file:
// a missing file is reported, recreated with its header by Ensure and the
// record is retried once.
type CSVLog struct {
	path   string
	logger *log.Logger

	// create opens a new, exclusive log file for the header row.
	create func(path string) (io.WriteCloser, error)
}

func NewCSVLog(path string, logger *log.Logger) *CSVLog {
	return &CSVLog{path: path, logger: logger, create: createExclusive}
}

func createExclusive(path string) (io.WriteCloser, error) {
	return os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
}

func (c *CSVLog) Name() string { return "csv" }

// Path returns the log file location.
func (c *CSVLog) Path() string { return c.path }

// Ensure creates the log file with its header row if it does not exist yet.
// An existing file is used as is; its content is not checked. A file whose
// header could not be written is removed so the next Ensure starts over.
func (c *CSVLog) Ensure() error {
	return c.ensure(true)
}

func (c *CSVLog) ensure(announce bool) error {
	_, err := os.Stat(c.path)
	if err == nil {
		if announce {
			c.logger.Printf("gps: using existing log file %s", c.path)
		}
		return nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat log file %s: %w", c.path, err)
	}

	c.logger.Printf("gps: creating log file %s", c.path)
	f, err := c.create(c.path)
	if errors.Is(err, fs.ErrExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("create log file %s: %w", c.path, err)
	}
	if err := writeRow(f, gps.CSVHeader); err != nil {
		if rerr := os.Remove(c.path); rerr != nil && !errors.Is(rerr, fs.ErrNotExist) {
			c.logger.Printf("gps: error: remove headerless log file: %v", rerr)
		}
		return fmt.Errorf("write log header: %w", err)
	}
	return nil
}

// Write appends one record. A failed append re-ensures the file and retries once.
func (c *CSVLog) Write(_ context.Context, fix gps.Fix) error {
	err := c.append(fix)
	if err == nil {
		return nil
	}

	c.logger.Printf("gps: error: csv write failed: %v", err)
	if eerr := c.ensure(false); eerr != nil {
		c.logger.Printf("gps: error: csv log re-creation also failed: %v", eerr)
		return fmt.Errorf("append to %s: %w", c.path, err)
	}
	if rerr := c.append(fix); rerr != nil {
		return fmt.Errorf("append to %s after re-creation: %w", c.path, rerr)
	}
	return nil
}

func (c *CSVLog) append(fix gps.Fix) error {
	f, err := os.OpenFile(c.path, os.O_WRONLY|os.O_APPEND, 0)
	if err != nil {
		return err
	}
	return writeRow(f, gps.CSVRecord(fix))
}

// writeRow writes one record and closes f.
func writeRow(f io.WriteCloser, record []string) error {
	w := csv.NewWriter(f)
	if err := w.Write(record); err != nil {
		f.Close()
		return err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
