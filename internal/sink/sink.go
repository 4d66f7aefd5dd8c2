// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package sink delivers assembled GPS fixes to their consumers: the JSON line
// stream on stdout, the CSV fix log and the optional message buses.
package sink

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/relabs-tech/gps_logger/internal/gps"
	"github.com/relabs-tech/gps_logger/internal/metrics"
)

// Sink receives every fix the pipeline assembles.
type Sink interface {
	Name() string
	Write(ctx context.Context, f gps.Fix) error
}

// Dispatcher fans a fix out to all configured sinks. A failing sink is logged
// and counted; the remaining sinks still run.
type Dispatcher struct {
	sinks   []Sink
	logger  *log.Logger
	metrics *metrics.Metrics
}

func NewDispatcher(logger *log.Logger, m *metrics.Metrics, sinks ...Sink) *Dispatcher {
	return &Dispatcher{sinks: sinks, logger: logger, metrics: m}
}

// Sinks returns the configured sinks in dispatch order.
func (d *Dispatcher) Sinks() []Sink {
	return d.sinks
}

// Dispatch writes f to every sink and returns the joined sink errors, if any.
func (d *Dispatcher) Dispatch(ctx context.Context, f gps.Fix) error {
	var errs []error
	for _, s := range d.sinks {
		if err := d.write(ctx, s, f); err != nil {
			d.logger.Printf("gps: error: sink %s: %v", s.Name(), err)
			d.metrics.ObserveSinkError(s.Name())
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
		}
	}
	return errors.Join(errs...)
}

func (d *Dispatcher) write(ctx context.Context, s Sink, f gps.Fix) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return s.Write(ctx, f)
}

func encodeMessage(f gps.Fix) ([]byte, error) {
	b, err := json.Marshal(gps.NewMessage(f))
	if err != nil {
		return nil, fmt.Errorf("marshal fix: %w", err)
	}
	return b, nil
}
