// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package pipeline turns raw receiver lines into dispatched fixes and runs the
// polling acquisition loop.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/relabs-tech/gps_logger/internal/gps"
	"github.com/relabs-tech/gps_logger/internal/metrics"
	"github.com/relabs-tech/gps_logger/internal/nmea"
	"github.com/relabs-tech/gps_logger/internal/sink"
)

// Outcome tags how a single line left the pipeline.
type Outcome int

const (
	OutcomeEmpty       Outcome = iota // blank line
	OutcomeDecodeError                // bytes are not text
	OutcomeIgnored                    // not a fix-data sentence
	OutcomeIncomplete                 // too few fields
	OutcomeParseError                 // numeric field failed to convert
	OutcomeNoFix                      // receiver has no position yet
	OutcomeFix                        // fix assembled and dispatched
	OutcomePanic                      // unexpected failure while processing
)

var outcomeNames = [...]string{
	OutcomeEmpty:       "empty",
	OutcomeDecodeError: "decode_error",
	OutcomeIgnored:     "ignored",
	OutcomeIncomplete:  "incomplete",
	OutcomeParseError:  "parse_error",
	OutcomeNoFix:       "no_fix",
	OutcomeFix:         "fix",
	OutcomePanic:       "panic",
}

func (o Outcome) String() string {
	if o >= 0 && int(o) < len(outcomeNames) {
		return outcomeNames[o]
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// Result is the tagged result of processing one line.
type Result struct {
	Outcome Outcome
	Fix     gps.Fix  // set for OutcomeFix
	GGA     nmea.GGA // set for OutcomeNoFix and OutcomeFix
	Err     error    // rejection cause, or the joined sink errors for OutcomeFix
}

// Processor runs the per-line pipeline:
// decode, classify, split, extract fields, convert coordinates, assemble, dispatch.
// It keeps no state between lines.
type Processor struct {
	clock      Clock
	dispatcher *sink.Dispatcher
	logger     *log.Logger
	metrics    *metrics.Metrics
}

func NewProcessor(clock Clock, d *sink.Dispatcher, logger *log.Logger, m *metrics.Metrics) *Processor {
	return &Processor{clock: clock, dispatcher: d, logger: logger, metrics: m}
}

// Process handles one raw line. It never panics; every rejection is reported
// through the returned Result.
func (p *Processor) Process(ctx context.Context, raw []byte) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			res = Result{Outcome: OutcomePanic, Err: fmt.Errorf("%v", r)}
			p.logger.Printf("gps: error: unexpected data processing error: %v", r)
		}
		p.metrics.ObserveLine(res.Outcome.String())
	}()
	return p.process(ctx, raw)
}

func (p *Processor) process(ctx context.Context, raw []byte) Result {
	line, err := nmea.Decode(raw)
	if err != nil {
		// serial noise, dropped silently
		return Result{Outcome: OutcomeDecodeError, Err: err}
	}
	if line == "" {
		return Result{Outcome: OutcomeEmpty}
	}

	sentence, ok := nmea.Classify(line)
	if !ok {
		return Result{Outcome: OutcomeIgnored}
	}

	g, err := nmea.ParseGGA(sentence)
	switch {
	case errors.Is(err, nmea.ErrIncomplete):
		p.logger.Printf("gps: warning: incomplete GGA line: %s", line)
		return Result{Outcome: OutcomeIncomplete, Err: err}
	case err != nil:
		p.logger.Printf("gps: error: NMEA parse error: %v", err)
		return Result{Outcome: OutcomeParseError, Err: err}
	}

	fix, ok := gps.Assemble(g, p.clock.Now())
	if !ok {
		p.logger.Printf("gps: %s\n%s", separator, gps.WaitingReport(g))
		return Result{Outcome: OutcomeNoFix, GGA: g}
	}

	p.logger.Printf("gps: %s\n%s", separator, fix.Report())
	p.metrics.ObserveFix()
	err = p.dispatcher.Dispatch(ctx, fix)
	return Result{Outcome: OutcomeFix, Fix: fix, GGA: g, Err: err}
}

var separator = strings.Repeat("-", 50)
