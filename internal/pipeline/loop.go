package pipeline

import (
	"context"
	"errors"
	"io"
	"log"
	"time"

	"github.com/relabs-tech/gps_logger/internal/metrics"
	"github.com/relabs-tech/gps_logger/internal/transport"
)

// DefaultPollInterval is the pause between polls while the receiver has nothing to read.
const DefaultPollInterval = 100 * time.Millisecond

// Loop polls a line source and feeds every line to a Processor.
type Loop struct {
	source  transport.LineReader
	proc    *Processor
	clock   Clock
	poll    time.Duration
	logger  *log.Logger
	metrics *metrics.Metrics
}

func NewLoop(source transport.LineReader, proc *Processor, clock Clock, poll time.Duration, logger *log.Logger, m *metrics.Metrics) *Loop {
	if poll <= 0 {
		poll = DefaultPollInterval
	}
	return &Loop{source: source, proc: proc, clock: clock, poll: poll, logger: logger, metrics: m}
}

// Run processes lines until ctx is cancelled or a finite source is exhausted.
// A line that is being processed when ctx is cancelled is completed first.
// Run only returns nil: no per-line or transport error stops acquisition.
func (l *Loop) Run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return nil
		}

		line, err := l.source.ReadLine()
		switch {
		case err == nil:
			l.proc.Process(ctx, line)
			continue
		case errors.Is(err, io.EOF):
			l.logger.Println("gps: end of input")
			return nil
		case errors.Is(err, transport.ErrNoData):
		default:
			l.logger.Printf("gps: error: read error: %v", err)
			l.metrics.ObserveLine("transport_error")
		}

		if err := l.clock.Sleep(ctx, l.poll); err != nil {
			return nil
		}
	}
}
