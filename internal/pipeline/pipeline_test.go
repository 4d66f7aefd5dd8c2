package pipeline

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/relabs-tech/gps_logger/internal/metrics"
	"github.com/relabs-tech/gps_logger/internal/nmea"
	"github.com/relabs-tech/gps_logger/internal/sink"
	"github.com/relabs-tech/gps_logger/internal/transport"
)

const (
	fixLine   = "$GNGGA,123519,4807.038,N,01131.000,E,1,08,0.9,545.4,M,46.9,M,,*47"
	noFixLine = "$GNGGA,123519,,,,,0,00,,,,,,,*00"
)

type fakeClock struct {
	now    time.Time
	slept  []time.Duration
	cancel context.CancelFunc
	// cancel after this many sleeps; 0 never cancels
	cancelAfter int
	panicNow    bool
}

func (c *fakeClock) Now() time.Time {
	if c.panicNow {
		c.panicNow = false
		panic("clock failure")
	}
	return c.now
}

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	c.slept = append(c.slept, d)
	if c.cancelAfter > 0 && len(c.slept) >= c.cancelAfter {
		c.cancel()
	}
	return ctx.Err()
}

type step struct {
	line string
	err  error
}

// scriptedSource replays steps, then reports io.EOF.
type scriptedSource struct {
	steps []step
}

func (s *scriptedSource) ReadLine() ([]byte, error) {
	if len(s.steps) == 0 {
		return nil, io.EOF
	}
	next := s.steps[0]
	s.steps = s.steps[1:]
	if next.err != nil {
		return nil, next.err
	}
	return []byte(next.line), nil
}

type harness struct {
	clock   *fakeClock
	stdout  bytes.Buffer
	logs    bytes.Buffer
	csvPath string
	reg     *prometheus.Registry
	proc    *Processor
	logger  *log.Logger
	metrics *metrics.Metrics
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		clock:   &fakeClock{now: time.Unix(1700000000, 500000000)},
		csvPath: filepath.Join(t.TempDir(), "gps_log.csv"),
		reg:     prometheus.NewRegistry(),
	}
	h.logger = log.New(&h.logs, "", 0)
	h.metrics = metrics.New(h.reg)

	csvLog := sink.NewCSVLog(h.csvPath, h.logger)
	if err := csvLog.Ensure(); err != nil {
		t.Fatalf("Ensure() failed: %v", err)
	}
	d := sink.NewDispatcher(h.logger, h.metrics, sink.NewJSONLines(&h.stdout), csvLog)
	h.proc = NewProcessor(h.clock, d, h.logger, h.metrics)
	return h
}

func (h *harness) csvLines(t *testing.T) []string {
	t.Helper()
	b, err := os.ReadFile(h.csvPath)
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	return strings.Split(strings.TrimSuffix(string(b), "\n"), "\n")
}

func TestProcess_Fix(t *testing.T) {
	h := newHarness(t)

	res := h.proc.Process(context.Background(), []byte(fixLine+"\r"))
	if res.Outcome != OutcomeFix {
		t.Fatalf("Outcome = %v, want fix (err %v)", res.Outcome, res.Err)
	}
	if res.Err != nil {
		t.Errorf("sink error: %v", res.Err)
	}
	f := res.Fix
	if math.Abs(f.Latitude-48.1173) > 1e-6 || math.Abs(f.Longitude-11.516667) > 1e-6 {
		t.Errorf("position = %v, %v", f.Latitude, f.Longitude)
	}
	if f.Altitude != 545.4 || f.Satellites != 8 || f.Quality != nmea.QualityGPS || f.HDOP != 0.9 {
		t.Errorf("fix = %+v", f)
	}

	wantJSON := `{"type":"gps","latitude":48.1173,"longitude":11.516667,"timestamp":1700000000.5,"altitude":545.4,"num_satellites":8,"gps_quality":1,"hdop":0.9}` + "\n"
	if h.stdout.String() != wantJSON {
		t.Errorf("stdout = %q, want %q", h.stdout.String(), wantJSON)
	}

	lines := h.csvLines(t)
	if len(lines) != 2 || lines[1] != "1700000000.5,48.117300,11.516667,545.4,8,1,0.9" {
		t.Errorf("csv = %q", lines)
	}
	if !strings.Contains(h.logs.String(), "time(UTC): 12:35:19") {
		t.Errorf("missing fix report in logs:\n%s", h.logs.String())
	}
}

func TestProcess_NoFix(t *testing.T) {
	h := newHarness(t)

	res := h.proc.Process(context.Background(), []byte(noFixLine))
	if res.Outcome != OutcomeNoFix {
		t.Fatalf("Outcome = %v, want no_fix", res.Outcome)
	}
	if h.stdout.Len() != 0 {
		t.Errorf("stdout = %q, want nothing", h.stdout.String())
	}
	if lines := h.csvLines(t); len(lines) != 1 {
		t.Errorf("csv = %q, want header only", lines)
	}
	if !strings.Contains(h.logs.String(), "waiting for satellite fix") {
		t.Errorf("missing status report in logs:\n%s", h.logs.String())
	}
}

func TestProcess_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		raw     []byte
		want    Outcome
		wantLog string
	}{
		{"empty", []byte("  \r"), OutcomeEmpty, ""},
		{"undecodable", []byte{'$', 'G', 0xff, 0xfe, '\r'}, OutcomeDecodeError, ""},
		{"other sentence", []byte("$GNRMC,123519,A,4807.038,N,01131.000,E,022.4,084.4,230394,003.1,W*6A"), OutcomeIgnored, ""},
		{"short", []byte("$GNGGA,123519,4807.038,N"), OutcomeIncomplete, "warning: incomplete GGA line: $GNGGA,123519,4807.038,N"},
		{"bad number", []byte("$GNGGA,123519,4807.038,N,01131.000,E,1,x8,0.9,545.4,M,46.9,M,,*47"), OutcomeParseError, "NMEA parse error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.logs.Reset()

			res := h.proc.Process(context.Background(), tt.raw)
			if res.Outcome != tt.want {
				t.Fatalf("Outcome = %v, want %v", res.Outcome, tt.want)
			}
			if h.stdout.Len() != 0 {
				t.Errorf("stdout = %q, want nothing", h.stdout.String())
			}
			if tt.wantLog == "" && h.logs.Len() != 0 {
				t.Errorf("unexpected log output: %q", h.logs.String())
			}
			if tt.wantLog != "" && !strings.Contains(h.logs.String(), tt.wantLog) {
				t.Errorf("log output = %q, want %q", h.logs.String(), tt.wantLog)
			}
		})
	}
}

func TestProcess_RecoversPanic(t *testing.T) {
	h := newHarness(t)
	h.clock.panicNow = true

	res := h.proc.Process(context.Background(), []byte(fixLine))
	if res.Outcome != OutcomePanic {
		t.Fatalf("Outcome = %v, want panic", res.Outcome)
	}
	if !strings.Contains(h.logs.String(), "clock failure") {
		t.Errorf("log output = %q", h.logs.String())
	}

	// the next line is processed normally
	if res := h.proc.Process(context.Background(), []byte(fixLine)); res.Outcome != OutcomeFix {
		t.Errorf("Outcome after panic = %v, want fix", res.Outcome)
	}
}

func TestLoop_SkipsBadLinesAndFinishes(t *testing.T) {
	h := newHarness(t)
	src := &scriptedSource{steps: []step{
		{line: string([]byte{0xc3, 0x28, '$'})},
		{line: fixLine},
		{err: transport.ErrNoData},
		{line: "$GPGSV,3,1,11*74"},
		{err: errors.New("framing error")},
		{line: noFixLine},
		{line: "$GPGGA,123520,4807.039,S,01131.001,W,2,09,1.0,546.0,M,46.9,M,,*47"},
	}}
	loop := NewLoop(src, h.proc, h.clock, 0, h.logger, h.metrics)

	if err := loop.Run(context.Background()); err != nil {
		t.Fatalf("Run() = %v", err)
	}

	out := strings.Split(strings.TrimSuffix(h.stdout.String(), "\n"), "\n")
	if len(out) != 2 {
		t.Fatalf("stdout has %d messages, want 2:\n%s", len(out), h.stdout.String())
	}
	if !strings.Contains(out[1], `"latitude":-48.11731`) || !strings.Contains(out[1], `"gps_quality":2`) {
		t.Errorf("second message = %s", out[1])
	}
	if lines := h.csvLines(t); len(lines) != 3 {
		t.Errorf("csv has %d lines, want 3", len(lines))
	}
	if len(h.clock.slept) != 2 || h.clock.slept[0] != DefaultPollInterval {
		t.Errorf("slept = %v, want two polls of %v", h.clock.slept, DefaultPollInterval)
	}
	if !strings.Contains(h.logs.String(), "read error: framing error") {
		t.Errorf("missing transport error in logs:\n%s", h.logs.String())
	}
}

// idleSource never has data.
type idleSource struct{ reads int }

func (s *idleSource) ReadLine() ([]byte, error) {
	s.reads++
	return nil, transport.ErrNoData
}

func TestLoop_StopsOnCancel(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h.clock.cancel = cancel
	h.clock.cancelAfter = 3

	src := &idleSource{}
	loop := NewLoop(src, h.proc, h.clock, 250*time.Millisecond, h.logger, h.metrics)
	if err := loop.Run(ctx); err != nil {
		t.Fatalf("Run() = %v", err)
	}
	if src.reads != 3 {
		t.Errorf("reads = %d, want 3", src.reads)
	}
	for _, d := range h.clock.slept {
		if d != 250*time.Millisecond {
			t.Errorf("slept %v, want 250ms", d)
		}
	}
}

func TestSystemClock_SleepCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := (SystemClock{}).Sleep(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Errorf("Sleep() = %v, want context.Canceled", err)
	}
}

func TestOutcomeString(t *testing.T) {
	if OutcomeParseError.String() != "parse_error" {
		t.Errorf("OutcomeParseError.String() = %q", OutcomeParseError.String())
	}
	if Outcome(42).String() != "outcome(42)" {
		t.Errorf("Outcome(42).String() = %q", Outcome(42).String())
	}
}
