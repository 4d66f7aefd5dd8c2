package sink

import (
	"context"
	"io"
	"sync"

	"github.com/relabs-tech/gps_logger/internal/gps"
)

// JSONLines writes one JSON message per fix, newline terminated.
// On the logger this is stdout, read line by line by the dashboard.
type JSONLines struct {
	mu sync.Mutex
	w  io.Writer
}

func NewJSONLines(w io.Writer) *JSONLines {
	return &JSONLines{w: w}
}

func (j *JSONLines) Name() string { return "stdout" }

func (j *JSONLines) Write(_ context.Context, f gps.Fix) error {
	b, err := encodeMessage(f)
	if err != nil {
		return err
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	_, err = j.w.Write(append(b, '\n'))
	return err
}
