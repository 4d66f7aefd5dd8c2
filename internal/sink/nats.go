package sink

import (
	"context"
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/relabs-tech/gps_logger/internal/gps"
)

const SubjectGPSFix = "gps.fix"

// NATSPublisher is the part of *nats.Conn used by the NATS sink.
type NATSPublisher interface {
	Publish(subj string, data []byte) error
}

// NATS publishes each fix as a core NATS message.
type NATS struct {
	conn    NATSPublisher
	subject string
}

func NewNATS(conn NATSPublisher, subject string) *NATS {
	if subject == "" {
		subject = SubjectGPSFix
	}
	return &NATS{conn: conn, subject: subject}
}

func (n *NATS) Name() string { return "nats" }

func (n *NATS) Write(_ context.Context, f gps.Fix) error {
	data, err := encodeMessage(f)
	if err != nil {
		return err
	}
	if err := n.conn.Publish(n.subject, data); err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}
	return nil
}

// ConnectNATS connects to url and keeps reconnecting forever in the background.
func ConnectNATS(url string) (*nats.Conn, error) {
	nc, err := nats.Connect(url, nats.Name("gps-logger"), nats.MaxReconnects(-1))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return nc, nil
}
