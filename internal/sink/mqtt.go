package sink

import (
	"context"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/gps_logger/internal/gps"
)

const mqttPublishTimeout = 2 * time.Second

// MQTTPublisher is the part of mqtt.Client used by the MQTT sink.
type MQTTPublisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// MQTT publishes each fix, retained, so late subscribers get the last position.
type MQTT struct {
	client  MQTTPublisher
	topic   string
	timeout time.Duration
}

func NewMQTT(client MQTTPublisher, topic string) *MQTT {
	return &MQTT{client: client, topic: topic, timeout: mqttPublishTimeout}
}

func (m *MQTT) Name() string { return "mqtt" }

func (m *MQTT) Write(_ context.Context, f gps.Fix) error {
	payload, err := encodeMessage(f)
	if err != nil {
		return err
	}
	token := m.client.Publish(m.topic, 0, true, payload)
	if !token.WaitTimeout(m.timeout) {
		return fmt.Errorf("publish to %s timed out after %s", m.topic, m.timeout)
	}
	return token.Error()
}

// ConnectMQTT connects a client to broker.
func ConnectMQTT(broker, clientID string) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt connect %s: %w", broker, token.Error())
	}
	return client, nil
}
