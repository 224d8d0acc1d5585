package mqttsrc

import (
	"encoding/json"
	"fmt"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/cwbudde/algo-hrv/hrv"
)

// Publisher publishes metric snapshots as JSON.
type Publisher struct {
	client mqtt.Client
	topic  string
	qos    byte
	retain bool
}

// NewPublisher creates a publisher for topic.
func NewPublisher(client mqtt.Client, topic string, qos byte, retain bool) *Publisher {
	return &Publisher{client: client, topic: topic, qos: qos, retain: retain}
}

// Topic returns the publish topic.
func (p *Publisher) Topic() string { return p.topic }

// Publish sends m and waits for the broker acknowledgement.
func (p *Publisher) Publish(m hrv.Metrics) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to marshal metrics: %w", err)
	}

	token := p.client.Publish(p.topic, p.qos, p.retain, data)
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to publish to topic %s: %w", p.topic, token.Error())
	}
	return nil
}
