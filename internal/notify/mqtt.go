package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"procura.io/internal/award"
)

// Publisher is the part of mqtt.Client the notifier needs.
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// MQTT publishes each notification once per recipient on
// <prefix>/<supplier id>/<event type>.
type MQTT struct {
	client  Publisher
	prefix  string
	qos     byte
	ackWait time.Duration
}

type MQTTOption func(*MQTT)

// WithAckWait bounds how long Notify waits for the broker to acknowledge
// all of a notification's publishes. QoS 1 messages that are still
// unacknowledged stay queued in the client and are retried by paho.
func WithAckWait(d time.Duration) MQTTOption {
	return func(m *MQTT) {
		if d > 0 {
			m.ackWait = d
		}
	}
}

func NewMQTT(client Publisher, prefix string, opts ...MQTTOption) *MQTT {
	prefix = strings.Trim(strings.TrimSpace(prefix), "/")
	if prefix == "" {
		prefix = "procura/suppliers"
	}
	m := &MQTT{client: client, prefix: prefix, qos: 1, ackWait: time.Second}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// DialMQTT connects to broker with auto-reconnect enabled.
func DialMQTT(broker, clientID string) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(broker)
	opts.SetClientID(clientID)
	opts.SetAutoReconnect(true)
	opts.SetCleanSession(true)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("connect mqtt broker: %w", token.Error())
	}
	return client, nil
}

func (m *MQTT) Topic(recipient string, typ award.EventType) string {
	return m.prefix + "/" + recipient + "/" + string(typ)
}

func (m *MQTT) Notify(ctx context.Context, n award.Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}

	type inflight struct {
		topic string
		token mqtt.Token
	}
	sent := make([]inflight, 0, len(n.Recipients))
	for _, recipient := range n.Recipients {
		topic := m.Topic(recipient, n.Type)
		sent = append(sent, inflight{topic: topic, token: m.client.Publish(topic, m.qos, false, payload)})
	}

	deadline := time.NewTimer(m.ackWait)
	defer deadline.Stop()
	for _, f := range sent {
		select {
		case <-f.token.Done():
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			return fmt.Errorf("publish %s: no ack within %s", f.topic, m.ackWait)
		}
		if err := f.token.Error(); err != nil {
			return fmt.Errorf("publish %s: %w", f.topic, err)
		}
	}
	return nil
}
