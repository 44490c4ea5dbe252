// Package mq relays realtime events between server instances over RabbitMQ.
// Every instance publishes to one topic exchange and consumes from its own
// exclusive queue, so each event reaches the hub that holds the recipient's
// connection.
package mq

import (
	"encoding/json"
	"fmt"
)

const keyPrefix = "realtime."

// BindingKey matches every realtime event.
const BindingKey = keyPrefix + "#"

// Envelope is the wire form of one realtime event.
type Envelope struct {
	UserIDs []string        `json:"userIds"`
	Event   string          `json:"event"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func RoutingKey(event string) string {
	return keyPrefix + event
}

func encode(userIDs []string, event string, data any) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", event, err)
	}
	return json.Marshal(Envelope{UserIDs: userIDs, Event: event, Data: raw})
}

func decode(body []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	if env.Event == "" {
		return nil, fmt.Errorf("decode envelope: missing event")
	}
	return &env, nil
}
