package mq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Sink delivers a relayed event to local connections.
type Sink interface {
	Push(ctx context.Context, userIDs []string, event string, data any) error
}

type Consumer struct {
	conn  *amqp.Connection
	ch    *amqp.Channel
	queue string
}

// NewConsumer declares an exclusive, server-named queue bound to every
// realtime event on exchange.
func NewConsumer(url, exchange string) (*Consumer, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare queue: %w", err)
	}
	if err := ch.QueueBind(q.Name, BindingKey, exchange, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("bind %s: %w", BindingKey, err)
	}
	return &Consumer{conn: conn, ch: ch, queue: q.Name}, nil
}

// ErrDeliveriesClosed is returned by Run when the broker closes the delivery
// channel.
var ErrDeliveriesClosed = errors.New("rabbitmq delivery channel closed")

// Run relays deliveries to sink until ctx is done or the channel closes.
func (c *Consumer) Run(ctx context.Context, sink Sink) error {
	msgs, err := c.ch.ConsumeWithContext(ctx, c.queue, "", false, true, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume failed: %w", err)
	}
	return consume(ctx, msgs, sink)
}

func consume(ctx context.Context, msgs <-chan amqp.Delivery, sink Sink) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				slog.Error("realtime relay stopped", "error", ErrDeliveriesClosed)
				return ErrDeliveriesClosed
			}
			if err := relay(ctx, d.Body, sink); err != nil {
				// a malformed event will never decode; drop it
				slog.Warn("relay event failed", "error", err, "routing_key", d.RoutingKey)
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

func relay(ctx context.Context, body []byte, sink Sink) error {
	env, err := decode(body)
	if err != nil {
		return err
	}
	var data any
	if len(env.Data) > 0 {
		data = json.RawMessage(env.Data)
	}
	return sink.Push(ctx, env.UserIDs, env.Event, data)
}

func (c *Consumer) Close() error {
	if c.ch != nil {
		_ = c.ch.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
