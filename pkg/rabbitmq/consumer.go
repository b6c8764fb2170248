package rabbitmq

import (
	"context"
	"fmt"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Handler processes one message body. Returning false nacks the delivery back onto the queue.
type Handler func(ctx context.Context, body []byte) bool

// Consumer owns a dedicated connection and channel for consuming.
type Consumer struct {
	conn *amqp.Connection
	ch   *amqp.Channel
}

// NewConsumer dials RabbitMQ and opens a channel.
func NewConsumer(amqpURL string) (*Consumer, error) {
	cleanURL, err := sanitizeURL(amqpURL)
	if err != nil {
		return nil, err
	}

	conn, err := amqp.Dial(cleanURL)
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}

	return &Consumer{conn: conn, ch: ch}, nil
}

// ConsumeWithBindings declares exchange and queue, binds every routing key and starts
// delivering messages to the matching handler until ctx is done or the channel closes.
// prefetch bounds the number of unacknowledged deliveries in flight.
func (c *Consumer) ConsumeWithBindings(ctx context.Context, exchange, queueName string, prefetch int, bindings map[string]Handler) error {
	if len(bindings) == 0 {
		return fmt.Errorf("no bindings provided")
	}

	if err := c.ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		return err
	}

	q, err := c.ch.QueueDeclare(queueName, true, false, false, false, nil)
	if err != nil {
		return err
	}

	handlers := make(map[string]Handler)
	for routingKey, handler := range bindings {
		if handler == nil {
			continue
		}
		handlers[routingKey] = handler
		if err := c.ch.QueueBind(q.Name, routingKey, exchange, false, nil); err != nil {
			return err
		}
	}

	if prefetch > 0 {
		if err := c.ch.Qos(prefetch, 0, false); err != nil {
			return err
		}
	}

	msgs, err := c.ch.Consume(q.Name, "", false, false, false, false, nil)
	if err != nil {
		return err
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case d, ok := <-msgs:
				if !ok {
					slog.Warn("delivery channel closed", slog.String("component", "rabbitmq_consumer"), slog.String("queue", q.Name))
					return
				}
				c.dispatch(ctx, handlers, d)
			}
		}
	}()

	return nil
}

func (c *Consumer) dispatch(ctx context.Context, handlers map[string]Handler, d amqp.Delivery) {
	handler, ok := handlers[d.RoutingKey]
	if !ok {
		slog.Warn("no handler for routing key; acknowledging to drop", slog.String("component", "rabbitmq_consumer"), slog.String("routing_key", d.RoutingKey))
		_ = d.Ack(false)
		return
	}
	if handler(ctx, d.Body) {
		_ = d.Ack(false)
		return
	}
	slog.Warn("handler failed; re-queuing", slog.String("component", "rabbitmq_consumer"), slog.String("routing_key", d.RoutingKey))
	_ = d.Nack(false, true)
}

// Close closes the channel and the connection.
func (c *Consumer) Close() {
	if c.ch != nil {
		c.ch.Close()
	}
	if c.conn != nil {
		c.conn.Close()
	}
}
