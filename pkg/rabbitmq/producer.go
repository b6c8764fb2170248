package rabbitmq

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher is the interface implemented by types that can publish events.
type Publisher interface {
	Publish(ctx context.Context, exchange, routingKey string, body interface{}) error
	// PublishKeyed publishes with messageKey as the AMQP message ID.
	PublishKeyed(ctx context.Context, exchange, routingKey, messageKey string, body interface{}) error
	Close()
}

// EventProducer holds the RabbitMQ connection and channel for publishing messages.
type EventProducer struct {
	mu      sync.Mutex
	conn    *amqp.Connection
	channel *amqp.Channel
}

var _ Publisher = (*EventProducer)(nil)

// NewEventProducer creates and returns a new EventProducer.
func NewEventProducer(amqpURL string) (*EventProducer, error) {
	cleanURL, err := sanitizeURL(amqpURL)
	if err != nil {
		return nil, err
	}

	conn, err := amqp.DialConfig(cleanURL, amqp.Config{Dial: amqp.DefaultDial(10 * time.Second)})
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}

	return &EventProducer{conn: conn, channel: ch}, nil
}

// DeclareQueue declares a durable queue with optional arguments.
func (p *EventProducer) DeclareQueue(name string, args amqp.Table) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, err := p.channel.QueueDeclare(name, true, false, false, false, args)
	return err
}

// DeclareDelayQueue declares a durable queue whose messages expire after ttl and are
// then dead-lettered to targetExchange with targetRoutingKey.
func (p *EventProducer) DeclareDelayQueue(name string, ttl time.Duration, targetExchange, targetRoutingKey string) error {
	return p.DeclareQueue(name, amqp.Table{
		"x-message-ttl":             ttl.Milliseconds(),
		"x-dead-letter-exchange":    targetExchange,
		"x-dead-letter-routing-key": targetRoutingKey,
	})
}

// Publish sends a message to a specific exchange with a routing key.
func (p *EventProducer) Publish(ctx context.Context, exchange, routingKey string, body interface{}) error {
	return p.PublishKeyed(ctx, exchange, routingKey, "", body)
}

// PublishKeyed sends a persistent JSON message. An empty exchange targets the default
// exchange, where routingKey is the queue name.
func (p *EventProducer) PublishKeyed(ctx context.Context, exchange, routingKey, messageKey string, body interface{}) error {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		slog.Error("json marshal failed", slog.String("component", "rabbitmq_producer"), slog.String("exchange", exchange), slog.String("routing_key", routingKey), slog.String("error", err.Error()))
		return err
	}
	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    messageKey,
		Timestamp:    time.Now(),
		Body:         jsonBody,
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.declareExchange(exchange); err != nil {
		slog.Warn("exchange declare failed; reopening channel", slog.String("component", "rabbitmq_producer"), slog.String("exchange", exchange), slog.String("error", err.Error()))
		if err := p.reopen(); err != nil {
			return err
		}
		if err := p.declareExchange(exchange); err != nil {
			return err
		}
	}

	err = p.channel.PublishWithContext(ctx, exchange, routingKey, false, false, msg)
	if err == nil {
		return nil
	}

	slog.Warn("publish failed; reopening channel", slog.String("component", "rabbitmq_producer"), slog.String("exchange", exchange), slog.String("routing_key", routingKey), slog.String("error", err.Error()))
	if reopenErr := p.reopen(); reopenErr != nil {
		return err
	}
	if exErr := p.declareExchange(exchange); exErr != nil {
		return err
	}
	return p.channel.PublishWithContext(ctx, exchange, routingKey, false, false, msg)
}

func (p *EventProducer) declareExchange(exchange string) error {
	if exchange == "" {
		return nil
	}
	return p.channel.ExchangeDeclare(exchange, "topic", true, false, false, false, nil)
}

// reopen replaces the channel once. Caller holds p.mu.
func (p *EventProducer) reopen() error {
	if p.conn == nil || p.conn.IsClosed() {
		return amqp.ErrClosed
	}
	ch, err := p.conn.Channel()
	if err != nil {
		return err
	}
	p.channel = ch
	return nil
}

// Close gracefully closes the channel and connection to RabbitMQ.
func (p *EventProducer) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		p.conn.Close()
	}
}

// EventProducerFallback is a no-op publisher used when RabbitMQ is unavailable at startup.
type EventProducerFallback struct{}

var _ Publisher = (*EventProducerFallback)(nil)

func (p *EventProducerFallback) Publish(ctx context.Context, exchange, routingKey string, body interface{}) error {
	return p.PublishKeyed(ctx, exchange, routingKey, "", body)
}

func (p *EventProducerFallback) PublishKeyed(_ context.Context, exchange, routingKey, messageKey string, _ interface{}) error {
	slog.Warn("publish skipped", slog.String("component", "rabbitmq_producer"), slog.String("mode", "fallback"), slog.String("exchange", exchange), slog.String("routing_key", routingKey), slog.String("message_key", messageKey))
	return nil
}

func (p *EventProducerFallback) Close() {}
