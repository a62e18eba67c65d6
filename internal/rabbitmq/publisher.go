package rabbitmq

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"chat-notifier/internal/logger"
	"chat-notifier/internal/telemetry"
)

// Publisher publishes audit events and notices.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, event any) error
	Close() error
}

type headersKey struct{}

// WithHeaders attaches AMQP headers to the next Publish made with ctx.
func WithHeaders(ctx context.Context, headers map[string]string) context.Context {
	if len(headers) == 0 {
		return ctx
	}
	return context.WithValue(ctx, headersKey{}, headers)
}

func headersFromContext(ctx context.Context) amqp.Table {
	headers, _ := ctx.Value(headersKey{}).(map[string]string)
	if len(headers) == 0 {
		return nil
	}
	table := amqp.Table{}
	for key, value := range headers {
		table[key] = value
	}
	return table
}

// NewPublisher builds a RabbitMQ publisher or a noop publisher when AMQP is disabled.
func NewPublisher(ctx context.Context, amqpURL, exchange string, logg *logger.Logger) Publisher {
	if logg == nil {
		logg = logger.Nop()
	}
	if amqpURL == "" {
		logg.Info(ctx, "rabbitmq disabled, using noop: empty amqp url")
		return noopPublisher{reason: "empty amqp url", logg: logg}
	}

	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		logg.Warn(ctx, "rabbitmq disabled, using noop", err)
		return noopPublisher{reason: err.Error(), logg: logg}
	}

	ch, err := conn.Channel()
	if err != nil {
		logg.Warn(ctx, "rabbitmq disabled, using noop", err)
		_ = conn.Close()
		return noopPublisher{reason: err.Error(), logg: logg}
	}

	if err := ch.ExchangeDeclare(
		exchange,
		"topic",
		true,
		false,
		false,
		false,
		nil,
	); err != nil {
		logg.Warn(ctx, "rabbitmq disabled, using noop", err)
		_ = ch.Close()
		_ = conn.Close()
		return noopPublisher{reason: err.Error(), logg: logg}
	}

	logg.Info(logg.WithField(ctx, "exchange", exchange), "rabbitmq connected")
	return &amqpPublisher{conn: conn, ch: ch, exchange: exchange, logg: logg}
}

type amqpPublisher struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
	logg     *logger.Logger
}

func (p *amqpPublisher) Publish(ctx context.Context, routingKey string, event any) error {
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}

	err = p.ch.PublishWithContext(ctx, p.exchange, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Headers:      headersFromContext(ctx),
		Body:         body,
	})
	if err != nil {
		p.logg.Warn(p.logg.WithField(ctx, "routing_key", routingKey), "rabbitmq publish failed", err)
	}
	return err
}

func (p *amqpPublisher) Close() error {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

type noopPublisher struct {
	reason string
	logg   *logger.Logger
}

func (p noopPublisher) Publish(ctx context.Context, routingKey string, event any) error {
	fields := map[string]any{"routing_key": routingKey}
	switch envelope := event.(type) {
	case telemetry.AuditEnvelope:
		fields["event_type"] = envelope.EventType
		fields["request_id"] = envelope.RequestID
	case *telemetry.AuditEnvelope:
		fields["event_type"] = envelope.EventType
		fields["request_id"] = envelope.RequestID
	}
	p.logg.Debug(p.logg.WithFields(ctx, fields), "rabbitmq noop publish")
	return nil
}

func (noopPublisher) Close() error {
	return nil
}

// PublisherMode reports the publisher mode for logging.
func PublisherMode(p Publisher) string {
	switch p.(type) {
	case *amqpPublisher:
		return "amqp"
	case noopPublisher:
		return "noop"
	default:
		return "unknown"
	}
}

func PublisherNoopReason(p Publisher) string {
	if publisher, ok := p.(noopPublisher); ok {
		return publisher.reason
	}
	return ""
}
