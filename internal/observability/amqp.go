package observability

import (
	"context"
	"sync"

	"chat-notifier/internal/rabbitmq"
)

var (
	publisherMu      sync.RWMutex
	defaultPublisher rabbitmq.Publisher
)

func SetPublisher(publisher rabbitmq.Publisher) {
	publisherMu.Lock()
	defer publisherMu.Unlock()
	defaultPublisher = publisher
}

// PublishEvent sends an envelope through the process-wide publisher. Without one it
// does nothing.
func PublishEvent(ctx context.Context, routingKey string, envelope EventEnvelope) error {
	publisherMu.RLock()
	publisher := defaultPublisher
	publisherMu.RUnlock()
	if publisher == nil {
		return nil
	}

	ctx = rabbitmq.WithHeaders(ctx, BuildHeaders(envelope.RequestID, envelope.TraceID))
	err := publisher.Publish(ctx, routingKey, envelope)
	if err != nil {
		IncAMQPPublishError()
	}
	return err
}
