package rabbitmq

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chat-notifier/internal/telemetry"
)

func TestNewPublisherFallsBackToNoop(t *testing.T) {
	p := NewPublisher(context.Background(), "", "chat.events", nil)

	assert.Equal(t, "noop", PublisherMode(p))
	assert.Equal(t, "empty amqp url", PublisherNoopReason(p))
	require.NoError(t, p.Publish(context.Background(), "audit.chat", telemetry.AuditEnvelope{EventType: "audit_log"}))
	require.NoError(t, p.Close())
}

func TestHeadersTravelInContext(t *testing.T) {
	ctx := WithHeaders(context.Background(), map[string]string{"x-request-id": "r1"})
	table := headersFromContext(ctx)
	assert.Equal(t, "r1", table["x-request-id"])

	assert.Nil(t, headersFromContext(WithHeaders(context.Background(), nil)))
}
