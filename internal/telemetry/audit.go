package telemetry

import (
	"context"
	"time"

	"chat-notifier/internal/logger"
)

type Publisher interface {
	Publish(ctx context.Context, routingKey string, event any) error
	Close() error
}

// AuditEmitter publishes an audit record for every user action taken through the
// notifier's HTTP surface.
type AuditEmitter struct {
	publisher   Publisher
	routingKey  string
	service     string
	environment string
	logg        *logger.Logger
}

type AuditEnvelope struct {
	SchemaVersion int          `json:"schema_version"`
	EventType     string       `json:"event_type"`
	OccurredAt    string       `json:"occurred_at"`
	Service       string       `json:"service"`
	Environment   string       `json:"environment"`
	RequestID     string       `json:"request_id"`
	UserID        string       `json:"user_id,omitempty"`
	Payload       AuditPayload `json:"payload"`
}

type AuditPayload struct {
	Level     string `json:"level"`
	Action    string `json:"action"`
	ChannelID string `json:"channel_id,omitempty"`
	Text      string `json:"text"`
}

func NewAuditEmitter(publisher Publisher, routingKey, service, environment string, logg *logger.Logger) *AuditEmitter {
	if logg == nil {
		logg = logger.Nop()
	}
	return &AuditEmitter{
		publisher:   publisher,
		routingKey:  routingKey,
		service:     service,
		environment: environment,
		logg:        logg,
	}
}

func (e *AuditEmitter) Emit(ctx context.Context, level, action, channelID, text, requestID, userID string) {
	if e == nil || e.publisher == nil {
		return
	}

	ctx = e.logg.WithFields(ctx, map[string]any{
		"action":     action,
		"request_id": requestID,
		"channel_id": channelID,
	})
	e.logg.Debug(ctx, "audit emit")
	envelope := AuditEnvelope{
		SchemaVersion: 1,
		EventType:     "audit_log",
		OccurredAt:    time.Now().UTC().Format(time.RFC3339Nano),
		Service:       e.service,
		Environment:   e.environment,
		RequestID:     requestID,
		UserID:        userID,
		Payload: AuditPayload{
			Level:     level,
			Action:    action,
			ChannelID: channelID,
			Text:      text,
		},
	}

	if err := e.publisher.Publish(ctx, e.routingKey, envelope); err != nil {
		e.logg.Warn(ctx, "audit publish failed", err)
	}
}
