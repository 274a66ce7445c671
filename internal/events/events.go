// Package events publishes exam domain events to a log, RabbitMQ or SQS.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Envelope is the wire form of every event.
type Envelope struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurredAt"`
	Payload    any       `json:"payload"`
}

// NewEnvelope wraps payload with a fresh ID and timestamp.
func NewEnvelope(eventType string, payload any) Envelope {
	return Envelope{
		ID:         uuid.NewString(),
		Type:       eventType,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	}
}

func encode(eventType string, payload any) ([]byte, error) {
	body, err := json.Marshal(NewEnvelope(eventType, payload))
	if err != nil {
		return nil, fmt.Errorf("encode %s event: %w", eventType, err)
	}
	return body, nil
}

// Log writes events to a slog logger. It is the default publisher.
type Log struct {
	logger *slog.Logger
}

// NewLog returns a publisher writing to logger, or slog.Default() if nil.
func NewLog(logger *slog.Logger) *Log {
	if logger == nil {
		logger = slog.Default()
	}
	return &Log{logger: logger}
}

// Publish logs the event at info level.
func (l *Log) Publish(ctx context.Context, eventType string, payload any) error {
	body, err := encode(eventType, payload)
	if err != nil {
		return err
	}
	l.logger.InfoContext(ctx, "event", "type", eventType, "body", string(body))
	return nil
}

// Close is a no-op.
func (l *Log) Close() error { return nil }
