package analytics

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"

	"github.com/sugicreations/sugi-backend/pkg/enums"
	"github.com/sugicreations/sugi-backend/pkg/outbox"
)

// Envelope is an order event as received from the orders topic.
type Envelope struct {
	EventID       string
	EventType     enums.OutboxEventType
	AggregateType enums.OutboxAggregateType
	AggregateID   string
	OccurredAt    time.Time
	Payload       json.RawMessage
}

// decodeMessage combines the stored payload envelope with the message
// attributes set by the outbox publisher.
func decodeMessage(msg *gcppubsub.Message) (*Envelope, error) {
	var stored outbox.PayloadEnvelope
	if err := json.Unmarshal(msg.Data, &stored); err != nil {
		return nil, fmt.Errorf("decode payload envelope: %w", err)
	}

	eventType, err := enums.ParseOutboxEventType(attribute(msg, "event_type"))
	if err != nil {
		return nil, fmt.Errorf("event_type: %w", err)
	}
	aggregateType, err := enums.ParseOutboxAggregateType(attribute(msg, "aggregate_type"))
	if err != nil {
		return nil, fmt.Errorf("aggregate_type: %w", err)
	}
	aggregateID := attribute(msg, "aggregate_id")
	if aggregateID == "" {
		return nil, errors.New("aggregate_id missing")
	}

	eventID := strings.TrimSpace(stored.EventID)
	if eventID == "" {
		eventID = attribute(msg, "event_id")
	}
	if eventID == "" {
		return nil, errors.New("event_id missing")
	}

	occurredAt := stored.OccurredAt
	if occurredAt.IsZero() {
		if parsed, err := time.Parse(time.RFC3339Nano, attribute(msg, "created_at")); err == nil {
			occurredAt = parsed
		}
	}

	return &Envelope{
		EventID:       eventID,
		EventType:     eventType,
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		OccurredAt:    occurredAt.UTC(),
		Payload:       stored.Data,
	}, nil
}

func attribute(msg *gcppubsub.Message, key string) string {
	if msg == nil || msg.Attributes == nil {
		return ""
	}
	return strings.TrimSpace(msg.Attributes[key])
}
