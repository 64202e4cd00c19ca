package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/sugicreations/sugi-backend/pkg/enums"
	"github.com/sugicreations/sugi-backend/pkg/logger"
	"github.com/sugicreations/sugi-backend/pkg/outbox/payloads"
)

var ErrUnsupportedEventType = errors.New("unsupported analytics event type")

// Writer delivers rows built from order events.
type Writer interface {
	Insert(ctx context.Context, row OrderEventRow) error
}

type rowBuilder func(envelope Envelope, payload any) (OrderEventRow, error)

type route struct {
	factory func() any
	build   rowBuilder
}

// Router decodes each event payload and writes one row per event.
type Router struct {
	routes map[enums.OutboxEventType]route
	writer Writer
	logg   *logger.Logger
}

func NewRouter(writer Writer, logg *logger.Logger) (*Router, error) {
	if writer == nil {
		return nil, errors.New("writer is required")
	}
	if logg == nil {
		return nil, errors.New("logger is required")
	}
	return &Router{
		routes: map[enums.OutboxEventType]route{
			enums.EventOrderCreated: {
				factory: func() any { return &payloads.OrderCreatedEvent{} },
				build:   buildOrderCreatedRow,
			},
			enums.EventOrderStatusChanged: {
				factory: func() any { return &payloads.OrderStatusChangedEvent{} },
				build:   buildStatusChangedRow,
			},
			enums.EventStockDepleted: {
				factory: func() any { return &payloads.StockDepletedEvent{} },
				build:   buildStockDepletedRow,
			},
		},
		writer: writer,
		logg:   logg,
	}, nil
}

func (r *Router) Handle(ctx context.Context, envelope Envelope) error {
	entry, ok := r.routes[envelope.EventType]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnsupportedEventType, envelope.EventType)
	}
	if len(envelope.Payload) == 0 {
		return fmt.Errorf("empty payload for %s", envelope.EventType)
	}
	payload := entry.factory()
	if err := json.Unmarshal(envelope.Payload, payload); err != nil {
		return fmt.Errorf("decode %s payload: %w", envelope.EventType, err)
	}

	row, err := entry.build(envelope, payload)
	if err != nil {
		return err
	}
	if err := r.writer.Insert(ctx, row); err != nil {
		return err
	}
	r.logg.Info(r.logg.WithField(ctx, "event_type", envelope.EventType), "order event row written")
	return nil
}

func baseRow(envelope Envelope) (OrderEventRow, error) {
	payloadJSON, err := EncodeJSON(envelope.Payload)
	if err != nil {
		return OrderEventRow{}, fmt.Errorf("encode payload json: %w", err)
	}
	return OrderEventRow{
		EventID:    envelope.EventID,
		EventType:  string(envelope.EventType),
		OccurredAt: envelope.OccurredAt,
		Payload:    payloadJSON,
	}, nil
}

func buildOrderCreatedRow(envelope Envelope, payload any) (OrderEventRow, error) {
	event, ok := payload.(*payloads.OrderCreatedEvent)
	if !ok {
		return OrderEventRow{}, fmt.Errorf("invalid payload for %s", envelope.EventType)
	}
	row, err := baseRow(envelope)
	if err != nil {
		return OrderEventRow{}, err
	}
	items, err := EncodeJSON(event.Items)
	if err != nil {
		return OrderEventRow{}, fmt.Errorf("encode items json: %w", err)
	}

	var count int64
	for _, line := range event.Items {
		count += int64(line.Quantity)
	}
	row.OrderID = uuidPtr(event.OrderID)
	row.CustomerEmail = stringPtr(event.CustomerEmail)
	row.TotalCents = toCents(event.Total)
	row.ItemCount = &count
	row.Items = items
	return row, nil
}

func buildStatusChangedRow(envelope Envelope, payload any) (OrderEventRow, error) {
	event, ok := payload.(*payloads.OrderStatusChangedEvent)
	if !ok {
		return OrderEventRow{}, fmt.Errorf("invalid payload for %s", envelope.EventType)
	}
	row, err := baseRow(envelope)
	if err != nil {
		return OrderEventRow{}, err
	}
	restocked := event.Restocked
	row.OrderID = uuidPtr(event.OrderID)
	row.StatusFrom = stringPtr(event.From)
	row.StatusTo = stringPtr(event.To)
	row.Restocked = &restocked
	return row, nil
}

func buildStockDepletedRow(envelope Envelope, payload any) (OrderEventRow, error) {
	event, ok := payload.(*payloads.StockDepletedEvent)
	if !ok {
		return OrderEventRow{}, fmt.Errorf("invalid payload for %s", envelope.EventType)
	}
	row, err := baseRow(envelope)
	if err != nil {
		return OrderEventRow{}, err
	}
	row.OrderID = uuidPtr(event.OrderID)
	row.ProductID = uuidPtr(event.ProductID)
	return row, nil
}

func uuidPtr(id uuid.UUID) *string {
	if id == uuid.Nil {
		return nil
	}
	return stringPtr(id.String())
}
