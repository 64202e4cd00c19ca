package analytics

import (
	"context"
	"errors"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"

	"github.com/sugicreations/sugi-backend/pkg/logger"
)

const consumerName = "analytics"

// Handler processes one decoded order event.
type Handler interface {
	Handle(ctx context.Context, envelope Envelope) error
}

// ProcessedStore is the Redis surface used to skip redelivered events.
type ProcessedStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Del(ctx context.Context, keys ...string) error
	IdempotencyKey(scope, id string) string
}

type receiver interface {
	Receive(ctx context.Context, f func(context.Context, *gcppubsub.Message)) error
}

// Worker consumes the orders subscription and feeds each event to a Handler
// at most once per TTL window.
type Worker struct {
	subscription receiver
	handler      Handler
	processed    ProcessedStore
	ttl          time.Duration
	logg         *logger.Logger
}

func NewWorker(subscription *gcppubsub.Subscriber, handler Handler, processed ProcessedStore, ttl time.Duration, logg *logger.Logger) (*Worker, error) {
	if subscription == nil {
		return nil, errors.New("orders subscription is required")
	}
	return newWorker(subscription, handler, processed, ttl, logg)
}

func newWorker(subscription receiver, handler Handler, processed ProcessedStore, ttl time.Duration, logg *logger.Logger) (*Worker, error) {
	if handler == nil {
		return nil, errors.New("handler is required")
	}
	if processed == nil {
		return nil, errors.New("processed store is required")
	}
	if logg == nil {
		return nil, errors.New("logger is required")
	}
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	return &Worker{
		subscription: subscription,
		handler:      handler,
		processed:    processed,
		ttl:          ttl,
		logg:         logg,
	}, nil
}

// Run receives messages until ctx is canceled.
func (w *Worker) Run(ctx context.Context) error {
	return w.subscription.Receive(ctx, func(innerCtx context.Context, msg *gcppubsub.Message) {
		if w.process(innerCtx, msg) {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

// process reports whether the message should be redelivered.
func (w *Worker) process(ctx context.Context, msg *gcppubsub.Message) bool {
	logCtx := w.logg.WithField(ctx, "message_id", msg.ID)

	envelope, err := decodeMessage(msg)
	if err != nil {
		w.logg.Warn(w.logg.WithField(logCtx, "error", err.Error()), "invalid order event message dropped")
		return false
	}
	logCtx = w.logg.WithFields(logCtx, map[string]any{
		"event_id":       envelope.EventID,
		"event_type":     envelope.EventType,
		"aggregate_type": envelope.AggregateType,
		"aggregate_id":   envelope.AggregateID,
	})

	key := w.processed.IdempotencyKey("evt:processed:"+consumerName, envelope.EventID)
	fresh, err := w.processed.SetNX(logCtx, key, "1", w.ttl)
	if err != nil {
		w.logg.Error(logCtx, "idempotency check failed", err)
		return true
	}
	if !fresh {
		w.logg.Info(logCtx, "order event already processed")
		return false
	}

	if err := w.handler.Handle(logCtx, *envelope); err != nil {
		if errors.Is(err, ErrUnsupportedEventType) {
			w.logg.Warn(logCtx, "order event type not tracked")
			return false
		}
		w.logg.Error(logCtx, "order event handler failed", err)
		if delErr := w.processed.Del(logCtx, key); delErr != nil {
			w.logg.Error(logCtx, "failed to release idempotency key", delErr)
		}
		return true
	}
	return false
}
