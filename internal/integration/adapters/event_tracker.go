package adapters

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cashback-engine/backend/internal/application/adapter"
)

const (
	// eventStream is the Redis stream analytics consumers read from.
	eventStream = "cashback:events"

	// eventStreamMaxLen caps the stream so an absent consumer cannot grow it
	// without bound. Trimming is approximate.
	eventStreamMaxLen = 100_000

	trackTimeout = 2 * time.Second
)

// eventTracker implements adapter.EventTracker on a Redis stream.
type eventTracker struct {
	client *redis.Client
}

// NewEventTracker creates a new Redis-backed event tracker.
func NewEventTracker(client *redis.Client) adapter.EventTracker {
	return &eventTracker{
		client: client,
	}
}

// Track publishes the event. Failures are logged and swallowed: analytics
// never blocks or fails a committed operation.
func (t *eventTracker) Track(ctx context.Context, event adapter.Event) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), trackTimeout)
	defer cancel()

	payload, err := json.Marshal(event.Payload)
	if err != nil {
		slog.Warn("Failed to marshal event payload", "event", event.Name, "error", err)
		payload = []byte("{}")
	}

	err = t.client.XAdd(ctx, &redis.XAddArgs{
		Stream: eventStream,
		MaxLen: eventStreamMaxLen,
		Approx: true,
		Values: map[string]interface{}{
			"name":    event.Name,
			"cpf":     event.CPF,
			"payload": string(payload),
			"at":      event.At.UTC().Format(time.RFC3339Nano),
		},
	}).Err()
	if err != nil {
		slog.Warn("Failed to track event", "event", event.Name, "cpf", event.CPF, "error", err)
	}
}
