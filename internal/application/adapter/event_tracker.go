package adapter

import (
	"context"
	"time"
)

// Event is an analytics event emitted after a successful state transition.
type Event struct {
	Name    string
	CPF     string
	Payload map[string]interface{}
	At      time.Time
}

// Analytics event names.
const (
	EventCashbackCredited = "cashback_credited"
	EventCashbackRedeemed = "cashback_redeemed"
	EventSaleCanceled     = "sale_canceled"
)

// EventTracker publishes analytics events. Tracking is fire-and-forget:
// implementations log failures and never return them to the caller.
type EventTracker interface {
	Track(ctx context.Context, event Event)
}
