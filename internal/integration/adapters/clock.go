package adapters

import (
	"time"

	"github.com/cashback-engine/backend/internal/application/adapter"
)

// systemClock implements adapter.Clock on the system time in UTC.
type systemClock struct{}

// NewSystemClock creates the production clock.
func NewSystemClock() adapter.Clock {
	return systemClock{}
}

func (systemClock) Now() time.Time {
	return time.Now().UTC()
}
