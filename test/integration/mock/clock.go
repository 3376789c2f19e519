package mock

import (
	"sync"
	"time"
)

// Clock is a settable clock. Scenarios pin the current instant so credit and
// expiration dates are deterministic.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock creates a clock pinned to the given instant.
func NewClock(now time.Time) *Clock {
	return &Clock{now: now.UTC()}
}

// Now returns the pinned instant.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Set pins the clock to a new instant.
func (c *Clock) Set(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now.UTC()
}

// Advance moves the pinned instant forward.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
