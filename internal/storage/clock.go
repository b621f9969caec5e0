package storage

import (
	"sync"
	"time"
)

// Clock hands out UTC timestamps at microsecond precision that never repeat
// and never go backwards, so updated_at always advances and creation order is
// total even for writes landing in the same microsecond.
type Clock struct {
	mu   sync.Mutex
	last time.Time
	now  func() time.Time
}

func NewClock() *Clock {
	return &Clock{now: time.Now}
}

// Now returns the next timestamp.
func (c *Clock) Now() time.Time {
	return c.After(time.Time{})
}

// After returns the next timestamp, strictly later than prev.
func (c *Clock) After(prev time.Time) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := c.now().UTC().Truncate(time.Microsecond)
	if !t.After(c.last) {
		t = c.last.Add(time.Microsecond)
	}
	if !t.After(prev) {
		t = prev.UTC().Truncate(time.Microsecond).Add(time.Microsecond)
	}
	c.last = t
	return t
}
