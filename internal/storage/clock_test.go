package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClock_StrictlyIncreasing(t *testing.T) {
	fixed := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	c := &Clock{now: func() time.Time { return fixed }}

	first := c.Now()
	second := c.Now()

	assert.True(t, first.Equal(fixed))
	assert.Equal(t, time.Microsecond, second.Sub(first))
}

func TestClock_AfterPrevious(t *testing.T) {
	fixed := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	c := &Clock{now: func() time.Time { return fixed }}

	future := fixed.Add(time.Hour)
	got := c.After(future)

	assert.True(t, got.After(future))
	assert.True(t, c.Now().After(got))
}

func TestClock_UTCMicroseconds(t *testing.T) {
	local := time.Date(2025, 3, 1, 12, 0, 0, 123456789, time.FixedZone("X", 3*3600))
	c := &Clock{now: func() time.Time { return local }}

	got := c.Now()

	assert.Equal(t, time.UTC, got.Location())
	assert.Equal(t, 123456000, got.Nanosecond())
}
