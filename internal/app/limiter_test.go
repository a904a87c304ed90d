package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestUserLimiter(t *testing.T) {
	l := NewUserLimiter(60, 2)
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	assert.True(t, l.Allow(1))
	assert.True(t, l.Allow(1))
	assert.False(t, l.Allow(1), "burst exhausted")
	assert.True(t, l.Allow(2), "other user has own bucket")

	now = now.Add(time.Second)
	assert.True(t, l.Allow(1), "one token per second")
}

func TestUserLimiterEvictsIdle(t *testing.T) {
	l := NewUserLimiter(60, 1)
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	l.Allow(1)
	l.Allow(2)
	assert.Equal(t, 2, l.Len())

	now = now.Add(time.Hour)
	l.Allow(3)
	assert.Equal(t, 1, l.Len())
}
