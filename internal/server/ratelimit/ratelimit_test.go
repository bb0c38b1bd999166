package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAllow_BurstThenExhausted(t *testing.T) {
	l := New(0.001, 3) // effectively no refill within the test
	defer l.Stop()

	for i := 0; i < 3; i++ {
		info := l.Allow("10.0.0.1")
		assert.True(t, info.Allowed, "request %d within burst", i)
	}

	info := l.Allow("10.0.0.1")
	assert.False(t, info.Allowed)
	assert.Greater(t, info.RetryAfter, time.Duration(0))
}

func TestAllow_ClientsAreIndependent(t *testing.T) {
	l := New(0.001, 1)
	defer l.Stop()

	assert.True(t, l.Allow("a").Allowed)
	assert.False(t, l.Allow("a").Allowed)
	assert.True(t, l.Allow("b").Allowed)
}
