package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetSet(t *testing.T) {
	c := New()

	_, ok := c.Get("k")
	assert.False(t, ok)

	c.Set("k", "v", time.Minute)
	v, ok := c.Get("k")
	assert.True(t, ok)
	assert.Equal(t, "v", v)
}

func TestExpiry(t *testing.T) {
	c := New()

	c.Set("k", 1, 10*time.Millisecond)
	time.Sleep(20 * time.Millisecond)

	_, ok := c.Get("k")
	assert.False(t, ok, "expired entries are invisible")
	assert.Zero(t, c.Len(), "expired entries are dropped on read")
}

func TestClear(t *testing.T) {
	c := New()

	c.Set("a", 1, time.Minute)
	c.Set("b", 2, time.Minute)

	assert.Equal(t, 2, c.Clear())
	assert.Zero(t, c.Len())
}
