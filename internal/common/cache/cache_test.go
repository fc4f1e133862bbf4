package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) now() time.Time { return f.t }

func TestLocalCache_ExpiresAfterTTL(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := New(0, WithNow(clock.now))
	defer c.Stop()

	c.Set("maintenance_mode", true, 30*time.Second)

	v, ok := c.Get("maintenance_mode")
	assert.True(t, ok)
	assert.Equal(t, true, v)

	clock.t = clock.t.Add(30 * time.Second)
	_, ok = c.Get("maintenance_mode")
	assert.False(t, ok)

	assert.Equal(t, Stats{Hits: 1, Misses: 1}, c.Stats())
}

func TestLocalCache_DeleteAndSweep(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := New(0, WithNow(clock.now))
	defer c.Stop()

	c.Set("a", 1, time.Minute)
	c.Set("b", 2, time.Hour)
	c.Delete("a")
	_, ok := c.Get("a")
	assert.False(t, ok)

	c.Set("c", 3, time.Second)
	clock.t = clock.t.Add(time.Minute)
	c.DeleteExpired()
	assert.Equal(t, 1, c.Len())
}

func TestLocalCache_StopIsIdempotent(t *testing.T) {
	c := New(time.Millisecond)
	c.Stop()
	c.Stop()
}
