package main

import (
	"context"
	"testing"
	"time"

	"github.com/ilawngbayan/storybooks/internal/common/cache"
	"github.com/stretchr/testify/assert"
)

func TestCacheHealth_ReportsCounters(t *testing.T) {
	c := cache.New(0)
	defer c.Stop()

	c.Set("settings", 1, time.Minute)
	_, _ = c.Get("settings")
	_, _ = c.Get("missing")

	got := cacheHealth(c)(context.Background())
	assert.True(t, got.Healthy)
	assert.Equal(t, 1, got.Details["entries"])
	assert.Equal(t, int64(1), got.Details["hits"])
	assert.Equal(t, int64(1), got.Details["misses"])
}

func TestMaskDSN(t *testing.T) {
	assert.Equal(t, "***", maskDSN("file::memory:"))
	assert.Equal(t, "host=db us...sslmode=on", maskDSN("host=db user=admin password=secret sslmode=on"))
}
