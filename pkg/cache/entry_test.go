package cache_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/styledoc/pkg/cache"
)

func TestEntry_Expired(t *testing.T) {
	e := cache.NewEntry([]byte("v"), time.Second, epoch)

	tests := []struct {
		name      string
		at        time.Time
		expired   bool
		remaining time.Duration
	}{
		{"at creation", epoch, false, time.Second},
		{"half way", epoch.Add(500 * time.Millisecond), false, 500 * time.Millisecond},
		{"exactly at ttl", epoch.Add(time.Second), false, 0},
		{"past ttl", epoch.Add(time.Second + time.Nanosecond), true, 0},
		{"long after", epoch.Add(time.Hour), true, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expired, e.Expired(tt.at))
			assert.Equal(t, tt.remaining, e.Remaining(tt.at))
		})
	}
}

func TestEntry_JSON(t *testing.T) {
	e := cache.NewEntry([]byte("<p>hi</p>"), 90*time.Second, epoch)

	data, err := json.Marshal(e)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, 90.0, raw["ttl_seconds"])
	assert.Equal(t, "2026-01-01T00:00:00Z", raw["created_at"])

	var back cache.Entry
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, e.Value, back.Value)
	assert.True(t, e.CreatedAt.Equal(back.CreatedAt))
	assert.Equal(t, e.TTL, back.TTL)
}
