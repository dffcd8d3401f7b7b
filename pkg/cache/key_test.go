package cache_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/styledoc/pkg/cache"
)

func TestNormalizeKey(t *testing.T) {
	tests := []struct {
		name string
		key  string
		want string
	}{
		{name: "lower-cases", key: "Template:Modern", want: "template:modern"},
		{name: "replaces spaces", key: "my template key", want: "my_template_key"},
		{name: "trims", key: "  k  ", want: "k"},
		{name: "empty", key: "   ", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cache.NormalizeKey(tt.key))
		})
	}

	t.Run("hashes long keys", func(t *testing.T) {
		long := strings.Repeat("a", cache.MaxKeyLength+1)
		got := cache.NormalizeKey(long)
		assert.Len(t, got, 64)
		assert.Equal(t, got, cache.NormalizeKey(strings.ToUpper(long)))
		assert.NotEqual(t, got, cache.NormalizeKey(long+"b"))
	})

	t.Run("keeps keys at the limit", func(t *testing.T) {
		k := strings.Repeat("a", cache.MaxKeyLength)
		assert.Equal(t, k, cache.NormalizeKey(k))
	})
}

func TestContentKey(t *testing.T) {
	type style struct {
		Font string `json:"font"`
		Size int    `json:"size"`
	}

	k1, err := cache.ContentKey("html_output_", []byte("<p>x</p>"), style{Font: "Inter", Size: 16})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(k1, "html_output_"))
	parts := strings.Split(strings.TrimPrefix(k1, "html_output_"), "_")
	require.Len(t, parts, 2)
	assert.Len(t, parts[0], 16)
	assert.Len(t, parts[1], 16)

	k2, err := cache.ContentKey("html_output_", []byte("<p>x</p>"), style{Font: "Inter", Size: 16})
	require.NoError(t, err)
	assert.Equal(t, k1, k2)

	k3, err := cache.ContentKey("html_output_", []byte("<p>x</p>"), style{Font: "Inter", Size: 18})
	require.NoError(t, err)
	assert.NotEqual(t, k1, k3)

	t.Run("maps hash independent of insertion order", func(t *testing.T) {
		a := map[string]any{"font": "Inter", "size": 16, "color": "#000"}
		b := map[string]any{"color": "#000", "size": 16, "font": "Inter"}
		ha, err := cache.StyleHash(a)
		require.NoError(t, err)
		hb, err := cache.StyleHash(b)
		require.NoError(t, err)
		assert.Equal(t, ha, hb)
	})

	t.Run("unencodable style", func(t *testing.T) {
		_, err := cache.ContentKey("p_", nil, make(chan int))
		assert.Error(t, err)
	})
}

func TestContentHash(t *testing.T) {
	// sha256("hello") = 2cf24dba5fb0a30e26e83b2ac5b9e29e...
	assert.Equal(t, "2cf24dba5fb0a30e", cache.ContentHash([]byte("hello")))
}
