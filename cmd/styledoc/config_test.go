package main

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/styledoc/pkg/cache"
	"github.com/dmitrymomot/styledoc/pkg/config"
	"github.com/dmitrymomot/styledoc/pkg/ratelimit"
	"github.com/dmitrymomot/styledoc/pkg/sanitizer"
)

func TestAppConfig_Defaults(t *testing.T) {
	for _, key := range []string{"CACHE_MEMORY_CAPACITY", "CACHE_TTL", "SANITIZER_STRATEGY"} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}

	var cfg appConfig
	require.NoError(t, config.ForceReloadConfig(&cfg))

	assert.Equal(t, cache.DefaultMemoryCapacity, cfg.CacheMemoryCapacity)
	assert.Equal(t, sanitizer.StrategyStructural.String(), cfg.FilterStrategy)
	assert.Positive(t, cfg.CacheTTL)
}

func TestAppConfig_Strategy(t *testing.T) {
	tests := []struct {
		in      string
		want    sanitizer.Strategy
		wantErr bool
	}{
		{in: "structural", want: sanitizer.StrategyStructural},
		{in: "regex", want: sanitizer.StrategyRegex},
		{in: "bleach", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := appConfig{FilterStrategy: tt.in}.strategy()
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAppConfig_Policy(t *testing.T) {
	t.Run("default", func(t *testing.T) {
		p, err := appConfig{}.policy()
		require.NoError(t, err)
		assert.Equal(t, sanitizer.DefaultMaxContentLength, p.MaxContentLength())
	})

	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "policy.yaml")
		require.NoError(t, os.WriteFile(path, []byte("allowed_tags: [p]\nmax_content_length: 10\n"), 0o644))

		p, err := appConfig{PolicyFile: path}.policy()
		require.NoError(t, err)
		assert.Equal(t, 10, p.MaxContentLength())
		assert.Equal(t, []string{"p"}, p.Tags())
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := appConfig{PolicyFile: filepath.Join(t.TempDir(), "nope.yaml")}.policy()
		require.ErrorIs(t, err, sanitizer.ErrPolicyFile)
	})
}

func TestAppConfig_CORS(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	t.Run("disabled", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/cache/stats", nil)
		req.Header.Set("Origin", "https://editor.example.com")
		rec := httptest.NewRecorder()
		appConfig{}.withCORS(next).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusTeapot, rec.Code)
		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})

	cfg := appConfig{CORSOrigins: []string{"https://editor.example.com"}}
	h := cfg.withCORS(next)

	t.Run("allowed origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/cache/stats", nil)
		req.Header.Set("Origin", "https://editor.example.com")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusTeapot, rec.Code)
		assert.Equal(t, "https://editor.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Contains(t, rec.Header().Get("Access-Control-Expose-Headers"), http.CanonicalHeaderKey(ratelimit.HeaderRemaining))
	})

	t.Run("preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/api/render", nil)
		req.Header.Set("Origin", "https://editor.example.com")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), http.MethodPost)
	})

	t.Run("other origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/cache/stats", nil)
		req.Header.Set("Origin", "https://evil.example.com")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusTeapot, rec.Code)
		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})
}
