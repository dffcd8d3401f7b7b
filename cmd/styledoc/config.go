package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/rs/cors"

	"github.com/dmitrymomot/styledoc/pkg/httpserver"
	"github.com/dmitrymomot/styledoc/pkg/ratelimit"
	"github.com/dmitrymomot/styledoc/pkg/redis"
	"github.com/dmitrymomot/styledoc/pkg/requestid"
	"github.com/dmitrymomot/styledoc/pkg/sanitizer"
)

type appConfig struct {
	Env      string `env:"APP_ENV" envDefault:"development"`
	Service  string `env:"APP_NAME" envDefault:"styledoc"`
	LogLevel string `env:"LOG_LEVEL"`

	// MetricsExporter is prometheus, stdout or none.
	MetricsExporter string `env:"METRICS_EXPORTER" envDefault:"prometheus"`

	HTTP      httpserver.Config
	Redis     redis.Config
	RateLimit ratelimit.Config

	// TrustedIPHeaders lists the proxy headers carrying the client address, highest priority first.
	TrustedIPHeaders []string `env:"TRUSTED_IP_HEADERS" envSeparator:","`

	CacheDir             string        `env:"CACHE_DIR" envDefault:"./cache"`
	CacheTTL             time.Duration `env:"CACHE_TTL" envDefault:"1h"`
	CacheMemoryCapacity  int           `env:"CACHE_MEMORY_CAPACITY" envDefault:"10000"`
	CacheCleanupInterval time.Duration `env:"CACHE_CLEANUP_INTERVAL" envDefault:"5m"`

	PolicyFile     string `env:"SANITIZER_POLICY_FILE"`
	FilterStrategy string `env:"SANITIZER_STRATEGY" envDefault:"structural"`

	// CORSOrigins enables cross-origin calls from the listed origins. Empty disables CORS.
	CORSOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`

	// FileMaxSize bounds uploads accepted by POST /api/files. API_MAX_BODY_SIZE still applies.
	FileMaxSize  int64         `env:"FILE_MAX_SIZE" envDefault:"52428800"`
	FileCacheTTL time.Duration `env:"FILE_CACHE_TTL" envDefault:"30m"`

	MaxBodySize  int64         `env:"API_MAX_BODY_SIZE" envDefault:"8388608"`
	ReadyTimeout time.Duration `env:"READY_TIMEOUT" envDefault:"2s"`
}

func (c appConfig) strategy() (sanitizer.Strategy, error) {
	switch c.FilterStrategy {
	case sanitizer.StrategyStructural.String():
		return sanitizer.StrategyStructural, nil
	case sanitizer.StrategyRegex.String():
		return sanitizer.StrategyRegex, nil
	default:
		return 0, fmt.Errorf("unknown sanitizer strategy %q", c.FilterStrategy)
	}
}

func (c appConfig) policy() (*sanitizer.Policy, error) {
	if c.PolicyFile == "" {
		return sanitizer.DefaultPolicy(), nil
	}
	return sanitizer.LoadPolicyFile(c.PolicyFile)
}

// withCORS wraps h with a CORS handler for the configured origins, or returns h
// unchanged when none are configured.
func (c appConfig) withCORS(h http.Handler) http.Handler {
	if len(c.CORSOrigins) == 0 {
		return h
	}
	return cors.New(cors.Options{
		AllowedOrigins: c.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Origin", "Content-Type", "Accept", requestid.Header},
		ExposedHeaders: []string{
			"X-Cache",
			requestid.Header,
			ratelimit.HeaderLimit,
			ratelimit.HeaderRemaining,
			ratelimit.HeaderReset,
			ratelimit.HeaderRetryAfter,
		},
	}).Handler(h)
}
