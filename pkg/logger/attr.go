package logger

import (
	"log/slog"
	"time"
)

// Error records err under "error". A nil error yields an empty Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// RequestID records the request identifier. An empty id yields an empty Attr.
func RequestID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("request_id", id)
}

// Duration records d under "duration".
func Duration(d time.Duration) slog.Attr {
	return slog.Duration("duration", d)
}

// Component records the component name under the key "component".
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

// Tier records a cache tier name under the key "tier".
func Tier(name string) slog.Attr {
	return slog.String("tier", name)
}

// CacheKey records a physical cache key under the key "cache_key".
func CacheKey(key string) slog.Attr {
	return slog.String("cache_key", key)
}

// Kind records what was acted on (tag, attribute, css-rule, ...) under the key "kind".
func Kind(kind string) slog.Attr {
	return slog.String("kind", kind)
}

// Name records the name of the affected item under the key "name".
func Name(name string) slog.Attr {
	return slog.String("name", name)
}

// Reason records why something was dropped or skipped under the key "reason".
func Reason(reason string) slog.Attr {
	return slog.String("reason", reason)
}

// Pattern records a matched pattern source under the key "pattern".
func Pattern(pattern string) slog.Attr {
	return slog.String("pattern", pattern)
}

// ClientIP records the client address under the key "client_ip".
func ClientIP(ip string) slog.Attr {
	return slog.String("client_ip", ip)
}
