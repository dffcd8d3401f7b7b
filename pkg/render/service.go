package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/dmitrymomot/styledoc/pkg/cache"
	"github.com/dmitrymomot/styledoc/pkg/logger"
)

// KeyPrefix namespaces rendered documents in the cache.
const KeyPrefix = "html_output_"

// DefaultTitle is the <title> of rendered documents.
const DefaultTitle = "Styled Document"

// ContentSanitizer is the part of sanitizer.Sanitizer the renderer uses.
type ContentSanitizer interface {
	Sanitize(ctx context.Context, raw string) (string, error)
	FilterCSS(ctx context.Context, raw string) string
}

// Cache is the part of cache.Manager the renderer uses.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Document is one render request.
type Document struct {
	Content string `json:"content"`
	Style   Style  `json:"style"`
}

// Result is a rendered document.
type Result struct {
	HTML   string `json:"html"`
	Key    string `json:"key"`
	Cached bool   `json:"cached"`
}

// Option configures a Service.
type Option func(*Service)

// WithCache enables caching of rendered documents.
func WithCache(c Cache) Option {
	return func(s *Service) { s.cache = c }
}

// WithTTL sets how long rendered documents stay cached. Non-positive
// values keep the cache default.
func WithTTL(ttl time.Duration) Option {
	return func(s *Service) { s.ttl = ttl }
}

// WithLogger sets the logger. Nil loggers are ignored.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithTitle sets the document title.
func WithTitle(title string) Option {
	return func(s *Service) {
		if title != "" {
			s.title = title
		}
	}
}

// Service turns untrusted content and a style into a self-contained HTML
// document. Safe for concurrent use.
type Service struct {
	sanitizer ContentSanitizer
	cache     Cache
	ttl       time.Duration
	title     string
	logger    *slog.Logger
	inflight  singleflight.Group
}

// NewService creates a renderer. Without WithCache every call renders.
func NewService(s ContentSanitizer, opts ...Option) *Service {
	svc := &Service{
		sanitizer: s,
		title:     DefaultTitle,
		logger:    logger.Discard(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	svc.logger = svc.logger.With(logger.Component("render"))
	return svc
}

// Render validates the style, then returns the cached document for the
// content and style or renders and caches a new one. The cache key is
// KeyPrefix + hash(content) + "_" + hash(style as JSON). Concurrent calls
// missing the same key render once. Cache write failures are logged and do
// not fail the call.
// Errors: ErrInvalidStyle, sanitizer.ErrContentTooLarge, ErrTemplate.
func (s *Service) Render(ctx context.Context, doc Document) (Result, error) {
	if err := doc.Style.Validate(); err != nil {
		return Result{}, err
	}

	key, err := cache.ContentKey(KeyPrefix, []byte(doc.Content), doc.Style)
	if err != nil {
		return Result{}, errors.Join(ErrInvalidStyle, err)
	}

	if s.cache != nil {
		if cached, ok := s.cache.Get(ctx, key); ok {
			s.logger.DebugContext(ctx, "render: cache hit", logger.CacheKey(key))
			return Result{HTML: string(cached), Key: key, Cached: true}, nil
		}
	}

	// Concurrent misses for one key share a single render.
	v, err, shared := s.inflight.Do(key, func() (any, error) {
		return s.render(ctx, key, doc)
	})
	if err != nil {
		return Result{}, err
	}
	if shared {
		s.logger.DebugContext(ctx, "render: joined in-flight render", logger.CacheKey(key))
	}
	return Result{HTML: v.(string), Key: key}, nil
}

func (s *Service) render(ctx context.Context, key string, doc Document) (string, error) {
	start := time.Now()
	content, err := s.sanitizer.Sanitize(ctx, doc.Content)
	if err != nil {
		return "", fmt.Errorf("render: sanitize content: %w", err)
	}
	css := s.sanitizer.FilterCSS(ctx, doc.Style.Stylesheet())

	var buf bytes.Buffer
	err = documentTemplate.Execute(&buf, documentData{
		Title:   s.title,
		Headers: SecurityHeaders(),
		// Both values come out of the sanitizer.
		CSS:     template.CSS(css),
		Content: template.HTML(content),
	})
	if err != nil {
		return "", errors.Join(ErrTemplate, err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, buf.Bytes(), s.ttl); err != nil {
			s.logger.WarnContext(ctx, "render: cache write failed", logger.CacheKey(key), logger.Error(err))
		}
	}

	s.logger.InfoContext(ctx, "render: document rendered",
		logger.CacheKey(key),
		logger.Duration(time.Since(start)),
		slog.Int("size", buf.Len()),
	)
	return buf.String(), nil
}
