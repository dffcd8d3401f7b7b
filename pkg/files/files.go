package files

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dmitrymomot/styledoc/pkg/cache"
	"github.com/dmitrymomot/styledoc/pkg/logger"
)

// KeyPrefix namespaces processed files in the cache.
const KeyPrefix = "file_content_"

const (
	// DefaultMaxSize is the largest accepted file, in bytes.
	DefaultMaxSize = 50 << 20
	// DefaultTTL is how long processed files stay cached.
	DefaultTTL = 30 * time.Minute
)

// Sanitizer is the part of sanitizer.Sanitizer the processor uses.
type Sanitizer interface {
	Sanitize(ctx context.Context, raw string) (string, error)
}

// Cache is the part of cache.Manager the processor uses.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// File is one uploaded file.
type File struct {
	Name    string
	Content []byte
}

// Result is a processed file.
type Result struct {
	Name   string `json:"name"`
	Kind   Kind   `json:"kind"`
	HTML   string `json:"html"`
	Key    string `json:"key"`
	Cached bool   `json:"cached"`
}

// Option configures a Processor.
type Option func(*Processor)

// WithCache enables caching of processed files.
func WithCache(c Cache) Option {
	return func(p *Processor) { p.cache = c }
}

// WithTTL sets how long processed files stay cached.
func WithTTL(ttl time.Duration) Option {
	return func(p *Processor) {
		if ttl > 0 {
			p.ttl = ttl
		}
	}
}

// WithMaxSize bounds accepted files to n bytes.
func WithMaxSize(n int64) Option {
	return func(p *Processor) {
		if n > 0 {
			p.maxSize = n
		}
	}
}

// WithLogger sets the logger. Nil loggers are ignored.
func WithLogger(l *slog.Logger) Option {
	return func(p *Processor) {
		if l != nil {
			p.logger = l
		}
	}
}

// Processor converts uploaded files to sanitized HTML. Safe for concurrent use.
type Processor struct {
	sanitizer Sanitizer
	cache     Cache
	ttl       time.Duration
	maxSize   int64
	logger    *slog.Logger
}

// NewProcessor creates a processor. Without WithCache every call converts.
func NewProcessor(s Sanitizer, opts ...Option) *Processor {
	p := &Processor{
		sanitizer: s,
		ttl:       DefaultTTL,
		maxSize:   DefaultMaxSize,
		logger:    logger.Discard(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.With(logger.Component("files"))
	return p
}

// Process validates f and returns its content as a sanitized HTML fragment.
// Errors: ErrInvalidName, ErrUnsupportedType, ErrFileTooLarge, ErrEmptyFile,
// ErrEncoding, ErrExecutable, ErrImage, ErrImageTooLarge and the
// sanitizer's errors.
func (p *Processor) Process(ctx context.Context, f File) (Result, error) {
	if err := ValidateName(f.Name); err != nil {
		return Result{}, err
	}
	kind, err := KindOf(f.Name)
	if err != nil {
		return Result{}, err
	}
	if size := int64(len(f.Content)); size > p.maxSize {
		return Result{}, fmt.Errorf("%w: %d bytes, limit is %d", ErrFileTooLarge, size, p.maxSize)
	}
	if len(f.Content) == 0 {
		return Result{}, ErrEmptyFile
	}
	if err := checkExecutable(f.Content); err != nil {
		return Result{}, err
	}

	key, err := cache.ContentKey(KeyPrefix, f.Content, f.Name)
	if err != nil {
		return Result{}, err
	}
	res := Result{Name: f.Name, Kind: kind, Key: key}

	if p.cache != nil {
		if cached, ok := p.cache.Get(ctx, key); ok {
			p.logger.DebugContext(ctx, "files: cache hit", logger.Name(f.Name), logger.CacheKey(key))
			res.HTML, res.Cached = string(cached), true
			return res, nil
		}
	}

	start := time.Now()
	fragment, err := p.convert(kind, f)
	if err != nil {
		p.logger.WarnContext(ctx, "files: conversion failed",
			logger.Name(f.Name), logger.Kind(string(kind)), logger.Error(err))
		return Result{}, err
	}
	if res.HTML, err = p.sanitizer.Sanitize(ctx, fragment); err != nil {
		return Result{}, fmt.Errorf("files: sanitize %s: %w", f.Name, err)
	}

	if p.cache != nil {
		if err := p.cache.Set(ctx, key, []byte(res.HTML), p.ttl); err != nil {
			p.logger.WarnContext(ctx, "files: cache write failed", logger.CacheKey(key), logger.Error(err))
		}
	}

	p.logger.InfoContext(ctx, "files: file processed",
		logger.Name(f.Name),
		logger.Kind(string(kind)),
		logger.Duration(time.Since(start)),
		slog.Int("size", len(f.Content)),
	)
	return res, nil
}

func (p *Processor) convert(kind Kind, f File) (string, error) {
	if kind == KindImage {
		data, err := imageToPNG(f.Content)
		if err != nil {
			return "", err
		}
		return imageFigure(f.Name, data), nil
	}

	text, err := validateText(f.Content)
	if err != nil {
		return "", err
	}
	switch kind {
	case KindHTML:
		return text, nil
	case KindMarkdown:
		return markdownToHTML(text)
	case KindCode:
		return codeBlock(text), nil
	default:
		return paragraphs(text), nil
	}
}
