package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/styledoc/pkg/cache"
	"github.com/dmitrymomot/styledoc/pkg/files"
	"github.com/dmitrymomot/styledoc/pkg/logger"
	"github.com/dmitrymomot/styledoc/pkg/ratelimit"
	"github.com/dmitrymomot/styledoc/pkg/render"
)

// DefaultMaxBodySize bounds request bodies. It leaves room for the
// sanitizer's default 1M character limit encoded as JSON.
const DefaultMaxBodySize = 8 << 20

// Sanitizer is the part of sanitizer.Sanitizer the API exposes.
type Sanitizer interface {
	Sanitize(ctx context.Context, raw string) (string, error)
	FilterCSS(ctx context.Context, raw string) string
}

// Renderer renders documents.
type Renderer interface {
	Render(ctx context.Context, doc render.Document) (render.Result, error)
}

// FileProcessor converts uploaded files to sanitized HTML.
type FileProcessor interface {
	Process(ctx context.Context, f files.File) (files.Result, error)
}

// FileField is the multipart form field carrying an upload.
const FileField = "file"

// CacheAdmin exposes cache statistics and flushing.
type CacheAdmin interface {
	Stats(ctx context.Context) cache.Stats
	Clear(ctx context.Context) error
}

// Option configures an API.
type Option func(*API)

// WithLogger sets the logger. Nil loggers are ignored.
func WithLogger(l *slog.Logger) Option {
	return func(a *API) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithMaxBodySize bounds request bodies to n bytes.
func WithMaxBodySize(n int64) Option {
	return func(a *API) {
		if n > 0 {
			a.maxBody = n
		}
	}
}

// WithFiles enables POST /files.
func WithFiles(p FileProcessor) Option {
	return func(a *API) { a.files = p }
}

// WithRateLimit limits every route per client key. Rejections answer 429
// too_many_requests with a Retry-After header.
func WithRateLimit(l ratelimit.Limiter, key ratelimit.KeyFunc) Option {
	return func(a *API) {
		if l != nil && key != nil {
			a.limiter, a.limitKey = l, key
		}
	}
}

// API serves the sanitizer, the renderer and cache administration over HTTP.
type API struct {
	sanitizer Sanitizer
	renderer  Renderer
	cache     CacheAdmin
	files     FileProcessor
	logger    *slog.Logger
	maxBody   int64
	limiter   ratelimit.Limiter
	limitKey  ratelimit.KeyFunc
}

// New creates the API.
func New(s Sanitizer, r Renderer, c CacheAdmin, opts ...Option) *API {
	a := &API{
		sanitizer: s,
		renderer:  r,
		cache:     c,
		logger:    logger.Discard(),
		maxBody:   DefaultMaxBodySize,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.logger = a.logger.With(logger.Component("api"))
	return a
}

// Routes returns the API router, to be mounted under /api.
//
//	POST   /sanitize     {"html": "..."}            -> {"data": {"html": "..."}}
//	POST   /css          {"css": "..."}             -> {"data": {"css": "..."}}
//	POST   /render       {"content": "...", "style": {...}} -> text/html, or JSON with Accept: application/json
//	POST   /files        multipart form, field "file"  -> {"data": {"name": "...", "kind": "...", "html": "..."}}
//	GET    /cache/stats                             -> {"data": {...}}
//	DELETE /cache                                   -> 204
func (a *API) Routes() chi.Router {
	r := chi.NewRouter()
	if a.limiter != nil {
		r.Use(ratelimit.Middleware(a.limiter, a.limitKey,
			ratelimit.WithOnLimitReached(a.limitReached),
			ratelimit.WithLogger(a.logger),
		))
	}
	r.NotFound(a.wrap(func(*http.Request) Response { return JSONError(ErrNotFound) }))
	r.MethodNotAllowed(a.wrap(func(*http.Request) Response { return JSONError(ErrMethodNotAllowed) }))

	r.Post("/sanitize", a.wrap(a.sanitize))
	r.Post("/css", a.wrap(a.css))
	r.Post("/render", a.wrap(a.render))
	if a.files != nil {
		r.Post("/files", a.wrap(a.uploadFile))
	}
	r.Get("/cache/stats", a.wrap(a.cacheStats))
	r.Delete("/cache", a.wrap(a.clearCache))
	return r
}

type htmlBody struct {
	HTML string `json:"html"`
}

type cssBody struct {
	CSS string `json:"css"`
}

type renderRequest struct {
	Content string        `json:"content"`
	Style   *render.Style `json:"style"`
}

func (a *API) sanitize(r *http.Request) Response {
	var req htmlBody
	if err := a.decode(r, &req); err != nil {
		return JSONError(err)
	}
	out, err := a.sanitizer.Sanitize(r.Context(), req.HTML)
	if err != nil {
		return JSONError(err)
	}
	return JSON(htmlBody{HTML: out})
}

func (a *API) css(r *http.Request) Response {
	var req cssBody
	if err := a.decode(r, &req); err != nil {
		return JSONError(err)
	}
	return JSON(cssBody{CSS: a.sanitizer.FilterCSS(r.Context(), req.CSS)})
}

func (a *API) render(r *http.Request) Response {
	// Fields missing from the request keep their default values.
	style := render.DefaultStyle()
	req := renderRequest{Style: &style}
	if err := a.decode(r, &req); err != nil {
		return JSONError(err)
	}
	if req.Style == nil {
		req.Style = &style
	}

	res, err := a.renderer.Render(r.Context(), render.Document{Content: req.Content, Style: *req.Style})
	if err != nil {
		return JSONError(err)
	}
	if wantsJSON(r) {
		return JSON(res)
	}
	return Document(res)
}

func (a *API) uploadFile(r *http.Request) Response {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "multipart/form-data" {
		return JSONError(ErrUnsupportedMediaType)
	}
	file, header, err := r.FormFile(FileField)
	if err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			return JSONError(err)
		}
		return JSONError(fmt.Errorf("%w: %s", ErrBadRequest, err.Error()))
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return JSONError(fmt.Errorf("%w: %s", ErrBadRequest, err.Error()))
	}
	res, err := a.files.Process(r.Context(), files.File{Name: header.Filename, Content: content})
	if err != nil {
		return JSONError(err)
	}
	return JSON(res)
}

func (a *API) cacheStats(r *http.Request) Response {
	return JSON(a.cache.Stats(r.Context()))
}

func (a *API) clearCache(r *http.Request) Response {
	if err := a.cache.Clear(r.Context()); err != nil {
		return JSONError(err)
	}
	a.logger.InfoContext(r.Context(), "api: cache cleared")
	return NoContent()
}

func (a *API) limitReached(w http.ResponseWriter, r *http.Request, _ *ratelimit.Result) {
	if err := JSONError(ErrTooManyRequests).Render(w, r); err != nil {
		a.logger.ErrorContext(r.Context(), "api: failed to write response", logger.Error(err))
	}
}

// decode reads one JSON object from the body. Unknown fields are rejected.
func (a *API) decode(r *http.Request, v any) error {
	if ct := r.Header.Get("Content-Type"); ct != "" {
		mediaType, _, err := mime.ParseMediaType(ct)
		if err != nil || mediaType != "application/json" {
			return ErrUnsupportedMediaType
		}
	}

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			return err
		}
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty body", ErrBadRequest)
		}
		return fmt.Errorf("%w: %s", ErrBadRequest, err.Error())
	}
	if dec.More() {
		return fmt.Errorf("%w: trailing data after JSON object", ErrBadRequest)
	}
	return nil
}

// wrap adapts a handler returning a Response to http.HandlerFunc.
func (a *API) wrap(h func(r *http.Request) Response) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, a.maxBody)
		resp := h(r)
		if jr, ok := resp.(jsonResponse); ok && jr.body.Error != nil {
			level := slog.LevelWarn
			if jr.status >= http.StatusInternalServerError {
				level = slog.LevelError
			}
			a.logger.Log(r.Context(), level, "api: request failed",
				slog.String("path", r.URL.Path),
				slog.Int("status", jr.status),
				slog.String("code", jr.body.Error.Code),
				logger.Error(jr.err),
			)
		}
		if err := resp.Render(w, r); err != nil {
			a.logger.ErrorContext(r.Context(), "api: failed to write response", logger.Error(err))
		}
	}
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}
