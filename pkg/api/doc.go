// Package api exposes the sanitizer, the document renderer and cache
// administration as a JSON HTTP API built on chi.
//
// JSON bodies use one envelope: {"data": ...} on success and
// {"error": {"code": "...", "message": "..."}} on failure. Content over the
// sanitizer limit answers 413 content_too_large, an invalid style 422
// invalid_style, malformed JSON 400 bad_request. WithRateLimit adds a per-client
// limit answering 429 too_many_requests. Rendered documents are
// served as text/html with the static security headers unless the client
// asks for JSON.
//
// WithFiles adds POST /files, a multipart upload converted to sanitized HTML
// by files.Processor.
//
//	a := api.New(san, renderer, manager, api.WithLogger(log))
//	r := chi.NewRouter()
//	r.Use(requestid.Middleware, api.RequestLogger(log))
//	r.Mount("/api", a.Routes())
package api
