// Package requestid correlates log records with the HTTP request that
// produced them.
//
// Middleware accepts a client supplied X-Request-ID when it is at most 128
// characters of [a-zA-Z0-9_-], and generates a UUID otherwise. The id is
// stored in the request context and echoed in the response header.
// LoggerExtractor plugs into logger.WithContextExtractors so every record
// logged with that context carries request_id.
//
//	log := logger.New(logger.WithContextExtractors(requestid.LoggerExtractor()))
//	r := chi.NewRouter()
//	r.Use(requestid.Middleware)
package requestid
