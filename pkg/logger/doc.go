// Package logger builds the *slog.Logger shared by styledoc's packages and
// keeps attribute names consistent across them.
//
// # Architecture
//
// New picks slog.NewTextHandler or slog.NewJSONHandler from the configured
// Format. When ContextExtractor callbacks are registered it wraps that
// handler so they run for every record before it is written.
//
// Attribute constructors such as Component, Tier, CacheKey and Reason live
// in attr.go.
//
// # Usage
//
//	import "github.com/dmitrymomot/styledoc/pkg/logger"
//
//	func main() {
//	    log := logger.New(
//	        logger.WithDevelopment("styledoc"),
//	        logger.WithContextExtractors(requestid.LoggerExtractor()),
//	    )
//	    logger.SetAsDefault(log)
//
//	    ctx := requestid.WithContext(context.Background(), "abc-123")
//	    log.InfoContext(ctx, "rendered document",
//	        logger.CacheKey(key),
//	        logger.Duration(time.Since(start)),
//	    )
//	}
//
// # Configuration
//
// New writes JSON at info level to stdout. Options adjust it:
//
//   - WithEnvironment picks level and format from an environment name and
//     tags records with env and service. WithDevelopment and WithProduction
//     are shorthands.
//   - WithLevel, WithFormat and WithOutput override single settings.
//   - WithAttr attaches static attributes.
//   - WithContextExtractors injects attributes taken from the context.
//
// Libraries in this module accept a *slog.Logger and fall back to Discard
// when none is given.
//
// # Error Handling
//
// Error returns an empty attribute for a nil error, so it can be passed
// unconditionally:
//
//	log.Debug("cache: tier read failed", logger.Tier("disk"), logger.Error(err))
package logger
