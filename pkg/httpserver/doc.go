// Package httpserver runs an http.Handler with graceful shutdown and
// provides liveness and readiness handlers.
//
// Run blocks until its context is cancelled, SIGINT or SIGTERM arrives, or
// the listener fails, then calls http.Server.Shutdown with the configured
// deadline. Errors are wrapped with ErrStart and ErrShutdown.
//
//	srv := httpserver.NewFromConfig(cfg.HTTP, httpserver.WithLogger(log))
//	if err := srv.Run(ctx, router); err != nil {
//		log.Error("server failed", logger.Error(err))
//	}
//
// Readiness checks get the request context bounded by a timeout:
//
//	r.Get("/health/ready", httpserver.ReadinessHandler(log, time.Second,
//		httpserver.Check{Name: "redis", Fn: store.Ping},
//	))
package httpserver
