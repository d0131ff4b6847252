// Package handlers contains reusable HTTP building blocks for the REST API:
// health checks and middleware.
//
// # Health Checks
//
// A CompositeHealthChecker runs a fixed set of probes in parallel:
//
//	checker := handlers.NewCompositeHealthChecker("v1.0.0", 0,
//		handlers.DatabaseProbe(store),
//		handlers.CacheProbe(cache),
//	)
//	status := checker.Check(ctx)
//
// A failed cache probe reports the service unhealthy but still ready, since
// every read falls through to the database.
//
// # Middleware
//
//	auth := handlers.NewAPIKeyAuth("X-API-Key", cfg.HTTP.AdminKeyHash, nil)
//	protected := auth.Middleware(myHandler)
//
//	secure := handlers.SecurityHeadersMiddleware(myHandler)
//	limited := handlers.RequestSizeLimitMiddleware(1 << 20)(myHandler)
package handlers
