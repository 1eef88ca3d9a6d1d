// Package middleware provides HTTP middleware for authentication, ownership
// checks and login rate limiting.
//
// # Middleware Components
//
// AuthMiddleware: Bearer token authentication
//
//	router.Use(middleware.NewAuthMiddleware(authenticator, logger).Handler)
//	// Resolves the token to an *auth.Identity and binds it to the request.
//	// No header (or a non-Bearer scheme) continues anonymously; a bad token is 401.
//
// RequireAuth: reject anonymous requests
//
//	protected.Use(middleware.RequireAuth(logger))
//
// RequireOwner: self-only and author-only routes
//
//	router.Handle("/tasks/{id}",
//		middleware.RequireOwner("id", tasks.AuthorOf, logger)(deleteHandler))
//
// RateLimitMiddleware: per client IP throttle, in-memory or Redis-backed
//
//	limiter := middleware.NewRateLimiter(config)                             // token bucket
//	limiter := middleware.NewDistributedRateLimiter(redisClient, config, "") // fixed window
//	login.Use(middleware.NewRateLimitMiddleware(limiter, metrics, logger).Handler)
//
// Rejected requests get 429 with a Retry-After header. When the Redis limiter
// is unreachable the middleware fails open by default.
//
// # Related Packages
//
//   - pkg/auth: Identity and token verification
//   - pkg/httputil: Error responses
package middleware
