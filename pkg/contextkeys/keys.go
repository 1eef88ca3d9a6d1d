// Package contextkeys provides centralized context key definitions
//
// IMPORTANT: All context keys used across the application must be defined here.
// This prevents typos, documents dependencies, and makes key usage discoverable.
//
// USAGE PATTERN:
//
//	import "github.com/platinummonkey/taskboard/pkg/contextkeys"
//	ctx = contextkeys.WithAuth(ctx, identity)
//	identity, ok := ctx.Value(contextkeys.AuthKey).(*auth.Identity)
package contextkeys

import "context"

// Key is the type for context keys to prevent collisions
type Key string

const (
	// AuthKey contains *auth.Identity
	// Set by: middleware.AuthMiddleware (pkg/middleware/auth.go)
	// Required by: protected routes, ownership checks, task creation
	// Type: *auth.Identity
	AuthKey Key = "auth_identity"

	// RequestIDKey contains request ID string (UUID)
	// Set by: httputil.RequestIDMiddleware
	// Used by: Logger, error responses
	// Type: string
	RequestIDKey Key = "request_id"

	// LoggerKey contains *logrus.Entry
	// Set by: httputil.LoggingMiddleware
	// Used by: Handlers and services that log with request context
	// Type: *logrus.Entry
	LoggerKey Key = "logger"
)

// WithAuth adds the authenticated identity to the context
func WithAuth(ctx context.Context, identity interface{}) context.Context {
	return context.WithValue(ctx, AuthKey, identity)
}

// WithRequestID adds request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// WithLogger adds logger to the context
func WithLogger(ctx context.Context, logger interface{}) context.Context {
	return context.WithValue(ctx, LoggerKey, logger)
}

// GetRequestID retrieves request ID from context
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}
