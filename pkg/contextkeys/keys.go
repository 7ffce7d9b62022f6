// Package contextkeys provides centralized context key definitions
//
// IMPORTANT: All context keys used across the application must be defined here.
// This prevents typos, documents dependencies, and makes key usage discoverable.
//
// USAGE PATTERN:
//   import "github.com/caseward/caseward/pkg/contextkeys"
//   ctx = context.WithValue(ctx, contextkeys.AuthzKey, authzCtx)
//   authzCtx := ctx.Value(contextkeys.AuthzKey).(*resolver.AuthorizationContext)
package contextkeys

import "context"

// Key is the type for context keys to prevent collisions
type Key string

const (
	// AuthzKey contains *resolver.AuthorizationContext
	// Set by: middleware.ContextMiddleware (pkg/middleware/context.go)
	// Required by: route guards, scope filter construction
	// Type: *resolver.AuthorizationContext
	AuthzKey Key = "authorization_context"

	// RequestIDKey contains request ID string (UUID)
	// Set by: HTTP middleware
	// Used by: Logger, policy decision records
	// Type: string
	RequestIDKey Key = "request_id"

	// PrincipalIDKey contains the authenticated principal id
	// Set by: middleware.ContextMiddleware after resolution
	// Used by: Logger, policy decision records
	// Type: string
	PrincipalIDKey Key = "principal_id"

	// LoggerKey contains *observability.Logger
	// Set by: observability middleware
	// Used by: handlers that need structured logging with request context
	// Type: *observability.Logger
	LoggerKey Key = "logger"
)

// WithRequestID adds request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// GetRequestID retrieves request ID from context
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}

// WithPrincipalID adds the principal id to the context
func WithPrincipalID(ctx context.Context, principalID string) context.Context {
	return context.WithValue(ctx, PrincipalIDKey, principalID)
}

// GetPrincipalID retrieves the principal id from context
func GetPrincipalID(ctx context.Context) string {
	if principalID, ok := ctx.Value(PrincipalIDKey).(string); ok {
		return principalID
	}
	return ""
}
