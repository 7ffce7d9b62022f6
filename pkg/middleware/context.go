// Package middleware integrates the authorization core into an HTTP
// request pipeline: request-ID stamping, context resolution, and route
// guards built from enforcement requests.
package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/caseward/caseward/pkg/contextkeys"
	"github.com/caseward/caseward/pkg/observability"
	"github.com/caseward/caseward/pkg/resolver"
)

// CredentialDecoder extracts the authenticated principal and optional
// fast-path claims from a request. Credential verification itself is an
// external collaborator; by the time a request reaches this package its
// signature has already been checked.
type CredentialDecoder interface {
	Decode(r *http.Request) (principalID string, claims *resolver.Claims, err error)
}

// CredentialDecoderFunc adapts a function to CredentialDecoder.
type CredentialDecoderFunc func(r *http.Request) (string, *resolver.Claims, error)

func (f CredentialDecoderFunc) Decode(r *http.Request) (string, *resolver.Claims, error) {
	return f(r)
}

// ContextMiddleware resolves the authorization context onto every request
// before any handler runs.
type ContextMiddleware struct {
	resolver *resolver.Resolver
	decoder  CredentialDecoder
	logger   *observability.Logger
}

// NewContextMiddleware creates the resolution middleware.
func NewContextMiddleware(res *resolver.Resolver, decoder CredentialDecoder, logger *observability.Logger) *ContextMiddleware {
	return &ContextMiddleware{resolver: res, decoder: decoder, logger: logger}
}

// Handler wraps an HTTP handler with context resolution. Requests without
// a resolvable identity get 401; a transient resolution failure denies
// with 403 rather than guessing a scope.
func (m *ContextMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principalID, claims, err := m.decoder.Decode(r)
		if err != nil || principalID == "" {
			writeError(w, http.StatusUnauthorized, "UNAUTHENTICATED")
			return
		}

		authzCtx, err := m.resolver.Resolve(r.Context(), principalID, claims, false)
		if err != nil {
			m.writeResolutionError(w, r, err)
			return
		}

		ctx := withAuthorization(r.Context(), authzCtx)
		ctx = contextkeys.WithPrincipalID(ctx, principalID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func withAuthorization(ctx context.Context, ac *resolver.AuthorizationContext) context.Context {
	return context.WithValue(ctx, contextkeys.AuthzKey, ac)
}

func (m *ContextMiddleware) writeResolutionError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, resolver.ErrIdentityNotFound):
		writeError(w, http.StatusUnauthorized, "IDENTITY_NOT_FOUND")
	case errors.Is(err, resolver.ErrResolutionUnavailable):
		// Fail closed: deny rather than resolve into a guessed scope.
		m.logger.WithError(err).WithField("request_id", contextkeys.GetRequestID(r.Context())).
			Error("context resolution unavailable; denying")
		writeError(w, http.StatusForbidden, "RESOLUTION_UNAVAILABLE")
	default:
		writeError(w, http.StatusInternalServerError, "INTERNAL")
	}
}

// AuthorizationFromContext returns the resolved context attached by
// ContextMiddleware, or nil when resolution has not run.
func AuthorizationFromContext(ctx context.Context) *resolver.AuthorizationContext {
	if ac, ok := ctx.Value(contextkeys.AuthzKey).(*resolver.AuthorizationContext); ok {
		return ac
	}
	return nil
}

// RequestIDMiddleware stamps every request with a UUID, exposed on the
// response for support correlation.
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		w.Header().Set("X-Request-ID", requestID)
		ctx := contextkeys.WithRequestID(r.Context(), requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
