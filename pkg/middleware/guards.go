package middleware

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/caseward/caseward/pkg/authz"
	"github.com/caseward/caseward/pkg/enforcer"
	"github.com/caseward/caseward/pkg/resolver"
)

// Route variables the guards read. Routes that guard a specific object
// declare {id}; firm-scoped routes declare {firm_id}.
const (
	VarFirmID   = "firm_id"
	VarObjectID = "id"
)

// Guard builds route guards around an enforcer. Guards run after
// ContextMiddleware and turn its decision into the HTTP mapping: deny is
// 403 with the reason code, a tenant mismatch is 404 so cross-firm requests
// cannot distinguish "absent" from "forbidden".
type Guard struct {
	enforcer *enforcer.Enforcer
	resolver *resolver.Resolver
	decoder  CredentialDecoder
}

// NewGuard creates a guard builder. The resolver and decoder are needed
// only by RequireFreshContext; pass nil when no route uses it.
func NewGuard(enf *enforcer.Enforcer, res *resolver.Resolver, decoder CredentialDecoder) *Guard {
	return &Guard{enforcer: enf, resolver: res, decoder: decoder}
}

// RequireLevel guards a route with a module-level check.
func (g *Guard) RequireLevel(namespace string, level authz.Level, action string) mux.MiddlewareFunc {
	return g.require(func(r *http.Request) enforcer.Request {
		return enforcer.Request{
			Resource: enforcer.Resource{Namespace: namespace, ID: mux.Vars(r)[VarObjectID]},
			Action:   action,
			Level:    level,
		}
	})
}

// RequireRelation guards a route with a module-level check plus a relation
// requirement on the route's object; any of the named relations satisfies.
func (g *Guard) RequireRelation(namespace string, level authz.Level, action string, relationNames ...string) mux.MiddlewareFunc {
	return g.require(func(r *http.Request) enforcer.Request {
		return enforcer.Request{
			Resource:  enforcer.Resource{Namespace: namespace, ID: mux.Vars(r)[VarObjectID]},
			Action:    action,
			Level:     level,
			Relations: relationNames,
		}
	})
}

func (g *Guard) require(build func(r *http.Request) enforcer.Request) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			subject := AuthorizationFromContext(r.Context())
			if subject == nil {
				writeError(w, http.StatusUnauthorized, "UNAUTHENTICATED")
				return
			}

			decision := g.enforcer.Enforce(r.Context(), subject, tenantID(r, subject), build(r))
			if !decision.Allowed {
				writeDenial(w, decision)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireFreshContext re-resolves the subject through the authoritative
// path before the handler runs. State-changing financial routes use this
// so a stale fast-path claim can never authorize them.
func (g *Guard) RequireFreshContext() mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			subject := AuthorizationFromContext(r.Context())
			if subject == nil {
				writeError(w, http.StatusUnauthorized, "UNAUTHENTICATED")
				return
			}
			if subject.Authoritative {
				next.ServeHTTP(w, r)
				return
			}

			fresh, err := g.resolver.Resolve(r.Context(), subject.PrincipalID, nil, true)
			if err != nil {
				// A principal deleted mid-session is an identity failure,
				// not a resolution outage.
				if errors.Is(err, resolver.ErrIdentityNotFound) {
					writeError(w, http.StatusUnauthorized, "IDENTITY_NOT_FOUND")
					return
				}
				writeError(w, http.StatusForbidden, "RESOLUTION_UNAVAILABLE")
				return
			}
			ctx := withAuthorization(r.Context(), fresh)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// tenantID is the firm the route operates in: the route variable when the
// URL carries one, otherwise the subject's own firm.
func tenantID(r *http.Request, subject *resolver.AuthorizationContext) string {
	if firmID := mux.Vars(r)[VarFirmID]; firmID != "" {
		return firmID
	}
	return subject.Scope.FirmID()
}

func writeDenial(w http.ResponseWriter, decision enforcer.Decision) {
	// A tenant mismatch never confirms the resource exists.
	if decision.ReasonCode == enforcer.ReasonTenantMismatch {
		writeError(w, http.StatusNotFound, "NOT_FOUND")
		return
	}
	writeError(w, http.StatusForbidden, decision.ReasonCode)
}

func writeError(w http.ResponseWriter, status int, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"code": code})
}
