package resolver

import (
	"context"

	"github.com/caseward/caseward/pkg/authz"
	"github.com/caseward/caseward/pkg/observability"
	"github.com/caseward/caseward/pkg/scope"
)

// Claims is the authorization payload embedded in a signed credential at
// issuance time. The credential itself is verified by the authentication
// collaborator before this package ever sees it; the adapter only judges
// freshness and reconstructs a context from the payload.
type Claims struct {
	FirmID   string     `json:"firm_id,omitempty"`
	Role     authz.Role `json:"role,omitempty"`
	Mode     string     `json:"mode"`
	IssuedAt int64      `json:"iat"`
}

// ClaimsAdapter short-circuits the directory lookup when a credential's
// embedded claims are still fresh. Freshness is judged against the firm's
// role-changed epoch: claims issued before the last role change are stale
// and force the authoritative path.
//
// The staleness window this trades away is bounded by credential expiry.
// Contexts built here carry role defaults only (per-member overrides need
// a lookup), and admin and departed modes are never served from claims:
// both are too sensitive to trust a stale snapshot.
type ClaimsAdapter struct {
	epochs  EpochSource
	logger  *observability.Logger
	metrics *observability.Metrics
}

// NewClaimsAdapter creates an adapter over an epoch source.
func NewClaimsAdapter(epochs EpochSource, logger *observability.Logger, metrics *observability.Metrics) *ClaimsAdapter {
	return &ClaimsAdapter{epochs: epochs, logger: logger, metrics: metrics}
}

// FromClaims reconstructs an AuthorizationContext from claims. The second
// return is false when the claims are absent, stale, unresolvable, or of a
// mode the adapter refuses to serve; the caller then takes the
// authoritative path.
func (a *ClaimsAdapter) FromClaims(ctx context.Context, principalID string, claims *Claims) (*AuthorizationContext, bool) {
	if claims == nil {
		a.count("miss")
		return nil, false
	}

	switch ParseMode(claims.Mode) {
	case ModeSolo:
		a.count("hit")
		return &AuthorizationContext{
			PrincipalID: principalID,
			Mode:        ModeSolo,
			Scope:       scope.Solo(principalID),
			Permissions: authz.FullAccess(),
		}, true

	case ModeMember:
		if _, known := knownRoles[claims.Role]; claims.FirmID == "" || !known {
			a.count("miss")
			return nil, false
		}
		epoch, err := a.epochs.RoleChangedAt(ctx, claims.FirmID)
		if err != nil {
			// Cannot judge freshness: fall back rather than trust.
			a.logger.WithError(err).Warn("epoch lookup failed; taking authoritative path")
			a.count("miss")
			return nil, false
		}
		if claims.IssuedAt < epoch {
			a.count("stale")
			return nil, false
		}
		a.count("hit")
		return &AuthorizationContext{
			PrincipalID: principalID,
			Mode:        ModeMember,
			Role:        claims.Role,
			Status:      authz.StatusActive,
			Scope:       scope.Firm(claims.FirmID),
			Permissions: authz.RoleDefaults(claims.Role),
		}, true

	default:
		// Admin, departed, and unaffiliated always resolve
		// authoritatively.
		a.count("miss")
		return nil, false
	}
}

func (a *ClaimsAdapter) count(outcome string) {
	if a.metrics != nil {
		a.metrics.ClaimsFastPathTotal.WithLabelValues(outcome).Inc()
	}
}
