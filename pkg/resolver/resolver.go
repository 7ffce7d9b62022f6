// Package resolver classifies an authenticated principal into an operating
// mode and derives the canonical data scope and permission set for the
// request. It is the authoritative path of the authorization pipeline; the
// claims adapter in this package provides the stateless fast path in front
// of it.
package resolver

import (
	"context"
	"errors"
	"time"

	"github.com/caseward/caseward/pkg/authz"
	"github.com/caseward/caseward/pkg/directory"
	"github.com/caseward/caseward/pkg/observability"
	"github.com/caseward/caseward/pkg/scope"
)

// Resolver derives an AuthorizationContext for a principal.
type Resolver struct {
	dir     directory.Reader
	claims  *ClaimsAdapter
	logger  *observability.Logger
	metrics *observability.Metrics
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithClaimsAdapter enables the stateless fast path.
func WithClaimsAdapter(adapter *ClaimsAdapter) Option {
	return func(r *Resolver) { r.claims = adapter }
}

// WithMetrics attaches resolution metrics.
func WithMetrics(m *observability.Metrics) Option {
	return func(r *Resolver) { r.metrics = m }
}

// New creates a resolver over a directory reader.
func New(dir directory.Reader, logger *observability.Logger, opts ...Option) *Resolver {
	r := &Resolver{dir: dir, logger: logger}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve classifies the principal and derives scope and permissions.
//
// When claims are present, the fast path is consulted first: if the claims
// are fresh (not older than the firm's role-changed epoch) the context is
// built from them without a directory lookup. requireFresh forces the
// authoritative path for state-changing, high-sensitivity routes.
//
// Failure semantics: an unknown principal returns ErrIdentityNotFound; a
// transient directory failure is retried once and then surfaces as
// ErrResolutionUnavailable, on which callers must deny.
func (r *Resolver) Resolve(ctx context.Context, principalID string, claims *Claims, requireFresh bool) (*AuthorizationContext, error) {
	start := time.Now()

	if r.claims != nil && claims != nil && !requireFresh {
		if ac, ok := r.claims.FromClaims(ctx, principalID, claims); ok {
			r.observe(ac.Mode, "fast_path", start)
			return ac, nil
		}
	} else if claims != nil && requireFresh && r.metrics != nil {
		r.metrics.ClaimsFastPathTotal.WithLabelValues("forced_fresh").Inc()
	}

	ac, err := r.resolveAuthoritative(ctx, principalID)
	if err != nil {
		if r.metrics != nil {
			r.metrics.ResolutionsTotal.WithLabelValues("", "error").Inc()
		}
		return nil, err
	}

	r.observe(ac.Mode, "authoritative", start)
	return ac, nil
}

func (r *Resolver) observe(mode Mode, path string, start time.Time) {
	if r.metrics == nil {
		return
	}
	r.metrics.ResolutionsTotal.WithLabelValues(mode.String(), "ok").Inc()
	r.metrics.ResolutionDuration.WithLabelValues(path).Observe(time.Since(start).Seconds())
}

func (r *Resolver) resolveAuthoritative(ctx context.Context, principalID string) (*AuthorizationContext, error) {
	principal, err := r.lookupPrincipal(ctx, principalID)
	if err != nil {
		return nil, err
	}

	// A deactivated account resolves to the deny-by-default mode no
	// matter what roles it once held.
	if !principal.IsActive {
		return unaffiliated(principalID), nil
	}

	// Platform admin with no firm: bypass mode, no tenant scoping.
	if principal.GlobalRole == directory.GlobalRolePlatformAdmin && principal.FirmID == "" {
		r.logger.WithFields(map[string]interface{}{
			"principal_id": principalID,
		}).Warn("platform admin resolved without tenant scope")
		return &AuthorizationContext{
			PrincipalID:   principalID,
			Mode:          ModeAdmin,
			Scope:         scope.Empty(),
			Permissions:   authz.FullAccess(),
			Authoritative: true,
		}, nil
	}

	if principal.FirmID == "" {
		if principal.Independent {
			return &AuthorizationContext{
				PrincipalID:   principalID,
				Mode:          ModeSolo,
				Scope:         scope.Solo(principalID),
				Permissions:   authz.FullAccess(),
				Authoritative: true,
			}, nil
		}
		// No firm, not independent-capable: empty scope, deny on every
		// tenant-scoped access.
		return unaffiliated(principalID), nil
	}

	firm, err := r.lookupFirm(ctx, principal.FirmID)
	if err != nil {
		if errors.Is(err, directory.ErrFirmNotFound) {
			// Principal references a firm the directory no longer knows:
			// deny by default rather than trusting the stale affiliation.
			r.logger.WithFields(map[string]interface{}{
				"principal_id": principalID,
				"firm_id":      principal.FirmID,
			}).Warn("principal references unknown firm")
			return unaffiliated(principalID), nil
		}
		return nil, err
	}

	// A deactivated firm takes every membership down with it.
	if !firm.IsActive {
		return unaffiliated(principalID), nil
	}

	member, err := r.lookupMember(ctx, principal.FirmID, principalID)
	if err != nil {
		if errors.Is(err, directory.ErrMemberNotFound) {
			// Firm affiliation without a membership record: deny by
			// default rather than guessing a role.
			r.logger.WithFields(map[string]interface{}{
				"principal_id": principalID,
				"firm_id":      principal.FirmID,
			}).Warn("principal references firm without membership record")
			return unaffiliated(principalID), nil
		}
		return nil, err
	}

	switch member.Status {
	case authz.StatusActive:
		if _, known := knownRoles[member.Role]; !known {
			// Unknown role: same deny-by-default as a missing record.
			r.logger.WithFields(map[string]interface{}{
				"principal_id": principalID,
				"firm_id":      member.FirmID,
				"role":         string(member.Role),
			}).Warn("member has unknown role")
			return unaffiliated(principalID), nil
		}
		return &AuthorizationContext{
			PrincipalID:   principalID,
			Mode:          ModeMember,
			Role:          member.Role,
			Status:        member.Status,
			Scope:         scope.Firm(member.FirmID),
			Permissions:   authz.Merge(authz.RoleDefaults(member.Role), member.Override),
			Authoritative: true,
		}, nil

	case authz.StatusDeparted:
		// The capped set replaces role defaults and override entirely;
		// the member keeps only the restricted resource list.
		return &AuthorizationContext{
			PrincipalID:           principalID,
			Mode:                  ModeDeparted,
			Role:                  member.Role,
			Status:                member.Status,
			Scope:                 scope.Firm(member.FirmID),
			Permissions:           authz.DepartedSet(),
			RestrictedResourceIDs: member.AssignedResourceIDs,
			Authoritative:         true,
		}, nil

	default:
		// Suspended (or any future status) fails closed.
		return unaffiliated(principalID), nil
	}
}

var knownRoles = map[authz.Role]struct{}{
	authz.RoleOwner:     {},
	authz.RoleAdmin:     {},
	authz.RoleAttorney:  {},
	authz.RoleParalegal: {},
	authz.RoleBilling:   {},
	authz.RoleStaff:     {},
}

func unaffiliated(principalID string) *AuthorizationContext {
	return &AuthorizationContext{
		PrincipalID:   principalID,
		Mode:          ModeUnaffiliated,
		Scope:         scope.Empty(),
		Permissions:   authz.PermissionSet{},
		Authoritative: true,
	}
}

func (r *Resolver) lookupPrincipal(ctx context.Context, principalID string) (*directory.Principal, error) {
	principal, err := r.dir.GetPrincipal(ctx, principalID)
	if errors.Is(err, directory.ErrUnavailable) {
		if r.metrics != nil {
			r.metrics.ResolutionRetries.Inc()
		}
		principal, err = r.dir.GetPrincipal(ctx, principalID)
	}
	if err != nil {
		if errors.Is(err, directory.ErrPrincipalNotFound) {
			return nil, ErrIdentityNotFound
		}
		return nil, errors.Join(ErrResolutionUnavailable, err)
	}
	return principal, nil
}

func (r *Resolver) lookupFirm(ctx context.Context, firmID string) (*directory.Firm, error) {
	firm, err := r.dir.GetFirm(ctx, firmID)
	if errors.Is(err, directory.ErrUnavailable) {
		if r.metrics != nil {
			r.metrics.ResolutionRetries.Inc()
		}
		firm, err = r.dir.GetFirm(ctx, firmID)
	}
	if err != nil {
		if errors.Is(err, directory.ErrFirmNotFound) {
			return nil, err
		}
		return nil, errors.Join(ErrResolutionUnavailable, err)
	}
	return firm, nil
}

func (r *Resolver) lookupMember(ctx context.Context, firmID, principalID string) (*directory.Member, error) {
	member, err := r.dir.GetMember(ctx, firmID, principalID)
	if errors.Is(err, directory.ErrUnavailable) {
		if r.metrics != nil {
			r.metrics.ResolutionRetries.Inc()
		}
		member, err = r.dir.GetMember(ctx, firmID, principalID)
	}
	if err != nil {
		if errors.Is(err, directory.ErrMemberNotFound) {
			return nil, err
		}
		return nil, errors.Join(ErrResolutionUnavailable, err)
	}
	return member, nil
}
