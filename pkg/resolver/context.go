package resolver

import (
	"github.com/caseward/caseward/pkg/authz"
	"github.com/caseward/caseward/pkg/scope"
)

// Mode is the closed set of operating modes a principal resolves into.
// Every request is classified into exactly one mode; downstream checks
// switch exhaustively on it instead of comparing role strings.
type Mode int

const (
	// ModeUnaffiliated is the deny-by-default mode: no firm, no solo
	// designation, or a membership the resolver refused to trust
	// (unknown role, suspended status). Tenant-scoped access denies.
	ModeUnaffiliated Mode = iota

	// ModeAdmin is a platform administrator acting without tenant
	// scoping. Used sparingly and always logged.
	ModeAdmin

	// ModeSolo is an independent practitioner isolated by own-identity
	// filtering.
	ModeSolo

	// ModeMember is an active firm member with a role.
	ModeMember

	// ModeDeparted is a firm member restricted to read-only access over
	// a limited resource set.
	ModeDeparted
)

// String returns the wire name of the mode.
func (m Mode) String() string {
	switch m {
	case ModeAdmin:
		return "admin"
	case ModeSolo:
		return "solo"
	case ModeMember:
		return "member"
	case ModeDeparted:
		return "departed"
	default:
		return "unaffiliated"
	}
}

// ParseMode parses a wire mode name. Unknown names parse to
// ModeUnaffiliated so that corrupt claims degrade to deny.
func ParseMode(s string) Mode {
	switch s {
	case "admin":
		return ModeAdmin
	case "solo":
		return ModeSolo
	case "member":
		return ModeMember
	case "departed":
		return ModeDeparted
	default:
		return ModeUnaffiliated
	}
}

// AuthorizationContext is the immutable result of context resolution,
// constructed once per request and passed explicitly to downstream checks.
// It is never cached beyond the request (the claims fast path re-derives
// an equivalent value from the credential instead).
type AuthorizationContext struct {
	PrincipalID string
	Mode        Mode

	// Role and Status are set for ModeMember and ModeDeparted.
	Role   authz.Role
	Status authz.MemberStatus

	Scope       scope.Scope
	Permissions authz.PermissionSet

	// RestrictedResourceIDs limits a departed member beyond the firm
	// scope; the scope filter intersects against it.
	RestrictedResourceIDs []string

	// Authoritative is true when the context came from a directory
	// lookup rather than the claims fast path.
	Authoritative bool
}

// BypassesModules reports whether the subject's role skips module-level
// checks. Void for departed members regardless of role.
func (ac *AuthorizationContext) BypassesModules() bool {
	if ac.Mode != ModeMember {
		return false
	}
	return authz.RoleBypasses(ac.Role)
}

// Filter derives the storage predicate for this context: the restricted
// shape for departed members, the plain scope filter otherwise.
func (ac *AuthorizationContext) Filter() scope.Filter {
	if ac.Mode == ModeDeparted {
		return scope.BuildRestricted(ac.Scope, ac.PrincipalID, ac.RestrictedResourceIDs)
	}
	return scope.Build(ac.Scope)
}
