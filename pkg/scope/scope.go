// Package scope derives the storage predicate that the data-access layer
// must apply to every tenant-governed query and write. The filter builder
// here is the only path by which tenant scoping reaches storage; the lone
// unscoped path is SystemFilter, a separately named escape hatch reserved
// for system-level jobs.
package scope

// Kind discriminates the shape of a resolved scope.
type Kind int

const (
	// KindEmpty is a scope with no tenant context. Its filter matches
	// nothing, so every tenant-scoped access denies by construction.
	KindEmpty Kind = iota

	// KindSolo scopes to resources owned by a single solo practitioner.
	KindSolo

	// KindFirm scopes to a firm's resources.
	KindFirm
)

// Scope is the canonical data-scoping result of context resolution,
// computed once per request and never persisted. Exactly one of
// SoloPrincipalID and FirmID is set; an empty scope has neither.
type Scope struct {
	kind            Kind
	soloPrincipalID string
	firmID          string
}

// Empty returns the scope with no tenant context.
func Empty() Scope {
	return Scope{kind: KindEmpty}
}

// Solo returns a scope keyed by a solo practitioner's own principal id.
func Solo(principalID string) Scope {
	return Scope{kind: KindSolo, soloPrincipalID: principalID}
}

// Firm returns a scope keyed by a firm id.
func Firm(firmID string) Scope {
	return Scope{kind: KindFirm, firmID: firmID}
}

// Kind returns the scope's discriminator.
func (s Scope) Kind() Kind { return s.kind }

// IsEmpty reports whether the scope carries no tenant context.
func (s Scope) IsEmpty() bool { return s.kind == KindEmpty }

// SoloPrincipalID returns the solo principal id, or "" for other kinds.
func (s Scope) SoloPrincipalID() string { return s.soloPrincipalID }

// FirmID returns the firm id, or "" for other kinds.
func (s Scope) FirmID() string { return s.firmID }

// String returns a log-friendly representation.
func (s Scope) String() string {
	switch s.kind {
	case KindSolo:
		return "solo:" + s.soloPrincipalID
	case KindFirm:
		return "firm:" + s.firmID
	default:
		return "empty"
	}
}
