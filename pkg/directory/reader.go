// Package directory provides read-only access to principals, firms, and
// firm memberships for the context resolver. Tenant-management workflows
// own and mutate this data elsewhere; nothing in this package writes it.
package directory

import (
	"context"
	"errors"
)

var (
	// ErrPrincipalNotFound is returned when no principal exists with the
	// requested id. Callers map this to 401/404, never 500.
	ErrPrincipalNotFound = errors.New("directory: principal not found")

	// ErrMemberNotFound is returned when a principal has no membership in
	// the requested firm.
	ErrMemberNotFound = errors.New("directory: member not found")

	// ErrFirmNotFound is returned when no firm exists with the requested id.
	ErrFirmNotFound = errors.New("directory: firm not found")

	// ErrUnavailable is returned for transient data-layer failures.
	// Callers must fail closed rather than default to an elevated scope.
	ErrUnavailable = errors.New("directory: lookup unavailable")
)

// Reader is the lookup surface the resolver depends on.
type Reader interface {
	// GetPrincipal returns the principal with the given id.
	GetPrincipal(ctx context.Context, principalID string) (*Principal, error)

	// GetMember returns the membership record linking a principal to a firm.
	GetMember(ctx context.Context, firmID, principalID string) (*Member, error)

	// GetFirm returns the firm with the given id.
	GetFirm(ctx context.Context, firmID string) (*Firm, error)
}
