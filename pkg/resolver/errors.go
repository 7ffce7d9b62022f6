package resolver

import "errors"

var (
	// ErrIdentityNotFound is returned when the principal does not exist.
	// Callers map this to 401 (or 404 in admin tooling), never 500.
	ErrIdentityNotFound = errors.New("resolver: identity not found")

	// ErrResolutionUnavailable is returned after a transient directory
	// failure survives the single bounded retry. Callers must fail
	// closed: deny, never default to an elevated scope.
	ErrResolutionUnavailable = errors.New("resolver: resolution unavailable")
)
