// Package authz defines the permission model shared by the authorization
// pipeline: hierarchical module levels, special boolean grants, the firm
// role catalog with per-role defaults, and the pure evaluation functions
// over permission sets.
//
// The evaluator performs no I/O. Everything stateful (who the principal is,
// which firm they belong to, which tuples exist) lives in the resolver,
// directory, and relations packages; this package only answers "does this
// permission set satisfy this requirement".
//
// # Levels
//
// Levels form a strict total order:
//
//	none < view < edit < full
//
// A check for LevelView passes for any member holding view, edit, or full
// on the module. Unknown modules evaluate to none, so adding a module to
// the product can never widen existing members' access.
//
// # Departed members
//
// Departed members are capped to LevelView on a fixed allow-list of
// modules (see DepartedSet) and hold no special grants. The cap is applied
// by the resolver when it builds the member's effective set; the enforcer
// additionally refuses non-read actions for departed members regardless of
// the set's contents.
package authz
