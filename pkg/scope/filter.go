package scope

import (
	"errors"
	"strconv"
	"strings"
)

// Column names the predicate builder renders against. These match the
// platform's resource tables; resources embed ownership and firm columns
// plus assignment/creator columns used for departed restriction.
const (
	ColumnOwner     = "owner_id"
	ColumnFirm      = "firm_id"
	ColumnID        = "id"
	ColumnAssigned  = "assigned_to"
	ColumnCreatedBy = "created_by"
)

// ErrEmptyScope is returned when a write is attempted under an empty scope.
var ErrEmptyScope = errors.New("scope: empty scope cannot stamp writes")

// Filter is the predicate the data layer ANDs into every query. Predicate
// text and arguments are kept separate so callers cannot interpolate tenant
// ids into SQL strings. The clause template uses ? markers internally and
// is rendered to $N placeholders at the call site, matching the rest of
// the module's lib/pq queries (which sqlite also accepts).
type Filter struct {
	clause   string
	args     []interface{}
	unscoped bool
	empty    bool
}

// SQL returns the predicate clause, placeholders numbered from $1, and its
// arguments. The clause is always safe to AND into a WHERE; the unscoped
// filter returns a tautology.
func (f Filter) SQL() (string, []interface{}) {
	return f.SQLFrom(1)
}

// SQLFrom renders the predicate with placeholders numbered from $start, so
// callers can compose it after their own parameters.
func (f Filter) SQLFrom(start int) (string, []interface{}) {
	var b strings.Builder
	n := start
	for _, r := range f.clause {
		if r == '?' {
			b.WriteString("$")
			b.WriteString(strconv.Itoa(n))
			n++
			continue
		}
		b.WriteRune(r)
	}
	return b.String(), f.args
}

// MatchesNothing reports whether the filter can never match a row. The
// route layer uses this to return 404 without touching storage.
func (f Filter) MatchesNothing() bool { return f.empty }

// Unscoped reports whether this filter came from SystemFilter.
func (f Filter) Unscoped() bool { return f.unscoped }

// Build derives the query predicate for a resolved scope.
//
// Shapes:
//
//	solo:  owner_id = <principal>
//	firm:  firm_id = <firm>
//	empty: matches nothing
func Build(s Scope) Filter {
	switch s.kind {
	case KindSolo:
		return Filter{
			clause: ColumnOwner + " = ?",
			args:   []interface{}{s.soloPrincipalID},
		}
	case KindFirm:
		return Filter{
			clause: ColumnFirm + " = ?",
			args:   []interface{}{s.firmID},
		}
	default:
		// 1 = 0 keeps the clause composable while matching nothing.
		return Filter{clause: "1 = 0", empty: true}
	}
}

// BuildRestricted derives the narrowed predicate for a departed member:
// the firm predicate ANDed with "assigned to, created by, or explicitly
// retained by" the principal. Resource ids the member retains through team
// assignment arrive pre-resolved in restrictedIDs.
func BuildRestricted(s Scope, principalID string, restrictedIDs []string) Filter {
	if s.kind != KindFirm {
		// Restriction only applies inside a firm; anything else is closed.
		return Filter{clause: "1 = 0", empty: true}
	}

	var b strings.Builder
	args := []interface{}{s.firmID, principalID, principalID}

	b.WriteString(ColumnFirm + " = ? AND (")
	b.WriteString(ColumnAssigned + " = ? OR " + ColumnCreatedBy + " = ?")
	if len(restrictedIDs) > 0 {
		b.WriteString(" OR " + ColumnID + " IN (")
		for i, id := range restrictedIDs {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString("?")
			args = append(args, id)
		}
		b.WriteString(")")
	}
	b.WriteString(")")

	return Filter{clause: b.String(), args: args}
}

// SystemFilter returns the unscoped filter. It exists only for
// system-level jobs (migrations, relation repair) and is deliberately a
// distinct constructor rather than an option on Build, so unscoped access
// is grep-able and audited at the call site.
func SystemFilter() Filter {
	return Filter{clause: "1 = 1", unscoped: true}
}

// StampValues returns the ownership columns a write payload must carry
// under this scope. Writes under an empty scope are refused.
func StampValues(s Scope) (map[string]interface{}, error) {
	switch s.kind {
	case KindSolo:
		return map[string]interface{}{ColumnOwner: s.soloPrincipalID}, nil
	case KindFirm:
		return map[string]interface{}{ColumnFirm: s.firmID}, nil
	default:
		return nil, ErrEmptyScope
	}
}
