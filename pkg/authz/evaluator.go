package authz

// Evaluate reports whether the permission set grants at least the required
// level on a module. It is a pure, total function: nil maps and unknown
// module names evaluate to LevelNone and never panic.
func Evaluate(ps PermissionSet, module Module, required Level) bool {
	return LevelOf(ps, module) >= required
}

// LevelOf returns the effective level for a module, defaulting to LevelNone
// when the module is absent.
func LevelOf(ps PermissionSet, module Module) Level {
	if ps.Levels == nil {
		return LevelNone
	}
	return ps.Levels[module]
}

// EvaluateSpecial reports whether a special grant is held. Absent grants
// are false.
func EvaluateSpecial(ps PermissionSet, grant Grant) bool {
	if ps.Grants == nil {
		return false
	}
	return ps.Grants[grant]
}

// Merge combines role defaults with a member's per-member override. The
// override wins per module and per grant wherever it sets an entry; modules
// and grants the override does not mention keep the role default. Neither
// input is mutated.
func Merge(defaults, override PermissionSet) PermissionSet {
	merged := defaults.Clone()
	for m, l := range override.Levels {
		merged.Levels[m] = l
	}
	for g, v := range override.Grants {
		merged.Grants[g] = v
	}
	return merged
}
