package authz

// RoleDefaults returns the default permission set for a role. The returned
// set is a fresh copy and safe to mutate. Unknown roles get an empty set,
// which evaluates to no access everywhere.
func RoleDefaults(role Role) PermissionSet {
	switch role {
	case RoleOwner, RoleAdmin:
		ps := PermissionSet{Levels: map[Module]Level{}, Grants: map[Grant]bool{}}
		for _, m := range AllModules() {
			ps.Levels[m] = LevelFull
		}
		ps.Grants[GrantViewFinance] = true
		ps.Grants[GrantManageTeam] = true
		ps.Grants[GrantManageBilling] = true
		ps.Grants[GrantExportData] = true
		return ps
	case RoleAttorney:
		return PermissionSet{
			Levels: map[Module]Level{
				ModuleCases:     LevelFull,
				ModuleContacts:  LevelFull,
				ModuleCalendar:  LevelFull,
				ModuleDocuments: LevelFull,
				ModuleTasks:     LevelFull,
				ModuleInvoices:  LevelEdit,
				ModuleReports:   LevelView,
			},
			Grants: map[Grant]bool{
				GrantViewFinance: true,
			},
		}
	case RoleParalegal:
		return PermissionSet{
			Levels: map[Module]Level{
				ModuleCases:     LevelEdit,
				ModuleContacts:  LevelEdit,
				ModuleCalendar:  LevelEdit,
				ModuleDocuments: LevelEdit,
				ModuleTasks:     LevelEdit,
				ModuleInvoices:  LevelView,
			},
			Grants: map[Grant]bool{},
		}
	case RoleBilling:
		return PermissionSet{
			Levels: map[Module]Level{
				ModuleCases:    LevelView,
				ModuleContacts: LevelView,
				ModuleInvoices: LevelFull,
				ModuleReports:  LevelFull,
			},
			Grants: map[Grant]bool{
				GrantViewFinance:   true,
				GrantManageBilling: true,
				GrantExportData:    true,
			},
		}
	case RoleStaff:
		return PermissionSet{
			Levels: map[Module]Level{
				ModuleCases:    LevelView,
				ModuleContacts: LevelEdit,
				ModuleCalendar: LevelEdit,
				ModuleTasks:    LevelEdit,
			},
			Grants: map[Grant]bool{},
		}
	case RoleDeparted:
		return DepartedSet()
	default:
		return PermissionSet{Levels: map[Module]Level{}, Grants: map[Grant]bool{}}
	}
}

// RoleBypasses reports whether a role skips module-level checks outright.
// Only owner and admin qualify, and the enforcer voids the bypass when the
// member's status is departed.
func RoleBypasses(role Role) bool {
	return role == RoleOwner || role == RoleAdmin
}

// FullAccess returns a permission set with every module at full and every
// grant enabled. Used for solo practitioners, whose isolation comes from
// the scope filter rather than the level check.
func FullAccess() PermissionSet {
	ps := PermissionSet{Levels: map[Module]Level{}, Grants: map[Grant]bool{}}
	for _, m := range AllModules() {
		ps.Levels[m] = LevelFull
	}
	ps.Grants[GrantViewFinance] = true
	ps.Grants[GrantManageTeam] = true
	ps.Grants[GrantManageBilling] = true
	ps.Grants[GrantExportData] = true
	return ps
}

// departedAllowed is the fixed allow-list of modules a departed member may
// still view. Everything else is LevelNone and all grants are false.
var departedAllowed = []Module{
	ModuleCases,
	ModuleDocuments,
	ModuleCalendar,
	ModuleContacts,
}

// DepartedAllowedModules returns the module allow-list for departed members.
func DepartedAllowedModules() []Module {
	out := make([]Module, len(departedAllowed))
	copy(out, departedAllowed)
	return out
}

// DepartedSet returns the capped permission set applied to departed
// members: LevelView on the allow-listed modules, nothing else, no grants.
func DepartedSet() PermissionSet {
	ps := PermissionSet{Levels: map[Module]Level{}, Grants: map[Grant]bool{}}
	for _, m := range departedAllowed {
		ps.Levels[m] = LevelView
	}
	return ps
}
