package authz

// Level represents a hierarchical permission level for a module.
// Levels form a total order: none < view < edit < full. All comparisons
// in the evaluator are >= on this order; levels are never partially ordered.
type Level int

const (
	LevelNone Level = iota // No access
	LevelView              // Read-only access
	LevelEdit              // Read and modify
	LevelFull              // Read, modify, delete, share
)

// String returns the canonical name of the level.
func (l Level) String() string {
	switch l {
	case LevelNone:
		return "none"
	case LevelView:
		return "view"
	case LevelEdit:
		return "edit"
	case LevelFull:
		return "full"
	default:
		return "none"
	}
}

// ParseLevel parses a level name. Unknown names parse to LevelNone so that
// corrupt or future data degrades to no access rather than elevated access.
func ParseLevel(s string) Level {
	switch s {
	case "view":
		return LevelView
	case "edit":
		return LevelEdit
	case "full":
		return LevelFull
	default:
		return LevelNone
	}
}

// Module identifies a functional area to which a permission level applies.
type Module string

const (
	ModuleCases     Module = "cases"
	ModuleContacts  Module = "contacts"
	ModuleCalendar  Module = "calendar"
	ModuleDocuments Module = "documents"
	ModuleTasks     Module = "tasks"
	ModuleInvoices  Module = "invoices"
	ModuleReports   Module = "reports"
	ModuleSettings  Module = "settings"
)

// AllModules returns every module known to the permission model.
func AllModules() []Module {
	return []Module{
		ModuleCases,
		ModuleContacts,
		ModuleCalendar,
		ModuleDocuments,
		ModuleTasks,
		ModuleInvoices,
		ModuleReports,
		ModuleSettings,
	}
}

// Grant identifies a special boolean permission that does not fit the
// module/level hierarchy.
type Grant string

const (
	GrantViewFinance   Grant = "can_view_finance"
	GrantManageTeam    Grant = "can_manage_team"
	GrantManageBilling Grant = "can_manage_billing"
	GrantExportData    Grant = "can_export_data"
)

// PermissionSet maps modules to levels and special grants to booleans.
// A nil or missing entry means LevelNone / false.
type PermissionSet struct {
	Levels map[Module]Level `json:"levels"`
	Grants map[Grant]bool   `json:"grants"`
}

// Clone returns a deep copy of the permission set.
func (ps PermissionSet) Clone() PermissionSet {
	out := PermissionSet{
		Levels: make(map[Module]Level, len(ps.Levels)),
		Grants: make(map[Grant]bool, len(ps.Grants)),
	}
	for m, l := range ps.Levels {
		out.Levels[m] = l
	}
	for g, v := range ps.Grants {
		out.Grants[g] = v
	}
	return out
}

// Role represents a firm-level role name.
type Role string

const (
	RoleOwner     Role = "owner"
	RoleAdmin     Role = "admin"
	RoleAttorney  Role = "attorney"
	RoleParalegal Role = "paralegal"
	RoleBilling   Role = "billing"
	RoleStaff     Role = "staff"
	RoleDeparted  Role = "departed"
)

// MemberStatus represents the lifecycle state of a firm member.
type MemberStatus string

const (
	StatusActive    MemberStatus = "active"
	StatusSuspended MemberStatus = "suspended"
	StatusDeparted  MemberStatus = "departed"
)
