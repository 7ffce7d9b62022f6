package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluate(t *testing.T) {
	ps := PermissionSet{
		Levels: map[Module]Level{
			ModuleCases:    LevelEdit,
			ModuleInvoices: LevelView,
			ModuleReports:  LevelNone,
		},
	}

	tests := []struct {
		name     string
		module   Module
		required Level
		want     bool
	}{
		{"edit satisfies view", ModuleCases, LevelView, true},
		{"edit satisfies edit", ModuleCases, LevelEdit, true},
		{"edit does not satisfy full", ModuleCases, LevelFull, false},
		{"view does not satisfy edit", ModuleInvoices, LevelEdit, false},
		{"explicit none denies view", ModuleReports, LevelView, false},
		{"unknown module defaults to none", ModuleSettings, LevelView, false},
		{"none requirement always passes", ModuleSettings, LevelNone, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Evaluate(ps, tt.module, tt.required))
		})
	}
}

func TestEvaluateTotalOnNilMaps(t *testing.T) {
	var ps PermissionSet

	assert.NotPanics(t, func() {
		assert.False(t, Evaluate(ps, ModuleCases, LevelView))
		assert.True(t, Evaluate(ps, ModuleCases, LevelNone))
		assert.False(t, EvaluateSpecial(ps, GrantViewFinance))
	})
}

// Monotonicity: passing at a higher level implies passing at every lower
// level, for every role default and every module.
func TestEvaluateMonotonic(t *testing.T) {
	roles := []Role{RoleOwner, RoleAdmin, RoleAttorney, RoleParalegal, RoleBilling, RoleStaff, RoleDeparted, Role("intern")}
	levels := []Level{LevelNone, LevelView, LevelEdit, LevelFull}

	for _, role := range roles {
		ps := RoleDefaults(role)
		for _, m := range AllModules() {
			for i := 1; i < len(levels); i++ {
				if Evaluate(ps, m, levels[i]) {
					assert.True(t, Evaluate(ps, m, levels[i-1]),
						"role %s module %s: passes %s but not %s", role, m, levels[i], levels[i-1])
				}
			}
		}
	}
}

func TestEvaluateSpecial(t *testing.T) {
	ps := PermissionSet{
		Grants: map[Grant]bool{
			GrantViewFinance: true,
			GrantManageTeam:  false,
		},
	}

	assert.True(t, EvaluateSpecial(ps, GrantViewFinance))
	assert.False(t, EvaluateSpecial(ps, GrantManageTeam))
	assert.False(t, EvaluateSpecial(ps, GrantManageBilling))
}

func TestMergeOverrideWinsPerModule(t *testing.T) {
	defaults := RoleDefaults(RoleStaff)
	override := PermissionSet{
		Levels: map[Module]Level{
			ModuleCases:    LevelFull, // raise
			ModuleContacts: LevelNone, // lower
		},
		Grants: map[Grant]bool{
			GrantExportData: true,
		},
	}

	merged := Merge(defaults, override)

	assert.Equal(t, LevelFull, LevelOf(merged, ModuleCases))
	assert.Equal(t, LevelNone, LevelOf(merged, ModuleContacts))
	// Untouched modules keep role defaults.
	assert.Equal(t, LevelEdit, LevelOf(merged, ModuleCalendar))
	assert.True(t, EvaluateSpecial(merged, GrantExportData))

	// Inputs are not mutated.
	assert.Equal(t, LevelView, LevelOf(defaults, ModuleCases))
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelView, ParseLevel("view"))
	assert.Equal(t, LevelEdit, ParseLevel("edit"))
	assert.Equal(t, LevelFull, ParseLevel("full"))
	assert.Equal(t, LevelNone, ParseLevel("none"))
	assert.Equal(t, LevelNone, ParseLevel("superuser"))
	assert.Equal(t, LevelNone, ParseLevel(""))
}

func TestLevelString(t *testing.T) {
	assert.Equal(t, "none", LevelNone.String())
	assert.Equal(t, "full", LevelFull.String())
	assert.Equal(t, "none", Level(99).String())
}

func TestRoleDefaults(t *testing.T) {
	owner := RoleDefaults(RoleOwner)
	for _, m := range AllModules() {
		assert.Equal(t, LevelFull, LevelOf(owner, m), "owner should have full on %s", m)
	}
	assert.True(t, EvaluateSpecial(owner, GrantManageTeam))

	staff := RoleDefaults(RoleStaff)
	assert.Equal(t, LevelView, LevelOf(staff, ModuleCases))
	assert.Equal(t, LevelNone, LevelOf(staff, ModuleInvoices))
	assert.False(t, EvaluateSpecial(staff, GrantViewFinance))

	unknown := RoleDefaults(Role("contractor"))
	for _, m := range AllModules() {
		assert.Equal(t, LevelNone, LevelOf(unknown, m))
	}
}

func TestRoleBypasses(t *testing.T) {
	assert.True(t, RoleBypasses(RoleOwner))
	assert.True(t, RoleBypasses(RoleAdmin))
	assert.False(t, RoleBypasses(RoleAttorney))
	assert.False(t, RoleBypasses(RoleDeparted))
}

// Departed members never exceed view on any module and hold no grants.
func TestDepartedSetCapped(t *testing.T) {
	ps := DepartedSet()

	for _, m := range AllModules() {
		assert.False(t, Evaluate(ps, m, LevelEdit), "departed must not reach edit on %s", m)
		assert.False(t, Evaluate(ps, m, LevelFull))
	}
	for _, g := range []Grant{GrantViewFinance, GrantManageTeam, GrantManageBilling, GrantExportData} {
		assert.False(t, EvaluateSpecial(ps, g))
	}

	// Allow-listed modules stay viewable.
	for _, m := range DepartedAllowedModules() {
		assert.True(t, Evaluate(ps, m, LevelView))
	}
	// Non-listed modules are fully closed.
	assert.False(t, Evaluate(ps, ModuleInvoices, LevelView))
	assert.False(t, Evaluate(ps, ModuleSettings, LevelView))
}

func TestCloneIndependence(t *testing.T) {
	orig := RoleDefaults(RoleAttorney)
	clone := orig.Clone()
	clone.Levels[ModuleCases] = LevelNone
	clone.Grants[GrantManageTeam] = true

	require.Equal(t, LevelFull, LevelOf(orig, ModuleCases))
	require.False(t, EvaluateSpecial(orig, GrantManageTeam))
}
