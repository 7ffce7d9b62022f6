package resolver

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caseward/caseward/pkg/authz"
	"github.com/caseward/caseward/pkg/scope"
)

// stubEpochs is an EpochSource backed by a map.
type stubEpochs struct {
	epochs map[string]int64
	err    error
}

func (s *stubEpochs) RoleChangedAt(ctx context.Context, firmID string) (int64, error) {
	if s.err != nil {
		return 0, s.err
	}
	return s.epochs[firmID], nil
}

func TestFromClaimsFreshMember(t *testing.T) {
	adapter := NewClaimsAdapter(&stubEpochs{epochs: map[string]int64{"f1": 100}}, testLogger(), nil)

	claims := &Claims{FirmID: "f1", Role: authz.RoleStaff, Mode: "member", IssuedAt: 150}
	ac, ok := adapter.FromClaims(context.Background(), "p1", claims)

	require.True(t, ok)
	assert.Equal(t, ModeMember, ac.Mode)
	assert.Equal(t, "f1", ac.Scope.FirmID())
	assert.False(t, ac.Authoritative)
	// Fast-path contexts carry role defaults only.
	assert.True(t, authz.Evaluate(ac.Permissions, authz.ModuleCases, authz.LevelView))
	assert.False(t, authz.Evaluate(ac.Permissions, authz.ModuleInvoices, authz.LevelView))
}

func TestFromClaimsStale(t *testing.T) {
	adapter := NewClaimsAdapter(&stubEpochs{epochs: map[string]int64{"f1": 150}}, testLogger(), nil)

	claims := &Claims{FirmID: "f1", Role: authz.RoleStaff, Mode: "member", IssuedAt: 100}
	_, ok := adapter.FromClaims(context.Background(), "p1", claims)

	assert.False(t, ok)
}

func TestFromClaimsSolo(t *testing.T) {
	adapter := NewClaimsAdapter(&stubEpochs{}, testLogger(), nil)

	ac, ok := adapter.FromClaims(context.Background(), "p1", &Claims{Mode: "solo", IssuedAt: 100})
	require.True(t, ok)
	assert.Equal(t, ModeSolo, ac.Mode)
	assert.Equal(t, scope.KindSolo, ac.Scope.Kind())
}

func TestFromClaimsRefusesSensitiveModes(t *testing.T) {
	adapter := NewClaimsAdapter(&stubEpochs{}, testLogger(), nil)
	ctx := context.Background()

	for _, mode := range []string{"admin", "departed", "unaffiliated", "bogus"} {
		_, ok := adapter.FromClaims(ctx, "p1", &Claims{Mode: mode, FirmID: "f1", Role: authz.RoleOwner, IssuedAt: 100})
		assert.False(t, ok, mode)
	}
}

func TestFromClaimsRejectsUnknownRoleAndMissingFirm(t *testing.T) {
	adapter := NewClaimsAdapter(&stubEpochs{}, testLogger(), nil)
	ctx := context.Background()

	_, ok := adapter.FromClaims(ctx, "p1", &Claims{Mode: "member", Role: authz.Role("consultant"), FirmID: "f1"})
	assert.False(t, ok)

	_, ok = adapter.FromClaims(ctx, "p1", &Claims{Mode: "member", Role: authz.RoleStaff})
	assert.False(t, ok)
}

func TestFromClaimsEpochErrorFallsBack(t *testing.T) {
	adapter := NewClaimsAdapter(&stubEpochs{err: errors.New("redis down")}, testLogger(), nil)

	_, ok := adapter.FromClaims(context.Background(), "p1", &Claims{FirmID: "f1", Role: authz.RoleStaff, Mode: "member", IssuedAt: 100})
	assert.False(t, ok)
}

// A stale claim must never short-circuit: the resolver falls through to
// the directory and returns the authoritative context.
func TestResolveStaleClaimTakesAuthoritativePath(t *testing.T) {
	epochs := &stubEpochs{epochs: map[string]int64{"f1": 150}}
	adapter := NewClaimsAdapter(epochs, testLogger(), nil)
	r := New(seedDirectory(), testLogger(), WithClaimsAdapter(adapter))

	claims := &Claims{FirmID: "f1", Role: authz.RoleOwner, Mode: "member", IssuedAt: 100}
	ac, err := r.Resolve(context.Background(), "staffer", claims, false)
	require.NoError(t, err)

	assert.True(t, ac.Authoritative)
	// The directory says staff, not the stale owner claim.
	assert.Equal(t, authz.RoleStaff, ac.Role)
	assert.False(t, ac.BypassesModules())
}

// Routes flagged fresh skip the fast path even when claims are fresh.
func TestResolveRequireFreshIgnoresClaims(t *testing.T) {
	epochs := &stubEpochs{epochs: map[string]int64{"f1": 0}}
	adapter := NewClaimsAdapter(epochs, testLogger(), nil)
	r := New(seedDirectory(), testLogger(), WithClaimsAdapter(adapter))

	claims := &Claims{FirmID: "f1", Role: authz.RoleOwner, Mode: "member", IssuedAt: time.Now().Unix()}
	ac, err := r.Resolve(context.Background(), "staffer", claims, true)
	require.NoError(t, err)

	assert.True(t, ac.Authoritative)
	assert.Equal(t, authz.RoleStaff, ac.Role)
}

func TestResolveFreshClaimShortCircuits(t *testing.T) {
	epochs := &stubEpochs{epochs: map[string]int64{"f1": 0}}
	adapter := NewClaimsAdapter(epochs, testLogger(), nil)

	// A directory that always fails proves the fast path does no lookup.
	dir := seedDirectory()
	dir.SetUnavailable(true)
	r := New(dir, testLogger(), WithClaimsAdapter(adapter))

	claims := &Claims{FirmID: "f1", Role: authz.RoleStaff, Mode: "member", IssuedAt: time.Now().Unix()}
	ac, err := r.Resolve(context.Background(), "staffer", claims, false)
	require.NoError(t, err)
	assert.False(t, ac.Authoritative)
}
