package middleware

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caseward/caseward/pkg/authz"
	"github.com/caseward/caseward/pkg/directory"
	"github.com/caseward/caseward/pkg/enforcer"
	"github.com/caseward/caseward/pkg/observability"
	"github.com/caseward/caseward/pkg/resolver"
)

func testLogger() *observability.Logger {
	return observability.NewLogger(observability.ErrorLevel, io.Discard)
}

// headerDecoder reads the principal id from a header, standing in for the
// external credential verifier.
func headerDecoder() CredentialDecoder {
	return CredentialDecoderFunc(func(r *http.Request) (string, *resolver.Claims, error) {
		return r.Header.Get("X-Principal-ID"), nil, nil
	})
}

func testDirectory() *directory.MemoryReader {
	dir := directory.NewMemoryReader()
	dir.AddFirm(directory.Firm{ID: "f1", Name: "Harker & Mina", IsActive: true, CreatedAt: time.Now()})
	dir.AddPrincipal(directory.Principal{ID: "owner", Email: "owner@harker.law", GlobalRole: directory.GlobalRoleUser, FirmID: "f1", IsActive: true})
	dir.AddPrincipal(directory.Principal{ID: "staffer", Email: "staff@harker.law", GlobalRole: directory.GlobalRoleUser, FirmID: "f1", IsActive: true})
	dir.AddPrincipal(directory.Principal{ID: "solo", Email: "solo@example.law", GlobalRole: directory.GlobalRoleUser, Independent: true, IsActive: true})
	dir.AddMember(directory.Member{FirmID: "f1", PrincipalID: "owner", Role: authz.RoleOwner, Status: authz.StatusActive})
	dir.AddMember(directory.Member{FirmID: "f1", PrincipalID: "staffer", Role: authz.RoleStaff, Status: authz.StatusActive})
	return dir
}

func newPipeline(t *testing.T, dir directory.Reader) (*ContextMiddleware, *Guard) {
	res := resolver.New(dir, testLogger())
	enf := enforcer.New(testLogger())
	cm := NewContextMiddleware(res, headerDecoder(), testLogger())
	return cm, NewGuard(enf, res, headerDecoder())
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func doRequest(t *testing.T, handler http.Handler, principal, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if principal != "" {
		req.Header.Set("X-Principal-ID", principal)
	}
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func errorCode(t *testing.T, rr *httptest.ResponseRecorder) string {
	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return body["code"]
}

func guardedRouter(cm *ContextMiddleware, guard mux.MiddlewareFunc, path string) http.Handler {
	r := mux.NewRouter()
	sub := r.PathPrefix("/").Subrouter()
	sub.Use(guard)
	sub.Handle(path, okHandler())
	return cm.Handler(r)
}

func TestGuardAllowsPermittedLevel(t *testing.T) {
	cm, g := newPipeline(t, testDirectory())
	h := guardedRouter(cm, g.RequireLevel("cases", authz.LevelView, "cases.get"), "/firms/{firm_id}/cases/{id}")

	rr := doRequest(t, h, "staffer", "/firms/f1/cases/C1")
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestGuardDeniesInsufficientLevel(t *testing.T) {
	cm, g := newPipeline(t, testDirectory())
	h := guardedRouter(cm, g.RequireLevel("cases", authz.LevelEdit, "cases.update"), "/firms/{firm_id}/cases/{id}")

	rr := doRequest(t, h, "staffer", "/firms/f1/cases/C1")
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, enforcer.ReasonPermissionDenied, errorCode(t, rr))
}

func TestGuardMapsTenantMismatchToNotFound(t *testing.T) {
	cm, g := newPipeline(t, testDirectory())
	h := guardedRouter(cm, g.RequireLevel("cases", authz.LevelView, "cases.get"), "/firms/{firm_id}/cases/{id}")

	rr := doRequest(t, h, "owner", "/firms/f2/cases/C1")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "NOT_FOUND", errorCode(t, rr))
}

func TestMissingCredentialIs401(t *testing.T) {
	cm, g := newPipeline(t, testDirectory())
	h := guardedRouter(cm, g.RequireLevel("cases", authz.LevelView, "cases.get"), "/firms/{firm_id}/cases/{id}")

	rr := doRequest(t, h, "", "/firms/f1/cases/C1")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestUnknownPrincipalIs401(t *testing.T) {
	cm, g := newPipeline(t, testDirectory())
	h := guardedRouter(cm, g.RequireLevel("cases", authz.LevelView, "cases.get"), "/firms/{firm_id}/cases/{id}")

	rr := doRequest(t, h, "nobody", "/firms/f1/cases/C1")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "IDENTITY_NOT_FOUND", errorCode(t, rr))
}

func TestResolutionOutageDeniesClosed(t *testing.T) {
	dir := testDirectory()
	dir.SetUnavailable(true)
	cm, g := newPipeline(t, dir)
	h := guardedRouter(cm, g.RequireLevel("cases", authz.LevelView, "cases.get"), "/firms/{firm_id}/cases/{id}")

	rr := doRequest(t, h, "owner", "/firms/f1/cases/C1")
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, "RESOLUTION_UNAVAILABLE", errorCode(t, rr))
}

func TestSoloRouteWithoutFirmVar(t *testing.T) {
	cm, g := newPipeline(t, testDirectory())

	r := mux.NewRouter()
	sub := r.PathPrefix("/").Subrouter()
	sub.Use(g.RequireLevel("cases", authz.LevelFull, "cases.delete"))
	sub.Handle("/cases/{id}", okHandler())
	h := cm.Handler(r)

	rr := doRequest(t, h, "solo", "/cases/C1")
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestRequireFreshContextReResolvesClaims(t *testing.T) {
	dir := testDirectory()
	// Claims place the caller in f1 as owner; the epoch source never
	// invalidates, so the fast path serves the first resolution.
	adapter := resolver.NewClaimsAdapter(staticEpochs{}, testLogger(), nil)
	res := resolver.New(dir, testLogger(), resolver.WithClaimsAdapter(adapter))
	enf := enforcer.New(testLogger())
	decoder := CredentialDecoderFunc(func(r *http.Request) (string, *resolver.Claims, error) {
		return "owner", &resolver.Claims{FirmID: "f1", Role: "owner", Mode: "member", IssuedAt: time.Now().Unix()}, nil
	})
	cm := NewContextMiddleware(res, decoder, testLogger())
	g := NewGuard(enf, res, decoder)

	seen := make(chan bool, 1)
	r := mux.NewRouter()
	sub := r.PathPrefix("/").Subrouter()
	sub.Use(g.RequireFreshContext(), g.RequireLevel("invoices", authz.LevelFull, "invoices.pay"))
	sub.Handle("/firms/{firm_id}/invoices/{id}", http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		seen <- AuthorizationFromContext(req.Context()).Authoritative
		w.WriteHeader(http.StatusOK)
	}))
	h := cm.Handler(r)

	req := httptest.NewRequest(http.MethodPost, "/firms/f1/invoices/I1", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, <-seen, "fresh guard must hand the handler an authoritative context")
}

func TestRequireFreshContextMapsDeletedPrincipalTo401(t *testing.T) {
	// "phantom" carries fresh claims but no directory record, as after a
	// mid-session account deletion. The fast path still serves the claim
	// context; the fresh guard's re-resolution must surface the identity
	// failure, not a resolution outage.
	adapter := resolver.NewClaimsAdapter(staticEpochs{}, testLogger(), nil)
	res := resolver.New(testDirectory(), testLogger(), resolver.WithClaimsAdapter(adapter))
	enf := enforcer.New(testLogger())
	decoder := CredentialDecoderFunc(func(r *http.Request) (string, *resolver.Claims, error) {
		return "phantom", &resolver.Claims{FirmID: "f1", Role: "owner", Mode: "member", IssuedAt: time.Now().Unix()}, nil
	})
	cm := NewContextMiddleware(res, decoder, testLogger())
	g := NewGuard(enf, res, decoder)

	r := mux.NewRouter()
	sub := r.PathPrefix("/").Subrouter()
	sub.Use(g.RequireFreshContext())
	sub.Handle("/firms/{firm_id}/invoices/{id}", okHandler())
	h := cm.Handler(r)

	req := httptest.NewRequest(http.MethodPost, "/firms/f1/invoices/I1", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "IDENTITY_NOT_FOUND", errorCode(t, rr))
}

// staticEpochs never reports a role change.
type staticEpochs struct{}

func (staticEpochs) RoleChangedAt(ctx context.Context, firmID string) (int64, error) {
	return 0, nil
}

func TestRequestIDMiddleware(t *testing.T) {
	var captured string
	h := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = w.Header().Get("X-Request-ID")
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, captured)

	// A caller-supplied id is preserved.
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "req-42")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, "req-42", rr.Header().Get("X-Request-ID"))
}
