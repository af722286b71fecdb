package rbac

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sekolahku/sekolahku/internal/shared"
	_ "github.com/sekolahku/sekolahku/testing"
)

func guardedRequest(t *testing.T, userID string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/api/attendance", nil)
	sess := &shared.Session{}
	if userID != "" {
		sess.SetUser(userID)
	}
	return req.WithContext(shared.ContextWithSession(req.Context(), sess))
}

func newGuard(store IdentityStore) Middleware {
	return Middleware{
		Resolver: NewResolver(store, NewRegistry(), nil),
		Registry: NewRegistry(),
	}
}

func okHandler(hit *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*hit = true
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequirePermissionRejectsAnonymous(t *testing.T) {
	guard := newGuard(stubIdentityStore{})
	var hit bool

	rec := httptest.NewRecorder()
	guard.RequirePermission(PermAttendanceView)(okHandler(&hit)).
		ServeHTTP(rec, guardedRequest(t, ""))

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.False(t, hit)
}

func TestRequirePermissionRejectsUserWithoutRoles(t *testing.T) {
	guard := newGuard(stubIdentityStore{exists: true})
	var hit bool

	rec := httptest.NewRecorder()
	guard.RequirePermission(PermAttendanceView)(okHandler(&hit)).
		ServeHTTP(rec, guardedRequest(t, "42"))

	require.Equal(t, http.StatusForbidden, rec.Code)
	require.False(t, hit)
}

func TestRequirePermissionAllowsGrantedRole(t *testing.T) {
	guard := newGuard(stubIdentityStore{exists: true, roles: []string{RoleTeacher}})
	var hit bool

	rec := httptest.NewRecorder()
	guard.RequirePermission(PermAttendanceManage)(okHandler(&hit)).
		ServeHTTP(rec, guardedRequest(t, "42"))

	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, hit)
}

func TestRequirePermissionRejectsUngrantedPermission(t *testing.T) {
	guard := newGuard(stubIdentityStore{exists: true, roles: []string{RoleStudent}})
	var hit bool

	rec := httptest.NewRecorder()
	guard.RequirePermission(PermAttendanceManage)(okHandler(&hit)).
		ServeHTTP(rec, guardedRequest(t, "42"))

	require.Equal(t, http.StatusForbidden, rec.Code)
	require.False(t, hit)
}

func TestSuperAdminBypassExpandsPermissions(t *testing.T) {
	guard := newGuard(stubIdentityStore{exists: true, roles: []string{RoleSuperAdmin}})
	registry := NewRegistry()

	var got Identity
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = IdentityFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	guard.RequirePermission(PermRolesManage)(handler).
		ServeHTTP(rec, guardedRequest(t, "1"))

	require.Equal(t, http.StatusOK, rec.Code)
	require.ElementsMatch(t, registry.All(), got.Permissions)
}

func TestRequireAuthAttachesIdentity(t *testing.T) {
	guard := newGuard(stubIdentityStore{exists: true, roles: []string{RoleTeacher}})

	var got Identity
	var ok bool
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, ok = IdentityFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	guard.RequireAuth(handler).ServeHTTP(rec, guardedRequest(t, "42"))

	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, ok)
	require.Equal(t, int64(42), got.UserID)
	require.Equal(t, []string{RoleTeacher}, got.Roles)
}

func TestRequirePermissionFailsClosedOnResolverFault(t *testing.T) {
	guard := newGuard(stubIdentityStore{existsErr: context.DeadlineExceeded})
	var hit bool

	rec := httptest.NewRecorder()
	guard.RequirePermission(PermAttendanceView)(okHandler(&hit)).
		ServeHTTP(rec, guardedRequest(t, "42"))

	require.Equal(t, http.StatusForbidden, rec.Code)
	require.False(t, hit)
}
