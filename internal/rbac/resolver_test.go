package rbac

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type stubIdentityStore struct {
	exists    bool
	existsErr error
	roles     []string
	rolesErr  error
}

func (s stubIdentityStore) ActiveUserExists(context.Context, int64) (bool, error) {
	return s.exists, s.existsErr
}

func (s stubIdentityStore) UserRoleNames(context.Context, int64) ([]string, error) {
	return s.roles, s.rolesErr
}

func TestResolveMapsRolesToPermissions(t *testing.T) {
	resolver := NewResolver(stubIdentityStore{exists: true, roles: []string{RoleTeacher}}, NewRegistry(), nil)

	identity := resolver.Resolve(context.Background(), 7)

	require.Equal(t, int64(7), identity.UserID)
	require.Equal(t, []string{RoleTeacher}, identity.Roles)
	require.True(t, identity.HasPermission(PermAttendanceView))
	require.True(t, identity.HasPermission(PermAttendanceManage))
	require.False(t, identity.HasPermission(PermRolesManage))
}

func TestResolveDeduplicatesPermissions(t *testing.T) {
	// Teacher and coordinator both carry attendance.view.
	resolver := NewResolver(stubIdentityStore{exists: true, roles: []string{RoleTeacher, RoleCoordinator}}, NewRegistry(), nil)

	identity := resolver.Resolve(context.Background(), 7)

	seen := make(map[string]int)
	for _, p := range identity.Permissions {
		seen[p]++
	}
	for p, n := range seen {
		require.Equalf(t, 1, n, "permission %s appears %d times", p, n)
	}
}

func TestResolveMissingUserYieldsEmptyIdentity(t *testing.T) {
	resolver := NewResolver(stubIdentityStore{exists: false}, NewRegistry(), nil)

	identity := resolver.Resolve(context.Background(), 99)

	require.Empty(t, identity.Roles)
	require.Empty(t, identity.Permissions)
}

func TestResolveFailsClosedOnStoreError(t *testing.T) {
	boom := errors.New("connection refused")

	for name, store := range map[string]stubIdentityStore{
		"user lookup": {existsErr: boom},
		"role lookup": {exists: true, rolesErr: boom},
	} {
		t.Run(name, func(t *testing.T) {
			resolver := NewResolver(store, NewRegistry(), nil)
			identity := resolver.Resolve(context.Background(), 7)
			require.Empty(t, identity.Roles)
			require.Empty(t, identity.Permissions)
		})
	}
}

func TestResolveIgnoresUnknownRole(t *testing.T) {
	resolver := NewResolver(stubIdentityStore{exists: true, roles: []string{"legacy-role"}}, NewRegistry(), nil)

	identity := resolver.Resolve(context.Background(), 7)

	require.Equal(t, []string{"legacy-role"}, identity.Roles)
	require.Empty(t, identity.Permissions)
}
