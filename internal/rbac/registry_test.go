package rbac

import "testing"

func TestRegistryValidates(t *testing.T) {
	registry := NewRegistry()
	if err := registry.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestSuperAdminHoldsFullCatalog(t *testing.T) {
	registry := NewRegistry()
	grants, ok := registry.RolePermissions(RoleSuperAdmin)
	if !ok {
		t.Fatal("super-admin role missing")
	}
	catalog := registry.All()
	if len(grants) != len(catalog) {
		t.Fatalf("super-admin has %d grants, catalog has %d", len(grants), len(catalog))
	}
	have := make(map[string]struct{}, len(grants))
	for _, p := range grants {
		have[p] = struct{}{}
	}
	for _, p := range catalog {
		if _, ok := have[p]; !ok {
			t.Fatalf("super-admin missing %s", p)
		}
	}
}

func TestTeacherRoleGrants(t *testing.T) {
	registry := NewRegistry()
	grants, ok := registry.RolePermissions(RoleTeacher)
	if !ok {
		t.Fatal("teacher role missing")
	}
	have := make(map[string]struct{}, len(grants))
	for _, p := range grants {
		have[p] = struct{}{}
	}
	for _, want := range []string{PermAttendanceView, PermAttendanceManage} {
		if _, ok := have[want]; !ok {
			t.Fatalf("teacher missing %s", want)
		}
	}
	if _, ok := have[PermUsersManage]; ok {
		t.Fatal("teacher must not manage users")
	}
}

func TestUnknownRoleHasNoGrants(t *testing.T) {
	registry := NewRegistry()
	if _, ok := registry.RolePermissions("janitor"); ok {
		t.Fatal("unknown role should not resolve")
	}
}
