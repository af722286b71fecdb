package rbac

import (
	"fmt"
	"sort"
)

// Permission names. The catalog below is the single source of truth:
// every permission referenced by a guard must appear here.
const (
	PermAttendanceView   = "attendance.view"
	PermAttendanceManage = "attendance.manage"

	PermGradebookView   = "gradebook.view"
	PermGradebookManage = "gradebook.manage"

	PermTimetableView   = "timetable.view"
	PermTimetableManage = "timetable.manage"

	PermClassesView   = "classes.view"
	PermClassesManage = "classes.manage"

	PermStudentsView   = "students.view"
	PermStudentsManage = "students.manage"

	PermUsersView   = "users.view"
	PermUsersManage = "users.manage"

	PermRolesView   = "roles.view"
	PermRolesManage = "roles.manage"

	PermPermissionsView = "permissions.view"
)

// Built-in role names.
const (
	RoleSuperAdmin  = "super-admin"
	RoleAdmin       = "admin"
	RoleCoordinator = "coordinator"
	RoleTeacher     = "teacher"
	RoleStudent     = "student"
)

// Registry is the static catalog of permissions and the mapping from
// role names to granted permission sets. It is validated once at
// startup; guards and the resolver consult it on every request.
type Registry struct {
	catalog []string
	roles   map[string][]string
}

// NewRegistry builds the default registry.
func NewRegistry() *Registry {
	catalog := []string{
		PermAttendanceView,
		PermAttendanceManage,
		PermGradebookView,
		PermGradebookManage,
		PermTimetableView,
		PermTimetableManage,
		PermClassesView,
		PermClassesManage,
		PermStudentsView,
		PermStudentsManage,
		PermUsersView,
		PermUsersManage,
		PermRolesView,
		PermRolesManage,
		PermPermissionsView,
	}

	roles := map[string][]string{
		// Declared as the full catalog; the guard additionally treats
		// super-admin as an unconditional bypass.
		RoleSuperAdmin: append([]string(nil), catalog...),
		RoleAdmin: {
			PermAttendanceView,
			PermAttendanceManage,
			PermGradebookView,
			PermGradebookManage,
			PermTimetableView,
			PermTimetableManage,
			PermClassesView,
			PermClassesManage,
			PermStudentsView,
			PermStudentsManage,
			PermUsersView,
			PermUsersManage,
			PermRolesView,
			PermPermissionsView,
		},
		RoleCoordinator: {
			PermAttendanceView,
			PermGradebookView,
			PermTimetableView,
			PermTimetableManage,
			PermClassesView,
			PermClassesManage,
			PermStudentsView,
		},
		RoleTeacher: {
			PermAttendanceView,
			PermAttendanceManage,
			PermGradebookView,
			PermGradebookManage,
			PermTimetableView,
			PermClassesView,
			PermStudentsView,
		},
		RoleStudent: {
			PermTimetableView,
			PermGradebookView,
		},
	}

	return &Registry{catalog: catalog, roles: roles}
}

// All returns the closed permission catalog.
func (r *Registry) All() []string {
	return append([]string(nil), r.catalog...)
}

// RolePermissions returns the permission set granted by a role name.
func (r *Registry) RolePermissions(role string) ([]string, bool) {
	perms, ok := r.roles[role]
	if !ok {
		return nil, false
	}
	return append([]string(nil), perms...), true
}

// RoleNames returns the built-in role names in sorted order.
func (r *Registry) RoleNames() []string {
	names := make([]string, 0, len(r.roles))
	for name := range r.roles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate checks catalog consistency. It is called at startup so a
// misconfigured mapping fails the process before any request is served.
func (r *Registry) Validate() error {
	known := make(map[string]struct{}, len(r.catalog))
	for _, p := range r.catalog {
		if _, dup := known[p]; dup {
			return fmt.Errorf("rbac: duplicate permission %q in catalog", p)
		}
		known[p] = struct{}{}
	}
	for role, perms := range r.roles {
		for _, p := range perms {
			if _, ok := known[p]; !ok {
				return fmt.Errorf("rbac: role %q grants unknown permission %q", role, p)
			}
		}
	}
	super, ok := r.roles[RoleSuperAdmin]
	if !ok {
		return fmt.Errorf("rbac: %s role missing from registry", RoleSuperAdmin)
	}
	if len(super) != len(known) {
		return fmt.Errorf("rbac: %s must be granted the full catalog (%d of %d)", RoleSuperAdmin, len(super), len(known))
	}
	return nil
}
