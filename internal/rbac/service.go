package rbac

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sekolahku/sekolahku/internal/shared"
)

// ErrNotFound indicates that the requested record does not exist.
var ErrNotFound = errors.New("rbac: not found")

// Service orchestrates role and permission administration.
type Service struct {
	pool     *pgxpool.Pool
	registry *Registry
	audit    *shared.AuditLogger
	logger   *slog.Logger
}

// NewService constructs a Service backed by the provided pool.
func NewService(pool *pgxpool.Pool, registry *Registry, audit *shared.AuditLogger, logger *slog.Logger) *Service {
	return &Service{pool: pool, registry: registry, audit: audit, logger: logger}
}

// ListRoles returns all non-deleted roles ordered by name.
func (s *Service) ListRoles(ctx context.Context) ([]Role, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, description, created_at, updated_at
		FROM roles WHERE deleted_at IS NULL ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var roles []Role
	for rows.Next() {
		var role Role
		if err := rows.Scan(&role.ID, &role.Name, &role.Description, &role.CreatedAt, &role.UpdatedAt); err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

// GetRole fetches a role by ID.
func (s *Service) GetRole(ctx context.Context, id int64) (Role, error) {
	var role Role
	err := s.pool.QueryRow(ctx, `
		SELECT id, name, description, created_at, updated_at
		FROM roles WHERE id = $1 AND deleted_at IS NULL`, id).
		Scan(&role.ID, &role.Name, &role.Description, &role.CreatedAt, &role.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Role{}, ErrNotFound
		}
		return Role{}, err
	}
	return role, nil
}

// CreateRole inserts a new role.
func (s *Service) CreateRole(ctx context.Context, actorID int64, name, description string) (Role, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Role{}, errors.New("rbac: role name required")
	}
	var role Role
	err := s.pool.QueryRow(ctx, `
		INSERT INTO roles (name, description, created_at, updated_at)
		VALUES ($1, $2, NOW(), NOW())
		RETURNING id, name, description, created_at, updated_at`,
		name, strings.TrimSpace(description)).
		Scan(&role.ID, &role.Name, &role.Description, &role.CreatedAt, &role.UpdatedAt)
	if err != nil {
		return Role{}, err
	}
	s.record(ctx, actorID, "role.create", role.ID)
	return role, nil
}

// SoftDeleteRole marks a role as deleted. Its grants stop contributing
// to every user's effective permission set on the next resolution.
func (s *Service) SoftDeleteRole(ctx context.Context, actorID, id int64) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE roles SET deleted_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	s.record(ctx, actorID, "role.delete", id)
	return nil
}

// ListPermissions returns the persisted permission catalog ordered by name.
func (s *Service) ListPermissions(ctx context.Context) ([]Permission, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, name, description FROM permissions ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var perms []Permission
	for rows.Next() {
		var p Permission
		if err := rows.Scan(&p.ID, &p.Name, &p.Description); err != nil {
			return nil, err
		}
		perms = append(perms, p)
	}
	return perms, rows.Err()
}

// GrantPermission attaches a permission to a role. Granting twice is a no-op.
func (s *Service) GrantPermission(ctx context.Context, actorID, roleID, permissionID int64) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO role_permissions (role_id, permission_id, created_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (role_id, permission_id) DO NOTHING`, roleID, permissionID)
	if err != nil {
		return err
	}
	s.record(ctx, actorID, "role.grant", roleID)
	return nil
}

// RevokePermission detaches a permission from a role.
func (s *Service) RevokePermission(ctx context.Context, actorID, roleID, permissionID int64) error {
	_, err := s.pool.Exec(ctx, `
		DELETE FROM role_permissions WHERE role_id = $1 AND permission_id = $2`,
		roleID, permissionID)
	if err != nil {
		return err
	}
	s.record(ctx, actorID, "role.revoke", roleID)
	return nil
}

// AssignRole assigns a role to the given user. Assigning twice is a no-op.
func (s *Service) AssignRole(ctx context.Context, actorID, userID, roleID int64) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO user_roles (user_id, role_id, created_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (user_id, role_id) DO NOTHING`, userID, roleID)
	if err != nil {
		return err
	}
	s.record(ctx, actorID, "role.assign", roleID)
	return nil
}

// RemoveRole removes a role from a user.
func (s *Service) RemoveRole(ctx context.Context, actorID, userID, roleID int64) error {
	_, err := s.pool.Exec(ctx, `
		DELETE FROM user_roles WHERE user_id = $1 AND role_id = $2`, userID, roleID)
	if err != nil {
		return err
	}
	s.record(ctx, actorID, "role.remove", roleID)
	return nil
}

// EnsureSuperAdminRole upserts the super-admin role row. It is called
// in a fire-and-forget goroutine at startup; failure is logged and
// never blocks request serving.
func (s *Service) EnsureSuperAdminRole(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO roles (name, description, created_at, updated_at)
		VALUES ($1, $2, NOW(), NOW())
		ON CONFLICT (name) DO NOTHING`,
		RoleSuperAdmin, "Super Administrator with full access")
	if err != nil {
		return fmt.Errorf("rbac: ensure %s role: %w", RoleSuperAdmin, err)
	}
	return nil
}

// EnsurePermissionCatalog upserts every registry permission into the
// permissions table and grants all of them to super-admin. Re-running
// yields identical state.
func (s *Service) EnsurePermissionCatalog(ctx context.Context) error {
	if err := s.EnsureSuperAdminRole(ctx); err != nil {
		return err
	}
	var roleID int64
	if err := s.pool.QueryRow(ctx,
		`SELECT id FROM roles WHERE name = $1`, RoleSuperAdmin).Scan(&roleID); err != nil {
		return fmt.Errorf("rbac: lookup %s role: %w", RoleSuperAdmin, err)
	}
	for _, name := range s.registry.All() {
		var permID int64
		err := s.pool.QueryRow(ctx, `
			INSERT INTO permissions (name, description)
			VALUES ($1, $2)
			ON CONFLICT (name) DO UPDATE SET description = EXCLUDED.description
			RETURNING id`,
			name, "Permission for "+name).Scan(&permID)
		if err != nil {
			return fmt.Errorf("rbac: ensure permission %s: %w", name, err)
		}
		if _, err := s.pool.Exec(ctx, `
			INSERT INTO role_permissions (role_id, permission_id, created_at)
			VALUES ($1, $2, NOW())
			ON CONFLICT (role_id, permission_id) DO NOTHING`, roleID, permID); err != nil {
			return fmt.Errorf("rbac: grant %s to %s: %w", name, RoleSuperAdmin, err)
		}
	}
	return nil
}

func (s *Service) record(ctx context.Context, actorID int64, action string, roleID int64) {
	if s.audit == nil {
		return
	}
	err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "role",
		EntityID: fmt.Sprintf("%d", roleID),
		At:       time.Now().UTC(),
	})
	if err != nil && s.logger != nil {
		s.logger.Warn("audit record", slog.Any("error", err))
	}
}
