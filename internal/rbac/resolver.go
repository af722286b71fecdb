package rbac

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// IdentityStore loads the persisted role assignments the resolver
// needs to build an Identity.
type IdentityStore interface {
	// ActiveUserExists reports whether the user exists and is not soft deleted.
	ActiveUserExists(ctx context.Context, userID int64) (bool, error)
	// UserRoleNames returns the distinct names of the user's non-deleted roles.
	UserRoleNames(ctx context.Context, userID int64) ([]string, error)
}

// Resolver derives a request-scoped Identity from persistent role
// assignments. Resolution runs once per inbound request; the result is
// never cached across requests, so role changes take effect on the
// next call.
type Resolver struct {
	store    IdentityStore
	registry *Registry
	logger   *slog.Logger
}

// NewResolver constructs a Resolver.
func NewResolver(store IdentityStore, registry *Registry, logger *slog.Logger) *Resolver {
	return &Resolver{store: store, registry: registry, logger: logger}
}

// Resolve loads the user's roles and derives the effective permission
// set. Any persistence fault degrades to an empty Identity: downstream
// guards then deny the request instead of the resolver crashing
// session establishment. The triggering error is logged.
func (r *Resolver) Resolve(ctx context.Context, userID int64) Identity {
	identity := Identity{UserID: userID}

	ok, err := r.store.ActiveUserExists(ctx, userID)
	if err != nil {
		r.log(slog.LevelError, "resolve identity: lookup user", userID, err)
		return identity
	}
	if !ok {
		return identity
	}

	roleNames, err := r.store.UserRoleNames(ctx, userID)
	if err != nil {
		r.log(slog.LevelError, "resolve identity: load roles", userID, err)
		return identity
	}

	seen := make(map[string]struct{})
	for _, role := range roleNames {
		identity.Roles = append(identity.Roles, role)
		perms, found := r.registry.RolePermissions(role)
		if !found {
			// A role row with no registry entry grants nothing; it is a
			// configuration anomaly, not a request failure.
			r.log(slog.LevelWarn, "resolve identity: role missing from registry: "+role, userID, nil)
			continue
		}
		for _, p := range perms {
			if _, dup := seen[p]; dup {
				continue
			}
			seen[p] = struct{}{}
			identity.Permissions = append(identity.Permissions, p)
		}
	}
	return identity
}

func (r *Resolver) log(level slog.Level, msg string, userID int64, err error) {
	if r.logger == nil {
		return
	}
	attrs := []any{slog.Int64("user_id", userID)}
	if err != nil {
		attrs = append(attrs, slog.Any("error", err))
	}
	r.logger.Log(context.Background(), level, msg, attrs...)
}

// PGIdentityStore implements IdentityStore against PostgreSQL.
type PGIdentityStore struct {
	pool *pgxpool.Pool
}

// NewPGIdentityStore constructs a PostgreSQL backed store.
func NewPGIdentityStore(pool *pgxpool.Pool) *PGIdentityStore {
	return &PGIdentityStore{pool: pool}
}

// ActiveUserExists reports whether the user exists and is not soft deleted.
func (s *PGIdentityStore) ActiveUserExists(ctx context.Context, userID int64) (bool, error) {
	var id int64
	err := s.pool.QueryRow(ctx,
		`SELECT id FROM users WHERE id = $1 AND deleted_at IS NULL`, userID).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// UserRoleNames returns the distinct names of the user's non-deleted roles.
func (s *PGIdentityStore) UserRoleNames(ctx context.Context, userID int64) ([]string, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT DISTINCT r.name
		FROM user_roles ur
		JOIN roles r ON r.id = ur.role_id AND r.deleted_at IS NULL
		WHERE ur.user_id = $1
		ORDER BY r.name`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

var _ IdentityStore = (*PGIdentityStore)(nil)
