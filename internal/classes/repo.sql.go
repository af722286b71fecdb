package classes

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sekolahku/sekolahku/internal/platform/db"
	"github.com/sekolahku/sekolahku/internal/platform/httpx"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListClasses returns all classes ordered by name.
func (r *Repository) ListClasses(ctx context.Context) ([]Class, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, level, created_at, updated_at FROM classes ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []Class
	for rows.Next() {
		var c Class
		if err := rows.Scan(&c.ID, &c.Name, &c.Level, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, c)
	}
	return list, rows.Err()
}

// GetClass fetches a class by ID.
func (r *Repository) GetClass(ctx context.Context, id int64) (Class, error) {
	var c Class
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, level, created_at, updated_at FROM classes WHERE id = $1`, id).
		Scan(&c.ID, &c.Name, &c.Level, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Class{}, httpx.ErrNotFound
		}
		return Class{}, err
	}
	return c, nil
}

// CreateClass inserts a new class. Duplicate name maps to ErrDuplicate.
func (r *Repository) CreateClass(ctx context.Context, name, level string) (Class, error) {
	var c Class
	err := r.pool.QueryRow(ctx, `
		INSERT INTO classes (name, level, created_at, updated_at)
		VALUES ($1, $2, NOW(), NOW())
		RETURNING id, name, level, created_at, updated_at`, name, level).
		Scan(&c.ID, &c.Name, &c.Level, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return Class{}, httpx.ErrDuplicate
		}
		return Class{}, err
	}
	return c, nil
}

// UpdateClass updates name and level.
func (r *Repository) UpdateClass(ctx context.Context, id int64, name, level string) (Class, error) {
	var c Class
	err := r.pool.QueryRow(ctx, `
		UPDATE classes SET name = $2, level = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING id, name, level, created_at, updated_at`, id, name, level).
		Scan(&c.ID, &c.Name, &c.Level, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Class{}, httpx.ErrNotFound
		}
		return Class{}, err
	}
	return c, nil
}

// DeleteClass removes a class by ID.
func (r *Repository) DeleteClass(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM classes WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}
