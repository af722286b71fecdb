package students

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

const studentColumns = `
	s.id, s.user_id, u.name, s.class_id, c.name, s.created_at, s.updated_at
	FROM students s
	JOIN users u ON u.id = s.user_id AND u.deleted_at IS NULL
	JOIN classes c ON c.id = s.class_id`

// ListByClass returns the students of one class ordered by name.
func (r *Repository) ListByClass(ctx context.Context, classID int64) ([]Student, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+studentColumns+` WHERE s.class_id = $1 ORDER BY u.name`, classID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []Student
	for rows.Next() {
		var st Student
		if err := rows.Scan(&st.ID, &st.UserID, &st.Name, &st.ClassID, &st.ClassName, &st.CreatedAt, &st.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, st)
	}
	return list, rows.Err()
}

// GetStudent fetches a student by ID.
func (r *Repository) GetStudent(ctx context.Context, id int64) (Student, error) {
	var st Student
	err := r.pool.QueryRow(ctx,
		`SELECT `+studentColumns+` WHERE s.id = $1`, id).
		Scan(&st.ID, &st.UserID, &st.Name, &st.ClassID, &st.ClassName, &st.CreatedAt, &st.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Student{}, httpx.ErrNotFound
		}
		return Student{}, err
	}
	return st, nil
}

// Enroll creates a student record for a user in a class. A user can
// only be enrolled once; a second enrollment maps to ErrDuplicate.
func (r *Repository) Enroll(ctx context.Context, userID, classID int64) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO students (user_id, class_id, created_at, updated_at)
		VALUES ($1, $2, NOW(), NOW())
		RETURNING id`, userID, classID).Scan(&id)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return 0, httpx.ErrDuplicate
		}
		return 0, err
	}
	return id, nil
}

// Transfer moves a student to another class.
func (r *Repository) Transfer(ctx context.Context, id, classID int64) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE students SET class_id = $2, updated_at = NOW() WHERE id = $1`, id, classID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

// Withdraw removes a student record.
func (r *Repository) Withdraw(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM students WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}
