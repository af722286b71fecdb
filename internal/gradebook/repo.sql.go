package gradebook

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sekolahku/sekolahku/internal/platform/httpx"
)

const entryColumns = `
	g.id, g.student_id, u.name, g.subject, g.term, g.score,
	COALESCE(g.notes, ''), g.recorded_by, g.created_at, g.updated_at`

// Repository provides PostgreSQL backed persistence for grade entries.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListByStudent returns every grade entry for a student, optionally
// narrowed to one term, ordered by subject.
func (r *Repository) ListByStudent(ctx context.Context, studentID int64, term string) ([]Entry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+entryColumns+`
		FROM grade_entries g
		JOIN students s ON s.id = g.student_id
		JOIN users u ON u.id = s.user_id
		WHERE g.student_id = $1 AND ($2 = '' OR g.term = $2)
		ORDER BY g.term, g.subject`, studentID, term)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEntries(rows)
}

// ListByClass returns grade entries for every student in a class for
// one term, ordered by student then subject.
func (r *Repository) ListByClass(ctx context.Context, classID int64, term string) ([]Entry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+entryColumns+`
		FROM grade_entries g
		JOIN students s ON s.id = g.student_id
		JOIN users u ON u.id = s.user_id
		WHERE s.class_id = $1 AND g.term = $2
		ORDER BY u.name, g.subject`, classID, term)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEntries(rows)
}

// Upsert inserts or replaces the grade for (student, subject, term).
func (r *Repository) Upsert(ctx context.Context, e Entry) (Entry, error) {
	var out Entry
	err := r.pool.QueryRow(ctx, `
		INSERT INTO grade_entries (student_id, subject, term, score, notes, recorded_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, NOW(), NOW())
		ON CONFLICT (student_id, subject, term) DO UPDATE
		SET score = EXCLUDED.score,
			notes = EXCLUDED.notes,
			recorded_by = EXCLUDED.recorded_by,
			updated_at = NOW()
		RETURNING id, student_id, subject, term, score, COALESCE(notes, ''), recorded_by, created_at, updated_at`,
		e.StudentID, e.Subject, e.Term, e.Score, e.Notes, e.RecordedBy).
		Scan(&out.ID, &out.StudentID, &out.Subject, &out.Term, &out.Score, &out.Notes,
			&out.RecordedBy, &out.CreatedAt, &out.UpdatedAt)
	if err != nil {
		return Entry{}, err
	}
	return out, nil
}

// Delete removes a grade entry by ID.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM grade_entries WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

// StudentExists reports whether the student row is present.
func (r *Repository) StudentExists(ctx context.Context, studentID int64) (bool, error) {
	var one int
	err := r.pool.QueryRow(ctx, `SELECT 1 FROM students WHERE id = $1`, studentID).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func scanEntries(rows pgx.Rows) ([]Entry, error) {
	var list []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.StudentID, &e.StudentName, &e.Subject, &e.Term,
			&e.Score, &e.Notes, &e.RecordedBy, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, e)
	}
	return list, rows.Err()
}
