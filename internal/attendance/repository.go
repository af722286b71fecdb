package attendance

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sekolahku/sekolahku/internal/platform/db"
)

// RepositoryPort defines data access methods for attendance.
type RepositoryPort interface {
	ListByDateAndClass(ctx context.Context, day time.Time, classID int64) ([]Record, error)
	BatchUpsert(ctx context.Context, entries []BatchEntry) error
	StatusCountsBetween(ctx context.Context, from, to time.Time) (DayCounts, error)
	AbsencesByStudentSince(ctx context.Context, since time.Time) ([]StudentAbsence, error)
	CountsByClassOn(ctx context.Context, day time.Time) (map[string]DayCounts, error)
	CountsByClassBetween(ctx context.Context, from, to time.Time) (map[string]DayCounts, error)
	CountsByDateBetween(ctx context.Context, from, to time.Time) (map[string]DayCounts, error)
}

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListByDateAndClass returns the attendance rows of one class for one day.
func (r *Repository) ListByDateAndClass(ctx context.Context, day time.Time, classID int64) ([]Record, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT a.id, a.student_id, u.name, a.class_id, a.date, a.status, COALESCE(a.notes, '')
		FROM attendance a
		JOIN students s ON s.id = a.student_id
		JOIN users u ON u.id = s.user_id
		WHERE a.class_id = $1 AND a.date = $2::date
		ORDER BY u.name`, classID, day)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var records []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.StudentID, &rec.StudentName, &rec.ClassID, &rec.Date, &rec.Status, &rec.Notes); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// rowExecer is the subset of pgx.Tx the batch writer needs.
type rowExecer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// BatchUpsert saves every entry in one transaction keyed on
// (student_id, date). A failure on any row rolls back the whole batch.
func (r *Repository) BatchUpsert(ctx context.Context, entries []BatchEntry) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return upsertEntries(ctx, tx, entries)
	})
}

func upsertEntries(ctx context.Context, exec rowExecer, entries []BatchEntry) error {
	for _, e := range entries {
		_, err := exec.Exec(ctx, `
			INSERT INTO attendance (student_id, class_id, date, status, notes, created_at, updated_at)
			VALUES ($1, $2, $3::date, $4, NULLIF($5, ''), NOW(), NOW())
			ON CONFLICT (student_id, date) DO UPDATE SET
				class_id = EXCLUDED.class_id,
				status = EXCLUDED.status,
				notes = EXCLUDED.notes,
				updated_at = NOW()`,
			e.StudentID, e.ClassID, e.Date, string(e.Status), e.Notes)
		if err != nil {
			return err
		}
	}
	return nil
}

// StatusCountsBetween aggregates present/absent/total over a date range.
func (r *Repository) StatusCountsBetween(ctx context.Context, from, to time.Time) (DayCounts, error) {
	var c DayCounts
	err := r.pool.QueryRow(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE status = 'PRESENT'),
			COUNT(*) FILTER (WHERE status = 'ABSENT'),
			COUNT(*)
		FROM attendance
		WHERE date >= $1::date AND date <= $2::date`, from, to).
		Scan(&c.Present, &c.Absent, &c.Total)
	return c, err
}

// AbsencesByStudentSince counts ABSENT rows per student since the cutoff.
func (r *Repository) AbsencesByStudentSince(ctx context.Context, since time.Time) ([]StudentAbsence, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT s.id, u.name, COUNT(*)
		FROM attendance a
		JOIN students s ON s.id = a.student_id
		JOIN users u ON u.id = s.user_id
		WHERE a.status = 'ABSENT' AND a.date >= $1::date
		GROUP BY s.id, u.name`, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []StudentAbsence
	for rows.Next() {
		var sa StudentAbsence
		if err := rows.Scan(&sa.StudentID, &sa.Name, &sa.Absences); err != nil {
			return nil, err
		}
		list = append(list, sa)
	}
	return list, rows.Err()
}

// CountsByClassOn aggregates per class for a single day.
func (r *Repository) CountsByClassOn(ctx context.Context, day time.Time) (map[string]DayCounts, error) {
	return r.countsByClass(ctx, day, day)
}

// CountsByClassBetween aggregates per class over a date range.
func (r *Repository) CountsByClassBetween(ctx context.Context, from, to time.Time) (map[string]DayCounts, error) {
	return r.countsByClass(ctx, from, to)
}

func (r *Repository) countsByClass(ctx context.Context, from, to time.Time) (map[string]DayCounts, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT c.name,
			COUNT(*) FILTER (WHERE a.status = 'PRESENT'),
			COUNT(*) FILTER (WHERE a.status = 'ABSENT'),
			COUNT(*)
		FROM attendance a
		JOIN classes c ON c.id = a.class_id
		WHERE a.date >= $1::date AND a.date <= $2::date
		GROUP BY c.name`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[string]DayCounts)
	for rows.Next() {
		var name string
		var c DayCounts
		if err := rows.Scan(&name, &c.Present, &c.Absent, &c.Total); err != nil {
			return nil, err
		}
		out[name] = c
	}
	return out, rows.Err()
}

// CountsByDateBetween aggregates per calendar day over a date range.
func (r *Repository) CountsByDateBetween(ctx context.Context, from, to time.Time) (map[string]DayCounts, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT to_char(date, 'YYYY-MM-DD'),
			COUNT(*) FILTER (WHERE status = 'PRESENT'),
			COUNT(*) FILTER (WHERE status = 'ABSENT'),
			COUNT(*)
		FROM attendance
		WHERE date >= $1::date AND date <= $2::date
		GROUP BY date
		ORDER BY date`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[string]DayCounts)
	for rows.Next() {
		var day string
		var c DayCounts
		if err := rows.Scan(&day, &c.Present, &c.Absent, &c.Total); err != nil {
			return nil, err
		}
		out[day] = c
	}
	return out, rows.Err()
}

var _ RepositoryPort = (*Repository)(nil)
