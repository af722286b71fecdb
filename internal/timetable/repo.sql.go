package timetable

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sekolahku/sekolahku/internal/platform/httpx"
)

const slotColumns = `
	id, class_id, day_of_week, to_char(starts_at, 'HH24:MI'),
	to_char(ends_at, 'HH24:MI'), subject, teacher_id, created_at, updated_at`

// Repository provides PostgreSQL backed persistence for timetable slots.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListByClass returns all slots for a class ordered by day and start.
func (r *Repository) ListByClass(ctx context.Context, classID int64) ([]Slot, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+slotColumns+`
		FROM timetable_slots
		WHERE class_id = $1
		ORDER BY day_of_week, starts_at`, classID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []Slot
	for rows.Next() {
		var s Slot
		if err := rows.Scan(&s.ID, &s.ClassID, &s.DayOfWeek, &s.StartsAt, &s.EndsAt,
			&s.Subject, &s.TeacherID, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, s)
	}
	return list, rows.Err()
}

// GetSlot fetches one slot by ID.
func (r *Repository) GetSlot(ctx context.Context, id int64) (Slot, error) {
	var s Slot
	err := r.pool.QueryRow(ctx, `
		SELECT `+slotColumns+` FROM timetable_slots WHERE id = $1`, id).
		Scan(&s.ID, &s.ClassID, &s.DayOfWeek, &s.StartsAt, &s.EndsAt,
			&s.Subject, &s.TeacherID, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Slot{}, httpx.ErrNotFound
		}
		return Slot{}, err
	}
	return s, nil
}

// HasOverlap reports whether another slot of the same class on the
// same weekday overlaps the [startsAt, endsAt) interval. excludeID
// skips the slot being updated; pass 0 on insert.
func (r *Repository) HasOverlap(ctx context.Context, classID int64, dayOfWeek int, startsAt, endsAt string, excludeID int64) (bool, error) {
	var one int
	err := r.pool.QueryRow(ctx, `
		SELECT 1 FROM timetable_slots
		WHERE class_id = $1 AND day_of_week = $2 AND id <> $5
		  AND starts_at < $4::time AND ends_at > $3::time
		LIMIT 1`, classID, dayOfWeek, startsAt, endsAt, excludeID).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// CreateSlot inserts a slot.
func (r *Repository) CreateSlot(ctx context.Context, s Slot) (Slot, error) {
	var out Slot
	err := r.pool.QueryRow(ctx, `
		INSERT INTO timetable_slots (class_id, day_of_week, starts_at, ends_at, subject, teacher_id, created_at, updated_at)
		VALUES ($1, $2, $3::time, $4::time, $5, $6, NOW(), NOW())
		RETURNING `+slotColumns,
		s.ClassID, s.DayOfWeek, s.StartsAt, s.EndsAt, s.Subject, s.TeacherID).
		Scan(&out.ID, &out.ClassID, &out.DayOfWeek, &out.StartsAt, &out.EndsAt,
			&out.Subject, &out.TeacherID, &out.CreatedAt, &out.UpdatedAt)
	if err != nil {
		return Slot{}, err
	}
	return out, nil
}

// UpdateSlot replaces a slot's schedule fields.
func (r *Repository) UpdateSlot(ctx context.Context, s Slot) (Slot, error) {
	var out Slot
	err := r.pool.QueryRow(ctx, `
		UPDATE timetable_slots
		SET day_of_week = $2, starts_at = $3::time, ends_at = $4::time,
			subject = $5, teacher_id = $6, updated_at = NOW()
		WHERE id = $1
		RETURNING `+slotColumns,
		s.ID, s.DayOfWeek, s.StartsAt, s.EndsAt, s.Subject, s.TeacherID).
		Scan(&out.ID, &out.ClassID, &out.DayOfWeek, &out.StartsAt, &out.EndsAt,
			&out.Subject, &out.TeacherID, &out.CreatedAt, &out.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Slot{}, httpx.ErrNotFound
		}
		return Slot{}, err
	}
	return out, nil
}

// DeleteSlot removes a slot by ID.
func (r *Repository) DeleteSlot(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM timetable_slots WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}
