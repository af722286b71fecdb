package jobs

import (
	"context"
	"encoding/json"
	"time"

	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
)

const dateLayout = "2006-01-02"

// AttendanceSummarizer rebuilds rows of attendance_daily_summaries,
// the precomputed per-class counts that reports read instead of
// aggregating the attendance table on every request.
type AttendanceSummarizer struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewAttendanceSummarizer constructs the job handler.
func NewAttendanceSummarizer(pool *pgxpool.Pool, logger *slog.Logger) *AttendanceSummarizer {
	return &AttendanceSummarizer{pool: pool, logger: logger}
}

// Handle processes TaskAttendanceSummary tasks. Malformed payloads are
// dropped without retry.
func (s *AttendanceSummarizer) Handle(ctx context.Context, t *asynq.Task) error {
	var payload AttendanceSummaryPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		s.logger.Warn("attendance summary: malformed payload", slog.Any("error", err))
		return asynq.SkipRetry
	}

	from, to, err := summaryWindow(payload.Date, time.Now().UTC())
	if err != nil {
		s.logger.Warn("attendance summary: bad date", slog.String("date", payload.Date))
		return asynq.SkipRetry
	}

	if err := s.Refresh(ctx, from, to); err != nil {
		s.logger.Error("attendance summary refresh", slog.Any("error", err))
		return err
	}
	s.logger.Info("attendance summary refreshed",
		slog.String("from", from.Format(dateLayout)),
		slog.String("to", to.Format(dateLayout)))
	return nil
}

// Refresh recomputes summaries for every day in [from, to].
func (s *AttendanceSummarizer) Refresh(ctx context.Context, from, to time.Time) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO attendance_daily_summaries (class_id, date, present, absent, late, excused, total, refreshed_at)
		SELECT a.class_id, a.date,
			COUNT(*) FILTER (WHERE a.status = 'PRESENT'),
			COUNT(*) FILTER (WHERE a.status = 'ABSENT'),
			COUNT(*) FILTER (WHERE a.status = 'LATE'),
			COUNT(*) FILTER (WHERE a.status = 'EXCUSED'),
			COUNT(*),
			NOW()
		FROM attendance a
		WHERE a.date BETWEEN $1 AND $2
		GROUP BY a.class_id, a.date
		ON CONFLICT (class_id, date) DO UPDATE
		SET present = EXCLUDED.present,
			absent = EXCLUDED.absent,
			late = EXCLUDED.late,
			excused = EXCLUDED.excused,
			total = EXCLUDED.total,
			refreshed_at = NOW()`, from, to)
	return err
}

func summaryWindow(date string, now time.Time) (time.Time, time.Time, error) {
	if date == "" {
		today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		return today.AddDate(0, 0, -1), today, nil
	}
	day, err := time.Parse(dateLayout, date)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return day, day, nil
}
