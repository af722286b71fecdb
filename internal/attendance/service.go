package attendance

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"log/slog"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

const (
	topAbsentStudents  = 3
	lowAttendanceSlots = 3
	absenceWindowDays  = 30
	dashboardSpanDays  = 7
)

// Service handles attendance business logic. Derived statistics are
// served through the injected StatsCache.
type Service struct {
	repo           RepositoryPort
	cache          *StatsCache
	logger         *slog.Logger
	collator       *collate.Collator
	now            func() time.Time
	enqueueSummary func(ctx context.Context, date string) error
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, cache *StatsCache, logger *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		cache:    cache,
		logger:   logger,
		collator: collate.New(language.Indonesian),
		now:      time.Now,
	}
}

// WithSummaryQueue registers a hook that schedules a background
// rebuild of the daily summary table after batch writes.
func (s *Service) WithSummaryQueue(enqueue func(ctx context.Context, date string) error) *Service {
	s.enqueueSummary = enqueue
	return s
}

// GetByDateAndClass returns the attendance rows of one class for one day.
func (s *Service) GetByDateAndClass(ctx context.Context, day time.Time, classID int64) ([]Record, error) {
	return s.repo.ListByDateAndClass(ctx, day, classID)
}

// BatchSave persists all entries atomically and busts the stats cache
// so subsequent reads recompute against the new rows.
func (s *Service) BatchSave(ctx context.Context, entries []BatchEntry) error {
	if len(entries) == 0 {
		return errors.New("attendance: empty batch")
	}
	for _, e := range entries {
		if !e.Status.Valid() {
			return fmt.Errorf("attendance: unknown status %q", e.Status)
		}
	}
	if err := s.repo.BatchUpsert(ctx, entries); err != nil {
		return err
	}
	s.cache.Bust()
	s.scheduleSummaries(ctx, entries)
	return nil
}

// scheduleSummaries enqueues one summary rebuild per distinct day in
// the batch. Queue faults only log: the write already succeeded and
// the nightly run will catch up.
func (s *Service) scheduleSummaries(ctx context.Context, entries []BatchEntry) {
	if s.enqueueSummary == nil {
		return
	}
	seen := make(map[string]struct{})
	for _, e := range entries {
		day := e.Date.Format("2006-01-02")
		if _, ok := seen[day]; ok {
			continue
		}
		seen[day] = struct{}{}
		if err := s.enqueueSummary(ctx, day); err != nil && s.logger != nil {
			s.logger.Warn("enqueue attendance summary", slog.String("date", day), slog.Any("error", err))
		}
	}
}

// Stats returns the attendance statistics for dashboards, memoized per
// requesting user. Persistence faults surface to the caller; serving
// silently wrong statistics would be worse than an explicit failure.
func (s *Service) Stats(ctx context.Context, userID int64) (Stats, error) {
	key := fmt.Sprintf("stats:%d", userID)
	value, err := s.cache.GetOrCompute(ctx, key, func(ctx context.Context) (any, error) {
		return s.computeStats(ctx)
	})
	if err != nil {
		if s.logger != nil {
			s.logger.Error("compute attendance stats", slog.Int64("user_id", userID), slog.Any("error", err))
		}
		return Stats{}, err
	}
	return value.(Stats), nil
}

// Dashboard returns the 7-day dashboard payload, memoized per user.
func (s *Service) Dashboard(ctx context.Context, userID int64) (Dashboard, error) {
	key := fmt.Sprintf("dashboard:%d", userID)
	value, err := s.cache.GetOrCompute(ctx, key, func(ctx context.Context) (any, error) {
		return s.computeDashboard(ctx)
	})
	if err != nil {
		if s.logger != nil {
			s.logger.Error("compute attendance dashboard", slog.Int64("user_id", userID), slog.Any("error", err))
		}
		return Dashboard{}, err
	}
	return value.(Dashboard), nil
}

func (s *Service) computeStats(ctx context.Context) (Stats, error) {
	today := startOfDay(s.now())
	weekStart := startOfWeek(today)

	todayCounts, err := s.repo.StatusCountsBetween(ctx, today, today)
	if err != nil {
		return Stats{}, err
	}
	weekCounts, err := s.repo.StatusCountsBetween(ctx, weekStart, today)
	if err != nil {
		return Stats{}, err
	}
	absences, err := s.repo.AbsencesByStudentSince(ctx, today.AddDate(0, 0, -absenceWindowDays))
	if err != nil {
		return Stats{}, err
	}
	classCounts, err := s.repo.CountsByClassOn(ctx, today)
	if err != nil {
		return Stats{}, err
	}

	stats := Stats{
		Today: TodayStats{
			Present: todayCounts.Present,
			Absent:  todayCounts.Absent,
			Total:   todayCounts.Total,
		},
		MostAbsentStudents:   s.rankAbsences(absences),
		LowAttendanceClasses: rankLowAttendance(classCounts),
	}
	if weekCounts.Total > 0 {
		stats.WeeklyPercentage = float64(weekCounts.Present) / float64(weekCounts.Total) * 100
	}
	return stats, nil
}

func (s *Service) computeDashboard(ctx context.Context) (Dashboard, error) {
	today := startOfDay(s.now())
	weekAgo := today.AddDate(0, 0, -dashboardSpanDays)

	byDate, err := s.repo.CountsByDateBetween(ctx, weekAgo, today)
	if err != nil {
		return Dashboard{}, err
	}
	byClass, err := s.repo.CountsByClassBetween(ctx, weekAgo, today)
	if err != nil {
		return Dashboard{}, err
	}

	dash := Dashboard{}
	for day, counts := range byDate {
		point := TrendPoint{Date: day}
		if counts.Total > 0 {
			point.Percentage = float64(counts.Present) / float64(counts.Total) * 100
		}
		dash.AttendanceTrend = append(dash.AttendanceTrend, point)
	}
	sort.Slice(dash.AttendanceTrend, func(i, j int) bool {
		return dash.AttendanceTrend[i].Date < dash.AttendanceTrend[j].Date
	})

	for name, counts := range byClass {
		entry := ClassAttendance{
			ClassName: name,
			Present:   counts.Present,
			Absent:    counts.Absent,
		}
		if counts.Total > 0 {
			entry.Percentage = float64(counts.Present) / float64(counts.Total) * 100
		}
		dash.ClassAttendance = append(dash.ClassAttendance, entry)
	}
	sort.Slice(dash.ClassAttendance, func(i, j int) bool {
		return s.collator.CompareString(dash.ClassAttendance[i].ClassName, dash.ClassAttendance[j].ClassName) < 0
	})
	return dash, nil
}

// rankAbsences orders students by absence count descending, breaking
// ties by collated name, and keeps the top entries.
func (s *Service) rankAbsences(absences []StudentAbsence) []StudentAbsence {
	ranked := append([]StudentAbsence(nil), absences...)
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Absences != ranked[j].Absences {
			return ranked[i].Absences > ranked[j].Absences
		}
		return s.collator.CompareString(ranked[i].Name, ranked[j].Name) < 0
	})
	if len(ranked) > topAbsentStudents {
		ranked = ranked[:topAbsentStudents]
	}
	return ranked
}

// rankLowAttendance keeps the classes with the lowest present ratio.
func rankLowAttendance(byClass map[string]DayCounts) []ClassShare {
	var shares []ClassShare
	for name, counts := range byClass {
		if counts.Total == 0 {
			continue
		}
		shares = append(shares, ClassShare{
			Name:       name,
			Percentage: float64(counts.Present) / float64(counts.Total) * 100,
		})
	}
	sort.Slice(shares, func(i, j int) bool {
		if shares[i].Percentage != shares[j].Percentage {
			return shares[i].Percentage < shares[j].Percentage
		}
		return shares[i].Name < shares[j].Name
	})
	if len(shares) > lowAttendanceSlots {
		shares = shares[:lowAttendanceSlots]
	}
	return shares
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// startOfWeek returns the preceding Sunday, matching the convention
// used by the dashboard consumers.
func startOfWeek(t time.Time) time.Time {
	return startOfDay(t).AddDate(0, 0, -int(t.Weekday()))
}
