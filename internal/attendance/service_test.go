package attendance

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	_ "github.com/sekolahku/sekolahku/testing"
)

type mockRepo struct {
	records     []Record
	batchErr    error
	batches     [][]BatchEntry
	todayCounts DayCounts
	weekCounts  DayCounts
	countsCalls int
	absences    []StudentAbsence
	byClass     map[string]DayCounts
	byClassSpan map[string]DayCounts
	byDate      map[string]DayCounts
	queryErr    error
}

func (m *mockRepo) ListByDateAndClass(context.Context, time.Time, int64) ([]Record, error) {
	return m.records, m.queryErr
}

func (m *mockRepo) BatchUpsert(ctx context.Context, entries []BatchEntry) error {
	if m.batchErr != nil {
		return m.batchErr
	}
	m.batches = append(m.batches, entries)
	return nil
}

func (m *mockRepo) StatusCountsBetween(context.Context, time.Time, time.Time) (DayCounts, error) {
	if m.queryErr != nil {
		return DayCounts{}, m.queryErr
	}
	m.countsCalls++
	if m.countsCalls == 1 {
		return m.todayCounts, nil
	}
	return m.weekCounts, nil
}

func (m *mockRepo) AbsencesByStudentSince(context.Context, time.Time) ([]StudentAbsence, error) {
	return m.absences, m.queryErr
}

func (m *mockRepo) CountsByClassOn(context.Context, time.Time) (map[string]DayCounts, error) {
	return m.byClass, m.queryErr
}

func (m *mockRepo) CountsByClassBetween(context.Context, time.Time, time.Time) (map[string]DayCounts, error) {
	return m.byClassSpan, m.queryErr
}

func (m *mockRepo) CountsByDateBetween(context.Context, time.Time, time.Time) (map[string]DayCounts, error) {
	return m.byDate, m.queryErr
}

func newTestService(repo *mockRepo) *Service {
	svc := NewService(repo, NewStatsCache(5*time.Minute), nil)
	svc.now = func() time.Time {
		// A Wednesday, so the week window spans back to Sunday.
		return time.Date(2026, 3, 4, 10, 30, 0, 0, time.UTC)
	}
	return svc
}

func TestBatchSaveRejectsEmptyBatch(t *testing.T) {
	svc := newTestService(&mockRepo{})
	require.Error(t, svc.BatchSave(context.Background(), nil))
}

func TestBatchSaveRejectsUnknownStatus(t *testing.T) {
	repo := &mockRepo{}
	svc := newTestService(repo)

	err := svc.BatchSave(context.Background(), []BatchEntry{
		{StudentID: 1, ClassID: 1, Date: time.Now(), Status: "SLEEPING"},
	})

	require.Error(t, err)
	require.Empty(t, repo.batches, "invalid batch must not reach the repository")
}

func TestBatchSaveBustsCache(t *testing.T) {
	repo := &mockRepo{todayCounts: DayCounts{Present: 10, Total: 10}}
	svc := newTestService(repo)

	first, err := svc.Stats(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, 10, first.Today.Present)

	repo.todayCounts = DayCounts{Present: 8, Absent: 2, Total: 10}
	repo.countsCalls = 0

	err = svc.BatchSave(context.Background(), []BatchEntry{
		{StudentID: 1, ClassID: 1, Date: time.Now(), Status: StatusAbsent},
	})
	require.NoError(t, err)

	second, err := svc.Stats(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, 8, second.Today.Present)
}

func TestBatchSaveSurfacesRepositoryError(t *testing.T) {
	boom := errors.New("deadlock detected")
	svc := newTestService(&mockRepo{batchErr: boom})

	err := svc.BatchSave(context.Background(), []BatchEntry{
		{StudentID: 1, ClassID: 1, Date: time.Now(), Status: StatusPresent},
	})
	require.ErrorIs(t, err, boom)
}

func TestBatchSaveSchedulesSummaryPerDay(t *testing.T) {
	svc := newTestService(&mockRepo{})
	var enqueued []string
	svc.WithSummaryQueue(func(_ context.Context, date string) error {
		enqueued = append(enqueued, date)
		return nil
	})

	day := time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC)
	err := svc.BatchSave(context.Background(), []BatchEntry{
		{StudentID: 1, ClassID: 1, Date: day, Status: StatusPresent},
		{StudentID: 2, ClassID: 1, Date: day, Status: StatusAbsent},
		{StudentID: 3, ClassID: 1, Date: day.AddDate(0, 0, -1), Status: StatusLate},
	})

	require.NoError(t, err)
	require.ElementsMatch(t, []string{"2026-03-04", "2026-03-03"}, enqueued)
}

func TestStatsComputesWeeklyPercentage(t *testing.T) {
	repo := &mockRepo{
		todayCounts: DayCounts{Present: 18, Absent: 2, Total: 20},
		weekCounts:  DayCounts{Present: 75, Absent: 25, Total: 100},
	}
	svc := newTestService(repo)

	stats, err := svc.Stats(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, 18, stats.Today.Present)
	require.Equal(t, 2, stats.Today.Absent)
	require.InDelta(t, 75.0, stats.WeeklyPercentage, 0.001)
}

func TestStatsRanksMostAbsentStudents(t *testing.T) {
	repo := &mockRepo{
		absences: []StudentAbsence{
			{StudentID: 1, Name: "Citra", Absences: 2},
			{StudentID: 2, Name: "Andi", Absences: 5},
			{StudentID: 3, Name: "Bella", Absences: 5},
			{StudentID: 4, Name: "Dodi", Absences: 1},
			{StudentID: 5, Name: "Eka", Absences: 4},
		},
	}
	svc := newTestService(repo)

	stats, err := svc.Stats(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, stats.MostAbsentStudents, 3)
	require.Equal(t, "Andi", stats.MostAbsentStudents[0].Name)
	require.Equal(t, "Bella", stats.MostAbsentStudents[1].Name)
	require.Equal(t, "Eka", stats.MostAbsentStudents[2].Name)
}

func TestStatsRanksLowAttendanceClasses(t *testing.T) {
	repo := &mockRepo{
		byClass: map[string]DayCounts{
			"7A": {Present: 9, Absent: 1, Total: 10},
			"7B": {Present: 5, Absent: 5, Total: 10},
			"8A": {Present: 7, Absent: 3, Total: 10},
			"8B": {Present: 8, Absent: 2, Total: 10},
			"9A": {Total: 0},
		},
	}
	svc := newTestService(repo)

	stats, err := svc.Stats(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, stats.LowAttendanceClasses, 3)
	require.Equal(t, "7B", stats.LowAttendanceClasses[0].Name)
	require.Equal(t, "8A", stats.LowAttendanceClasses[1].Name)
	require.Equal(t, "8B", stats.LowAttendanceClasses[2].Name)
}

func TestStatsErrorIsNotCached(t *testing.T) {
	repo := &mockRepo{queryErr: errors.New("connection reset")}
	svc := newTestService(repo)

	_, err := svc.Stats(context.Background(), 1)
	require.Error(t, err)

	repo.queryErr = nil
	repo.todayCounts = DayCounts{Present: 5, Total: 5}

	stats, err := svc.Stats(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, 5, stats.Today.Present)
}

func TestDashboardSortsTrendChronologically(t *testing.T) {
	repo := &mockRepo{
		byDate: map[string]DayCounts{
			"2026-03-03": {Present: 8, Absent: 2, Total: 10},
			"2026-03-01": {Present: 10, Total: 10},
			"2026-03-02": {Present: 9, Absent: 1, Total: 10},
		},
		byClassSpan: map[string]DayCounts{
			"7B": {Present: 40, Absent: 10, Total: 50},
			"7A": {Present: 48, Absent: 2, Total: 50},
		},
	}
	svc := newTestService(repo)

	dash, err := svc.Dashboard(context.Background(), 1)
	require.NoError(t, err)

	require.Len(t, dash.AttendanceTrend, 3)
	require.Equal(t, "2026-03-01", dash.AttendanceTrend[0].Date)
	require.Equal(t, "2026-03-03", dash.AttendanceTrend[2].Date)

	require.Len(t, dash.ClassAttendance, 2)
	require.Equal(t, "7A", dash.ClassAttendance[0].ClassName)
	require.InDelta(t, 96.0, dash.ClassAttendance[0].Percentage, 0.001)
}

func TestStatsCachedPerUser(t *testing.T) {
	repo := &mockRepo{todayCounts: DayCounts{Present: 1, Total: 1}}
	svc := newTestService(repo)

	_, err := svc.Stats(context.Background(), 1)
	require.NoError(t, err)
	calls := repo.countsCalls

	_, err = svc.Stats(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, calls, repo.countsCalls, "second read for same user must hit the cache")
}
