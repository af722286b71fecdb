package jobs

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSummaryWindowDefaultsToYesterdayThroughToday(t *testing.T) {
	now := time.Date(2026, 3, 4, 1, 30, 0, 0, time.UTC)

	from, to, err := summaryWindow("", now)

	require.NoError(t, err)
	require.Equal(t, "2026-03-03", from.Format(dateLayout))
	require.Equal(t, "2026-03-04", to.Format(dateLayout))
}

func TestSummaryWindowSingleDay(t *testing.T) {
	from, to, err := summaryWindow("2026-02-14", time.Now())

	require.NoError(t, err)
	require.Equal(t, from, to)
	require.Equal(t, "2026-02-14", from.Format(dateLayout))
}

func TestSummaryWindowRejectsBadDate(t *testing.T) {
	_, _, err := summaryWindow("14-02-2026", time.Now())
	require.Error(t, err)
}

func TestAttendanceSummaryTaskRoundTrip(t *testing.T) {
	task, err := NewAttendanceSummaryTask(AttendanceSummaryPayload{Date: "2026-02-14"})
	require.NoError(t, err)
	require.Equal(t, TaskAttendanceSummary, task.Type())
	require.JSONEq(t, `{"date":"2026-02-14"}`, string(task.Payload()))
}
