package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskAttendanceSummary refreshes the precomputed daily attendance
	// summaries consumed by reports.
	TaskAttendanceSummary = "attendance:summary"
)

// AttendanceSummaryPayload selects the day to summarize. An empty Date
// means "yesterday through today" so the nightly run also repairs
// late edits to the previous day.
type AttendanceSummaryPayload struct {
	Date string `json:"date,omitempty"` // YYYY-MM-DD
}

// NewAttendanceSummaryTask constructs an Asynq task.
func NewAttendanceSummaryTask(payload AttendanceSummaryPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAttendanceSummary, data), nil
}
