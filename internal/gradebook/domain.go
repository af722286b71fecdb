package gradebook

import "time"

// Entry is one grade record for a student in a subject and term.
type Entry struct {
	ID          int64     `json:"id"`
	StudentID   int64     `json:"student_id"`
	StudentName string    `json:"student_name"`
	Subject     string    `json:"subject"`
	Term        string    `json:"term"`
	Score       float64   `json:"score"`
	Notes       string    `json:"notes,omitempty"`
	RecordedBy  int64     `json:"recorded_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
