package timetable

import "time"

// Weekday values follow ISO-8601: Monday is 1, Sunday is 7.
const (
	minWeekday = 1
	maxWeekday = 7
)

// Slot is one scheduled lesson for a class.
type Slot struct {
	ID        int64     `json:"id"`
	ClassID   int64     `json:"class_id"`
	DayOfWeek int       `json:"day_of_week"`
	StartsAt  string    `json:"starts_at"` // HH:MM, 24-hour
	EndsAt    string    `json:"ends_at"`
	Subject   string    `json:"subject"`
	TeacherID int64     `json:"teacher_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
