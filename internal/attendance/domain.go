package attendance

import "time"

// Status enumerates the attendance states recorded per student per day.
type Status string

// Attendance statuses.
const (
	StatusPresent Status = "PRESENT"
	StatusAbsent  Status = "ABSENT"
	StatusLate    Status = "LATE"
	StatusExcused Status = "EXCUSED"
)

// Valid reports whether the status is one of the known states.
func (s Status) Valid() bool {
	switch s {
	case StatusPresent, StatusAbsent, StatusLate, StatusExcused:
		return true
	}
	return false
}

// Record is one attendance row for a student on a given day.
type Record struct {
	ID          int64     `json:"id"`
	StudentID   int64     `json:"student_id"`
	StudentName string    `json:"student_name"`
	ClassID     int64     `json:"class_id"`
	Date        time.Time `json:"date"`
	Status      Status    `json:"status"`
	Notes       string    `json:"notes,omitempty"`
}

// BatchEntry is one row of a batch save request.
type BatchEntry struct {
	StudentID int64
	ClassID   int64
	Date      time.Time
	Status    Status
	Notes     string
}

// DayCounts aggregates statuses for one scope (a day, a class, a date bucket).
type DayCounts struct {
	Present int
	Absent  int
	Total   int
}

// StudentAbsence counts absences for one student.
type StudentAbsence struct {
	StudentID int64  `json:"student_id"`
	Name      string `json:"name"`
	Absences  int    `json:"absences"`
}

// ClassShare is a per-class attendance ratio.
type ClassShare struct {
	Name       string  `json:"name"`
	Percentage float64 `json:"percentage"`
}

// TodayStats summarises today's attendance.
type TodayStats struct {
	Present int `json:"present"`
	Absent  int `json:"absent"`
	Total   int `json:"total"`
}

// Stats is the derived statistics payload served from cache.
type Stats struct {
	Today                TodayStats       `json:"today_stats"`
	WeeklyPercentage     float64          `json:"weekly_percentage"`
	MostAbsentStudents   []StudentAbsence `json:"most_absent_students"`
	LowAttendanceClasses []ClassShare     `json:"low_attendance_classes"`
}

// TrendPoint is one day of the dashboard attendance trend.
type TrendPoint struct {
	Date       string  `json:"date"`
	Percentage float64 `json:"percentage"`
}

// ClassAttendance is one class of the dashboard breakdown.
type ClassAttendance struct {
	ClassName  string  `json:"class_name"`
	Present    int     `json:"present"`
	Absent     int     `json:"absent"`
	Percentage float64 `json:"percentage"`
}

// Dashboard is the derived dashboard payload served from cache.
type Dashboard struct {
	AttendanceTrend []TrendPoint      `json:"attendance_trend"`
	ClassAttendance []ClassAttendance `json:"class_attendance"`
}
