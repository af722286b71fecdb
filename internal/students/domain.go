package students

import "time"

// Student links a user account to a class enrollment.
type Student struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Name      string    `json:"name"`
	ClassID   int64     `json:"class_id"`
	ClassName string    `json:"class_name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
