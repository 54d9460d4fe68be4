package models

import "time"

// Student is a learner taking daily quests
type Student struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// StudentProgress is the points and streak counter of a student
type StudentProgress struct {
	StudentID      string    `json:"student_id" db:"student_id"`
	Points         int       `json:"points" db:"points"`
	StreakDays     int       `json:"streak_days" db:"streak_days"`
	LastActiveDate *string   `json:"last_active_date,omitempty" db:"last_active_date"` // YYYY-MM-DD
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}
