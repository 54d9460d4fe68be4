package models

import (
	"database/sql"
	"time"
)

// DateLayout is the calendar-day format used for quests and practice records
const DateLayout = "2006-01-02"

// DateOf formats t as a calendar day in its own location
func DateOf(t time.Time) string {
	return t.Format(DateLayout)
}

// DailyQuest assigns one word to one student for one day
type DailyQuest struct {
	ID          string       `json:"id" db:"id"`
	StudentID   string       `json:"student_id" db:"student_id"`
	WordID      string       `json:"word_id" db:"word_id"`
	Date        string       `json:"date" db:"quest_date"`
	Completed   bool         `json:"completed" db:"completed"`
	CompletedAt sql.NullTime `json:"-" db:"completed_at"`
	CreatedAt   time.Time    `json:"created_at" db:"created_at"`
}

// QuestWord is an assignment joined with the assigned word
type QuestWord struct {
	Word
	QuestDate string `json:"quest_date" db:"quest_date"`
	Completed bool   `json:"completed" db:"completed"`
}

// QuestCompletion summarises one student's quest for a day
type QuestCompletion struct {
	StudentID   string `json:"student_id" db:"student_id"`
	StudentName string `json:"student_name" db:"student_name"`
	Assigned    int    `json:"assigned" db:"assigned"`
	Completed   int    `json:"completed" db:"completed"`
}
