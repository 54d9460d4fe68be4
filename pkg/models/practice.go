package models

import "time"

// Activity identifies the kind of practice a record came from
type Activity string

const (
	ActivityLetterOrder    Activity = "letter-order"
	ActivityGridCollection Activity = "grid-collection"
	ActivityVoiceDictation Activity = "voice-dictation"
	ActivityFlashcardView  Activity = "flashcard-view"
	ActivityQuiz           Activity = "quiz"
)

// Activities lists every activity accepted by the practice ledger
var Activities = []Activity{
	ActivityLetterOrder,
	ActivityGridCollection,
	ActivityVoiceDictation,
	ActivityFlashcardView,
	ActivityQuiz,
}

// Valid reports whether a is a known activity
func (a Activity) Valid() bool {
	for _, k := range Activities {
		if k == a {
			return true
		}
	}
	return false
}

// WordResult is the outcome of practising a single word
type WordResult struct {
	WordID  string `json:"word_id"`
	Word    string `json:"word"`
	Correct bool   `json:"correct"`
}

// PracticeRecord is one immutable row of the practice ledger
type PracticeRecord struct {
	ID        string    `json:"id" db:"id"`
	StudentID string    `json:"student_id" db:"student_id"`
	WordID    string    `json:"word_id" db:"word_id"`
	Word      string    `json:"word" db:"word"`
	Date      string    `json:"date" db:"practice_date"`
	Activity  Activity  `json:"activity" db:"activity"`
	Correct   bool      `json:"correct" db:"correct"`
	Details   string    `json:"details" db:"details"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// DayHistory groups the practice records of one day
type DayHistory struct {
	Date    string           `json:"date"`
	Records []PracticeRecord `json:"records"`
}
