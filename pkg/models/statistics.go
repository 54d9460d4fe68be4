package models

// ActivityStats aggregates ledger rows for one activity
type ActivityStats struct {
	Activity Activity `json:"activity" db:"activity"`
	Attempts int      `json:"attempts" db:"attempts"`
	Correct  int      `json:"correct" db:"correct"`
}

// Accuracy returns the share of correct attempts in percent
func (s ActivityStats) Accuracy() float64 {
	if s.Attempts == 0 {
		return 0
	}
	return float64(s.Correct) / float64(s.Attempts) * 100
}

// Statistics is the teacher-facing overview of the whole class
type Statistics struct {
	TotalWords    int             `json:"total_words"`
	TotalStudents int             `json:"total_students"`
	TotalPractice int             `json:"total_practice"`
	ByActivity    []ActivityStats `json:"by_activity"`
	ByYearGroup   map[string]int  `json:"by_year_group"`
}
