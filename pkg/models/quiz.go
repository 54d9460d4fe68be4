package models

// QuizKindSpelling marks a "pick the correct spelling" question
const QuizKindSpelling = "spelling"

// QuizQuestion is one generated quiz question
type QuizQuestion struct {
	Kind        string   `json:"kind"` // spelling, meaning, usage...
	WordID      string   `json:"word_id,omitempty"`
	Word        string   `json:"word"`
	Question    string   `json:"question"`
	Options     []string `json:"options,omitempty"`
	Answer      string   `json:"answer"`
	Explanation string   `json:"explanation"`
}
