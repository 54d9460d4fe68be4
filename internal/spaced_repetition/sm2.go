package spaced_repetition

import (
	"sort"
	"time"

	"github.com/example/wordquest/pkg/models"
)

// SM2 implements the SuperMemo-2 algorithm for spaced repetition
type SM2 struct {
	// Answers at or above this quality count as recalled
	PassThreshold QualityResponse
	// Longest review interval in days
	MaxInterval int
	// Intervals in days for the first repetitions
	InitialIntervals []int
}

// NewSM2 creates an SM2 with default settings
func NewSM2() *SM2 {
	return &SM2{
		PassThreshold:    QualityCorrectDifficult,
		MaxInterval:      365,
		InitialIntervals: []int{1, 2, 3, 7, 10, 15, 20, 30},
	}
}

// QualityResponse represents the quality of response in SM-2
type QualityResponse int

const (
	// Complete blackout, unable to recall
	QualityBlackout QualityResponse = 0
	// Incorrect response but remembered upon seeing the correct answer
	QualityIncorrect QualityResponse = 1
	// Incorrect response but the correct answer felt familiar
	QualityIncorrectFamiliar QualityResponse = 2
	// Correct response but required significant effort
	QualityCorrectDifficult QualityResponse = 3
	// Correct response after some hesitation
	QualityCorrectHesitation QualityResponse = 4
	// Perfect response with no hesitation
	QualityPerfect QualityResponse = 5
)

// WordState is the review schedule of one word for one student
type WordState struct {
	WordID           string  `json:"word_id"`
	Word             string  `json:"word"`
	Repetitions      int     `json:"repetitions"`
	Interval         int     `json:"interval"`
	EasinessFactor   float64 `json:"easiness_factor"`
	ConsecutiveRight int     `json:"consecutive_right"`
	LastQuality      int     `json:"last_quality"`
	Attempts         int     `json:"attempts"`
	Correct          int     `json:"correct"`
	LastReviewDate   string  `json:"last_review_date"` // YYYY-MM-DD
	NextReviewDate   string  `json:"next_review_date"` // YYYY-MM-DD
}

// NewWordState returns the state of a word that has never been reviewed
func NewWordState(wordID, word string) *WordState {
	return &WordState{WordID: wordID, Word: word, EasinessFactor: 2.5}
}

// Process applies one review of quality on day to the state
func (sm *SM2) Process(state *WordState, quality QualityResponse, day time.Time) {
	state.LastReviewDate = models.DateOf(day)
	state.LastQuality = int(quality)
	state.Attempts++

	// Calculate the easiness factor (EF)
	q := float64(quality)
	newEF := state.EasinessFactor + (0.1 - (5.0-q)*(0.08+(5.0-q)*0.02))
	if newEF < 1.3 {
		newEF = 1.3
	}
	state.EasinessFactor = newEF

	if quality >= sm.PassThreshold {
		state.Correct++
		state.ConsecutiveRight++

		var nextInterval int
		if state.Repetitions < len(sm.InitialIntervals) {
			// Use predefined intervals for early repetitions
			nextInterval = sm.InitialIntervals[state.Repetitions]
		} else {
			nextInterval = int(float64(state.Interval) * state.EasinessFactor)
		}
		if nextInterval > sm.MaxInterval {
			nextInterval = sm.MaxInterval
		}
		state.Interval = nextInterval
		state.Repetitions++
	} else {
		// Incorrect response: review again tomorrow and start the ladder over
		state.ConsecutiveRight = 0
		state.Repetitions = 0
		state.Interval = 1
	}

	state.NextReviewDate = models.DateOf(day.AddDate(0, 0, state.Interval))
}

// QualityOf grades a practice record. Flashcard views are exposure, not
// recall, and are not graded.
func QualityOf(rec models.PracticeRecord) (QualityResponse, bool) {
	switch {
	case rec.Activity == models.ActivityFlashcardView:
		return 0, false
	case rec.Correct && rec.Activity == models.ActivityVoiceDictation:
		// spelling aloud with no visual cue is the hardest recall
		return QualityPerfect, true
	case rec.Correct:
		return QualityCorrectHesitation, true
	default:
		return QualityIncorrect, true
	}
}

// Replay rebuilds word states from ledger records ordered oldest first
func (sm *SM2) Replay(records []models.PracticeRecord) map[string]*WordState {
	states := make(map[string]*WordState)
	for _, rec := range records {
		quality, ok := QualityOf(rec)
		if !ok {
			continue
		}
		day, err := time.Parse(models.DateLayout, rec.Date)
		if err != nil {
			continue
		}
		state := states[rec.WordID]
		if state == nil {
			state = NewWordState(rec.WordID, rec.Word)
			states[rec.WordID] = state
		}
		sm.Process(state, quality, day)
	}
	return states
}

// Suggestion is a word proposed for the next quest
type Suggestion struct {
	WordState
	Due bool `json:"due"`
	New bool `json:"new"`
}

// Suggest orders candidates for review on today and returns at most limit of them.
//
// Due words come first in this order:
// 1. Words that have never been practised
// 2. Words with lowest easiness factor (hardest words)
// 3. Words that are more overdue
//
// Words not yet due follow, soonest first.
func (sm *SM2) Suggest(candidates []models.Word, records []models.PracticeRecord, today string, limit int) []Suggestion {
	states := sm.Replay(records)

	suggestions := make([]Suggestion, 0, len(candidates))
	seen := make(map[string]bool, len(candidates))
	for _, w := range candidates {
		if seen[w.ID] {
			continue
		}
		seen[w.ID] = true

		if state, ok := states[w.ID]; ok {
			state.Word = w.Word
			suggestions = append(suggestions, Suggestion{
				WordState: *state,
				Due:       state.NextReviewDate <= today,
			})
			continue
		}
		suggestions = append(suggestions, Suggestion{
			WordState: *NewWordState(w.ID, w.Word),
			Due:       true,
			New:       true,
		})
	}

	sort.SliceStable(suggestions, func(i, j int) bool {
		a, b := suggestions[i], suggestions[j]
		if a.Due != b.Due {
			return a.Due
		}
		if !a.Due {
			return a.NextReviewDate < b.NextReviewDate
		}
		// First priority: words that have never been practised
		if a.New != b.New {
			return a.New
		}
		// Second priority: words with lower easiness factor (harder words)
		if a.EasinessFactor != b.EasinessFactor {
			return a.EasinessFactor < b.EasinessFactor
		}
		// Third priority: words that are more overdue
		return a.NextReviewDate < b.NextReviewDate
	})

	if limit > 0 && len(suggestions) > limit {
		suggestions = suggestions[:limit]
	}
	return suggestions
}

// IsWordMastered determines if a word is considered "mastered"
func (sm *SM2) IsWordMastered(state *WordState) bool {
	// A word is considered mastered if:
	// 1. It has been recalled at least 5 times in a row
	// 2. The latest quality response was 4 or 5
	// 3. The interval is at least 10 days
	return state.ConsecutiveRight >= 5 &&
		state.LastQuality >= int(QualityCorrectHesitation) &&
		state.Interval >= 10
}
