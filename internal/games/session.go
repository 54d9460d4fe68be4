// Package games implements the spelling mini-games played on a daily quest.
//
// Every game works through a queue of words. A word is shown (preview), then
// spelled one letter at a time from left to right (active) until the last letter
// is correct (complete). A word spelled without a single mistake leaves the queue;
// any other word goes to the back of the queue for a fresh attempt. The finish
// callback receives one result per distinct word, correct only if the word was
// never missed.
package games

import (
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/example/wordquest/pkg/models"
)

const (
	PointsPerLetter   = 10
	PenaltyPerMistake = 10
	WordBonus         = 200

	// FeedbackDelay is how long a rejected candidate stays on screen before the
	// client calls Continue.
	FeedbackDelay = 1500 * time.Millisecond
)

// Phase is the state of the word currently in play
type Phase string

const (
	PhasePreview    Phase = "preview"
	PhaseActive     Phase = "active"
	PhaseFeedback   Phase = "feedback" // a wrong candidate is being shown
	PhaseComplete   Phase = "complete"
	PhaseCompleting Phase = "completing" // nothing to play
	PhaseFinished   Phase = "finished"
)

// Outcome tells the caller what happened to one input event
type Outcome string

const (
	Accepted Outcome = "accepted"
	Rejected Outcome = "rejected"
	Moved    Outcome = "moved"     // grid step onto an empty or flagged cell
	Ignored  Outcome = "ignored"   // wrong phase, latched, or unusable input
	NoSignal Outcome = "no-signal" // nothing recognisable was heard
)

// Word is one entry of the input list
type Word struct {
	ID   string `json:"id"`
	Text string `json:"word"`
}

// FinishFunc receives the final score and one result per distinct word
type FinishFunc func(score int, results []models.WordResult)

// Snapshot is the renderable state shared by all games
type Snapshot struct {
	Phase     Phase  `json:"phase"`
	WordID    string `json:"word_id,omitempty"`
	Word      string `json:"word,omitempty"`
	Letters   string `json:"letters,omitempty"`
	Revealed  string `json:"revealed"`
	Slot      int    `json:"slot"`
	Mistakes  int    `json:"mistakes"`
	Score     int    `json:"score"`
	Remaining int    `json:"remaining"`
	Total     int    `json:"total"`
}

// Letters reduces a word to its uppercase letter sequence
func Letters(text string) []rune {
	var out []rune
	for _, r := range text {
		if unicode.IsLetter(r) {
			out = append(out, unicode.ToUpper(r))
		}
	}
	return out
}

// session is the queue, scoring and latch shared by every game.
// All fields are guarded by mu.
type session struct {
	mu sync.Mutex

	words   []Word
	letters [][]rune
	missed  []bool
	cleared []bool
	queue   []int

	phase           Phase
	slot            int
	attemptMistakes int
	score           int

	// processing is set while a candidate is being judged and stays set through
	// the feedback phase, so a second input cannot be scored for the same slot.
	processing bool
	finished   bool

	onFinish FinishFunc
	// onAttempt prepares variant state when a word enters the active phase
	onAttempt func()
}

// init fills the queue with the distinct words in input order. A word with
// no letters has nothing to spell; it is never queued and counts as cleared.
func (s *session) init(words []Word, onFinish FinishFunc) {
	seen := make(map[string]bool, len(words))
	for _, w := range words {
		if seen[w.ID] {
			continue
		}
		seen[w.ID] = true
		letters := Letters(w.Text)
		if len(letters) > 0 {
			s.queue = append(s.queue, len(s.words))
		}
		s.words = append(s.words, w)
		s.letters = append(s.letters, letters)
		s.cleared = append(s.cleared, len(letters) == 0)
	}
	s.missed = make([]bool, len(s.words))
	s.onFinish = onFinish
	if len(s.queue) == 0 {
		s.phase = PhaseCompleting
	} else {
		s.phase = PhasePreview
	}
}

func (s *session) current() int { return s.queue[0] }

func (s *session) target() rune { return s.letters[s.current()][s.slot] }

// latch claims the right to judge one candidate
func (s *session) latch() bool {
	if s.processing || s.phase != PhaseActive {
		return false
	}
	s.processing = true
	return true
}

func (s *session) unlatch() { s.processing = false }

// accept scores a correct candidate; it reports whether the word is complete
func (s *session) accept() bool {
	s.score += PointsPerLetter
	s.slot++
	if s.slot == len(s.letters[s.current()]) {
		s.score += WordBonus
		s.phase = PhaseComplete
		return true
	}
	return false
}

func (s *session) reject() {
	s.score -= PenaltyPerMistake
	if s.score < 0 {
		s.score = 0
	}
	s.attemptMistakes++
	s.missed[s.current()] = true
}

// Begin ends the preview of the current word and opens its first slot
func (s *session) Begin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhasePreview {
		return false
	}
	s.phase = PhaseActive
	s.slot = 0
	s.attemptMistakes = 0
	s.processing = false
	if s.onAttempt != nil {
		s.onAttempt()
	}
	return true
}

// Continue leaves the complete or feedback phase and moves the queue on.
// The finish callback runs here once the queue is empty.
func (s *session) Continue() bool {
	s.mu.Lock()
	if s.phase != PhaseComplete && s.phase != PhaseFeedback {
		s.mu.Unlock()
		return false
	}

	idx := s.current()
	s.queue = s.queue[1:]
	if s.phase == PhaseComplete && s.attemptMistakes == 0 {
		s.cleared[idx] = true
	} else {
		s.queue = append(s.queue, idx)
	}
	s.slot = 0
	s.attemptMistakes = 0
	s.processing = false

	var fire func()
	if len(s.queue) == 0 {
		fire = s.finishLocked()
	} else {
		s.phase = PhasePreview
	}
	s.mu.Unlock()

	if fire != nil {
		fire()
	}
	return true
}

// Close ends the session early. Results gathered so far are flushed through the
// finish callback; a session with nothing to report closes silently.
func (s *session) Close() {
	s.mu.Lock()
	if s.finished {
		s.mu.Unlock()
		return
	}
	var fire func()
	if len(s.resultsLocked()) > 0 {
		fire = s.finishLocked()
	} else {
		s.finished = true
		s.phase = PhaseFinished
	}
	s.mu.Unlock()

	if fire != nil {
		fire()
	}
}

// Finished reports whether the session has ended
func (s *session) Finished() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.finished
}

// Score returns the running score
func (s *session) Score() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.score
}

func (s *session) finishLocked() func() {
	if s.finished {
		return nil
	}
	s.finished = true
	s.phase = PhaseFinished
	s.processing = false

	cb, score, results := s.onFinish, s.score, s.resultsLocked()
	if cb == nil {
		return nil
	}
	return func() { cb(score, results) }
}

// resultsLocked lists every word that has an outcome, in input order. A missed
// word has an outcome (incorrect) even before it is finally spelled.
func (s *session) resultsLocked() []models.WordResult {
	results := []models.WordResult{}
	for i, w := range s.words {
		if !s.cleared[i] && !s.missed[i] {
			continue
		}
		results = append(results, models.WordResult{
			WordID:  w.ID,
			Word:    w.Text,
			Correct: !s.missed[i],
		})
	}
	return results
}

func (s *session) snapshotLocked() Snapshot {
	snap := Snapshot{
		Phase:     s.phase,
		Score:     s.score,
		Remaining: len(s.queue),
		Total:     len(s.words),
		Slot:      s.slot,
		Mistakes:  s.attemptMistakes,
	}
	if s.finished || len(s.queue) == 0 {
		return snap
	}
	idx := s.current()
	letters := s.letters[idx]
	snap.WordID = s.words[idx].ID
	snap.Revealed = string(letters[:s.slot])
	switch s.phase {
	case PhasePreview, PhaseComplete:
		snap.Word = s.words[idx].Text
		snap.Letters = string(letters)
	}
	return snap
}

func upperLetter(s string) (rune, bool) {
	s = strings.TrimSpace(s)
	r := []rune(s)
	if len(r) != 1 || !unicode.IsLetter(r[0]) {
		return 0, false
	}
	return unicode.ToUpper(r[0]), true
}
