package quiz

import (
	"context"
	"math/rand"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/example/wordquest/internal/apperr"
	"github.com/example/wordquest/pkg/models"
)

// MaxWords caps how many quest words are sent to the generator for one quiz
const MaxWords = 5

// PointsPerAnswer is awarded for each correct answer
const PointsPerAnswer = 10

// Generator writes quiz questions for a list of words
type Generator interface {
	GenerateQuiz(ctx context.Context, words []models.Word) ([]models.QuizQuestion, error)
}

// Module creates quiz sessions
type Module struct {
	gen Generator

	mu  sync.Mutex
	rnd *rand.Rand
}

// NewModule creates a new quiz module
func NewModule(gen Generator) *Module {
	return &Module{
		gen: gen,
		rnd: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Question is what the student sees; the answer stays on the server
type Question struct {
	Index    int      `json:"index"`
	Kind     string   `json:"kind"`
	Word     string   `json:"word,omitempty"`
	Question string   `json:"question"`
	Options  []string `json:"options,omitempty"`
	Answered bool     `json:"answered"`
}

// AnswerResult is the feedback for one answered question
type AnswerResult struct {
	Correct     bool   `json:"correct"`
	Answer      string `json:"answer"`
	Explanation string `json:"explanation"`
	Done        bool   `json:"done"`
	Score       int    `json:"score"`
}

// Session is one quiz taken by a student
type Session struct {
	ID        string
	StudentID string
	Date      string

	mu        sync.Mutex
	questions []models.QuizQuestion
	answered  []bool
	correct   []bool
}

// CreateQuiz generates a quiz over up to MaxWords of words, picked at random
func (m *Module) CreateQuiz(ctx context.Context, studentID string, words []models.Word, date string) (*Session, error) {
	if len(words) == 0 {
		return nil, apperr.Validation("there are no quest words to make a quiz from")
	}

	words = append([]models.Word(nil), words...)
	m.mu.Lock()
	// Shuffle words
	m.rnd.Shuffle(len(words), func(i, j int) {
		words[i], words[j] = words[j], words[i]
	})
	m.mu.Unlock()

	// Limit to requested count
	if len(words) > MaxWords {
		words = words[:MaxWords]
	}

	questions, err := m.gen.GenerateQuiz(ctx, words)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	for i := range questions {
		q := &questions[i]
		m.rnd.Shuffle(len(q.Options), func(a, b int) {
			q.Options[a], q.Options[b] = q.Options[b], q.Options[a]
		})
		// a spelling question must not print the spelling it asks for
		if q.Kind == models.QuizKindSpelling {
			q.Question = replaceWordWithBlank(q.Question, q.Answer)
		}
	}
	m.mu.Unlock()

	return &Session{
		ID:        uuid.NewString(),
		StudentID: studentID,
		Date:      date,
		questions: questions,
		answered:  make([]bool, len(questions)),
		correct:   make([]bool, len(questions)),
	}, nil
}

// Questions returns the questions without their answers
func (s *Session) Questions() []Question {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Question, len(s.questions))
	for i, q := range s.questions {
		out[i] = Question{
			Index:    i,
			Kind:     q.Kind,
			Question: q.Question,
			Options:  append([]string(nil), q.Options...),
			Answered: s.answered[i],
		}
		if q.Kind != models.QuizKindSpelling {
			out[i].Word = q.Word
		}
	}
	return out
}

// Answer grades the answer to question index. Each question can be answered once.
func (s *Session) Answer(index int, answer string) (*AnswerResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.questions) {
		return nil, apperr.Validation("question %d does not exist", index)
	}
	if s.answered[index] {
		return nil, apperr.Validation("question %d is already answered", index)
	}

	q := s.questions[index]
	s.answered[index] = true
	s.correct[index] = strings.EqualFold(strings.TrimSpace(answer), strings.TrimSpace(q.Answer))

	return &AnswerResult{
		Correct:     s.correct[index],
		Answer:      q.Answer,
		Explanation: q.Explanation,
		Done:        s.doneLocked(),
		Score:       s.scoreLocked(),
	}, nil
}

// Done reports whether every question has been answered
func (s *Session) Done() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doneLocked()
}

// Correct returns the number of correct answers
func (s *Session) Correct() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scoreLocked()
}

// Records turns the answered questions about known words into ledger records
func (s *Session) Records() []models.PracticeRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	var records []models.PracticeRecord
	for i, q := range s.questions {
		if !s.answered[i] || q.WordID == "" {
			continue
		}
		records = append(records, models.PracticeRecord{
			StudentID: s.StudentID,
			WordID:    q.WordID,
			Word:      q.Word,
			Date:      s.Date,
			Activity:  models.ActivityQuiz,
			Correct:   s.correct[i],
			Details:   q.Kind + ": " + q.Question,
		})
	}
	return records
}

func (s *Session) doneLocked() bool {
	for _, a := range s.answered {
		if !a {
			return false
		}
	}
	return true
}

func (s *Session) scoreLocked() int {
	n := 0
	for _, c := range s.correct {
		if c {
			n++
		}
	}
	return n
}

// replaceWordWithBlank replaces the first case-insensitive occurrence of word
// in sentence with a blank
func replaceWordWithBlank(sentence, word string) string {
	word = strings.TrimSpace(word)
	if word == "" {
		return sentence
	}
	n := utf8.RuneCountInString(word)
	for i := range sentence {
		end := i
		for k := 0; k < n && end < len(sentence); k++ {
			_, size := utf8.DecodeRuneInString(sentence[end:])
			end += size
		}
		if strings.EqualFold(sentence[i:end], word) {
			return sentence[:i] + "_______" + sentence[end:]
		}
	}
	return sentence
}
