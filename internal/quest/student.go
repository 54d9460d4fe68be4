package quest

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/example/wordquest/internal/apperr"
	"github.com/example/wordquest/internal/database"
	"github.com/example/wordquest/internal/logger"
	"github.com/example/wordquest/internal/quiz"
	"github.com/example/wordquest/pkg/models"
)

// recordTimeout bounds the ledger writes made when a game finishes
const recordTimeout = 15 * time.Second

// Clock tells the services what day it is
type Clock struct {
	Now      func() time.Time
	Location *time.Location
}

// Today returns the current calendar day
func (c Clock) Today() string {
	now := time.Now
	if c.Now != nil {
		now = c.Now
	}
	t := now()
	if c.Location != nil {
		t = t.In(c.Location)
	}
	return models.DateOf(t)
}

func (c Clock) dateOr(date string) (string, error) {
	if date == "" {
		return c.Today(), nil
	}
	if _, err := time.Parse(models.DateLayout, date); err != nil {
		return "", apperr.Validation("invalid date %q, expected YYYY-MM-DD", date)
	}
	return date, nil
}

// Dashboard is everything the student page shows
type Dashboard struct {
	Student  models.Student         `json:"student"`
	Progress models.StudentProgress `json:"progress"`
	Date     string                 `json:"date"`
	Quest    []models.QuestWord     `json:"quest"`
	Accuracy []models.ActivityStats `json:"accuracy"`
}

// SessionSummary reports what a finished game or quiz earned
type SessionSummary struct {
	Activity  models.Activity        `json:"activity"`
	Score     int                    `json:"score"`
	Results   []models.WordResult    `json:"results"`
	Progress  models.StudentProgress `json:"progress"`
	Completed []string               `json:"completed"`
}

// StudentService serves the student dashboard
type StudentService struct {
	stores  Stores
	quizzes *quiz.Module
	clock   Clock
	log     *logger.Logger

	games   *Registry[*GameSession]
	quizReg *Registry[*quiz.Session]

	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewStudentService creates the student service
func NewStudentService(stores Stores, gateway ContentGateway, clock Clock, log *logger.Logger) *StudentService {
	if log == nil {
		log = logger.Nop()
	}
	return &StudentService{
		stores:  stores,
		quizzes: quiz.NewModule(gateway),
		clock:   clock,
		log:     log.With("component", "student"),
		games:   NewRegistry[*GameSession](clock.Now),
		quizReg: NewRegistry[*quiz.Session](clock.Now),
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Login finds the student by name, ignoring case, or creates one
func (s *StudentService) Login(ctx context.Context, name string) (*models.Student, bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, false, apperr.Validation("enter your name")
	}
	student, err := s.stores.Students.FindByName(ctx, name)
	if err != nil {
		return nil, false, err
	}
	if student != nil {
		return student, false, nil
	}
	student, err = s.stores.Students.Create(ctx, name)
	if err != nil {
		return nil, false, err
	}
	s.log.Info("student created", "student", student.ID, "name", student.Name)
	return student, true, nil
}

func (s *StudentService) student(ctx context.Context, studentID string) (*models.Student, error) {
	student, err := s.stores.Students.GetByID(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if student == nil {
		return nil, fmt.Errorf("student %s: %w", studentID, database.ErrNotFound)
	}
	return student, nil
}

func (s *StudentService) progress(ctx context.Context, studentID string) (models.StudentProgress, error) {
	p, err := s.stores.Progress.Get(ctx, studentID)
	if err != nil {
		return models.StudentProgress{}, err
	}
	if p == nil {
		return models.StudentProgress{StudentID: studentID}, nil
	}
	return *p, nil
}

// Dashboard loads the student page for today
func (s *StudentService) Dashboard(ctx context.Context, studentID string) (*Dashboard, error) {
	student, err := s.student(ctx, studentID)
	if err != nil {
		return nil, err
	}
	progress, err := s.progress(ctx, studentID)
	if err != nil {
		return nil, err
	}
	today := s.clock.Today()
	words, err := s.stores.Quests.AssignedWords(ctx, studentID, today)
	if err != nil {
		return nil, err
	}
	accuracy, err := s.stores.Statistics.StudentAccuracy(ctx, studentID)
	if err != nil {
		return nil, err
	}
	return &Dashboard{
		Student:  *student,
		Progress: progress,
		Date:     today,
		Quest:    words,
		Accuracy: accuracy,
	}, nil
}

// History returns the student's practice records grouped by day
func (s *StudentService) History(ctx context.Context, studentID string, days int) ([]models.DayHistory, error) {
	return s.stores.Practice.HistoryByDate(ctx, studentID, days)
}

// ViewFlashcard records that the student looked at a word's flashcard
func (s *StudentService) ViewFlashcard(ctx context.Context, studentID, wordID string) (*models.Word, error) {
	word, err := s.stores.Words.GetByID(ctx, wordID)
	if err != nil {
		return nil, err
	}
	if word == nil {
		return nil, fmt.Errorf("word %s: %w", wordID, database.ErrNotFound)
	}
	err = s.stores.Practice.Append(ctx, &models.PracticeRecord{
		StudentID: studentID,
		WordID:    word.ID,
		Word:      word.Word,
		Date:      s.clock.Today(),
		Activity:  models.ActivityFlashcardView,
		Correct:   true,
		Details:   "viewed",
	})
	if err != nil {
		return nil, err
	}
	return word, nil
}

// StartGame opens a mini-game over today's quest words
func (s *StudentService) StartGame(ctx context.Context, studentID string, kind GameKind) (*GameSession, error) {
	activity, ok := kind.Activity()
	if !ok {
		return nil, apperr.Validation("unknown game %q", kind)
	}
	if _, err := s.student(ctx, studentID); err != nil {
		return nil, err
	}
	today := s.clock.Today()
	words, err := s.stores.Quests.AssignedWords(ctx, studentID, today)
	if err != nil {
		return nil, err
	}

	session := &GameSession{
		ID:        uuid.NewString(),
		StudentID: studentID,
		Kind:      kind,
		Date:      today,
	}
	onFinish := func(score int, results []models.WordResult) {
		ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
		defer cancel()
		summary, err := s.RecordSession(ctx, studentID, activity, score, results, today)
		if err != nil {
			s.log.Error("failed to record game", "game", session.ID, "student", studentID, "error", err)
		}
		session.recorded(summary, err)
		s.games.Remove(session.ID)
	}

	s.rngMu.Lock()
	rng := rand.New(rand.NewSource(s.rng.Int63()))
	s.rngMu.Unlock()
	session.game = newGame(kind, toGameWords(words), rng, onFinish)

	s.games.Put(session.ID, session)
	s.log.Debug("game started", "game", session.ID, "kind", kind, "student", studentID, "words", len(words))
	return session, nil
}

// Game returns a live game session
func (s *StudentService) Game(id string) (*GameSession, error) {
	session, ok := s.games.Get(id)
	if !ok {
		return nil, fmt.Errorf("game %s: %w", id, database.ErrNotFound)
	}
	return session, nil
}

// CloseGame ends a game early and forgets it. Results gathered so far are
// recorded before it returns.
func (s *StudentService) CloseGame(id string) (*GameSession, error) {
	session, err := s.Game(id)
	if err != nil {
		return nil, err
	}
	session.Close()
	s.games.Remove(session.ID)
	return session, nil
}

// SweepGames closes games idle for longer than ttl; their results are recorded
func (s *StudentService) SweepGames(ttl time.Duration) int {
	expired := s.games.Sweep(ttl)
	for _, session := range expired {
		session.Close()
	}
	quizzes := s.quizReg.Sweep(ttl)
	return len(expired) + len(quizzes)
}

// RecordSession writes a finished session to the ledger, awards its score,
// extends the streak and ticks off the quest words spelled correctly. Every
// step is attempted; failures are joined into the returned error.
func (s *StudentService) RecordSession(ctx context.Context, studentID string, activity models.Activity, score int, results []models.WordResult, date string) (*SessionSummary, error) {
	var errs []error

	summary := &SessionSummary{
		Activity:  activity,
		Score:     score,
		Results:   results,
		Completed: []string{},
	}

	if err := s.stores.Practice.AppendBatch(ctx, studentID, activity, results, date); err != nil {
		errs = append(errs, err)
	}

	progress, err := s.progress(ctx, studentID)
	if err != nil {
		errs = append(errs, err)
	}
	summary.Progress = progress
	summary.Progress.StudentID = studentID
	if err := s.awardPoints(ctx, &summary.Progress, score); err != nil {
		errs = append(errs, err)
	}

	if len(results) > 0 {
		if p, err := s.stores.Progress.RecordActivity(ctx, studentID, date); err != nil {
			errs = append(errs, err)
		} else {
			summary.Progress.StreakDays = p.StreakDays
			summary.Progress.LastActiveDate = p.LastActiveDate
		}
	}

	for _, r := range results {
		if !r.Correct {
			continue
		}
		err := s.stores.Quests.MarkCompleted(ctx, studentID, r.WordID, date)
		switch {
		case errors.Is(err, database.ErrNotFound):
			// not part of this day's quest
		case err != nil:
			errs = append(errs, err)
		default:
			summary.Completed = append(summary.Completed, r.WordID)
		}
	}

	return summary, errors.Join(errs...)
}

// awardPoints adds n points to the local progress first and takes them back
// if the store rejects the write
func (s *StudentService) awardPoints(ctx context.Context, progress *models.StudentProgress, n int) error {
	if n == 0 {
		return nil
	}
	return Run(ctx, Command{
		Name:  "award points",
		Apply: func() { progress.Points += n },
		Remote: func(ctx context.Context) error {
			_, err := s.stores.Progress.AddPoints(ctx, progress.StudentID, n)
			return err
		},
		Revert: func() { progress.Points -= n },
	})
}

// QuizView is a quiz as shown to the student
type QuizView struct {
	ID        string          `json:"id"`
	Questions []quiz.Question `json:"questions"`
}

// QuizAnswer is the feedback for one answer, with the summary once the quiz is done
type QuizAnswer struct {
	quiz.AnswerResult
	Summary *SessionSummary `json:"summary,omitempty"`
}

// StartQuiz generates a quiz over today's quest words
func (s *StudentService) StartQuiz(ctx context.Context, studentID string) (*QuizView, error) {
	if _, err := s.student(ctx, studentID); err != nil {
		return nil, err
	}
	today := s.clock.Today()
	assigned, err := s.stores.Quests.AssignedWords(ctx, studentID, today)
	if err != nil {
		return nil, err
	}
	words := make([]models.Word, len(assigned))
	for i, w := range assigned {
		words[i] = w.Word
	}

	session, err := s.quizzes.CreateQuiz(ctx, studentID, words, today)
	if err != nil {
		return nil, err
	}
	s.quizReg.Put(session.ID, session)
	return &QuizView{ID: session.ID, Questions: session.Questions()}, nil
}

// AnswerQuiz grades one answer. The last answer records the quiz.
func (s *StudentService) AnswerQuiz(ctx context.Context, quizID string, index int, answer string) (*QuizAnswer, error) {
	session, ok := s.quizReg.Get(quizID)
	if !ok {
		return nil, fmt.Errorf("quiz %s: %w", quizID, database.ErrNotFound)
	}
	res, err := session.Answer(index, answer)
	if err != nil {
		return nil, err
	}
	out := &QuizAnswer{AnswerResult: *res}
	if !res.Done {
		return out, nil
	}
	s.quizReg.Remove(quizID)

	records := session.Records()
	results := make([]models.WordResult, 0, len(records))
	for _, rec := range records {
		results = append(results, models.WordResult{WordID: rec.WordID, Word: rec.Word, Correct: rec.Correct})
	}

	var errs []error
	for i := range records {
		if err := s.stores.Practice.Append(ctx, &records[i]); err != nil {
			errs = append(errs, err)
			break
		}
	}

	progress, err := s.progress(ctx, session.StudentID)
	if err != nil {
		errs = append(errs, err)
	}
	summary := &SessionSummary{
		Activity:  models.ActivityQuiz,
		Score:     quiz.PointsPerAnswer * res.Score,
		Results:   results,
		Progress:  progress,
		Completed: []string{},
	}
	summary.Progress.StudentID = session.StudentID
	if err := s.awardPoints(ctx, &summary.Progress, summary.Score); err != nil {
		errs = append(errs, err)
	}
	if p, err := s.stores.Progress.RecordActivity(ctx, session.StudentID, session.Date); err != nil {
		errs = append(errs, err)
	} else {
		summary.Progress.StreakDays = p.StreakDays
		summary.Progress.LastActiveDate = p.LastActiveDate
	}
	out.Summary = summary
	return out, errors.Join(errs...)
}
