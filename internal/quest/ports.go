package quest

import (
	"context"

	"github.com/example/wordquest/internal/database"
	"github.com/example/wordquest/pkg/models"
)

// WordStore is the word bank
type WordStore interface {
	ListAll(ctx context.Context) ([]models.Word, error)
	ListByYearGroup(ctx context.Context, yearGroup models.YearGroup) ([]models.Word, error)
	ListByLearningPoint(ctx context.Context, learningPoint string) ([]models.Word, error)
	ListLearningPoints(ctx context.Context) ([]string, error)
	GetByID(ctx context.Context, id string) (*models.Word, error)
	GetByWord(ctx context.Context, surface string) (*models.Word, error)
	Create(ctx context.Context, word *models.Word) error
	Update(ctx context.Context, word *models.Word) error
	Delete(ctx context.Context, id string) error
}

// StudentStore holds the students
type StudentStore interface {
	ListAll(ctx context.Context) ([]models.Student, error)
	GetByID(ctx context.Context, id string) (*models.Student, error)
	FindByName(ctx context.Context, name string) (*models.Student, error)
	Create(ctx context.Context, name string) (*models.Student, error)
	Update(ctx context.Context, student *models.Student) error
	Delete(ctx context.Context, id string) error
}

// ProgressStore holds points and streaks
type ProgressStore interface {
	Get(ctx context.Context, studentID string) (*models.StudentProgress, error)
	AddPoints(ctx context.Context, studentID string, n int) (*models.StudentProgress, error)
	RecordActivity(ctx context.Context, studentID string, date string) (*models.StudentProgress, error)
}

// QuestStore holds the daily assignments
type QuestStore interface {
	AssignedWordIDs(ctx context.Context, studentID, date string) ([]string, error)
	AssignedWords(ctx context.Context, studentID, date string) ([]models.QuestWord, error)
	BulkAssign(ctx context.Context, studentID string, wordIDs []string, date string) ([]models.DailyQuest, error)
	Toggle(ctx context.Context, studentID, wordID, date string) (bool, error)
	MarkCompleted(ctx context.Context, studentID, wordID, date string) error
	PastDates(ctx context.Context, studentID string, limit int) ([]string, error)
	CompletionSummary(ctx context.Context, date string) ([]models.QuestCompletion, error)
}

// PracticeStore is the practice ledger
type PracticeStore interface {
	AppendBatch(ctx context.Context, studentID string, activity models.Activity, results []models.WordResult, date string) error
	Append(ctx context.Context, rec *models.PracticeRecord) error
	HistoryByDate(ctx context.Context, studentID string, limitDays int) ([]models.DayHistory, error)
	ListSince(ctx context.Context, studentID, since string) ([]models.PracticeRecord, error)
}

// StatisticsStore computes aggregate figures
type StatisticsStore interface {
	Overview(ctx context.Context) (*models.Statistics, error)
	StudentAccuracy(ctx context.Context, studentID string) ([]models.ActivityStats, error)
}

// ContentGateway generates word-bank content and quizzes
type ContentGateway interface {
	GenerateEntry(ctx context.Context, word string) (*models.WordDraft, error)
	GenerateThemedList(ctx context.Context, yearGroup models.YearGroup) ([]models.WordDraft, error)
	GenerateQuiz(ctx context.Context, words []models.Word) ([]models.QuizQuestion, error)
	ExtractEntries(ctx context.Context, data []byte, mimeType string) ([]models.WordDraft, error)
}

// Stores groups the repositories the services work on
type Stores struct {
	Words      WordStore
	Students   StudentStore
	Progress   ProgressStore
	Quests     QuestStore
	Practice   PracticeStore
	Statistics StatisticsStore
}

// StoresFrom exposes the repositories of a database store
func StoresFrom(s *database.Store) Stores {
	return Stores{
		Words:      s.Words,
		Students:   s.Students,
		Progress:   s.Progress,
		Quests:     s.Quests,
		Practice:   s.Practice,
		Statistics: s.Statistics,
	}
}
