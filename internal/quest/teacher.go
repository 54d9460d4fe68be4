package quest

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/example/wordquest/internal/apperr"
	"github.com/example/wordquest/internal/database"
	"github.com/example/wordquest/internal/excel"
	"github.com/example/wordquest/internal/logger"
	"github.com/example/wordquest/internal/spaced_repetition"
	"github.com/example/wordquest/pkg/models"
)

// suggestionWindowDays is how much practice history feeds review suggestions
const suggestionWindowDays = 90

// TeacherService serves the teacher dashboard
type TeacherService struct {
	stores  Stores
	gateway ContentGateway
	sm2     *spaced_repetition.SM2
	clock   Clock
	log     *logger.Logger
}

// NewTeacherService creates the teacher service
func NewTeacherService(stores Stores, gateway ContentGateway, clock Clock, log *logger.Logger) *TeacherService {
	if log == nil {
		log = logger.Nop()
	}
	return &TeacherService{
		stores:  stores,
		gateway: gateway,
		sm2:     spaced_repetition.NewSM2(),
		clock:   clock,
		log:     log.With("component", "teacher"),
	}
}

// WordFilter narrows a word listing; empty fields match everything
type WordFilter struct {
	YearGroup     models.YearGroup
	LearningPoint string
}

// ListWords returns the word bank, optionally filtered
func (t *TeacherService) ListWords(ctx context.Context, f WordFilter) ([]models.Word, error) {
	switch {
	case f.YearGroup != "" && f.LearningPoint != "":
		words, err := t.stores.Words.ListByYearGroup(ctx, f.YearGroup)
		if err != nil {
			return nil, err
		}
		filtered := words[:0]
		for _, w := range words {
			if w.LearningPoint == f.LearningPoint {
				filtered = append(filtered, w)
			}
		}
		return filtered, nil
	case f.YearGroup != "":
		return t.stores.Words.ListByYearGroup(ctx, f.YearGroup)
	case f.LearningPoint != "":
		return t.stores.Words.ListByLearningPoint(ctx, f.LearningPoint)
	}
	return t.stores.Words.ListAll(ctx)
}

// LearningPoints lists the learning points in use
func (t *TeacherService) LearningPoints(ctx context.Context) ([]string, error) {
	return t.stores.Words.ListLearningPoints(ctx)
}

// Word returns one word
func (t *TeacherService) Word(ctx context.Context, id string) (*models.Word, error) {
	word, err := t.stores.Words.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if word == nil {
		return nil, fmt.Errorf("word %s: %w", id, database.ErrNotFound)
	}
	return word, nil
}

// CreateWord adds a word to the bank
func (t *TeacherService) CreateWord(ctx context.Context, word *models.Word) error {
	if err := t.stores.Words.Create(ctx, word); err != nil {
		return err
	}
	t.log.Info("word created", "word", word.Word, "id", word.ID)
	return nil
}

// UpdateWord replaces the fields of an existing word
func (t *TeacherService) UpdateWord(ctx context.Context, word *models.Word) error {
	return t.stores.Words.Update(ctx, word)
}

// DeleteWord removes a word with its assignments and practice records
func (t *TeacherService) DeleteWord(ctx context.Context, id string) error {
	if err := t.stores.Words.Delete(ctx, id); err != nil {
		return err
	}
	t.log.Info("word deleted", "id", id)
	return nil
}

// GenerateEntry drafts a full entry for word
func (t *TeacherService) GenerateEntry(ctx context.Context, word string) (*models.WordDraft, error) {
	return t.gateway.GenerateEntry(ctx, word)
}

// GenerateThemedList drafts a themed word list for a year group
func (t *TeacherService) GenerateThemedList(ctx context.Context, yearGroup models.YearGroup) ([]models.WordDraft, error) {
	return t.gateway.GenerateThemedList(ctx, yearGroup)
}

// ExtractEntries drafts entries from an uploaded document or picture
func (t *TeacherService) ExtractEntries(ctx context.Context, data []byte, mimeType string) ([]models.WordDraft, error) {
	return t.gateway.ExtractEntries(ctx, data, mimeType)
}

// SaveResult reports which drafts became words
type SaveResult struct {
	Created []models.Word `json:"created"`
	Errors  []string      `json:"errors"`
}

// SaveDrafts stores reviewed drafts. A draft that fails validation, e.g. a
// word already in the bank, is reported and the rest are still saved.
func (t *TeacherService) SaveDrafts(ctx context.Context, drafts []models.WordDraft) (*SaveResult, error) {
	if len(drafts) == 0 {
		return nil, apperr.Validation("nothing to save")
	}
	result := &SaveResult{Created: []models.Word{}, Errors: []string{}}
	for _, d := range drafts {
		word := d.ToWord()
		err := t.stores.Words.Create(ctx, word)
		switch {
		case apperr.Is(err, apperr.KindValidation):
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", d.Word, err))
		case err != nil:
			return result, err
		default:
			result.Created = append(result.Created, *word)
		}
	}
	t.log.Info("drafts saved", "created", len(result.Created), "rejected", len(result.Errors))
	return result, nil
}

// ImportSpreadsheet creates or updates words from an .xlsx or .csv upload
func (t *TeacherService) ImportSpreadsheet(ctx context.Context, r io.Reader, filename string) (*excel.ImportResult, error) {
	importer := excel.NewImporter(t.stores.Words, excel.DefaultImportConfig())
	result, err := importer.Import(ctx, r, filename)
	if err != nil {
		return nil, apperr.Validation("%v", err)
	}
	t.log.Info("spreadsheet imported", "file", filename, "created", result.Created, "updated", result.Updated, "skipped", result.Skipped)
	return result, nil
}

// Students lists every student by name
func (t *TeacherService) Students(ctx context.Context) ([]models.Student, error) {
	return t.stores.Students.ListAll(ctx)
}

// AddStudent returns the student with this name, ignoring case, or creates one
func (t *TeacherService) AddStudent(ctx context.Context, name string) (*models.Student, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Validation("student name cannot be empty")
	}
	existing, err := t.stores.Students.FindByName(ctx, name)
	if err != nil || existing != nil {
		return existing, err
	}
	return t.stores.Students.Create(ctx, name)
}

// RenameStudent changes a student's display name
func (t *TeacherService) RenameStudent(ctx context.Context, id, name string) (*models.Student, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Validation("student name cannot be empty")
	}
	student := &models.Student{ID: id, Name: name}
	if err := t.stores.Students.Update(ctx, student); err != nil {
		return nil, err
	}
	return t.stores.Students.GetByID(ctx, id)
}

// DeleteStudent removes a student with their progress, quests and history
func (t *TeacherService) DeleteStudent(ctx context.Context, id string) error {
	if err := t.stores.Students.Delete(ctx, id); err != nil {
		return err
	}
	t.log.Info("student deleted", "id", id)
	return nil
}

// AssignmentBoard is the teacher's local copy of one student's quest for one day.
// Changes are applied locally first and reverted if the store rejects them.
type AssignmentBoard struct {
	StudentID string
	Date      string

	assigned map[string]bool
	quests   QuestStore
}

// Board loads the quest of a student for date (today when empty)
func (t *TeacherService) Board(ctx context.Context, studentID, date string) (*AssignmentBoard, error) {
	date, err := t.clock.dateOr(date)
	if err != nil {
		return nil, err
	}
	ids, err := t.stores.Quests.AssignedWordIDs(ctx, studentID, date)
	if err != nil {
		return nil, err
	}
	b := &AssignmentBoard{
		StudentID: studentID,
		Date:      date,
		assigned:  make(map[string]bool, len(ids)),
		quests:    t.stores.Quests,
	}
	for _, id := range ids {
		b.assigned[id] = true
	}
	return b, nil
}

// WordIDs returns the assigned word IDs in sorted order
func (b *AssignmentBoard) WordIDs() []string {
	ids := make([]string, 0, len(b.assigned))
	for id := range b.assigned {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Assigned reports whether wordID is on the board
func (b *AssignmentBoard) Assigned(wordID string) bool { return b.assigned[wordID] }

// Toggle flips one word's membership
func (b *AssignmentBoard) Toggle(ctx context.Context, wordID string) error {
	var remote bool
	flip := func() {
		if b.assigned[wordID] {
			delete(b.assigned, wordID)
		} else {
			b.assigned[wordID] = true
		}
	}
	err := Run(ctx, Command{
		Name:  "toggle assignment",
		Apply: flip,
		Remote: func(ctx context.Context) error {
			var err error
			remote, err = b.quests.Toggle(ctx, b.StudentID, wordID, b.Date)
			return err
		},
		Revert: flip,
	})
	if err != nil {
		return err
	}
	// the store's answer wins when another device toggled in between
	if remote != b.assigned[wordID] {
		flip()
	}
	return nil
}

// Replace swaps the whole day's quest for wordIDs
func (b *AssignmentBoard) Replace(ctx context.Context, wordIDs []string) error {
	previous := b.assigned
	next := make(map[string]bool, len(wordIDs))
	for _, id := range wordIDs {
		next[id] = true
	}
	return Run(ctx, Command{
		Name:  "assign quest",
		Apply: func() { b.assigned = next },
		Remote: func(ctx context.Context) error {
			_, err := b.quests.BulkAssign(ctx, b.StudentID, wordIDs, b.Date)
			return err
		},
		Revert: func() { b.assigned = previous },
	})
}

// QuestWords returns the assigned words with details for date (today when empty)
func (t *TeacherService) QuestWords(ctx context.Context, studentID, date string) ([]models.QuestWord, error) {
	date, err := t.clock.dateOr(date)
	if err != nil {
		return nil, err
	}
	return t.stores.Quests.AssignedWords(ctx, studentID, date)
}

// PastDates lists the days a student had a quest, most recent first
func (t *TeacherService) PastDates(ctx context.Context, studentID string, limit int) ([]string, error) {
	return t.stores.Quests.PastDates(ctx, studentID, limit)
}

// History returns a student's practice records grouped by day
func (t *TeacherService) History(ctx context.Context, studentID string, days int) ([]models.DayHistory, error) {
	return t.stores.Practice.HistoryByDate(ctx, studentID, days)
}

// Suggestions ranks the word bank for a student's next quest, words due for
// review first
func (t *TeacherService) Suggestions(ctx context.Context, studentID string, limit int) ([]spaced_repetition.Suggestion, error) {
	words, err := t.stores.Words.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	today := t.clock.Today()
	day, _ := time.Parse(models.DateLayout, today)
	since := models.DateOf(day.AddDate(0, 0, -suggestionWindowDays))
	records, err := t.stores.Practice.ListSince(ctx, studentID, since)
	if err != nil {
		return nil, err
	}
	return t.sm2.Suggest(words, records, today, limit), nil
}

// Statistics returns the overall figures
func (t *TeacherService) Statistics(ctx context.Context) (*models.Statistics, error) {
	return t.stores.Statistics.Overview(ctx)
}

// DailySummary reports quest completion per student for date (today when empty)
func (t *TeacherService) DailySummary(ctx context.Context, date string) ([]models.QuestCompletion, error) {
	date, err := t.clock.dateOr(date)
	if err != nil {
		return nil, err
	}
	return t.stores.Quests.CompletionSummary(ctx, date)
}

// StudentAccuracy returns a student's accuracy per activity
func (t *TeacherService) StudentAccuracy(ctx context.Context, studentID string) ([]models.ActivityStats, error) {
	return t.stores.Statistics.StudentAccuracy(ctx, studentID)
}
