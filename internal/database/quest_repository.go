package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/example/wordquest/internal/apperr"
	"github.com/example/wordquest/pkg/models"
)

// QuestRepository handles the per-student, per-day word assignments.
//
// BulkAssign deletes then inserts without a transaction; a failure between the
// two steps leaves the day empty and the teacher simply assigns again. Toggle is
// get-then-insert-or-delete, so concurrent toggles resolve as last write wins.
type QuestRepository struct {
	db *sqlx.DB
}

// NewQuestRepository creates a new repository instance
func NewQuestRepository(db *sqlx.DB) *QuestRepository {
	return &QuestRepository{db: db}
}

// AssignedWordIDs returns the IDs of the words assigned to a student on date
func (r *QuestRepository) AssignedWordIDs(ctx context.Context, studentID, date string) ([]string, error) {
	ids := []string{}
	query := r.db.Rebind("SELECT word_id FROM daily_quests WHERE student_id = ? AND quest_date = ? ORDER BY created_at, word_id")
	if err := r.db.SelectContext(ctx, &ids, query, studentID, date); err != nil {
		return nil, apperr.Backend("failed to get assigned words", err)
	}
	return ids, nil
}

// AssignedWords returns the assigned words with their details, sorted by surface form
func (r *QuestRepository) AssignedWords(ctx context.Context, studentID, date string) ([]models.QuestWord, error) {
	words := []models.QuestWord{}
	query := r.db.Rebind(`
		SELECT w.id, w.word, w.definition, w.root, w.origin, w.synonyms, w.antonyms, w.example,
			w.year_group, w.learning_point, w.created_at, w.updated_at,
			q.quest_date, q.completed
		FROM daily_quests q
		JOIN words w ON w.id = q.word_id
		WHERE q.student_id = ? AND q.quest_date = ?
		ORDER BY w.word
	`)
	if err := r.db.SelectContext(ctx, &words, query, studentID, date); err != nil {
		return nil, apperr.Backend("failed to get assigned words", err)
	}
	return words, nil
}

// BulkAssign replaces the whole assignment set of a student for date
func (r *QuestRepository) BulkAssign(ctx context.Context, studentID string, wordIDs []string, date string) ([]models.DailyQuest, error) {
	_, err := r.db.ExecContext(ctx,
		r.db.Rebind("DELETE FROM daily_quests WHERE student_id = ? AND quest_date = ?"), studentID, date)
	if err != nil {
		return nil, apperr.Backend("failed to clear assignments", err)
	}

	quests := []models.DailyQuest{}
	seen := make(map[string]bool, len(wordIDs))
	for _, wordID := range wordIDs {
		if seen[wordID] {
			continue
		}
		seen[wordID] = true

		quest, err := r.insert(ctx, studentID, wordID, date)
		if err != nil {
			return quests, err
		}
		quests = append(quests, *quest)
	}
	return quests, nil
}

// Toggle assigns the word if it is not assigned on date and unassigns it otherwise.
// It returns whether the word is assigned afterwards.
func (r *QuestRepository) Toggle(ctx context.Context, studentID, wordID, date string) (bool, error) {
	existing, err := r.get(ctx, studentID, wordID, date)
	if err != nil {
		return false, err
	}
	if existing != nil {
		_, err := r.db.ExecContext(ctx, r.db.Rebind("DELETE FROM daily_quests WHERE id = ?"), existing.ID)
		if err != nil {
			return true, apperr.Backend("failed to unassign word", err)
		}
		return false, nil
	}
	if _, err := r.insert(ctx, studentID, wordID, date); err != nil {
		return false, err
	}
	return true, nil
}

// MarkCompleted flags an assignment as done
func (r *QuestRepository) MarkCompleted(ctx context.Context, studentID, wordID, date string) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`
		UPDATE daily_quests SET completed = ?, completed_at = ?
		WHERE student_id = ? AND word_id = ? AND quest_date = ?
	`), true, time.Now().UTC(), studentID, wordID, date)
	if err != nil {
		return apperr.Backend("failed to mark assignment completed", err)
	}
	return requireAffected(res)
}

// PastDates returns the distinct dates with assignments, most recent first
func (r *QuestRepository) PastDates(ctx context.Context, studentID string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 30
	}
	dates := []string{}
	query := r.db.Rebind(`SELECT DISTINCT quest_date FROM daily_quests
		WHERE student_id = ? ORDER BY quest_date DESC LIMIT ?`)
	if err := r.db.SelectContext(ctx, &dates, query, studentID, limit); err != nil {
		return nil, apperr.Backend("failed to get assignment dates", err)
	}
	return dates, nil
}

// CompletionSummary returns assigned and completed counts per student for date
func (r *QuestRepository) CompletionSummary(ctx context.Context, date string) ([]models.QuestCompletion, error) {
	summary := []models.QuestCompletion{}
	query := r.db.Rebind(`
		SELECT s.id AS student_id, s.name AS student_name,
			COUNT(q.id) AS assigned,
			COALESCE(SUM(CASE WHEN q.completed THEN 1 ELSE 0 END), 0) AS completed
		FROM students s
		JOIN daily_quests q ON q.student_id = s.id AND q.quest_date = ?
		GROUP BY s.id, s.name
		ORDER BY s.name
	`)
	if err := r.db.SelectContext(ctx, &summary, query, date); err != nil {
		return nil, apperr.Backend("failed to summarise quests", err)
	}
	return summary, nil
}

func (r *QuestRepository) get(ctx context.Context, studentID, wordID, date string) (*models.DailyQuest, error) {
	var quest models.DailyQuest
	query := r.db.Rebind(`SELECT id, student_id, word_id, quest_date, completed, completed_at, created_at
		FROM daily_quests WHERE student_id = ? AND word_id = ? AND quest_date = ?`)
	err := r.db.GetContext(ctx, &quest, query, studentID, wordID, date)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Backend("failed to get assignment", err)
	}
	return &quest, nil
}

func (r *QuestRepository) insert(ctx context.Context, studentID, wordID, date string) (*models.DailyQuest, error) {
	quest := &models.DailyQuest{
		ID:        uuid.NewString(),
		StudentID: studentID,
		WordID:    wordID,
		Date:      date,
		CreatedAt: time.Now().UTC(),
	}
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`
		INSERT INTO daily_quests (id, student_id, word_id, quest_date, completed, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`), quest.ID, quest.StudentID, quest.WordID, quest.Date, false, quest.CreatedAt)
	if isForeignKeyViolation(err) {
		return nil, apperr.Validation("unknown student %s or word %s", studentID, wordID)
	}
	if err != nil {
		return nil, apperr.Backend(fmt.Sprintf("failed to assign word %s", wordID), err)
	}
	return quest, nil
}
