package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/example/wordquest/internal/apperr"
	"github.com/example/wordquest/pkg/models"
)

const practiceColumns = "id, student_id, word_id, word, practice_date, activity, correct, details, created_at"

// PracticeRepository is the append-only practice ledger. Rows are never updated
// or deleted here; they disappear only through cascades from students or words.
type PracticeRepository struct {
	db *sqlx.DB
}

// NewPracticeRepository creates a new repository instance
func NewPracticeRepository(db *sqlx.DB) *PracticeRepository {
	return &PracticeRepository{db: db}
}

// PartialWriteError reports an AppendBatch that stopped after some rows were written
type PartialWriteError struct {
	Written int
	Total   int
	Err     error
}

func (e *PartialWriteError) Error() string {
	return fmt.Sprintf("practice ledger: wrote %d of %d records: %v", e.Written, e.Total, e.Err)
}

func (e *PartialWriteError) Unwrap() error { return e.Err }

// AppendBatch writes one record per result. Rows written before a failure stay
// written; the failure is returned as *PartialWriteError.
func (r *PracticeRepository) AppendBatch(ctx context.Context, studentID string, activity models.Activity, results []models.WordResult, date string) error {
	if len(results) == 0 {
		return nil
	}
	if !activity.Valid() {
		return apperr.Validation("unknown activity %q", activity)
	}

	query := r.db.Rebind(`
		INSERT INTO practice_records (` + practiceColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	for i, res := range results {
		_, err := r.db.ExecContext(ctx, query,
			uuid.NewString(),
			studentID,
			res.WordID,
			res.Word,
			date,
			activity,
			res.Correct,
			"",
			time.Now().UTC(),
		)
		if err != nil {
			return &PartialWriteError{
				Written: i,
				Total:   len(results),
				Err:     apperr.Backend("failed to append practice record", err),
			}
		}
	}
	return nil
}

// Append writes a single record with free-form details
func (r *PracticeRepository) Append(ctx context.Context, rec *models.PracticeRecord) error {
	if !rec.Activity.Valid() {
		return apperr.Validation("unknown activity %q", rec.Activity)
	}
	rec.ID = uuid.NewString()
	rec.CreatedAt = time.Now().UTC()
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`
		INSERT INTO practice_records (`+practiceColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`), rec.ID, rec.StudentID, rec.WordID, rec.Word, rec.Date, rec.Activity, rec.Correct, rec.Details, rec.CreatedAt)
	return apperr.Backend("failed to append practice record", err)
}

// HistoryByDate returns the records of the latest limitDays practice days,
// newest day first and newest record first within a day
func (r *PracticeRepository) HistoryByDate(ctx context.Context, studentID string, limitDays int) ([]models.DayHistory, error) {
	if limitDays <= 0 {
		limitDays = 7
	}

	var dates []string
	err := r.db.SelectContext(ctx, &dates, r.db.Rebind(`
		SELECT DISTINCT practice_date FROM practice_records
		WHERE student_id = ? ORDER BY practice_date DESC LIMIT ?
	`), studentID, limitDays)
	if err != nil {
		return nil, apperr.Backend("failed to get practice dates", err)
	}

	history := []models.DayHistory{}
	if len(dates) == 0 {
		return history, nil
	}

	query, args, err := sqlx.In(`
		SELECT `+practiceColumns+` FROM practice_records
		WHERE student_id = ? AND practice_date IN (?)
		ORDER BY practice_date DESC, created_at DESC, id
	`, studentID, dates)
	if err != nil {
		return nil, apperr.Backend("failed to build history query", err)
	}
	var records []models.PracticeRecord
	if err := r.db.SelectContext(ctx, &records, r.db.Rebind(query), args...); err != nil {
		return nil, apperr.Backend("failed to get practice history", err)
	}

	for _, rec := range records {
		if n := len(history); n == 0 || history[n-1].Date != rec.Date {
			history = append(history, models.DayHistory{Date: rec.Date})
		}
		history[len(history)-1].Records = append(history[len(history)-1].Records, rec)
	}
	return history, nil
}

// ListSince returns all records of a student from date on, oldest first
func (r *PracticeRepository) ListSince(ctx context.Context, studentID, since string) ([]models.PracticeRecord, error) {
	records := []models.PracticeRecord{}
	err := r.db.SelectContext(ctx, &records, r.db.Rebind(`
		SELECT `+practiceColumns+` FROM practice_records
		WHERE student_id = ? AND practice_date >= ?
		ORDER BY created_at, id
	`), studentID, since)
	if err != nil {
		return nil, apperr.Backend("failed to list practice records", err)
	}
	return records, nil
}

// ActiveStudents returns the IDs of students with at least one record on date
func (r *PracticeRepository) ActiveStudents(ctx context.Context, date string) ([]string, error) {
	ids := []string{}
	err := r.db.SelectContext(ctx, &ids,
		r.db.Rebind("SELECT DISTINCT student_id FROM practice_records WHERE practice_date = ? ORDER BY student_id"), date)
	if err != nil {
		return nil, apperr.Backend("failed to list active students", err)
	}
	return ids, nil
}
