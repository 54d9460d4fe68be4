package database

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/example/wordquest/internal/apperr"
	"github.com/example/wordquest/pkg/models"
)

// ProgressRepository handles the per-student points and streak counter.
//
// Upsert and AddPoints read then write without a transaction: two concurrent
// increments for the same student may lose one. Students practise from a single
// device, so last write wins is accepted here.
type ProgressRepository struct {
	db *sqlx.DB
}

// NewProgressRepository creates a new repository instance
func NewProgressRepository(db *sqlx.DB) *ProgressRepository {
	return &ProgressRepository{db: db}
}

// Get returns the progress of a student, or nil if there is none
func (r *ProgressRepository) Get(ctx context.Context, studentID string) (*models.StudentProgress, error) {
	var progress models.StudentProgress
	query := r.db.Rebind(`SELECT student_id, points, streak_days, last_active_date, updated_at
		FROM student_progress WHERE student_id = ?`)
	err := r.db.GetContext(ctx, &progress, query, studentID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Backend("failed to get student progress", err)
	}
	return &progress, nil
}

// Upsert creates or updates a progress row
func (r *ProgressRepository) Upsert(ctx context.Context, progress *models.StudentProgress) error {
	if progress.Points < 0 {
		progress.Points = 0
	}
	progress.UpdatedAt = time.Now().UTC()

	existing, err := r.Get(ctx, progress.StudentID)
	if err != nil {
		return err
	}

	if existing != nil {
		_, err = r.db.ExecContext(ctx, r.db.Rebind(`
			UPDATE student_progress SET
				points = ?,
				streak_days = ?,
				last_active_date = ?,
				updated_at = ?
			WHERE student_id = ?
		`), progress.Points, progress.StreakDays, progress.LastActiveDate, progress.UpdatedAt, progress.StudentID)
		return apperr.Backend("failed to update student progress", err)
	}

	_, err = r.db.ExecContext(ctx, r.db.Rebind(`
		INSERT INTO student_progress (student_id, points, streak_days, last_active_date, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`), progress.StudentID, progress.Points, progress.StreakDays, progress.LastActiveDate, progress.UpdatedAt)
	if isForeignKeyViolation(err) {
		return ErrNotFound
	}
	return apperr.Backend("failed to create student progress", err)
}

// AddPoints adds n points (n may be negative; the total never drops below zero)
func (r *ProgressRepository) AddPoints(ctx context.Context, studentID string, n int) (*models.StudentProgress, error) {
	progress, err := r.Get(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if progress == nil {
		progress = &models.StudentProgress{StudentID: studentID}
	}
	progress.Points += n
	if err := r.Upsert(ctx, progress); err != nil {
		return nil, err
	}
	return progress, nil
}

// RecordActivity marks the student active on date and extends the streak when
// date directly follows the previous active day.
func (r *ProgressRepository) RecordActivity(ctx context.Context, studentID string, date string) (*models.StudentProgress, error) {
	progress, err := r.Get(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if progress == nil {
		progress = &models.StudentProgress{StudentID: studentID}
	}

	switch {
	case progress.LastActiveDate == nil:
		progress.StreakDays = 1
	case *progress.LastActiveDate == date:
		return progress, nil
	case isNextDay(*progress.LastActiveDate, date):
		progress.StreakDays++
	default:
		progress.StreakDays = 1
	}
	d := date
	progress.LastActiveDate = &d

	if err := r.Upsert(ctx, progress); err != nil {
		return nil, err
	}
	return progress, nil
}

// RollStreaks resets the streak of every student who was active neither on
// today nor on the day before. It returns the number of streaks reset.
func (r *ProgressRepository) RollStreaks(ctx context.Context, today string) (int64, error) {
	t, err := time.Parse(models.DateLayout, today)
	if err != nil {
		return 0, apperr.Validation("invalid date %q", today)
	}
	yesterday := t.AddDate(0, 0, -1).Format(models.DateLayout)

	res, err := r.db.ExecContext(ctx, r.db.Rebind(`
		UPDATE student_progress SET streak_days = 0, updated_at = ?
		WHERE streak_days > 0
			AND (last_active_date IS NULL OR last_active_date < ?)
	`), time.Now().UTC(), yesterday)
	if err != nil {
		return 0, apperr.Backend("failed to roll streaks", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

func isNextDay(prev, next string) bool {
	p, err := time.Parse(models.DateLayout, prev)
	if err != nil {
		return false
	}
	return p.AddDate(0, 0, 1).Format(models.DateLayout) == next
}
