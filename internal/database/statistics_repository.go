package database

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/example/wordquest/internal/apperr"
	"github.com/example/wordquest/pkg/models"
)

// StatisticsRepository aggregates the word bank and the practice ledger
type StatisticsRepository struct {
	db *sqlx.DB
}

// NewStatisticsRepository creates a new repository instance
func NewStatisticsRepository(db *sqlx.DB) *StatisticsRepository {
	return &StatisticsRepository{db: db}
}

// Overview returns the class-wide statistics shown on the teacher dashboard
func (r *StatisticsRepository) Overview(ctx context.Context) (*models.Statistics, error) {
	stats := &models.Statistics{ByYearGroup: make(map[string]int)}

	if err := r.db.GetContext(ctx, &stats.TotalWords, "SELECT COUNT(*) FROM words"); err != nil {
		return nil, apperr.Backend("failed to count words", err)
	}
	if err := r.db.GetContext(ctx, &stats.TotalStudents, "SELECT COUNT(*) FROM students"); err != nil {
		return nil, apperr.Backend("failed to count students", err)
	}
	if err := r.db.GetContext(ctx, &stats.TotalPractice, "SELECT COUNT(*) FROM practice_records"); err != nil {
		return nil, apperr.Backend("failed to count practice records", err)
	}

	stats.ByActivity = []models.ActivityStats{}
	err := r.db.SelectContext(ctx, &stats.ByActivity, `
		SELECT activity,
			COUNT(*) AS attempts,
			COALESCE(SUM(CASE WHEN correct THEN 1 ELSE 0 END), 0) AS correct
		FROM practice_records
		GROUP BY activity
		ORDER BY activity
	`)
	if err != nil {
		return nil, apperr.Backend("failed to aggregate practice records", err)
	}

	var groups []struct {
		YearGroup string `db:"year_group"`
		Count     int    `db:"n"`
	}
	if err := r.db.SelectContext(ctx, &groups, "SELECT year_group, COUNT(*) AS n FROM words GROUP BY year_group"); err != nil {
		return nil, apperr.Backend("failed to count words by year group", err)
	}
	for _, g := range groups {
		stats.ByYearGroup[g.YearGroup] = g.Count
	}

	return stats, nil
}

// StudentAccuracy returns per-activity totals for one student
func (r *StatisticsRepository) StudentAccuracy(ctx context.Context, studentID string) ([]models.ActivityStats, error) {
	out := []models.ActivityStats{}
	err := r.db.SelectContext(ctx, &out, r.db.Rebind(`
		SELECT activity,
			COUNT(*) AS attempts,
			COALESCE(SUM(CASE WHEN correct THEN 1 ELSE 0 END), 0) AS correct
		FROM practice_records
		WHERE student_id = ?
		GROUP BY activity
		ORDER BY activity
	`), studentID)
	if err != nil {
		return nil, apperr.Backend("failed to aggregate student practice", err)
	}
	return out, nil
}
