package database

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/example/wordquest/internal/apperr"
	"github.com/example/wordquest/pkg/models"
)

// StudentRepository handles database operations for students
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository creates a new repository instance
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// ListAll returns all students sorted by name
func (r *StudentRepository) ListAll(ctx context.Context) ([]models.Student, error) {
	students := []models.Student{}
	err := r.db.SelectContext(ctx, &students, "SELECT id, name, created_at FROM students ORDER BY name, id")
	if err != nil {
		return nil, apperr.Backend("failed to get students", err)
	}
	return students, nil
}

// GetByID returns a student by ID, or nil if there is none
func (r *StudentRepository) GetByID(ctx context.Context, id string) (*models.Student, error) {
	var student models.Student
	err := r.db.GetContext(ctx, &student, r.db.Rebind("SELECT id, name, created_at FROM students WHERE id = ?"), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Backend("failed to get student by ID", err)
	}
	return &student, nil
}

// FindByName returns the first student whose name matches ignoring case, or nil.
// Reusing an existing student on login is up to the caller.
func (r *StudentRepository) FindByName(ctx context.Context, name string) (*models.Student, error) {
	var student models.Student
	query := r.db.Rebind("SELECT id, name, created_at FROM students WHERE LOWER(name) = LOWER(?) ORDER BY created_at LIMIT 1")
	err := r.db.GetContext(ctx, &student, query, strings.TrimSpace(name))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Backend("failed to find student", err)
	}
	return &student, nil
}

// Create inserts a new student together with an empty progress row
func (r *StudentRepository) Create(ctx context.Context, name string) (*models.Student, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Validation("student name cannot be empty")
	}

	student := &models.Student{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	_, err := r.db.ExecContext(ctx,
		r.db.Rebind("INSERT INTO students (id, name, created_at) VALUES (?, ?, ?)"),
		student.ID, student.Name, student.CreatedAt)
	if err != nil {
		return nil, apperr.Backend("failed to create student", err)
	}

	_, err = r.db.ExecContext(ctx,
		r.db.Rebind("INSERT INTO student_progress (student_id, points, streak_days, updated_at) VALUES (?, 0, 0, ?)"),
		student.ID, student.CreatedAt)
	if err != nil {
		return nil, apperr.Backend("failed to create student progress", err)
	}
	return student, nil
}

// Update renames a student
func (r *StudentRepository) Update(ctx context.Context, student *models.Student) error {
	student.Name = strings.TrimSpace(student.Name)
	if student.Name == "" {
		return apperr.Validation("student name cannot be empty")
	}
	res, err := r.db.ExecContext(ctx, r.db.Rebind("UPDATE students SET name = ? WHERE id = ?"), student.Name, student.ID)
	if err != nil {
		return apperr.Backend("failed to update student", err)
	}
	return requireAffected(res)
}

// Delete removes a student; progress, assignments and practice records cascade
func (r *StudentRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind("DELETE FROM students WHERE id = ?"), id)
	if err != nil {
		return apperr.Backend("failed to delete student", err)
	}
	return requireAffected(res)
}

// Count returns the number of students
func (r *StudentRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM students"); err != nil {
		return 0, apperr.Backend("failed to count students", err)
	}
	return n, nil
}
