package database

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/example/wordquest/internal/apperr"
	"github.com/example/wordquest/pkg/models"
)

const wordColumns = `id, word, definition, root, origin, synonyms, antonyms, example,
	year_group, learning_point, created_at, updated_at`

// WordRepository handles database operations for the shared word bank
type WordRepository struct {
	db       *sqlx.DB
	pageSize int
}

// NewWordRepository creates a new repository instance.
// pageSize caps every single SELECT issued by ListAll.
func NewWordRepository(db *sqlx.DB, pageSize int) *WordRepository {
	if pageSize <= 0 {
		pageSize = 1000
	}
	return &WordRepository{db: db, pageSize: pageSize}
}

// ListAll returns every word ordered by surface form, paging through the store
func (r *WordRepository) ListAll(ctx context.Context) ([]models.Word, error) {
	query := r.db.Rebind("SELECT " + wordColumns + " FROM words ORDER BY word, id LIMIT ? OFFSET ?")

	words := []models.Word{}
	for offset := 0; ; offset += r.pageSize {
		var page []models.Word
		if err := r.db.SelectContext(ctx, &page, query, r.pageSize, offset); err != nil {
			return nil, apperr.Backend("failed to list words", err)
		}
		words = append(words, page...)
		if len(page) < r.pageSize {
			return words, nil
		}
	}
}

// ListByYearGroup returns the words of one year group
func (r *WordRepository) ListByYearGroup(ctx context.Context, yearGroup models.YearGroup) ([]models.Word, error) {
	if !yearGroup.Valid() {
		return nil, apperr.Validation("unknown year group %q", yearGroup)
	}
	words := []models.Word{}
	query := r.db.Rebind("SELECT " + wordColumns + " FROM words WHERE year_group = ? ORDER BY word")
	if err := r.db.SelectContext(ctx, &words, query, yearGroup); err != nil {
		return nil, apperr.Backend("failed to get words by year group", err)
	}
	return words, nil
}

// ListByLearningPoint returns the words tagged with a learning point
func (r *WordRepository) ListByLearningPoint(ctx context.Context, learningPoint string) ([]models.Word, error) {
	words := []models.Word{}
	query := r.db.Rebind("SELECT " + wordColumns + " FROM words WHERE learning_point = ? ORDER BY word")
	if err := r.db.SelectContext(ctx, &words, query, learningPoint); err != nil {
		return nil, apperr.Backend("failed to get words by learning point", err)
	}
	return words, nil
}

// ListLearningPoints returns the distinct learning points in use
func (r *WordRepository) ListLearningPoints(ctx context.Context) ([]string, error) {
	points := []string{}
	err := r.db.SelectContext(ctx, &points,
		"SELECT DISTINCT learning_point FROM words WHERE learning_point <> '' ORDER BY learning_point")
	if err != nil {
		return nil, apperr.Backend("failed to list learning points", err)
	}
	return points, nil
}

// GetByID returns a word by ID, or nil if there is none
func (r *WordRepository) GetByID(ctx context.Context, id string) (*models.Word, error) {
	var word models.Word
	err := r.db.GetContext(ctx, &word, r.db.Rebind("SELECT "+wordColumns+" FROM words WHERE id = ?"), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Backend("failed to get word by ID", err)
	}
	return &word, nil
}

// GetByWord looks a word up by surface form, ignoring case; nil if there is none
func (r *WordRepository) GetByWord(ctx context.Context, surface string) (*models.Word, error) {
	var word models.Word
	query := r.db.Rebind("SELECT " + wordColumns + " FROM words WHERE LOWER(word) = LOWER(?) LIMIT 1")
	err := r.db.GetContext(ctx, &word, query, strings.TrimSpace(surface))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Backend("failed to get word", err)
	}
	return &word, nil
}

// GetByIDs returns the words with the given IDs ordered by surface form
func (r *WordRepository) GetByIDs(ctx context.Context, ids []string) ([]models.Word, error) {
	words := []models.Word{}
	if len(ids) == 0 {
		return words, nil
	}
	query, args, err := sqlx.In("SELECT "+wordColumns+" FROM words WHERE id IN (?) ORDER BY word", ids)
	if err != nil {
		return nil, apperr.Backend("failed to build word query", err)
	}
	if err := r.db.SelectContext(ctx, &words, r.db.Rebind(query), args...); err != nil {
		return nil, apperr.Backend("failed to get words by ID", err)
	}
	return words, nil
}

// Create inserts a new word and fills in its ID and timestamps
func (r *WordRepository) Create(ctx context.Context, word *models.Word) error {
	if err := validateWord(word); err != nil {
		return err
	}

	now := time.Now().UTC()
	word.ID = uuid.NewString()
	word.CreatedAt = now
	word.UpdatedAt = now

	query := r.db.Rebind(`
		INSERT INTO words (id, word, definition, root, origin, synonyms, antonyms, example,
			year_group, learning_point, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	_, err := r.db.ExecContext(ctx, query,
		word.ID,
		word.Word,
		word.Definition,
		word.Root,
		word.Origin,
		word.Synonyms,
		word.Antonyms,
		word.Example,
		word.YearGroup,
		word.LearningPoint,
		word.CreatedAt,
		word.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return apperr.Validation("word %q already exists", word.Word)
	}
	return apperr.Backend("failed to create word", err)
}

// Update modifies an existing word
func (r *WordRepository) Update(ctx context.Context, word *models.Word) error {
	if err := validateWord(word); err != nil {
		return err
	}

	word.UpdatedAt = time.Now().UTC()
	query := r.db.Rebind(`
		UPDATE words SET
			word = ?,
			definition = ?,
			root = ?,
			origin = ?,
			synonyms = ?,
			antonyms = ?,
			example = ?,
			year_group = ?,
			learning_point = ?,
			updated_at = ?
		WHERE id = ?
	`)
	res, err := r.db.ExecContext(ctx, query,
		word.Word,
		word.Definition,
		word.Root,
		word.Origin,
		word.Synonyms,
		word.Antonyms,
		word.Example,
		word.YearGroup,
		word.LearningPoint,
		word.UpdatedAt,
		word.ID,
	)
	if isUniqueViolation(err) {
		return apperr.Validation("word %q already exists", word.Word)
	}
	if err != nil {
		return apperr.Backend("failed to update word", err)
	}
	return requireAffected(res)
}

// Delete removes a word; assignments and practice records referencing it go with it
func (r *WordRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind("DELETE FROM words WHERE id = ?"), id)
	if err != nil {
		return apperr.Backend("failed to delete word", err)
	}
	return requireAffected(res)
}

// Count returns the number of words in the bank
func (r *WordRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM words"); err != nil {
		return 0, apperr.Backend("failed to count words", err)
	}
	return n, nil
}

func validateWord(word *models.Word) error {
	word.Word = strings.TrimSpace(word.Word)
	if word.Word == "" {
		return apperr.Validation("word cannot be empty")
	}
	if !strings.ContainsFunc(word.Word, unicode.IsLetter) {
		return apperr.Validation("word %q has no letters to spell", word.Word)
	}
	if !word.YearGroup.Valid() {
		return apperr.Validation("unknown year group %q", word.YearGroup)
	}
	if word.Synonyms == nil {
		word.Synonyms = models.StringList{}
	}
	if word.Antonyms == nil {
		word.Antonyms = models.StringList{}
	}
	return nil
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return apperr.Backend("failed to read affected rows", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
