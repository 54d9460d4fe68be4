package database

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/example/wordquest/internal/config"
)

// Connect opens the configured store and makes sure the schema exists
func Connect(cfg *config.Config) (*sqlx.DB, error) {
	var (
		db  *sqlx.DB
		err error
	)
	switch cfg.DBType {
	case "postgres":
		db, err = sqlx.Connect("postgres", cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
	default:
		if dir := filepath.Dir(cfg.DBPath); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create data directory: %w", err)
			}
		}
		db, err = OpenSQLite(cfg.DBPath)
		if err != nil {
			return nil, err
		}
	}

	if err := InitSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// OpenSQLite opens a SQLite database at path (":memory:" for tests)
func OpenSQLite(path string) (*sqlx.DB, error) {
	dsn := "file:" + path + "?_foreign_keys=on"
	if path == ":memory:" {
		dsn = "file::memory:?_foreign_keys=on"
	}
	db, err := sqlx.Connect("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	// SQLite doesn't support multiple writers; one connection also keeps
	// an in-memory database alive for the lifetime of the handle.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	return db, nil
}

// InitSchema creates necessary tables if they don't exist
func InitSchema(db *sqlx.DB) error {
	for _, stmt := range strings.Split(schemaSQL, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to initialize schema: %w", err)
		}
	}
	return nil
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS words (
	id TEXT PRIMARY KEY,
	word TEXT NOT NULL UNIQUE CHECK (word <> ''),
	definition TEXT NOT NULL DEFAULT '',
	root TEXT,
	origin TEXT,
	synonyms TEXT NOT NULL DEFAULT '[]',
	antonyms TEXT NOT NULL DEFAULT '[]',
	example TEXT NOT NULL DEFAULT '',
	year_group TEXT NOT NULL CHECK (year_group IN ('Year 3', 'Year 4', 'Year 5', 'Year 6')),
	learning_point TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_words_year_group ON words (year_group);

CREATE INDEX IF NOT EXISTS idx_words_learning_point ON words (learning_point);

CREATE TABLE IF NOT EXISTS students (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL CHECK (name <> ''),
	created_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS student_progress (
	student_id TEXT PRIMARY KEY REFERENCES students (id) ON DELETE CASCADE,
	points INTEGER NOT NULL DEFAULT 0 CHECK (points >= 0),
	streak_days INTEGER NOT NULL DEFAULT 0,
	last_active_date TEXT,
	updated_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS daily_quests (
	id TEXT PRIMARY KEY,
	student_id TEXT NOT NULL REFERENCES students (id) ON DELETE CASCADE,
	word_id TEXT NOT NULL REFERENCES words (id) ON DELETE CASCADE,
	quest_date TEXT NOT NULL,
	completed BOOLEAN NOT NULL DEFAULT FALSE,
	completed_at TIMESTAMP,
	created_at TIMESTAMP NOT NULL,
	UNIQUE (student_id, word_id, quest_date)
);

CREATE INDEX IF NOT EXISTS idx_daily_quests_student_date ON daily_quests (student_id, quest_date);

CREATE TABLE IF NOT EXISTS practice_records (
	id TEXT PRIMARY KEY,
	student_id TEXT NOT NULL REFERENCES students (id) ON DELETE CASCADE,
	word_id TEXT NOT NULL REFERENCES words (id) ON DELETE CASCADE,
	word TEXT NOT NULL,
	practice_date TEXT NOT NULL,
	activity TEXT NOT NULL CHECK (activity IN ('letter-order', 'grid-collection', 'voice-dictation', 'flashcard-view', 'quiz')),
	correct BOOLEAN NOT NULL,
	details TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_practice_records_student_date ON practice_records (student_id, practice_date)
`
