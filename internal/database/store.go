package database

import "github.com/jmoiron/sqlx"

// Store bundles the repositories sharing one connection
type Store struct {
	DB         *sqlx.DB
	Words      *WordRepository
	Students   *StudentRepository
	Progress   *ProgressRepository
	Quests     *QuestRepository
	Practice   *PracticeRepository
	Statistics *StatisticsRepository
}

// NewStore creates all repositories over db
func NewStore(db *sqlx.DB, wordPageSize int) *Store {
	return &Store{
		DB:         db,
		Words:      NewWordRepository(db, wordPageSize),
		Students:   NewStudentRepository(db),
		Progress:   NewProgressRepository(db),
		Quests:     NewQuestRepository(db),
		Practice:   NewPracticeRepository(db),
		Statistics: NewStatisticsRepository(db),
	}
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.DB != nil {
		return s.DB.Close()
	}
	return nil
}
