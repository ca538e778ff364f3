package database

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/example/masterybot/internal/config"
)

// Connect opens the database selected by cfg and makes sure the schema exists.
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
		// Create data directory if it doesn't exist
		if dir := filepath.Dir(cfg.SQLitePath); dir != "" {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create data directory: %w", err)
			}
		}
		db, err = openSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
	}

	if err := initializeSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// OpenMemory opens a private in-memory SQLite database with the schema applied.
func OpenMemory() (*sqlx.DB, error) {
	db, err := openSQLite(":memory:")
	if err != nil {
		return nil, err
	}
	if err := initializeSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func openSQLite(path string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	// SQLite doesn't support multiple writers; a single connection also keeps
	// an in-memory database alive and shared.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	return db, nil
}

var schema = []struct {
	name string
	ddl  string
}{
	{"learners", `
		CREATE TABLE IF NOT EXISTS learners (
			id TEXT PRIMARY KEY,
			telegram_chat_id BIGINT NOT NULL DEFAULT 0,
			notification_hour INTEGER NOT NULL DEFAULT 9,
			notifications_enabled BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`},
	{"mastery_records", `
		CREATE TABLE IF NOT EXISTS mastery_records (
			learner_id TEXT NOT NULL,
			course_id TEXT NOT NULL,
			version BIGINT NOT NULL,
			pre_assessment_score DOUBLE PRECISION,
			post_assessment_score DOUBLE PRECISION,
			normalized_gain DOUBLE PRECISION,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL,
			PRIMARY KEY (learner_id, course_id)
		)`},
	{"concept_states", `
		CREATE TABLE IF NOT EXISTS concept_states (
			learner_id TEXT NOT NULL,
			course_id TEXT NOT NULL,
			concept_id TEXT NOT NULL,
			position INTEGER NOT NULL,
			label TEXT NOT NULL DEFAULT '',
			lesson_id TEXT NOT NULL DEFAULT '',
			p_init DOUBLE PRECISION NOT NULL,
			p_transit DOUBLE PRECISION NOT NULL,
			p_guess DOUBLE PRECISION NOT NULL,
			p_slip DOUBLE PRECISION NOT NULL,
			p_mastery DOUBLE PRECISION NOT NULL,
			attempts INTEGER NOT NULL DEFAULT 0,
			correct_attempts INTEGER NOT NULL DEFAULT 0,
			response_times TEXT NOT NULL DEFAULT '[]',
			last_attempt TIMESTAMP,
			leitner_box INTEGER NOT NULL DEFAULT 1,
			next_review TIMESTAMP,
			review_count INTEGER NOT NULL DEFAULT 0,
			is_mastered BOOLEAN NOT NULL DEFAULT FALSE,
			PRIMARY KEY (learner_id, course_id, concept_id),
			FOREIGN KEY (learner_id, course_id) REFERENCES mastery_records(learner_id, course_id)
		)`},
	{"learning_sessions", `
		CREATE TABLE IF NOT EXISTS learning_sessions (
			id TEXT PRIMARY KEY,
			learner_id TEXT NOT NULL,
			started_at TIMESTAMP NOT NULL,
			ended_at TIMESTAMP,
			payload TEXT NOT NULL
		)`},
	{"learning_sessions index", `
		CREATE INDEX IF NOT EXISTS idx_learning_sessions_learner
			ON learning_sessions (learner_id, started_at)`},
	{"adaptive_profiles", `
		CREATE TABLE IF NOT EXISTS adaptive_profiles (
			learner_id TEXT PRIMARY KEY,
			version BIGINT NOT NULL,
			document TEXT NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`},
}

// initializeSchema creates necessary tables if they don't exist
func initializeSchema(db *sqlx.DB) error {
	for _, s := range schema {
		if _, err := db.Exec(s.ddl); err != nil {
			return fmt.Errorf("failed to create %s: %w", s.name, err)
		}
	}
	return nil
}
