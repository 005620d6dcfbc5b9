package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-cbt/internal/config"
	_ "modernc.org/sqlite"
)

// NewSQLite opens the offline result database and makes sure its schema exists.
func NewSQLite(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*sql.DB, error) {
	db, err := sql.Open("sqlite", cfg.SQLitePath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One writer keeps modernc from returning SQLITE_BUSY under concurrent submits.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create sqlite schema: %w", err)
	}

	log.Info().
		Str("path", cfg.SQLitePath).
		Msg("SQLite opened")

	return db, nil
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS exam_results (
  id TEXT PRIMARY KEY,
  attempt_id TEXT NOT NULL UNIQUE,
  candidate_id TEXT NOT NULL,
  candidate_name TEXT NOT NULL,
  department TEXT NOT NULL,
  score INTEGER NOT NULL,
  total_questions INTEGER NOT NULL,
  percentage REAL NOT NULL,
  time_spent_seconds INTEGER NOT NULL,
  is_timeout INTEGER NOT NULL,
  questions_json TEXT NOT NULL,
  submitted_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_exam_results_candidate ON exam_results (candidate_id, submitted_at);

CREATE TABLE IF NOT EXISTS candidate_profiles (
  candidate_id TEXT PRIMARY KEY,
  name TEXT NOT NULL DEFAULT '',
  exams_taken INTEGER NOT NULL DEFAULT 0,
  last_exam_at INTEGER,
  created_at INTEGER NOT NULL
);
`
