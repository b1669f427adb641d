package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id                          TEXT PRIMARY KEY,
	email                       TEXT NOT NULL DEFAULT '',
	role                        TEXT NOT NULL DEFAULT 'user',
	status                      TEXT NOT NULL DEFAULT 'active',
	metadata                    TEXT NOT NULL DEFAULT '',
	baseline_productivity_score INTEGER NOT NULL DEFAULT 50,
	baseline_distraction_score  INTEGER NOT NULL DEFAULT 50,
	current_energy_level        INTEGER NOT NULL DEFAULT 5,
	current_mood                TEXT NOT NULL DEFAULT 'Neutral',
	created_at                  DATETIME NOT NULL,
	updated_at                  DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS tasks (
	id                 TEXT PRIMARY KEY,
	user_id            TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	title              TEXT NOT NULL,
	description        TEXT NOT NULL DEFAULT '',
	type               TEXT NOT NULL,
	priority           TEXT NOT NULL DEFAULT 'Medium',
	deadline           DATETIME NOT NULL,
	reminder_at        DATETIME NOT NULL,
	started_at         DATETIME,
	completed          INTEGER NOT NULL DEFAULT 0,
	completed_at       DATETIME,
	actual_time_spent  INTEGER,
	productivity_score REAL,
	distraction_score  REAL,
	metadata           TEXT NOT NULL DEFAULT '',
	created_at         DATETIME NOT NULL,
	updated_at         DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_tasks_user_created ON tasks (user_id, created_at);

CREATE TABLE IF NOT EXISTS activity_logs (
	id         TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	type       TEXT NOT NULL,
	meta       TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL
);
`

// Open creates (or reuses) the SQLite file at path and applies the embedded schema.
func Open(path string, logger *zap.Logger) (*sql.DB, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_time_format=sqlite", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	logger.Info("opened sqlite store", zap.String("path", path))
	return db, nil
}
