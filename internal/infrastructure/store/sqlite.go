package store

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// schema defines the durable tables owned by the event store: the append-only
// event log, aggregate snapshots and projection checkpoints. Read tables are
// owned by their projections and created separately.
const schema = `
CREATE TABLE IF NOT EXISTS events (
    stream_position INTEGER PRIMARY KEY AUTOINCREMENT,
    event_id        TEXT NOT NULL UNIQUE,
    aggregate_id    TEXT NOT NULL,
    aggregate_type  TEXT NOT NULL,
    event_type      TEXT NOT NULL,
    event_data      TEXT NOT NULL,
    metadata        TEXT NOT NULL,
    sequence_number INTEGER NOT NULL,
    created_at      TIMESTAMP NOT NULL,
    UNIQUE (aggregate_id, sequence_number)
);

CREATE INDEX IF NOT EXISTS idx_events_aggregate ON events(aggregate_id, sequence_number);
CREATE INDEX IF NOT EXISTS idx_events_type ON events(event_type);

CREATE TABLE IF NOT EXISTS snapshots (
    aggregate_id   TEXT NOT NULL,
    aggregate_type TEXT NOT NULL,
    version        INTEGER NOT NULL,
    state          TEXT NOT NULL,
    created_at     TIMESTAMP NOT NULL,
    PRIMARY KEY (aggregate_id, version)
);

CREATE TABLE IF NOT EXISTS projection_checkpoints (
    projection_name         TEXT PRIMARY KEY,
    last_processed_position INTEGER NOT NULL DEFAULT 0,
    last_processed_at       TIMESTAMP,
    status                  TEXT NOT NULL DEFAULT 'stopped',
    error_message           TEXT
);
`

// ConnectSQLite opens the embedded SQLite database at path and ensures the
// event store schema exists. WAL mode keeps reads concurrent with the single
// writer.
func ConnectSQLite(path string) (*sql.DB, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return db, nil
}
