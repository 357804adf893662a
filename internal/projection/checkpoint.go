package projection

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Status is the persisted lifecycle state of a projection.
type Status string

const (
	StatusStopped    Status = "stopped"
	StatusCatchingUp Status = "catching_up"
	StatusRunning    Status = "running"
	StatusRebuilding Status = "rebuilding"
	StatusError      Status = "error"
)

// Checkpoint records how far a projection has processed the event stream.
// One row per projection; surviving restarts so catch-up resumes instead of
// restarting.
type Checkpoint struct {
	ProjectionName  string
	Position        int64 // last fully processed stream position
	LastProcessedAt time.Time
	Status          Status
	ErrorMessage    string
}

// CheckpointStore persists checkpoints in the projection_checkpoints table
// created by the event store schema.
type CheckpointStore struct {
	db *sql.DB
}

func NewCheckpointStore(db *sql.DB) *CheckpointStore {
	return &CheckpointStore{db: db}
}

// Get returns the checkpoint for a projection. A projection with no row yet
// starts stopped at position 0.
func (cs *CheckpointStore) Get(ctx context.Context, name string) (Checkpoint, error) {
	var (
		cp        Checkpoint
		processed sql.NullTime
		errMsg    sql.NullString
	)
	err := cs.db.QueryRowContext(ctx,
		`SELECT projection_name, last_processed_position, last_processed_at, status, error_message
		 FROM projection_checkpoints
		 WHERE projection_name = ?`,
		name,
	).Scan(&cp.ProjectionName, &cp.Position, &processed, &cp.Status, &errMsg)
	if err == sql.ErrNoRows {
		return Checkpoint{ProjectionName: name, Status: StatusStopped}, nil
	}
	if err != nil {
		return Checkpoint{}, fmt.Errorf("query checkpoint %s: %w", name, err)
	}
	if processed.Valid {
		cp.LastProcessedAt = processed.Time
	}
	if errMsg.Valid {
		cp.ErrorMessage = errMsg.String
	}
	return cp, nil
}

// Save upserts a checkpoint row. Called only after the corresponding read
// table writes have committed, so a crash can repeat work but never skip it.
func (cs *CheckpointStore) Save(ctx context.Context, cp Checkpoint) error {
	_, err := cs.db.ExecContext(ctx,
		`INSERT INTO projection_checkpoints (projection_name, last_processed_position, last_processed_at, status, error_message)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(projection_name) DO UPDATE SET
		   last_processed_position = excluded.last_processed_position,
		   last_processed_at = excluded.last_processed_at,
		   status = excluded.status,
		   error_message = excluded.error_message`,
		cp.ProjectionName,
		cp.Position,
		cp.LastProcessedAt,
		string(cp.Status),
		nullIfEmpty(cp.ErrorMessage),
	)
	if err != nil {
		return fmt.Errorf("save checkpoint %s: %w", cp.ProjectionName, err)
	}
	return nil
}

// SetStatus updates the lifecycle state without touching the position.
func (cs *CheckpointStore) SetStatus(ctx context.Context, name string, status Status, errorMessage string) error {
	cp, err := cs.Get(ctx, name)
	if err != nil {
		return err
	}
	cp.ProjectionName = name
	cp.Status = status
	cp.ErrorMessage = errorMessage
	return cs.Save(ctx, cp)
}

// All returns every persisted checkpoint.
func (cs *CheckpointStore) All(ctx context.Context) ([]Checkpoint, error) {
	rows, err := cs.db.QueryContext(ctx,
		`SELECT projection_name, last_processed_position, last_processed_at, status, error_message
		 FROM projection_checkpoints
		 ORDER BY projection_name`,
	)
	if err != nil {
		return nil, fmt.Errorf("query checkpoints: %w", err)
	}
	defer rows.Close()

	var checkpoints []Checkpoint
	for rows.Next() {
		var (
			cp        Checkpoint
			processed sql.NullTime
			errMsg    sql.NullString
		)
		if err := rows.Scan(&cp.ProjectionName, &cp.Position, &processed, &cp.Status, &errMsg); err != nil {
			return nil, fmt.Errorf("scan checkpoint: %w", err)
		}
		if processed.Valid {
			cp.LastProcessedAt = processed.Time
		}
		if errMsg.Valid {
			cp.ErrorMessage = errMsg.String
		}
		checkpoints = append(checkpoints, cp)
	}
	return checkpoints, rows.Err()
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
