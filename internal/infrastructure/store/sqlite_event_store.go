package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// SQLiteEventStore is the durable append-only event log backed by embedded
// SQLite. All appends go through a single logical writer so stream positions
// come out gapless and in commit order; reads run concurrently and observe a
// consistent prefix of the log.
type SQLiteEventStore struct {
	db         *sql.DB
	serializer *Serializer

	// writeMu serializes Save calls. Sequence numbers and stream positions
	// are derived inside the same transaction as the insert, never from an
	// in-process counter.
	writeMu sync.Mutex
}

func NewSQLiteEventStore(db *sql.DB, serializer *Serializer) *SQLiteEventStore {
	return &SQLiteEventStore{db: db, serializer: serializer}
}

// Save appends all of the aggregate's uncommitted events in one transaction.
// Sequence numbers start at expectedVersion+1; a mismatch between
// expectedVersion and the persisted version fails with a
// ConcurrencyConflictError and writes nothing.
func (es *SQLiteEventStore) Save(ctx context.Context, agg Persistable, expectedVersion int) ([]Event, error) {
	pending := agg.UncommittedEvents()
	if len(pending) == 0 {
		return nil, ErrNoUncommittedEvents
	}

	es.writeMu.Lock()
	defer es.writeMu.Unlock()

	tx, err := es.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin append: %w", err)
	}
	defer tx.Rollback()

	var currentVersion int
	err = tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(sequence_number), 0) FROM events WHERE aggregate_id = ?`,
		agg.AggregateID(),
	).Scan(&currentVersion)
	if err != nil {
		return nil, fmt.Errorf("read current version: %w", err)
	}
	if currentVersion != expectedVersion {
		return nil, &ConcurrencyConflictError{
			AggregateID:     agg.AggregateID(),
			ExpectedVersion: expectedVersion,
			ActualVersion:   currentVersion,
		}
	}

	md := metadataFromContext(ctx)
	mdJSON, err := json.Marshal(md)
	if err != nil {
		return nil, fmt.Errorf("marshal metadata: %w", err)
	}

	saved := make([]Event, 0, len(pending))
	for i, domainEvent := range pending {
		tag, data, err := es.serializer.Serialize(domainEvent)
		if err != nil {
			return nil, err
		}

		event := Event{
			EventID:        uuid.New().String(),
			AggregateID:    agg.AggregateID(),
			AggregateType:  agg.AggregateType(),
			EventType:      tag,
			Data:           data,
			Metadata:       md,
			SequenceNumber: expectedVersion + i + 1,
			CreatedAt:      md.CreatedAt,
		}

		res, err := tx.ExecContext(ctx,
			`INSERT INTO events (event_id, aggregate_id, aggregate_type, event_type, event_data, metadata, sequence_number, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			event.EventID,
			event.AggregateID,
			event.AggregateType,
			event.EventType,
			string(event.Data),
			string(mdJSON),
			event.SequenceNumber,
			event.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("insert event %s: %w", tag, err)
		}
		// AUTOINCREMENT assigns the global position inside this transaction.
		event.StreamPosition, err = res.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("read stream position: %w", err)
		}
		saved = append(saved, event)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit append: %w", err)
	}

	agg.MarkCommitted(expectedVersion + len(pending))
	return saved, nil
}

// GetEvents returns all events for an aggregate in sequence order.
func (es *SQLiteEventStore) GetEvents(ctx context.Context, aggregateID string) ([]Event, error) {
	return es.GetEventsFromVersion(ctx, aggregateID, 0)
}

// GetEventsFromVersion returns the aggregate's events after the given
// sequence number, used when replay starts from a snapshot.
func (es *SQLiteEventStore) GetEventsFromVersion(ctx context.Context, aggregateID string, version int) ([]Event, error) {
	rows, err := es.db.QueryContext(ctx,
		`SELECT stream_position, event_id, aggregate_id, aggregate_type, event_type, event_data, metadata, sequence_number, created_at
		 FROM events
		 WHERE aggregate_id = ? AND sequence_number > ?
		 ORDER BY sequence_number ASC`,
		aggregateID, version,
	)
	if err != nil {
		return nil, fmt.Errorf("query aggregate events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

// ReadStream returns up to limit events past fromPosition in global commit
// order. Projections page through the log with this.
func (es *SQLiteEventStore) ReadStream(ctx context.Context, fromPosition int64, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = -1 // SQLite treats a negative LIMIT as unbounded
	}
	rows, err := es.db.QueryContext(ctx,
		`SELECT stream_position, event_id, aggregate_id, aggregate_type, event_type, event_data, metadata, sequence_number, created_at
		 FROM events
		 WHERE stream_position > ?
		 ORDER BY stream_position ASC
		 LIMIT ?`,
		fromPosition, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query stream: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

// ReadStreamByTypes is ReadStream restricted to the given event tags.
func (es *SQLiteEventStore) ReadStreamByTypes(ctx context.Context, fromPosition int64, limit int, eventTypes ...string) ([]Event, error) {
	if len(eventTypes) == 0 {
		return es.ReadStream(ctx, fromPosition, limit)
	}
	if limit <= 0 {
		limit = -1
	}

	placeholders := strings.Repeat("?,", len(eventTypes))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, 0, len(eventTypes)+2)
	args = append(args, fromPosition)
	for _, t := range eventTypes {
		args = append(args, t)
	}
	args = append(args, limit)

	rows, err := es.db.QueryContext(ctx,
		`SELECT stream_position, event_id, aggregate_id, aggregate_type, event_type, event_data, metadata, sequence_number, created_at
		 FROM events
		 WHERE stream_position > ? AND event_type IN (`+placeholders+`)
		 ORDER BY stream_position ASC
		 LIMIT ?`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("query stream by types: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

// MaxStreamPosition returns the highest committed stream position.
func (es *SQLiteEventStore) MaxStreamPosition(ctx context.Context) (int64, error) {
	var max int64
	err := es.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(stream_position), 0) FROM events`,
	).Scan(&max)
	if err != nil {
		return 0, fmt.Errorf("query max stream position: %w", err)
	}
	return max, nil
}

// GetSnapshot returns the latest snapshot for an aggregate, or nil when none
// exists.
func (es *SQLiteEventStore) GetSnapshot(ctx context.Context, aggregateID string) (*Snapshot, error) {
	var (
		snap  Snapshot
		state string
	)
	err := es.db.QueryRowContext(ctx,
		`SELECT aggregate_id, aggregate_type, version, state, created_at
		 FROM snapshots
		 WHERE aggregate_id = ?
		 ORDER BY version DESC
		 LIMIT 1`,
		aggregateID,
	).Scan(&snap.AggregateID, &snap.AggregateType, &snap.Version, &state, &snap.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query snapshot: %w", err)
	}
	snap.State = json.RawMessage(state)
	return &snap, nil
}

// SaveSnapshot stores a snapshot, write-once per (aggregate, version).
func (es *SQLiteEventStore) SaveSnapshot(ctx context.Context, snapshot *Snapshot) error {
	if snapshot.CreatedAt.IsZero() {
		snapshot.CreatedAt = time.Now().UTC()
	}
	_, err := es.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO snapshots (aggregate_id, aggregate_type, version, state, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		snapshot.AggregateID,
		snapshot.AggregateType,
		snapshot.Version,
		string(snapshot.State),
		snapshot.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}
	return nil
}

func scanEvents(rows *sql.Rows) ([]Event, error) {
	var events []Event
	for rows.Next() {
		var (
			e      Event
			data   string
			mdJSON string
		)
		err := rows.Scan(&e.StreamPosition, &e.EventID, &e.AggregateID, &e.AggregateType,
			&e.EventType, &data, &mdJSON, &e.SequenceNumber, &e.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		e.Data = json.RawMessage(data)
		if err := json.Unmarshal([]byte(mdJSON), &e.Metadata); err != nil {
			return nil, fmt.Errorf("decode metadata at position %d: %w", e.StreamPosition, err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}

var _ EventStoreInterface = (*SQLiteEventStore)(nil)
