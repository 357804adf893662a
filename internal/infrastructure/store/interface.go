package store

import "context"

// EventStoreInterface defines the interface for event stores
type EventStoreInterface interface {
	// Save appends the aggregate's uncommitted events atomically. It fails
	// with a ConcurrencyConflictError when the persisted version no longer
	// equals expectedVersion.
	Save(ctx context.Context, agg Persistable, expectedVersion int) ([]Event, error)

	// GetEvents returns all events for an aggregate in sequence order.
	GetEvents(ctx context.Context, aggregateID string) ([]Event, error)

	// GetEventsFromVersion returns the aggregate's events with a sequence
	// number greater than version.
	GetEventsFromVersion(ctx context.Context, aggregateID string, version int) ([]Event, error)

	// ReadStream returns up to limit events with a stream position greater
	// than fromPosition, in global commit order. limit <= 0 means no limit.
	ReadStream(ctx context.Context, fromPosition int64, limit int) ([]Event, error)

	// ReadStreamByTypes is ReadStream restricted to the given event tags.
	ReadStreamByTypes(ctx context.Context, fromPosition int64, limit int, eventTypes ...string) ([]Event, error)

	// MaxStreamPosition returns the highest committed stream position, or 0
	// for an empty log.
	MaxStreamPosition(ctx context.Context) (int64, error)

	// GetSnapshot returns the latest snapshot for the aggregate, or nil.
	GetSnapshot(ctx context.Context, aggregateID string) (*Snapshot, error)

	// SaveSnapshot stores a snapshot. Write-once per (aggregate, version).
	SaveSnapshot(ctx context.Context, snapshot *Snapshot) error
}
