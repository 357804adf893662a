package aggregate

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/example/notelog/internal/infrastructure/store"
)

// Aggregate defines the interface for event-sourced aggregates. Apply is a
// total function over the event types the aggregate can produce and is used
// identically for just-raised events and historical replay.
type Aggregate interface {
	store.Persistable
	GetVersion() int
	SetVersion(int)
	Apply(store.DomainEvent) error
}

// Base carries the identity, committed version and pending events shared by
// all aggregates. Embedding types provide AggregateType and Apply.
type Base struct {
	ID      string `json:"id"`
	Version int    `json:"version"` // highest persisted sequence number

	pending []store.DomainEvent
}

func (b *Base) AggregateID() string { return b.ID }
func (b *Base) GetVersion() int     { return b.Version }
func (b *Base) SetVersion(v int)    { b.Version = v }

// UncommittedEvents returns the events raised since the aggregate was loaded.
func (b *Base) UncommittedEvents() []store.DomainEvent { return b.pending }

// MarkCommitted is called by the event store after a successful save.
func (b *Base) MarkCommitted(version int) {
	b.Version = version
	b.pending = nil
}

// Record appends a raised event to the pending list. Callers apply the event
// to in-memory state first so raising and replaying share one code path.
func (b *Base) Record(event store.DomainEvent) {
	b.pending = append(b.pending, event)
}

// Load loads an aggregate by replaying events, starting from the latest
// snapshot when one exists. The second return reports whether any persisted
// data was found; an unknown id is an absent result, not an error.
func Load[T Aggregate](
	ctx context.Context,
	eventStore store.EventStoreInterface,
	serializer *store.Serializer,
	id string,
	newAggregate func() T,
) (T, bool, error) {
	var zero T
	agg := newAggregate()

	snapshot, err := eventStore.GetSnapshot(ctx, id)
	if err != nil {
		return zero, false, fmt.Errorf("failed to get snapshot: %w", err)
	}

	var events []store.Event
	if snapshot != nil {
		if err := json.Unmarshal(snapshot.State, agg); err != nil {
			return zero, false, fmt.Errorf("failed to unmarshal snapshot: %w", err)
		}
		agg.SetVersion(snapshot.Version)
		events, err = eventStore.GetEventsFromVersion(ctx, id, snapshot.Version)
	} else {
		events, err = eventStore.GetEvents(ctx, id)
	}
	if err != nil {
		return zero, false, fmt.Errorf("failed to read events: %w", err)
	}

	hasData := snapshot != nil || len(events) > 0

	for _, event := range events {
		domainEvent, err := serializer.Deserialize(event.EventType, event.Data)
		if err != nil {
			return zero, false, fmt.Errorf("failed to decode event at position %d: %w", event.StreamPosition, err)
		}
		if err := agg.Apply(domainEvent); err != nil {
			return zero, false, fmt.Errorf("failed to apply event: %w", err)
		}
		agg.SetVersion(event.SequenceNumber)
	}

	return agg, hasData, nil
}

// MaybeSnapshot creates a snapshot when the aggregate's version crosses the
// snapshot threshold. Snapshots only shorten replay; failure here never
// affects the write path.
func MaybeSnapshot(
	ctx context.Context,
	eventStore store.EventStoreInterface,
	agg Aggregate,
) error {
	version := agg.GetVersion()
	if version == 0 || version%store.SnapshotThreshold != 0 {
		return nil
	}

	state, err := json.Marshal(agg)
	if err != nil {
		return fmt.Errorf("failed to marshal aggregate state: %w", err)
	}

	snapshot := &store.Snapshot{
		AggregateID:   agg.AggregateID(),
		AggregateType: agg.AggregateType(),
		Version:       version,
		State:         state,
		CreatedAt:     time.Now().UTC(),
	}

	if err := eventStore.SaveSnapshot(ctx, snapshot); err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}
