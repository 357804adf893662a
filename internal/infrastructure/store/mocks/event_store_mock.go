package mocks

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/example/notelog/internal/infrastructure/store"
	"github.com/google/uuid"
)

// MockEventStore is an in-memory implementation of EventStoreInterface for
// testing. It honors optimistic concurrency and assigns stream positions in
// commit order, so store-level behavior can be exercised without SQLite.
type MockEventStore struct {
	mu         sync.RWMutex
	serializer *store.Serializer
	events     map[string][]store.Event // aggregateID -> events
	snapshots  map[string][]*store.Snapshot
	position   int64

	// For tracking calls in tests
	SaveCalls []SaveCall
	SaveErr   error
}

// SaveCall records parameters passed to Save
type SaveCall struct {
	AggregateID     string
	ExpectedVersion int
	EventCount      int
}

// NewMockEventStore creates a new MockEventStore
func NewMockEventStore(serializer *store.Serializer) *MockEventStore {
	return &MockEventStore{
		serializer: serializer,
		events:     make(map[string][]store.Event),
		snapshots:  make(map[string][]*store.Snapshot),
	}
}

// Save appends the aggregate's uncommitted events in memory
func (m *MockEventStore) Save(ctx context.Context, agg store.Persistable, expectedVersion int) ([]store.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	pending := agg.UncommittedEvents()
	m.SaveCalls = append(m.SaveCalls, SaveCall{
		AggregateID:     agg.AggregateID(),
		ExpectedVersion: expectedVersion,
		EventCount:      len(pending),
	})

	if m.SaveErr != nil {
		return nil, m.SaveErr
	}
	if len(pending) == 0 {
		return nil, store.ErrNoUncommittedEvents
	}

	currentVersion := len(m.events[agg.AggregateID()])
	if currentVersion != expectedVersion {
		return nil, &store.ConcurrencyConflictError{
			AggregateID:     agg.AggregateID(),
			ExpectedVersion: expectedVersion,
			ActualVersion:   currentVersion,
		}
	}

	now := time.Now().UTC()
	saved := make([]store.Event, 0, len(pending))
	for i, domainEvent := range pending {
		tag, data, err := m.serializer.Serialize(domainEvent)
		if err != nil {
			return nil, err
		}
		m.position++
		event := store.Event{
			EventID:        uuid.New().String(),
			AggregateID:    agg.AggregateID(),
			AggregateType:  agg.AggregateType(),
			EventType:      tag,
			Data:           data,
			Metadata:       store.Metadata{CreatedAt: now},
			SequenceNumber: expectedVersion + i + 1,
			StreamPosition: m.position,
			CreatedAt:      now,
		}
		m.events[agg.AggregateID()] = append(m.events[agg.AggregateID()], event)
		saved = append(saved, event)
	}

	agg.MarkCommitted(expectedVersion + len(pending))
	return saved, nil
}

// GetEvents returns events for an aggregate
func (m *MockEventStore) GetEvents(ctx context.Context, aggregateID string) ([]store.Event, error) {
	return m.GetEventsFromVersion(ctx, aggregateID, 0)
}

// GetEventsFromVersion returns events after the given sequence number
func (m *MockEventStore) GetEventsFromVersion(ctx context.Context, aggregateID string, version int) ([]store.Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var events []store.Event
	for _, e := range m.events[aggregateID] {
		if e.SequenceNumber > version {
			events = append(events, e)
		}
	}
	return events, nil
}

// ReadStream returns events past fromPosition in global order
func (m *MockEventStore) ReadStream(ctx context.Context, fromPosition int64, limit int) ([]store.Event, error) {
	return m.ReadStreamByTypes(ctx, fromPosition, limit)
}

// ReadStreamByTypes returns events past fromPosition restricted to the given tags
func (m *MockEventStore) ReadStreamByTypes(ctx context.Context, fromPosition int64, limit int, eventTypes ...string) ([]store.Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	wanted := make(map[string]bool, len(eventTypes))
	for _, t := range eventTypes {
		wanted[t] = true
	}

	var events []store.Event
	for _, stream := range m.events {
		for _, e := range stream {
			if e.StreamPosition <= fromPosition {
				continue
			}
			if len(wanted) > 0 && !wanted[e.EventType] {
				continue
			}
			events = append(events, e)
		}
	}
	sort.Slice(events, func(i, j int) bool {
		return events[i].StreamPosition < events[j].StreamPosition
	})
	if limit > 0 && len(events) > limit {
		events = events[:limit]
	}
	return events, nil
}

// MaxStreamPosition returns the highest assigned stream position
func (m *MockEventStore) MaxStreamPosition(ctx context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.position, nil
}

// GetSnapshot returns the latest snapshot for an aggregate
func (m *MockEventStore) GetSnapshot(ctx context.Context, aggregateID string) (*store.Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snaps := m.snapshots[aggregateID]
	if len(snaps) == 0 {
		return nil, nil
	}
	latest := snaps[0]
	for _, s := range snaps[1:] {
		if s.Version > latest.Version {
			latest = s
		}
	}
	return latest, nil
}

// SaveSnapshot stores a snapshot, write-once per version
func (m *MockEventStore) SaveSnapshot(ctx context.Context, snapshot *store.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, s := range m.snapshots[snapshot.AggregateID] {
		if s.Version == snapshot.Version {
			return nil
		}
	}
	m.snapshots[snapshot.AggregateID] = append(m.snapshots[snapshot.AggregateID], snapshot)
	return nil
}

// Reset clears all events, snapshots and recorded calls
func (m *MockEventStore) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = make(map[string][]store.Event)
	m.snapshots = make(map[string][]*store.Snapshot)
	m.position = 0
	m.SaveCalls = nil
	m.SaveErr = nil
}

var _ store.EventStoreInterface = (*MockEventStore)(nil)
