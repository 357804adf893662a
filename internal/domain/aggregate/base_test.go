package aggregate_test

import (
	"context"
	"testing"

	"github.com/example/notelog/internal/domain/aggregate"
	"github.com/example/notelog/internal/domain/note"
	"github.com/example/notelog/internal/infrastructure/store"
	"github.com/example/notelog/internal/infrastructure/store/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore() (*mocks.MockEventStore, *store.Serializer) {
	serializer := store.NewSerializer()
	serializer.RegisterAll(note.Events()...)
	return mocks.NewMockEventStore(serializer), serializer
}

// ============================================
// Load Tests
// ============================================

func TestLoad_UnknownID(t *testing.T) {
	eventStore, serializer := newTestStore()

	_, found, err := aggregate.Load(context.Background(), eventStore, serializer, "missing", note.NewEmpty)

	require.NoError(t, err)
	assert.False(t, found)
}

func TestLoad_ReplaysEvents(t *testing.T) {
	eventStore, serializer := newTestStore()
	ctx := context.Background()

	n, err := note.New("Meeting notes", "content", "cat-1")
	require.NoError(t, err)
	_, err = eventStore.Save(ctx, n, 0)
	require.NoError(t, err)

	require.NoError(t, n.Rename("Roadmap"))
	require.NoError(t, n.Pin())
	_, err = eventStore.Save(ctx, n, n.GetVersion())
	require.NoError(t, err)

	loaded, found, err := aggregate.Load(ctx, eventStore, serializer, n.ID, note.NewEmpty)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "Roadmap", loaded.Title.String())
	assert.True(t, loaded.Pinned)
	assert.Equal(t, 3, loaded.GetVersion())
	assert.Empty(t, loaded.UncommittedEvents())
}

func TestLoad_FromSnapshot(t *testing.T) {
	eventStore, serializer := newTestStore()
	ctx := context.Background()

	n, err := note.New("Meeting notes", "content", "")
	require.NoError(t, err)
	_, err = eventStore.Save(ctx, n, 0)
	require.NoError(t, err)

	// Nine more events push the version to the snapshot threshold.
	for i := 0; i < 9; i++ {
		if i%2 == 0 {
			require.NoError(t, n.Pin())
		} else {
			require.NoError(t, n.Unpin())
		}
		_, err = eventStore.Save(ctx, n, n.GetVersion())
		require.NoError(t, err)
	}
	require.Equal(t, store.SnapshotThreshold, n.GetVersion())
	require.NoError(t, aggregate.MaybeSnapshot(ctx, eventStore, n))

	snap, err := eventStore.GetSnapshot(ctx, n.ID)
	require.NoError(t, err)
	require.NotNil(t, snap)

	// One event past the snapshot; load must replay only the tail.
	require.NoError(t, n.Rename("After snapshot"))
	_, err = eventStore.Save(ctx, n, n.GetVersion())
	require.NoError(t, err)

	loaded, found, err := aggregate.Load(ctx, eventStore, serializer, n.ID, note.NewEmpty)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "After snapshot", loaded.Title.String())
	assert.Equal(t, store.SnapshotThreshold+1, loaded.GetVersion())
}

// ============================================
// Snapshot Threshold Tests
// ============================================

func TestMaybeSnapshot_BelowThreshold(t *testing.T) {
	eventStore, _ := newTestStore()
	ctx := context.Background()

	n, err := note.New("Meeting notes", "content", "")
	require.NoError(t, err)
	_, err = eventStore.Save(ctx, n, 0)
	require.NoError(t, err)

	require.NoError(t, aggregate.MaybeSnapshot(ctx, eventStore, n))

	snap, err := eventStore.GetSnapshot(ctx, n.ID)
	require.NoError(t, err)
	assert.Nil(t, snap)
}

func TestMaybeSnapshot_AtThreshold(t *testing.T) {
	eventStore, serializer := newTestStore()
	ctx := context.Background()

	n, err := note.New("Meeting notes", "content", "")
	require.NoError(t, err)
	_, err = eventStore.Save(ctx, n, 0)
	require.NoError(t, err)
	for i := 0; i < store.SnapshotThreshold-1; i++ {
		if i%2 == 0 {
			require.NoError(t, n.Archive())
		} else {
			require.NoError(t, n.Restore())
		}
		_, err = eventStore.Save(ctx, n, n.GetVersion())
		require.NoError(t, err)
	}

	require.NoError(t, aggregate.MaybeSnapshot(ctx, eventStore, n))

	snap, err := eventStore.GetSnapshot(ctx, n.ID)
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, store.SnapshotThreshold, snap.Version)
	assert.Equal(t, note.AggregateType, snap.AggregateType)

	// Snapshot state must hydrate to the same aggregate the events produce.
	loaded, found, err := aggregate.Load(ctx, eventStore, serializer, n.ID, note.NewEmpty)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, n.Archived, loaded.Archived)
	assert.Equal(t, n.GetVersion(), loaded.GetVersion())
}
