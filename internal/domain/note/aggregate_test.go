package note

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestNote(t *testing.T) *Note {
	t.Helper()
	n, err := New("Meeting notes", "Discuss roadmap", "cat-1")
	require.NoError(t, err)
	n.MarkCommitted(len(n.UncommittedEvents()))
	return n
}

// ============================================
// Create Tests
// ============================================

func TestNew_ValidNote(t *testing.T) {
	n, err := New("Meeting notes", "Discuss roadmap", "cat-1")

	require.NoError(t, err)
	assert.NotEmpty(t, n.ID)
	assert.Equal(t, "Meeting notes", n.Title.String())
	assert.Equal(t, "Discuss roadmap", n.Content)
	assert.Equal(t, "cat-1", n.CategoryID)
	assert.False(t, n.Pinned)
	assert.False(t, n.Archived)

	events := n.UncommittedEvents()
	require.Len(t, events, 1)
	assert.Equal(t, EventNoteCreated, events[0].EventType())
}

func TestNew_EmptyTitle(t *testing.T) {
	n, err := New("  ", "content", "")

	assert.ErrorIs(t, err, ErrEmptyTitle)
	assert.Nil(t, n)
}

// ============================================
// Mutation Tests
// ============================================

func TestNote_Rename(t *testing.T) {
	n := newTestNote(t)

	require.NoError(t, n.Rename("New title"))

	assert.Equal(t, "New title", n.Title.String())
	events := n.UncommittedEvents()
	require.Len(t, events, 1)
	assert.Equal(t, EventNoteRenamed, events[0].EventType())
}

func TestNote_Rename_InvalidTitleRaisesNothing(t *testing.T) {
	n := newTestNote(t)

	err := n.Rename("")

	assert.ErrorIs(t, err, ErrEmptyTitle)
	assert.Empty(t, n.UncommittedEvents())
	assert.Equal(t, "Meeting notes", n.Title.String())
}

func TestNote_Move_SameCategoryIsNoOp(t *testing.T) {
	n := newTestNote(t)

	require.NoError(t, n.Move("cat-1"))

	assert.Empty(t, n.UncommittedEvents())
}

// ============================================
// Tag Tests
// ============================================

func TestNote_AttachTag_Normalizes(t *testing.T) {
	n := newTestNote(t)

	require.NoError(t, n.AttachTag("  WorK  "))

	assert.Equal(t, []string{"work"}, n.Tags)
}

func TestNote_AttachTag_Duplicate(t *testing.T) {
	n := newTestNote(t)
	require.NoError(t, n.AttachTag("work"))

	err := n.AttachTag("WORK")

	assert.ErrorIs(t, err, ErrDuplicateTag)
	assert.Equal(t, []string{"work"}, n.Tags)
}

func TestNote_AttachTag_Empty(t *testing.T) {
	n := newTestNote(t)

	assert.ErrorIs(t, n.AttachTag("   "), ErrInvalidTag)
}

func TestNote_DetachTag(t *testing.T) {
	n := newTestNote(t)
	require.NoError(t, n.AttachTag("work"))
	require.NoError(t, n.AttachTag("urgent"))

	require.NoError(t, n.DetachTag("work"))

	assert.Equal(t, []string{"urgent"}, n.Tags)
}

func TestNote_DetachTag_NotAttached(t *testing.T) {
	n := newTestNote(t)

	assert.ErrorIs(t, n.DetachTag("missing"), ErrTagNotFound)
}

// ============================================
// Pin / Archive Tests
// ============================================

func TestNote_Pin_TwiceIsNoOp(t *testing.T) {
	n := newTestNote(t)

	require.NoError(t, n.Pin())
	require.Len(t, n.UncommittedEvents(), 1)

	require.NoError(t, n.Pin())
	assert.Len(t, n.UncommittedEvents(), 1)
	assert.True(t, n.Pinned)
}

func TestNote_Unpin_WhenNotPinnedIsNoOp(t *testing.T) {
	n := newTestNote(t)

	require.NoError(t, n.Unpin())

	assert.Empty(t, n.UncommittedEvents())
}

func TestNote_ArchiveAndRestore(t *testing.T) {
	n := newTestNote(t)

	require.NoError(t, n.Archive())
	assert.True(t, n.Archived)

	require.NoError(t, n.Restore())
	assert.False(t, n.Archived)

	events := n.UncommittedEvents()
	require.Len(t, events, 2)
	assert.Equal(t, EventNoteArchived, events[0].EventType())
	assert.Equal(t, EventNoteRestored, events[1].EventType())
}

// ============================================
// Delete Tests
// ============================================

func TestNote_Delete_BlocksFurtherMutations(t *testing.T) {
	n := newTestNote(t)
	require.NoError(t, n.Delete())
	assert.True(t, n.Deleted)

	assert.ErrorIs(t, n.Rename("x"), ErrNoteDeleted)
	assert.ErrorIs(t, n.UpdateContent("x"), ErrNoteDeleted)
	assert.ErrorIs(t, n.AttachTag("x"), ErrNoteDeleted)
	assert.ErrorIs(t, n.Pin(), ErrNoteDeleted)
	assert.ErrorIs(t, n.Archive(), ErrNoteDeleted)
}

func TestNote_Delete_TwiceIsNoOp(t *testing.T) {
	n := newTestNote(t)
	require.NoError(t, n.Delete())
	require.Len(t, n.UncommittedEvents(), 1)

	require.NoError(t, n.Delete())
	assert.Len(t, n.UncommittedEvents(), 1)
}

// ============================================
// Replay Tests
// ============================================

func TestNote_Replay_MatchesLiveState(t *testing.T) {
	n, err := New("Meeting notes", "Discuss roadmap", "cat-1")
	require.NoError(t, err)
	require.NoError(t, n.Rename("Roadmap"))
	require.NoError(t, n.UpdateContent("Q3 planning"))
	require.NoError(t, n.AttachTag("work"))
	require.NoError(t, n.AttachTag("planning"))
	require.NoError(t, n.DetachTag("work"))
	require.NoError(t, n.Pin())
	require.NoError(t, n.Move("cat-2"))

	replayed := NewEmpty()
	for _, event := range n.UncommittedEvents() {
		require.NoError(t, replayed.Apply(event))
	}

	assert.Equal(t, n.ID, replayed.ID)
	assert.Equal(t, n.Title, replayed.Title)
	assert.Equal(t, n.Content, replayed.Content)
	assert.Equal(t, n.CategoryID, replayed.CategoryID)
	assert.Equal(t, n.Tags, replayed.Tags)
	assert.Equal(t, n.Pinned, replayed.Pinned)
	assert.Equal(t, n.Archived, replayed.Archived)
	assert.Equal(t, n.UpdatedAt, replayed.UpdatedAt)
}

type unrelatedEvent struct{}

func (unrelatedEvent) EventType() string { return "Unrelated" }

func TestNote_Apply_UnexpectedEvent(t *testing.T) {
	n := NewEmpty()

	err := n.Apply(unrelatedEvent{})

	assert.Error(t, err)
}
