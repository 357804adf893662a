package category

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCategory(t *testing.T) *Category {
	t.Helper()
	c, err := New("Projects", "", 1)
	require.NoError(t, err)
	c.MarkCommitted(len(c.UncommittedEvents()))
	return c
}

func TestNew_ValidCategory(t *testing.T) {
	c, err := New("  Projects  ", "parent-1", 3)

	require.NoError(t, err)
	assert.NotEmpty(t, c.ID)
	assert.Equal(t, "Projects", c.Name)
	assert.Equal(t, "parent-1", c.ParentID)
	assert.Equal(t, 3, c.SortOrder)

	events := c.UncommittedEvents()
	require.Len(t, events, 1)
	assert.Equal(t, EventCategoryCreated, events[0].EventType())
}

func TestNew_EmptyName(t *testing.T) {
	c, err := New("   ", "", 0)

	assert.ErrorIs(t, err, ErrInvalidName)
	assert.Nil(t, c)
}

func TestCategory_Rename(t *testing.T) {
	c := newTestCategory(t)

	require.NoError(t, c.Rename("Archive"))

	assert.Equal(t, "Archive", c.Name)
}

func TestCategory_Rename_Empty(t *testing.T) {
	c := newTestCategory(t)

	assert.ErrorIs(t, c.Rename("  "), ErrInvalidName)
	assert.Empty(t, c.UncommittedEvents())
}

func TestCategory_Move_OwnParent(t *testing.T) {
	c := newTestCategory(t)

	assert.ErrorIs(t, c.Move(c.ID), ErrOwnParent)
}

func TestCategory_Move_SameParentIsNoOp(t *testing.T) {
	c := newTestCategory(t)

	require.NoError(t, c.Move(""))

	assert.Empty(t, c.UncommittedEvents())
}

func TestCategory_Move_ToRoot(t *testing.T) {
	c, err := New("Projects", "parent-1", 1)
	require.NoError(t, err)
	c.MarkCommitted(1)

	require.NoError(t, c.Move(""))

	assert.Empty(t, c.ParentID)
	assert.Len(t, c.UncommittedEvents(), 1)
}

func TestCategory_Reorder_SameOrderIsNoOp(t *testing.T) {
	c := newTestCategory(t)

	require.NoError(t, c.Reorder(1))

	assert.Empty(t, c.UncommittedEvents())
}

func TestCategory_Delete_BlocksFurtherMutations(t *testing.T) {
	c := newTestCategory(t)
	require.NoError(t, c.Delete())

	assert.ErrorIs(t, c.Rename("x"), ErrCategoryDeleted)
	assert.ErrorIs(t, c.Move("p"), ErrCategoryDeleted)
	assert.ErrorIs(t, c.Reorder(9), ErrCategoryDeleted)
}

func TestCategory_Replay_MatchesLiveState(t *testing.T) {
	c, err := New("Projects", "", 1)
	require.NoError(t, err)
	require.NoError(t, c.Rename("Work"))
	require.NoError(t, c.Move("parent-1"))
	require.NoError(t, c.Reorder(5))

	replayed := NewEmpty()
	for _, event := range c.UncommittedEvents() {
		require.NoError(t, replayed.Apply(event))
	}

	assert.Equal(t, c.ID, replayed.ID)
	assert.Equal(t, c.Name, replayed.Name)
	assert.Equal(t, c.ParentID, replayed.ParentID)
	assert.Equal(t, c.SortOrder, replayed.SortOrder)
	assert.Equal(t, c.UpdatedAt, replayed.UpdatedAt)
}
