package note

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTitle_Valid(t *testing.T) {
	title, err := NewTitle("  Meeting notes  ")

	require.NoError(t, err)
	assert.Equal(t, "Meeting notes", title.String())
	assert.False(t, title.IsZero())
}

func TestNewTitle_Empty(t *testing.T) {
	_, err := NewTitle("   ")

	assert.ErrorIs(t, err, ErrEmptyTitle)
}

func TestNewTitle_TooLong(t *testing.T) {
	_, err := NewTitle(strings.Repeat("x", 201))

	assert.ErrorIs(t, err, ErrTitleTooLong)
}

func TestNewTitle_MaxLengthCountsRunes(t *testing.T) {
	// 200 multibyte runes are fine even though the byte count is larger.
	title, err := NewTitle(strings.Repeat("ノ", 200))

	require.NoError(t, err)
	assert.Equal(t, 200, len([]rune(title.String())))
}

func TestTitle_MarshalJSON_BareString(t *testing.T) {
	title, err := NewTitle("Shopping list")
	require.NoError(t, err)

	data, err := json.Marshal(title)
	require.NoError(t, err)
	assert.Equal(t, `"Shopping list"`, string(data))
}

func TestTitle_UnmarshalJSON_BareString(t *testing.T) {
	var title Title
	require.NoError(t, json.Unmarshal([]byte(`"Shopping list"`), &title))
	assert.Equal(t, "Shopping list", title.String())
}

func TestTitle_UnmarshalJSON_LegacyObject(t *testing.T) {
	// Rows persisted before the compact encoding carry {"value": "..."}.
	var title Title
	require.NoError(t, json.Unmarshal([]byte(`{"value":"Old row"}`), &title))
	assert.Equal(t, "Old row", title.String())
}

func TestTitle_UnmarshalJSON_UnsupportedShape(t *testing.T) {
	var title Title
	assert.Error(t, json.Unmarshal([]byte(`42`), &title))
}
