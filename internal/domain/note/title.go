package note

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

const maxTitleLength = 200

var (
	ErrEmptyTitle   = errors.New("title is required")
	ErrTitleTooLong = errors.New("title exceeds maximum length")
)

// Title is the validated note title. It has a private field so a Title can
// only be produced through NewTitle, keeping invalid titles out of events and
// snapshots.
type Title struct {
	value string
}

// NewTitle validates and normalizes a raw title.
func NewTitle(raw string) (Title, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Title{}, ErrEmptyTitle
	}
	if utf8.RuneCountInString(trimmed) > maxTitleLength {
		return Title{}, ErrTitleTooLong
	}
	return Title{value: trimmed}, nil
}

func (t Title) String() string { return t.value }
func (t Title) IsZero() bool   { return t.value == "" }

// MarshalJSON writes the canonical compact encoding: a bare string.
func (t Title) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.value)
}

// UnmarshalJSON accepts both the canonical bare-string encoding and the
// legacy object encoding {"value": "..."} present in rows persisted before
// the compact form was introduced. The shape is picked by inspecting the
// payload at read time.
func (t *Title) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if len(trimmed) == 0 {
		return fmt.Errorf("empty title payload")
	}
	switch trimmed[0] {
	case '"':
		return json.Unmarshal(data, &t.value)
	case '{':
		var legacy struct {
			Value string `json:"value"`
		}
		if err := json.Unmarshal(data, &legacy); err != nil {
			return fmt.Errorf("decode legacy title: %w", err)
		}
		t.value = legacy.Value
		return nil
	default:
		return fmt.Errorf("unsupported title encoding: %s", trimmed)
	}
}
