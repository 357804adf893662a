package todo

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

const maxTextLength = 500

var (
	ErrEmptyText   = errors.New("todo text is required")
	ErrTextTooLong = errors.New("todo text exceeds maximum length")
)

// Text is the validated todo description. Construction goes through NewText
// so persisted events never carry an invalid value.
type Text struct {
	value string
}

// NewText validates and normalizes raw todo text.
func NewText(raw string) (Text, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Text{}, ErrEmptyText
	}
	if utf8.RuneCountInString(trimmed) > maxTextLength {
		return Text{}, ErrTextTooLong
	}
	return Text{value: trimmed}, nil
}

func (t Text) String() string { return t.value }
func (t Text) IsZero() bool   { return t.value == "" }

// MarshalJSON writes the canonical compact encoding: a bare string.
func (t Text) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.value)
}

// UnmarshalJSON accepts the canonical bare-string encoding and the legacy
// {"value": "..."} object encoding, chosen by payload shape at read time.
func (t *Text) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if len(trimmed) == 0 {
		return fmt.Errorf("empty todo text payload")
	}
	switch trimmed[0] {
	case '"':
		return json.Unmarshal(data, &t.value)
	case '{':
		var legacy struct {
			Value string `json:"value"`
		}
		if err := json.Unmarshal(data, &legacy); err != nil {
			return fmt.Errorf("decode legacy todo text: %w", err)
		}
		t.value = legacy.Value
		return nil
	default:
		return fmt.Errorf("unsupported todo text encoding: %s", trimmed)
	}
}
