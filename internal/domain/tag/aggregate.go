package tag

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/example/notelog/internal/domain/aggregate"
	"github.com/example/notelog/internal/infrastructure/store"
	"github.com/google/uuid"
)

const AggregateType = "Tag"

var (
	ErrInvalidName  = errors.New("tag name is required")
	ErrInvalidColor = errors.New("invalid color format")
	ErrTagDeleted   = errors.New("tag is deleted")
)

// colorRegex validates hex colors like #fff or #a1b2c3
var colorRegex = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// Tag is user-defined note labeling metadata. The label itself travels on
// note events; this aggregate owns the tag's display properties.
type Tag struct {
	aggregate.Base
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	Deleted   bool      `json:"deleted"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewEmpty returns a tag ready for hydration by replay.
func NewEmpty() *Tag { return &Tag{} }

// New creates a tag, raising TagCreated.
func New(name, color string) (*Tag, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return nil, ErrInvalidName
	}
	if color != "" && !colorRegex.MatchString(color) {
		return nil, ErrInvalidColor
	}

	t := NewEmpty()
	err := t.raise(&TagCreated{
		TagID:     uuid.New().String(),
		Name:      name,
		Color:     color,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Tag) AggregateType() string { return AggregateType }

// Rename changes the tag name.
func (t *Tag) Rename(name string) error {
	if t.Deleted {
		return ErrTagDeleted
	}
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return ErrInvalidName
	}
	return t.raise(&TagRenamed{TagID: t.ID, Name: name, RenamedAt: time.Now().UTC()})
}

// ChangeColor updates the display color.
func (t *Tag) ChangeColor(color string) error {
	if t.Deleted {
		return ErrTagDeleted
	}
	if !colorRegex.MatchString(color) {
		return ErrInvalidColor
	}
	return t.raise(&TagColorChanged{TagID: t.ID, Color: color, ChangedAt: time.Now().UTC()})
}

// Delete tombstones the tag.
func (t *Tag) Delete() error {
	if t.Deleted {
		return nil
	}
	return t.raise(&TagDeleted{TagID: t.ID, DeletedAt: time.Now().UTC()})
}

// Apply transitions tag state for one event.
func (t *Tag) Apply(event store.DomainEvent) error {
	switch e := event.(type) {
	case *TagCreated:
		t.ID = e.TagID
		t.Name = e.Name
		t.Color = e.Color
		t.CreatedAt = e.CreatedAt
		t.UpdatedAt = e.CreatedAt
	case *TagRenamed:
		t.Name = e.Name
		t.UpdatedAt = e.RenamedAt
	case *TagColorChanged:
		t.Color = e.Color
		t.UpdatedAt = e.ChangedAt
	case *TagDeleted:
		t.Deleted = true
		t.UpdatedAt = e.DeletedAt
	default:
		return fmt.Errorf("tag: unexpected event %T", event)
	}
	return nil
}

func (t *Tag) raise(event store.DomainEvent) error {
	if err := t.Apply(event); err != nil {
		return err
	}
	t.Record(event)
	return nil
}
