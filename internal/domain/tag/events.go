package tag

import (
	"time"

	"github.com/example/notelog/internal/infrastructure/store"
)

const (
	EventTagCreated      = "TagCreated"
	EventTagRenamed      = "TagRenamed"
	EventTagColorChanged = "TagColorChanged"
	EventTagDeleted      = "TagDeleted"
)

// TagCreated is emitted when a new tag is created
type TagCreated struct {
	TagID     string    `json:"tag_id"`
	Name      string    `json:"name"`
	Color     string    `json:"color,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (TagCreated) EventType() string { return EventTagCreated }

// TagRenamed is emitted when a tag is renamed
type TagRenamed struct {
	TagID     string    `json:"tag_id"`
	Name      string    `json:"name"`
	RenamedAt time.Time `json:"renamed_at"`
}

func (TagRenamed) EventType() string { return EventTagRenamed }

// TagColorChanged is emitted when a tag's display color changes
type TagColorChanged struct {
	TagID     string    `json:"tag_id"`
	Color     string    `json:"color"`
	ChangedAt time.Time `json:"changed_at"`
}

func (TagColorChanged) EventType() string { return EventTagColorChanged }

// TagDeleted is emitted when a tag is deleted
type TagDeleted struct {
	TagID     string    `json:"tag_id"`
	DeletedAt time.Time `json:"deleted_at"`
}

func (TagDeleted) EventType() string { return EventTagDeleted }

// Events returns a factory per tag event type for serializer registration.
func Events() []func() store.DomainEvent {
	return []func() store.DomainEvent{
		func() store.DomainEvent { return &TagCreated{} },
		func() store.DomainEvent { return &TagRenamed{} },
		func() store.DomainEvent { return &TagColorChanged{} },
		func() store.DomainEvent { return &TagDeleted{} },
	}
}
