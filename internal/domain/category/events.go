package category

import (
	"time"

	"github.com/example/notelog/internal/infrastructure/store"
)

const (
	EventCategoryCreated   = "CategoryCreated"
	EventCategoryRenamed   = "CategoryRenamed"
	EventCategoryMoved     = "CategoryMoved"
	EventCategoryReordered = "CategoryReordered"
	EventCategoryDeleted   = "CategoryDeleted"
)

// CategoryCreated is emitted when a new category is created
type CategoryCreated struct {
	CategoryID string    `json:"category_id"`
	Name       string    `json:"name"`
	ParentID   string    `json:"parent_id,omitempty"`
	SortOrder  int       `json:"sort_order"`
	CreatedAt  time.Time `json:"created_at"`
}

func (CategoryCreated) EventType() string { return EventCategoryCreated }

// CategoryRenamed is emitted when a category is renamed
type CategoryRenamed struct {
	CategoryID string    `json:"category_id"`
	Name       string    `json:"name"`
	RenamedAt  time.Time `json:"renamed_at"`
}

func (CategoryRenamed) EventType() string { return EventCategoryRenamed }

// CategoryMoved is emitted when a category gets a new parent
type CategoryMoved struct {
	CategoryID string    `json:"category_id"`
	ParentID   string    `json:"parent_id"`
	MovedAt    time.Time `json:"moved_at"`
}

func (CategoryMoved) EventType() string { return EventCategoryMoved }

// CategoryReordered is emitted when a category's sort position changes
type CategoryReordered struct {
	CategoryID  string    `json:"category_id"`
	SortOrder   int       `json:"sort_order"`
	ReorderedAt time.Time `json:"reordered_at"`
}

func (CategoryReordered) EventType() string { return EventCategoryReordered }

// CategoryDeleted is emitted when a category is deleted
type CategoryDeleted struct {
	CategoryID string    `json:"category_id"`
	DeletedAt  time.Time `json:"deleted_at"`
}

func (CategoryDeleted) EventType() string { return EventCategoryDeleted }

// Events returns a factory per category event type for serializer registration.
func Events() []func() store.DomainEvent {
	return []func() store.DomainEvent{
		func() store.DomainEvent { return &CategoryCreated{} },
		func() store.DomainEvent { return &CategoryRenamed{} },
		func() store.DomainEvent { return &CategoryMoved{} },
		func() store.DomainEvent { return &CategoryReordered{} },
		func() store.DomainEvent { return &CategoryDeleted{} },
	}
}
