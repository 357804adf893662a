package category

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/example/notelog/internal/domain/aggregate"
	"github.com/example/notelog/internal/infrastructure/store"
	"github.com/google/uuid"
)

const AggregateType = "Category"

var (
	ErrInvalidName     = errors.New("name is required")
	ErrCategoryDeleted = errors.New("category is deleted")
	ErrOwnParent       = errors.New("category cannot be its own parent")
)

// Category is a node in the user's folder tree.
type Category struct {
	aggregate.Base
	Name      string    `json:"name"`
	ParentID  string    `json:"parent_id"`
	SortOrder int       `json:"sort_order"`
	Deleted   bool      `json:"deleted"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewEmpty returns a category ready for hydration by replay.
func NewEmpty() *Category { return &Category{} }

// New creates a category, raising CategoryCreated.
func New(name, parentID string, sortOrder int) (*Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidName
	}

	c := NewEmpty()
	err := c.raise(&CategoryCreated{
		CategoryID: uuid.New().String(),
		Name:       name,
		ParentID:   parentID,
		SortOrder:  sortOrder,
		CreatedAt:  time.Now().UTC(),
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Category) AggregateType() string { return AggregateType }

// Rename changes the category name.
func (c *Category) Rename(name string) error {
	if c.Deleted {
		return ErrCategoryDeleted
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrInvalidName
	}
	return c.raise(&CategoryRenamed{CategoryID: c.ID, Name: name, RenamedAt: time.Now().UTC()})
}

// Move reparents the category. An empty parent id makes it a root.
func (c *Category) Move(parentID string) error {
	if c.Deleted {
		return ErrCategoryDeleted
	}
	if parentID == c.ID {
		return ErrOwnParent
	}
	if parentID == c.ParentID {
		return nil
	}
	return c.raise(&CategoryMoved{CategoryID: c.ID, ParentID: parentID, MovedAt: time.Now().UTC()})
}

// Reorder changes the sort position among siblings.
func (c *Category) Reorder(sortOrder int) error {
	if c.Deleted {
		return ErrCategoryDeleted
	}
	if sortOrder == c.SortOrder {
		return nil
	}
	return c.raise(&CategoryReordered{CategoryID: c.ID, SortOrder: sortOrder, ReorderedAt: time.Now().UTC()})
}

// Delete tombstones the category.
func (c *Category) Delete() error {
	if c.Deleted {
		return nil
	}
	return c.raise(&CategoryDeleted{CategoryID: c.ID, DeletedAt: time.Now().UTC()})
}

// Apply transitions category state for one event.
func (c *Category) Apply(event store.DomainEvent) error {
	switch e := event.(type) {
	case *CategoryCreated:
		c.ID = e.CategoryID
		c.Name = e.Name
		c.ParentID = e.ParentID
		c.SortOrder = e.SortOrder
		c.CreatedAt = e.CreatedAt
		c.UpdatedAt = e.CreatedAt
	case *CategoryRenamed:
		c.Name = e.Name
		c.UpdatedAt = e.RenamedAt
	case *CategoryMoved:
		c.ParentID = e.ParentID
		c.UpdatedAt = e.MovedAt
	case *CategoryReordered:
		c.SortOrder = e.SortOrder
		c.UpdatedAt = e.ReorderedAt
	case *CategoryDeleted:
		c.Deleted = true
		c.UpdatedAt = e.DeletedAt
	default:
		return fmt.Errorf("category: unexpected event %T", event)
	}
	return nil
}

func (c *Category) raise(event store.DomainEvent) error {
	if err := c.Apply(event); err != nil {
		return err
	}
	c.Record(event)
	return nil
}
