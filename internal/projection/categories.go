package projection

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/example/notelog/internal/domain/category"
	"github.com/example/notelog/internal/infrastructure/store"
)

const categoryTreeSchema = `
CREATE TABLE IF NOT EXISTS categories_view (
    id         TEXT PRIMARY KEY,
    name       TEXT NOT NULL,
    parent_id  TEXT NOT NULL DEFAULT '',
    sort_order INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_categories_view_parent ON categories_view(parent_id);
`

// CategoryTreeProjection maintains the folder tree read model. Owns
// categories_view.
type CategoryTreeProjection struct {
	Base
}

func NewCategoryTreeProjection(db *sql.DB, serializer *store.Serializer) (*CategoryTreeProjection, error) {
	if _, err := db.Exec(categoryTreeSchema); err != nil {
		return nil, fmt.Errorf("create category tree schema: %w", err)
	}
	return &CategoryTreeProjection{Base: NewBase(db, serializer)}, nil
}

func (p *CategoryTreeProjection) Name() string { return "category_tree" }

func (p *CategoryTreeProjection) Handle(ctx context.Context, event store.Event) error {
	domainEvent, err := p.Decode(event)
	if err != nil {
		return err
	}

	switch e := domainEvent.(type) {
	case *category.CategoryCreated:
		_, err = p.DB().ExecContext(ctx,
			`INSERT INTO categories_view (id, name, parent_id, sort_order, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?)
			 ON CONFLICT(id) DO UPDATE SET
			   name = excluded.name,
			   parent_id = excluded.parent_id,
			   sort_order = excluded.sort_order,
			   created_at = excluded.created_at,
			   updated_at = excluded.updated_at`,
			e.CategoryID, e.Name, e.ParentID, e.SortOrder, e.CreatedAt, e.CreatedAt,
		)
	case *category.CategoryRenamed:
		_, err = p.DB().ExecContext(ctx,
			`UPDATE categories_view SET name = ?, updated_at = ? WHERE id = ?`,
			e.Name, e.RenamedAt, e.CategoryID,
		)
	case *category.CategoryMoved:
		_, err = p.DB().ExecContext(ctx,
			`UPDATE categories_view SET parent_id = ?, updated_at = ? WHERE id = ?`,
			e.ParentID, e.MovedAt, e.CategoryID,
		)
	case *category.CategoryReordered:
		_, err = p.DB().ExecContext(ctx,
			`UPDATE categories_view SET sort_order = ?, updated_at = ? WHERE id = ?`,
			e.SortOrder, e.ReorderedAt, e.CategoryID,
		)
	case *category.CategoryDeleted:
		// Children of a deleted category become roots.
		if _, err = p.DB().ExecContext(ctx,
			`UPDATE categories_view SET parent_id = '', updated_at = ? WHERE parent_id = ?`,
			e.DeletedAt, e.CategoryID,
		); err != nil {
			break
		}
		_, err = p.DB().ExecContext(ctx,
			`DELETE FROM categories_view WHERE id = ?`, e.CategoryID,
		)
	}
	if err != nil {
		return fmt.Errorf("category tree: apply %s: %w", event.EventType, err)
	}
	return nil
}

func (p *CategoryTreeProjection) Reset(ctx context.Context) error {
	if _, err := p.DB().ExecContext(ctx, `DELETE FROM categories_view`); err != nil {
		return fmt.Errorf("category tree: reset: %w", err)
	}
	return nil
}

var _ Projection = (*CategoryTreeProjection)(nil)
