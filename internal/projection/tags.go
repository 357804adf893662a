package projection

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/example/notelog/internal/domain/note"
	"github.com/example/notelog/internal/domain/tag"
	"github.com/example/notelog/internal/infrastructure/store"
)

const tagCatalogSchema = `
CREATE TABLE IF NOT EXISTS tags_view (
    name       TEXT PRIMARY KEY,
    tag_id     TEXT NOT NULL DEFAULT '',
    color      TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS tag_assignments (
    note_id TEXT NOT NULL,
    tag     TEXT NOT NULL,
    PRIMARY KEY (note_id, tag)
);

CREATE INDEX IF NOT EXISTS idx_tag_assignments_tag ON tag_assignments(tag);
`

// TagCatalogProjection maintains the tag catalog and its note assignments.
// Owns tags_view and tag_assignments. Usage counts are always derived by
// counting assignment rows; the projection never keeps a running counter, so
// re-applying an event cannot drift the count.
type TagCatalogProjection struct {
	Base
}

func NewTagCatalogProjection(db *sql.DB, serializer *store.Serializer) (*TagCatalogProjection, error) {
	if _, err := db.Exec(tagCatalogSchema); err != nil {
		return nil, fmt.Errorf("create tag catalog schema: %w", err)
	}
	return &TagCatalogProjection{Base: NewBase(db, serializer)}, nil
}

func (p *TagCatalogProjection) Name() string { return "tag_catalog" }

func (p *TagCatalogProjection) Handle(ctx context.Context, event store.Event) error {
	domainEvent, err := p.Decode(event)
	if err != nil {
		return err
	}

	switch e := domainEvent.(type) {
	case *tag.TagCreated:
		_, err = p.DB().ExecContext(ctx,
			`INSERT INTO tags_view (name, tag_id, color, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?)
			 ON CONFLICT(name) DO UPDATE SET
			   tag_id = excluded.tag_id,
			   color = excluded.color,
			   updated_at = excluded.updated_at`,
			e.Name, e.TagID, e.Color, e.CreatedAt, e.CreatedAt,
		)
	case *tag.TagRenamed:
		// The target name may already hold a catalog row (an ad-hoc row from
		// NoteTagged). Merge into it instead of colliding on the name key,
		// then drop the row under the old name.
		if _, err = p.DB().ExecContext(ctx,
			`INSERT INTO tags_view (name, tag_id, color, created_at, updated_at)
			 SELECT ?, tag_id, color, created_at, ?
			 FROM tags_view WHERE tag_id = ?
			 ON CONFLICT(name) DO UPDATE SET
			   tag_id = excluded.tag_id,
			   color = excluded.color,
			   updated_at = excluded.updated_at`,
			e.Name, e.RenamedAt, e.TagID,
		); err != nil {
			break
		}
		_, err = p.DB().ExecContext(ctx,
			`DELETE FROM tags_view WHERE tag_id = ? AND name <> ?`,
			e.TagID, e.Name,
		)
	case *tag.TagColorChanged:
		_, err = p.DB().ExecContext(ctx,
			`UPDATE tags_view SET color = ?, updated_at = ? WHERE tag_id = ?`,
			e.Color, e.ChangedAt, e.TagID,
		)
	case *tag.TagDeleted:
		_, err = p.DB().ExecContext(ctx,
			`DELETE FROM tags_view WHERE tag_id = ?`, e.TagID,
		)
	case *note.NoteTagged:
		// Ad-hoc tags used on notes before being formally created still get
		// a catalog row.
		if _, err = p.DB().ExecContext(ctx,
			`INSERT OR IGNORE INTO tags_view (name, created_at, updated_at) VALUES (?, ?, ?)`,
			e.Tag, e.TaggedAt, e.TaggedAt,
		); err != nil {
			break
		}
		_, err = p.DB().ExecContext(ctx,
			`INSERT OR IGNORE INTO tag_assignments (note_id, tag) VALUES (?, ?)`,
			e.NoteID, e.Tag,
		)
	case *note.NoteUntagged:
		_, err = p.DB().ExecContext(ctx,
			`DELETE FROM tag_assignments WHERE note_id = ? AND tag = ?`,
			e.NoteID, e.Tag,
		)
	case *note.NoteDeleted:
		_, err = p.DB().ExecContext(ctx,
			`DELETE FROM tag_assignments WHERE note_id = ?`, e.NoteID,
		)
	}
	if err != nil {
		return fmt.Errorf("tag catalog: apply %s: %w", event.EventType, err)
	}
	return nil
}

func (p *TagCatalogProjection) Reset(ctx context.Context) error {
	for _, table := range []string{"tag_assignments", "tags_view"} {
		if _, err := p.DB().ExecContext(ctx, `DELETE FROM `+table); err != nil {
			return fmt.Errorf("tag catalog: reset %s: %w", table, err)
		}
	}
	return nil
}

var _ Projection = (*TagCatalogProjection)(nil)
