package projection

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/example/notelog/internal/domain/note"
	"github.com/example/notelog/internal/infrastructure/store"
)

const noteListSchema = `
CREATE TABLE IF NOT EXISTS notes_view (
    id          TEXT PRIMARY KEY,
    title       TEXT NOT NULL,
    snippet     TEXT NOT NULL,
    category_id TEXT NOT NULL DEFAULT '',
    pinned      INTEGER NOT NULL DEFAULT 0,
    archived    INTEGER NOT NULL DEFAULT 0,
    created_at  TIMESTAMP NOT NULL,
    updated_at  TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_notes_view_category ON notes_view(category_id);

CREATE TABLE IF NOT EXISTS note_tags (
    note_id TEXT NOT NULL,
    tag     TEXT NOT NULL,
    PRIMARY KEY (note_id, tag)
);

CREATE INDEX IF NOT EXISTS idx_note_tags_tag ON note_tags(tag);
`

const snippetLength = 200

// NoteListProjection maintains the denormalized note list backing the main
// document tree. Owns notes_view and note_tags.
type NoteListProjection struct {
	Base
}

func NewNoteListProjection(db *sql.DB, serializer *store.Serializer) (*NoteListProjection, error) {
	if _, err := db.Exec(noteListSchema); err != nil {
		return nil, fmt.Errorf("create note list schema: %w", err)
	}
	return &NoteListProjection{Base: NewBase(db, serializer)}, nil
}

func (p *NoteListProjection) Name() string { return "note_list" }

// Handle folds one event into notes_view / note_tags. All writes are
// idempotent upserts or keyed deletes.
func (p *NoteListProjection) Handle(ctx context.Context, event store.Event) error {
	domainEvent, err := p.Decode(event)
	if err != nil {
		return err
	}

	switch e := domainEvent.(type) {
	case *note.NoteCreated:
		_, err = p.DB().ExecContext(ctx,
			`INSERT INTO notes_view (id, title, snippet, category_id, pinned, archived, created_at, updated_at)
			 VALUES (?, ?, ?, ?, 0, 0, ?, ?)
			 ON CONFLICT(id) DO UPDATE SET
			   title = excluded.title,
			   snippet = excluded.snippet,
			   category_id = excluded.category_id,
			   created_at = excluded.created_at,
			   updated_at = excluded.updated_at`,
			e.NoteID, e.Title.String(), snippet(e.Content), e.CategoryID, e.CreatedAt, e.CreatedAt,
		)
	case *note.NoteRenamed:
		_, err = p.DB().ExecContext(ctx,
			`UPDATE notes_view SET title = ?, updated_at = ? WHERE id = ?`,
			e.Title.String(), e.RenamedAt, e.NoteID,
		)
	case *note.NoteContentUpdated:
		_, err = p.DB().ExecContext(ctx,
			`UPDATE notes_view SET snippet = ?, updated_at = ? WHERE id = ?`,
			snippet(e.Content), e.UpdatedAt, e.NoteID,
		)
	case *note.NoteMoved:
		_, err = p.DB().ExecContext(ctx,
			`UPDATE notes_view SET category_id = ?, updated_at = ? WHERE id = ?`,
			e.CategoryID, e.MovedAt, e.NoteID,
		)
	case *note.NoteTagged:
		_, err = p.DB().ExecContext(ctx,
			`INSERT OR IGNORE INTO note_tags (note_id, tag) VALUES (?, ?)`,
			e.NoteID, e.Tag,
		)
	case *note.NoteUntagged:
		_, err = p.DB().ExecContext(ctx,
			`DELETE FROM note_tags WHERE note_id = ? AND tag = ?`,
			e.NoteID, e.Tag,
		)
	case *note.NotePinned:
		_, err = p.DB().ExecContext(ctx,
			`UPDATE notes_view SET pinned = 1, updated_at = ? WHERE id = ?`,
			e.PinnedAt, e.NoteID,
		)
	case *note.NoteUnpinned:
		_, err = p.DB().ExecContext(ctx,
			`UPDATE notes_view SET pinned = 0, updated_at = ? WHERE id = ?`,
			e.UnpinnedAt, e.NoteID,
		)
	case *note.NoteArchived:
		_, err = p.DB().ExecContext(ctx,
			`UPDATE notes_view SET archived = 1, updated_at = ? WHERE id = ?`,
			e.ArchivedAt, e.NoteID,
		)
	case *note.NoteRestored:
		_, err = p.DB().ExecContext(ctx,
			`UPDATE notes_view SET archived = 0, updated_at = ? WHERE id = ?`,
			e.RestoredAt, e.NoteID,
		)
	case *note.NoteDeleted:
		if _, err = p.DB().ExecContext(ctx,
			`DELETE FROM note_tags WHERE note_id = ?`, e.NoteID,
		); err != nil {
			break
		}
		_, err = p.DB().ExecContext(ctx,
			`DELETE FROM notes_view WHERE id = ?`, e.NoteID,
		)
	}
	if err != nil {
		return fmt.Errorf("note list: apply %s: %w", event.EventType, err)
	}
	return nil
}

// Reset truncates the owned tables.
func (p *NoteListProjection) Reset(ctx context.Context) error {
	for _, table := range []string{"note_tags", "notes_view"} {
		if _, err := p.DB().ExecContext(ctx, `DELETE FROM `+table); err != nil {
			return fmt.Errorf("note list: reset %s: %w", table, err)
		}
	}
	return nil
}

func snippet(content string) string {
	runes := []rune(content)
	if len(runes) <= snippetLength {
		return content
	}
	return string(runes[:snippetLength])
}

var _ Projection = (*NoteListProjection)(nil)
