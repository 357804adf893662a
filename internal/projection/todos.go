package projection

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/example/notelog/internal/domain/note"
	"github.com/example/notelog/internal/domain/todo"
	"github.com/example/notelog/internal/infrastructure/store"
)

const todoBoardSchema = `
CREATE TABLE IF NOT EXISTS todos_view (
    id           TEXT PRIMARY KEY,
    text         TEXT NOT NULL,
    note_id      TEXT NOT NULL DEFAULT '',
    due_date     TIMESTAMP,
    completed    INTEGER NOT NULL DEFAULT 0,
    completed_at TIMESTAMP,
    created_at   TIMESTAMP NOT NULL,
    updated_at   TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_todos_view_note ON todos_view(note_id);
CREATE INDEX IF NOT EXISTS idx_todos_view_due ON todos_view(due_date);
`

// TodoBoardProjection maintains the todo board read model. Owns todos_view.
// It also folds NoteDeleted so todos never point at a note that no longer
// exists.
type TodoBoardProjection struct {
	Base
}

func NewTodoBoardProjection(db *sql.DB, serializer *store.Serializer) (*TodoBoardProjection, error) {
	if _, err := db.Exec(todoBoardSchema); err != nil {
		return nil, fmt.Errorf("create todo board schema: %w", err)
	}
	return &TodoBoardProjection{Base: NewBase(db, serializer)}, nil
}

func (p *TodoBoardProjection) Name() string { return "todo_board" }

func (p *TodoBoardProjection) Handle(ctx context.Context, event store.Event) error {
	domainEvent, err := p.Decode(event)
	if err != nil {
		return err
	}

	switch e := domainEvent.(type) {
	case *todo.TodoCreated:
		_, err = p.DB().ExecContext(ctx,
			`INSERT INTO todos_view (id, text, note_id, due_date, completed, completed_at, created_at, updated_at)
			 VALUES (?, ?, ?, ?, 0, NULL, ?, ?)
			 ON CONFLICT(id) DO UPDATE SET
			   text = excluded.text,
			   note_id = excluded.note_id,
			   due_date = excluded.due_date,
			   created_at = excluded.created_at,
			   updated_at = excluded.updated_at`,
			e.TodoID, e.Text.String(), e.NoteID, e.DueDate, e.CreatedAt, e.CreatedAt,
		)
	case *todo.TodoTextChanged:
		_, err = p.DB().ExecContext(ctx,
			`UPDATE todos_view SET text = ?, updated_at = ? WHERE id = ?`,
			e.Text.String(), e.ChangedAt, e.TodoID,
		)
	case *todo.TodoCompleted:
		_, err = p.DB().ExecContext(ctx,
			`UPDATE todos_view SET completed = 1, completed_at = ?, updated_at = ? WHERE id = ?`,
			e.CompletedAt, e.CompletedAt, e.TodoID,
		)
	case *todo.TodoReopened:
		_, err = p.DB().ExecContext(ctx,
			`UPDATE todos_view SET completed = 0, completed_at = NULL, updated_at = ? WHERE id = ?`,
			e.ReopenedAt, e.TodoID,
		)
	case *todo.TodoRescheduled:
		_, err = p.DB().ExecContext(ctx,
			`UPDATE todos_view SET due_date = ?, updated_at = ? WHERE id = ?`,
			e.DueDate, e.RescheduledAt, e.TodoID,
		)
	case *todo.TodoDeleted:
		_, err = p.DB().ExecContext(ctx,
			`DELETE FROM todos_view WHERE id = ?`, e.TodoID,
		)
	case *note.NoteDeleted:
		// The note is gone; keep the todos but drop the dangling link.
		_, err = p.DB().ExecContext(ctx,
			`UPDATE todos_view SET note_id = '', updated_at = ? WHERE note_id = ?`,
			e.DeletedAt, e.NoteID,
		)
	}
	if err != nil {
		return fmt.Errorf("todo board: apply %s: %w", event.EventType, err)
	}
	return nil
}

func (p *TodoBoardProjection) Reset(ctx context.Context) error {
	if _, err := p.DB().ExecContext(ctx, `DELETE FROM todos_view`); err != nil {
		return fmt.Errorf("todo board: reset: %w", err)
	}
	return nil
}

var _ Projection = (*TodoBoardProjection)(nil)
