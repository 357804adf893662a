// Package query provides read-only facades over projection tables. Queries
// never block on orchestrator internals: they return the best available rows
// even while a projection is mid catch-up, and the object graph grants
// callers no write capability.
package query

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/example/notelog/internal/readmodel"
)

// NoteQueries reads the note list projection's tables.
type NoteQueries struct {
	db *sql.DB
}

func NewNoteQueries(db *sql.DB) *NoteQueries {
	return &NoteQueries{db: db}
}

// GetNote returns one note row, or found=false.
func (q *NoteQueries) GetNote(ctx context.Context, id string) (*readmodel.NoteReadModel, bool, error) {
	n, err := scanNote(q.db.QueryRowContext(ctx,
		`SELECT id, title, snippet, category_id, pinned, archived, created_at, updated_at
		 FROM notes_view WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get note: %w", err)
	}
	if err := q.loadTags(ctx, n); err != nil {
		return nil, false, err
	}
	return n, true, nil
}

// ListNotes returns active notes, pinned first, most recently updated next.
func (q *NoteQueries) ListNotes(ctx context.Context) ([]*readmodel.NoteReadModel, error) {
	return q.listNotes(ctx,
		`SELECT id, title, snippet, category_id, pinned, archived, created_at, updated_at
		 FROM notes_view
		 WHERE archived = 0
		 ORDER BY pinned DESC, updated_at DESC`)
}

// ListNotesByCategory returns active notes in one category.
func (q *NoteQueries) ListNotesByCategory(ctx context.Context, categoryID string) ([]*readmodel.NoteReadModel, error) {
	return q.listNotes(ctx,
		`SELECT id, title, snippet, category_id, pinned, archived, created_at, updated_at
		 FROM notes_view
		 WHERE archived = 0 AND category_id = ?
		 ORDER BY pinned DESC, updated_at DESC`, categoryID)
}

// ListNotesByTag returns active notes carrying the given tag.
func (q *NoteQueries) ListNotesByTag(ctx context.Context, tag string) ([]*readmodel.NoteReadModel, error) {
	return q.listNotes(ctx,
		`SELECT n.id, n.title, n.snippet, n.category_id, n.pinned, n.archived, n.created_at, n.updated_at
		 FROM notes_view n
		 JOIN note_tags nt ON nt.note_id = n.id
		 WHERE n.archived = 0 AND nt.tag = ?
		 ORDER BY n.pinned DESC, n.updated_at DESC`, tag)
}

// ListArchivedNotes returns archived notes.
func (q *NoteQueries) ListArchivedNotes(ctx context.Context) ([]*readmodel.NoteReadModel, error) {
	return q.listNotes(ctx,
		`SELECT id, title, snippet, category_id, pinned, archived, created_at, updated_at
		 FROM notes_view
		 WHERE archived = 1
		 ORDER BY updated_at DESC`)
}

func (q *NoteQueries) listNotes(ctx context.Context, query string, args ...any) ([]*readmodel.NoteReadModel, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	defer rows.Close()

	var notes []*readmodel.NoteReadModel
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		notes = append(notes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, n := range notes {
		if err := q.loadTags(ctx, n); err != nil {
			return nil, err
		}
	}
	return notes, nil
}

func (q *NoteQueries) loadTags(ctx context.Context, n *readmodel.NoteReadModel) error {
	rows, err := q.db.QueryContext(ctx,
		`SELECT tag FROM note_tags WHERE note_id = ? ORDER BY tag`, n.ID)
	if err != nil {
		return fmt.Errorf("load tags: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return err
		}
		n.Tags = append(n.Tags, t)
	}
	return rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNote(row rowScanner) (*readmodel.NoteReadModel, error) {
	var n readmodel.NoteReadModel
	err := row.Scan(&n.ID, &n.Title, &n.Snippet, &n.CategoryID, &n.Pinned, &n.Archived, &n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// TodoQueries reads the todo board projection's table.
type TodoQueries struct {
	db *sql.DB
}

func NewTodoQueries(db *sql.DB) *TodoQueries {
	return &TodoQueries{db: db}
}

// GetTodo returns one todo row, or found=false.
func (q *TodoQueries) GetTodo(ctx context.Context, id string) (*readmodel.TodoReadModel, bool, error) {
	t, err := scanTodo(q.db.QueryRowContext(ctx,
		`SELECT id, text, note_id, due_date, completed, completed_at, created_at, updated_at
		 FROM todos_view WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get todo: %w", err)
	}
	return t, true, nil
}

// ListOpenTodos returns incomplete todos, earliest due first.
func (q *TodoQueries) ListOpenTodos(ctx context.Context) ([]*readmodel.TodoReadModel, error) {
	return q.listTodos(ctx,
		`SELECT id, text, note_id, due_date, completed, completed_at, created_at, updated_at
		 FROM todos_view
		 WHERE completed = 0
		 ORDER BY due_date IS NULL, due_date ASC, created_at ASC`)
}

// ListTodosByNote returns todos linked to a note.
func (q *TodoQueries) ListTodosByNote(ctx context.Context, noteID string) ([]*readmodel.TodoReadModel, error) {
	return q.listTodos(ctx,
		`SELECT id, text, note_id, due_date, completed, completed_at, created_at, updated_at
		 FROM todos_view
		 WHERE note_id = ?
		 ORDER BY created_at ASC`, noteID)
}

// ListCompletedTodos returns completed todos, most recent first.
func (q *TodoQueries) ListCompletedTodos(ctx context.Context) ([]*readmodel.TodoReadModel, error) {
	return q.listTodos(ctx,
		`SELECT id, text, note_id, due_date, completed, completed_at, created_at, updated_at
		 FROM todos_view
		 WHERE completed = 1
		 ORDER BY completed_at DESC`)
}

func (q *TodoQueries) listTodos(ctx context.Context, query string, args ...any) ([]*readmodel.TodoReadModel, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list todos: %w", err)
	}
	defer rows.Close()

	var todos []*readmodel.TodoReadModel
	for rows.Next() {
		t, err := scanTodo(rows)
		if err != nil {
			return nil, fmt.Errorf("scan todo: %w", err)
		}
		todos = append(todos, t)
	}
	return todos, rows.Err()
}

func scanTodo(row rowScanner) (*readmodel.TodoReadModel, error) {
	var (
		t           readmodel.TodoReadModel
		dueDate     sql.NullTime
		completedAt sql.NullTime
	)
	err := row.Scan(&t.ID, &t.Text, &t.NoteID, &dueDate, &t.Completed, &completedAt, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if dueDate.Valid {
		d := dueDate.Time
		t.DueDate = &d
	}
	if completedAt.Valid {
		c := completedAt.Time
		t.CompletedAt = &c
	}
	return &t, nil
}

// CategoryQueries reads the category tree projection's table.
type CategoryQueries struct {
	db *sql.DB
}

func NewCategoryQueries(db *sql.DB) *CategoryQueries {
	return &CategoryQueries{db: db}
}

// GetCategory returns one category row, or found=false.
func (q *CategoryQueries) GetCategory(ctx context.Context, id string) (*readmodel.CategoryReadModel, bool, error) {
	var c readmodel.CategoryReadModel
	err := q.db.QueryRowContext(ctx,
		`SELECT id, name, parent_id, sort_order, created_at, updated_at
		 FROM categories_view WHERE id = ?`, id,
	).Scan(&c.ID, &c.Name, &c.ParentID, &c.SortOrder, &c.CreatedAt, &c.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get category: %w", err)
	}
	return &c, true, nil
}

// ListCategories returns the whole tree ordered for display: parents before
// siblings by sort order, then name.
func (q *CategoryQueries) ListCategories(ctx context.Context) ([]*readmodel.CategoryReadModel, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT id, name, parent_id, sort_order, created_at, updated_at
		 FROM categories_view
		 ORDER BY parent_id, sort_order, name`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var categories []*readmodel.CategoryReadModel
	for rows.Next() {
		var c readmodel.CategoryReadModel
		if err := rows.Scan(&c.ID, &c.Name, &c.ParentID, &c.SortOrder, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, &c)
	}
	return categories, rows.Err()
}

// TagQueries reads the tag catalog projection's tables.
type TagQueries struct {
	db *sql.DB
}

func NewTagQueries(db *sql.DB) *TagQueries {
	return &TagQueries{db: db}
}

// ListTags returns every tag with its usage count, derived live from the
// assignment relation.
func (q *TagQueries) ListTags(ctx context.Context) ([]*readmodel.TagReadModel, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT t.name, t.tag_id, t.color, COUNT(a.note_id), t.created_at, t.updated_at
		 FROM tags_view t
		 LEFT JOIN tag_assignments a ON a.tag = t.name
		 GROUP BY t.name
		 ORDER BY t.name`)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	defer rows.Close()

	var tags []*readmodel.TagReadModel
	for rows.Next() {
		var t readmodel.TagReadModel
		if err := rows.Scan(&t.Name, &t.ID, &t.Color, &t.UsageCount, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		tags = append(tags, &t)
	}
	return tags, rows.Err()
}

// GetTag returns one tag with its usage count, or found=false.
func (q *TagQueries) GetTag(ctx context.Context, name string) (*readmodel.TagReadModel, bool, error) {
	var t readmodel.TagReadModel
	err := q.db.QueryRowContext(ctx,
		`SELECT t.name, t.tag_id, t.color, COUNT(a.note_id), t.created_at, t.updated_at
		 FROM tags_view t
		 LEFT JOIN tag_assignments a ON a.tag = t.name
		 WHERE t.name = ?
		 GROUP BY t.name`, name,
	).Scan(&t.Name, &t.ID, &t.Color, &t.UsageCount, &t.CreatedAt, &t.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get tag: %w", err)
	}
	return &t, true, nil
}
