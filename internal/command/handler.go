package command

import (
	"context"
	"errors"
	"log"

	"github.com/example/notelog/internal/domain/aggregate"
	"github.com/example/notelog/internal/domain/category"
	"github.com/example/notelog/internal/domain/note"
	"github.com/example/notelog/internal/domain/tag"
	"github.com/example/notelog/internal/domain/todo"
	"github.com/example/notelog/internal/infrastructure/store"
	"github.com/example/notelog/internal/projection"
)

var (
	ErrNoteNotFound     = errors.New("note not found")
	ErrCategoryNotFound = errors.New("category not found")
	ErrTodoNotFound     = errors.New("todo not found")
	ErrTagNotFound      = errors.New("tag not found")
)

// Projections implicated by each aggregate's events. Catch-up for these runs
// synchronously before the command returns, bounding read-your-own-write
// staleness; everything else catches up in the background loop.
var (
	noteProjections     = []string{"note_list", "tag_catalog", "todo_board"}
	categoryProjections = []string{"category_tree"}
	todoProjections     = []string{"todo_board"}
	tagProjections      = []string{"tag_catalog"}
)

// Handler executes commands against the event-sourced core: load an
// aggregate, run a domain method, persist with the expected version, then
// catch up the implicated projections.
type Handler struct {
	eventStore   store.EventStoreInterface
	serializer   *store.Serializer
	orchestrator *projection.Orchestrator
}

func NewHandler(
	eventStore store.EventStoreInterface,
	serializer *store.Serializer,
	orchestrator *projection.Orchestrator,
) *Handler {
	return &Handler{
		eventStore:   eventStore,
		serializer:   serializer,
		orchestrator: orchestrator,
	}
}

// Note commands

func (h *Handler) CreateNote(ctx context.Context, cmd CreateNote) (*note.Note, error) {
	n, err := note.New(cmd.Title, cmd.Content, cmd.CategoryID)
	if err != nil {
		return nil, err
	}
	if _, err := h.eventStore.Save(ctx, n, 0); err != nil {
		return nil, err
	}
	h.syncProjections(ctx, noteProjections)
	return n, nil
}

func (h *Handler) RenameNote(ctx context.Context, cmd RenameNote) error {
	return h.updateNote(ctx, cmd.NoteID, func(n *note.Note) error {
		return n.Rename(cmd.Title)
	})
}

func (h *Handler) UpdateNoteContent(ctx context.Context, cmd UpdateNoteContent) error {
	return h.updateNote(ctx, cmd.NoteID, func(n *note.Note) error {
		return n.UpdateContent(cmd.Content)
	})
}

func (h *Handler) MoveNote(ctx context.Context, cmd MoveNote) error {
	return h.updateNote(ctx, cmd.NoteID, func(n *note.Note) error {
		return n.Move(cmd.CategoryID)
	})
}

func (h *Handler) TagNote(ctx context.Context, cmd TagNote) error {
	return h.updateNote(ctx, cmd.NoteID, func(n *note.Note) error {
		return n.AttachTag(cmd.Tag)
	})
}

func (h *Handler) UntagNote(ctx context.Context, cmd UntagNote) error {
	return h.updateNote(ctx, cmd.NoteID, func(n *note.Note) error {
		return n.DetachTag(cmd.Tag)
	})
}

func (h *Handler) PinNote(ctx context.Context, cmd PinNote) error {
	return h.updateNote(ctx, cmd.NoteID, (*note.Note).Pin)
}

func (h *Handler) UnpinNote(ctx context.Context, cmd UnpinNote) error {
	return h.updateNote(ctx, cmd.NoteID, (*note.Note).Unpin)
}

func (h *Handler) ArchiveNote(ctx context.Context, cmd ArchiveNote) error {
	return h.updateNote(ctx, cmd.NoteID, (*note.Note).Archive)
}

func (h *Handler) RestoreNote(ctx context.Context, cmd RestoreNote) error {
	return h.updateNote(ctx, cmd.NoteID, (*note.Note).Restore)
}

func (h *Handler) DeleteNote(ctx context.Context, cmd DeleteNote) error {
	return h.updateNote(ctx, cmd.NoteID, (*note.Note).Delete)
}

// Category commands

func (h *Handler) CreateCategory(ctx context.Context, cmd CreateCategory) (*category.Category, error) {
	c, err := category.New(cmd.Name, cmd.ParentID, cmd.SortOrder)
	if err != nil {
		return nil, err
	}
	if _, err := h.eventStore.Save(ctx, c, 0); err != nil {
		return nil, err
	}
	h.syncProjections(ctx, categoryProjections)
	return c, nil
}

func (h *Handler) RenameCategory(ctx context.Context, cmd RenameCategory) error {
	return h.updateCategory(ctx, cmd.CategoryID, func(c *category.Category) error {
		return c.Rename(cmd.Name)
	})
}

func (h *Handler) MoveCategory(ctx context.Context, cmd MoveCategory) error {
	return h.updateCategory(ctx, cmd.CategoryID, func(c *category.Category) error {
		return c.Move(cmd.ParentID)
	})
}

func (h *Handler) ReorderCategory(ctx context.Context, cmd ReorderCategory) error {
	return h.updateCategory(ctx, cmd.CategoryID, func(c *category.Category) error {
		return c.Reorder(cmd.SortOrder)
	})
}

func (h *Handler) DeleteCategory(ctx context.Context, cmd DeleteCategory) error {
	return h.updateCategory(ctx, cmd.CategoryID, (*category.Category).Delete)
}

// Todo commands

func (h *Handler) CreateTodo(ctx context.Context, cmd CreateTodo) (*todo.Todo, error) {
	t, err := todo.New(cmd.Text, cmd.NoteID, cmd.DueDate)
	if err != nil {
		return nil, err
	}
	if _, err := h.eventStore.Save(ctx, t, 0); err != nil {
		return nil, err
	}
	h.syncProjections(ctx, todoProjections)
	return t, nil
}

func (h *Handler) ChangeTodoText(ctx context.Context, cmd ChangeTodoText) error {
	return h.updateTodo(ctx, cmd.TodoID, func(t *todo.Todo) error {
		return t.ChangeText(cmd.Text)
	})
}

func (h *Handler) CompleteTodo(ctx context.Context, cmd CompleteTodo) error {
	return h.updateTodo(ctx, cmd.TodoID, (*todo.Todo).Complete)
}

func (h *Handler) ReopenTodo(ctx context.Context, cmd ReopenTodo) error {
	return h.updateTodo(ctx, cmd.TodoID, (*todo.Todo).Reopen)
}

func (h *Handler) RescheduleTodo(ctx context.Context, cmd RescheduleTodo) error {
	return h.updateTodo(ctx, cmd.TodoID, func(t *todo.Todo) error {
		return t.Reschedule(cmd.DueDate)
	})
}

func (h *Handler) DeleteTodo(ctx context.Context, cmd DeleteTodo) error {
	return h.updateTodo(ctx, cmd.TodoID, (*todo.Todo).Delete)
}

// Tag commands

func (h *Handler) CreateTag(ctx context.Context, cmd CreateTag) (*tag.Tag, error) {
	t, err := tag.New(cmd.Name, cmd.Color)
	if err != nil {
		return nil, err
	}
	if _, err := h.eventStore.Save(ctx, t, 0); err != nil {
		return nil, err
	}
	h.syncProjections(ctx, tagProjections)
	return t, nil
}

func (h *Handler) RenameTag(ctx context.Context, cmd RenameTag) error {
	return h.updateTag(ctx, cmd.TagID, func(t *tag.Tag) error {
		return t.Rename(cmd.Name)
	})
}

func (h *Handler) ChangeTagColor(ctx context.Context, cmd ChangeTagColor) error {
	return h.updateTag(ctx, cmd.TagID, func(t *tag.Tag) error {
		return t.ChangeColor(cmd.Color)
	})
}

func (h *Handler) DeleteTag(ctx context.Context, cmd DeleteTag) error {
	return h.updateTag(ctx, cmd.TagID, (*tag.Tag).Delete)
}

// update helpers: load, mutate, save with the loaded version, retrying once
// after a concurrency conflict by reloading fresh state.

func (h *Handler) updateNote(ctx context.Context, id string, mutate func(*note.Note) error) error {
	return update(ctx, h, id, ErrNoteNotFound, noteProjections, note.NewEmpty, mutate)
}

func (h *Handler) updateCategory(ctx context.Context, id string, mutate func(*category.Category) error) error {
	return update(ctx, h, id, ErrCategoryNotFound, categoryProjections, category.NewEmpty, mutate)
}

func (h *Handler) updateTodo(ctx context.Context, id string, mutate func(*todo.Todo) error) error {
	return update(ctx, h, id, ErrTodoNotFound, todoProjections, todo.NewEmpty, mutate)
}

func (h *Handler) updateTag(ctx context.Context, id string, mutate func(*tag.Tag) error) error {
	return update(ctx, h, id, ErrTagNotFound, tagProjections, tag.NewEmpty, mutate)
}

func update[T aggregate.Aggregate](
	ctx context.Context,
	h *Handler,
	id string,
	notFound error,
	projections []string,
	newAggregate func() T,
	mutate func(T) error,
) error {
	const attempts = 2

	var lastErr error
	for i := 0; i < attempts; i++ {
		agg, found, err := aggregate.Load(ctx, h.eventStore, h.serializer, id, newAggregate)
		if err != nil {
			return err
		}
		if !found {
			return notFound
		}

		if err := mutate(agg); err != nil {
			return err
		}
		if len(agg.UncommittedEvents()) == 0 {
			return nil
		}

		_, err = h.eventStore.Save(ctx, agg, agg.GetVersion())
		if errors.Is(err, store.ErrConcurrencyConflict) {
			lastErr = err
			continue
		}
		if err != nil {
			return err
		}

		if err := aggregate.MaybeSnapshot(ctx, h.eventStore, agg); err != nil {
			log.Printf("[Command] Failed to snapshot %s %s: %v", agg.AggregateType(), id, err)
		}
		h.syncProjections(ctx, projections)
		return nil
	}
	return lastErr
}

// syncProjections runs catch-up for the implicated projections before the
// command returns. A projection failure never fails the write: the log is
// authoritative and the projection can be rebuilt.
func (h *Handler) syncProjections(ctx context.Context, names []string) {
	if h.orchestrator == nil {
		return
	}
	if err := h.orchestrator.CatchUp(ctx, names...); err != nil {
		log.Printf("[Command] Projection catch-up failed (views may be stale): %v", err)
	}
	h.orchestrator.Notify()
}
