package todo

import (
	"errors"
	"fmt"
	"time"

	"github.com/example/notelog/internal/domain/aggregate"
	"github.com/example/notelog/internal/infrastructure/store"
	"github.com/google/uuid"
)

const AggregateType = "Todo"

var (
	ErrTodoDeleted      = errors.New("todo is deleted")
	ErrAlreadyCompleted = errors.New("todo is already completed")
	ErrNotCompleted     = errors.New("todo is not completed")
)

// Todo is an event-sourced todo item, optionally linked to the note it was
// extracted from.
type Todo struct {
	aggregate.Base
	Text        Text       `json:"text"`
	NoteID      string     `json:"note_id"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Deleted     bool       `json:"deleted"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// NewEmpty returns a todo ready for hydration by replay.
func NewEmpty() *Todo { return &Todo{} }

// New creates a todo, raising TodoCreated.
func New(text, noteID string, dueDate *time.Time) (*Todo, error) {
	t, err := NewText(text)
	if err != nil {
		return nil, err
	}

	td := NewEmpty()
	err = td.raise(&TodoCreated{
		TodoID:    uuid.New().String(),
		Text:      t,
		NoteID:    noteID,
		DueDate:   dueDate,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return nil, err
	}
	return td, nil
}

func (t *Todo) AggregateType() string { return AggregateType }

// ChangeText edits the todo description.
func (t *Todo) ChangeText(text string) error {
	if t.Deleted {
		return ErrTodoDeleted
	}
	v, err := NewText(text)
	if err != nil {
		return err
	}
	return t.raise(&TodoTextChanged{TodoID: t.ID, Text: v, ChangedAt: time.Now().UTC()})
}

// Complete checks the todo off.
func (t *Todo) Complete() error {
	if t.Deleted {
		return ErrTodoDeleted
	}
	if t.Completed {
		return ErrAlreadyCompleted
	}
	return t.raise(&TodoCompleted{TodoID: t.ID, CompletedAt: time.Now().UTC()})
}

// Reopen unchecks a completed todo.
func (t *Todo) Reopen() error {
	if t.Deleted {
		return ErrTodoDeleted
	}
	if !t.Completed {
		return ErrNotCompleted
	}
	return t.raise(&TodoReopened{TodoID: t.ID, ReopenedAt: time.Now().UTC()})
}

// Reschedule sets or clears the due date.
func (t *Todo) Reschedule(dueDate *time.Time) error {
	if t.Deleted {
		return ErrTodoDeleted
	}
	return t.raise(&TodoRescheduled{TodoID: t.ID, DueDate: dueDate, RescheduledAt: time.Now().UTC()})
}

// Delete tombstones the todo.
func (t *Todo) Delete() error {
	if t.Deleted {
		return nil
	}
	return t.raise(&TodoDeleted{TodoID: t.ID, DeletedAt: time.Now().UTC()})
}

// Apply transitions todo state for one event.
func (t *Todo) Apply(event store.DomainEvent) error {
	switch e := event.(type) {
	case *TodoCreated:
		t.ID = e.TodoID
		t.Text = e.Text
		t.NoteID = e.NoteID
		t.DueDate = e.DueDate
		t.CreatedAt = e.CreatedAt
		t.UpdatedAt = e.CreatedAt
	case *TodoTextChanged:
		t.Text = e.Text
		t.UpdatedAt = e.ChangedAt
	case *TodoCompleted:
		t.Completed = true
		completedAt := e.CompletedAt
		t.CompletedAt = &completedAt
		t.UpdatedAt = e.CompletedAt
	case *TodoReopened:
		t.Completed = false
		t.CompletedAt = nil
		t.UpdatedAt = e.ReopenedAt
	case *TodoRescheduled:
		t.DueDate = e.DueDate
		t.UpdatedAt = e.RescheduledAt
	case *TodoDeleted:
		t.Deleted = true
		t.UpdatedAt = e.DeletedAt
	default:
		return fmt.Errorf("todo: unexpected event %T", event)
	}
	return nil
}

func (t *Todo) raise(event store.DomainEvent) error {
	if err := t.Apply(event); err != nil {
		return err
	}
	t.Record(event)
	return nil
}
