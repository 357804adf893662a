package todo

import (
	"time"

	"github.com/example/notelog/internal/infrastructure/store"
)

const (
	EventTodoCreated     = "TodoCreated"
	EventTodoTextChanged = "TodoTextChanged"
	EventTodoCompleted   = "TodoCompleted"
	EventTodoReopened    = "TodoReopened"
	EventTodoRescheduled = "TodoRescheduled"
	EventTodoDeleted     = "TodoDeleted"
)

// TodoCreated is emitted when a new todo is created. NoteID links the todo to
// the note it was extracted from, when there is one.
type TodoCreated struct {
	TodoID    string     `json:"todo_id"`
	Text      Text       `json:"text"`
	NoteID    string     `json:"note_id,omitempty"`
	DueDate   *time.Time `json:"due_date,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

func (TodoCreated) EventType() string { return EventTodoCreated }

// TodoTextChanged is emitted when a todo's text is edited
type TodoTextChanged struct {
	TodoID    string    `json:"todo_id"`
	Text      Text      `json:"text"`
	ChangedAt time.Time `json:"changed_at"`
}

func (TodoTextChanged) EventType() string { return EventTodoTextChanged }

// TodoCompleted is emitted when a todo is checked off
type TodoCompleted struct {
	TodoID      string    `json:"todo_id"`
	CompletedAt time.Time `json:"completed_at"`
}

func (TodoCompleted) EventType() string { return EventTodoCompleted }

// TodoReopened is emitted when a completed todo is unchecked
type TodoReopened struct {
	TodoID     string    `json:"todo_id"`
	ReopenedAt time.Time `json:"reopened_at"`
}

func (TodoReopened) EventType() string { return EventTodoReopened }

// TodoRescheduled is emitted when a todo's due date is set or cleared
type TodoRescheduled struct {
	TodoID        string     `json:"todo_id"`
	DueDate       *time.Time `json:"due_date,omitempty"`
	RescheduledAt time.Time  `json:"rescheduled_at"`
}

func (TodoRescheduled) EventType() string { return EventTodoRescheduled }

// TodoDeleted is emitted when a todo is deleted
type TodoDeleted struct {
	TodoID    string    `json:"todo_id"`
	DeletedAt time.Time `json:"deleted_at"`
}

func (TodoDeleted) EventType() string { return EventTodoDeleted }

// Events returns a factory per todo event type for serializer registration.
func Events() []func() store.DomainEvent {
	return []func() store.DomainEvent{
		func() store.DomainEvent { return &TodoCreated{} },
		func() store.DomainEvent { return &TodoTextChanged{} },
		func() store.DomainEvent { return &TodoCompleted{} },
		func() store.DomainEvent { return &TodoReopened{} },
		func() store.DomainEvent { return &TodoRescheduled{} },
		func() store.DomainEvent { return &TodoDeleted{} },
	}
}
