package command

import "time"

// Note commands

type CreateNote struct {
	Title      string `json:"title"`
	Content    string `json:"content"`
	CategoryID string `json:"category_id,omitempty"`
}

type RenameNote struct {
	NoteID string `json:"note_id"`
	Title  string `json:"title"`
}

type UpdateNoteContent struct {
	NoteID  string `json:"note_id"`
	Content string `json:"content"`
}

type MoveNote struct {
	NoteID     string `json:"note_id"`
	CategoryID string `json:"category_id"`
}

type TagNote struct {
	NoteID string `json:"note_id"`
	Tag    string `json:"tag"`
}

type UntagNote struct {
	NoteID string `json:"note_id"`
	Tag    string `json:"tag"`
}

type PinNote struct {
	NoteID string `json:"note_id"`
}

type UnpinNote struct {
	NoteID string `json:"note_id"`
}

type ArchiveNote struct {
	NoteID string `json:"note_id"`
}

type RestoreNote struct {
	NoteID string `json:"note_id"`
}

type DeleteNote struct {
	NoteID string `json:"note_id"`
}

// Category commands

type CreateCategory struct {
	Name      string `json:"name"`
	ParentID  string `json:"parent_id,omitempty"`
	SortOrder int    `json:"sort_order"`
}

type RenameCategory struct {
	CategoryID string `json:"category_id"`
	Name       string `json:"name"`
}

type MoveCategory struct {
	CategoryID string `json:"category_id"`
	ParentID   string `json:"parent_id"`
}

type ReorderCategory struct {
	CategoryID string `json:"category_id"`
	SortOrder  int    `json:"sort_order"`
}

type DeleteCategory struct {
	CategoryID string `json:"category_id"`
}

// Todo commands

type CreateTodo struct {
	Text    string     `json:"text"`
	NoteID  string     `json:"note_id,omitempty"`
	DueDate *time.Time `json:"due_date,omitempty"`
}

type ChangeTodoText struct {
	TodoID string `json:"todo_id"`
	Text   string `json:"text"`
}

type CompleteTodo struct {
	TodoID string `json:"todo_id"`
}

type ReopenTodo struct {
	TodoID string `json:"todo_id"`
}

type RescheduleTodo struct {
	TodoID  string     `json:"todo_id"`
	DueDate *time.Time `json:"due_date,omitempty"`
}

type DeleteTodo struct {
	TodoID string `json:"todo_id"`
}

// Tag commands

type CreateTag struct {
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

type RenameTag struct {
	TagID string `json:"tag_id"`
	Name  string `json:"name"`
}

type ChangeTagColor struct {
	TagID string `json:"tag_id"`
	Color string `json:"color"`
}

type DeleteTag struct {
	TagID string `json:"tag_id"`
}
