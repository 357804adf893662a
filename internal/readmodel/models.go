package readmodel

import "time"

// NoteReadModel is the denormalized note row maintained by the note list
// projection.
type NoteReadModel struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Snippet    string    `json:"snippet"`
	CategoryID string    `json:"category_id,omitempty"`
	Tags       []string  `json:"tags,omitempty"`
	Pinned     bool      `json:"pinned"`
	Archived   bool      `json:"archived"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// TodoReadModel is the denormalized todo row maintained by the todo board
// projection.
type TodoReadModel struct {
	ID          string     `json:"id"`
	Text        string     `json:"text"`
	NoteID      string     `json:"note_id,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// CategoryReadModel is the category tree row maintained by the category tree
// projection.
type CategoryReadModel struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	ParentID  string    `json:"parent_id,omitempty"`
	SortOrder int       `json:"sort_order"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TagReadModel is the tag catalog row maintained by the tag catalog
// projection. UsageCount is derived from the projection's assignment
// relation, never patched incrementally.
type TagReadModel struct {
	ID         string    `json:"id,omitempty"`
	Name       string    `json:"name"`
	Color      string    `json:"color,omitempty"`
	UsageCount int       `json:"usage_count"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
