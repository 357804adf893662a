package note

import (
	"time"

	"github.com/example/notelog/internal/infrastructure/store"
)

const (
	EventNoteCreated        = "NoteCreated"
	EventNoteRenamed        = "NoteRenamed"
	EventNoteContentUpdated = "NoteContentUpdated"
	EventNoteMoved          = "NoteMoved"
	EventNoteTagged         = "NoteTagged"
	EventNoteUntagged       = "NoteUntagged"
	EventNotePinned         = "NotePinned"
	EventNoteUnpinned       = "NoteUnpinned"
	EventNoteArchived       = "NoteArchived"
	EventNoteRestored       = "NoteRestored"
	EventNoteDeleted        = "NoteDeleted"
)

// NoteCreated is emitted when a new note is created
type NoteCreated struct {
	NoteID     string    `json:"note_id"`
	Title      Title     `json:"title"`
	Content    string    `json:"content"`
	CategoryID string    `json:"category_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

func (NoteCreated) EventType() string { return EventNoteCreated }

// NoteRenamed is emitted when a note's title changes
type NoteRenamed struct {
	NoteID    string    `json:"note_id"`
	Title     Title     `json:"title"`
	RenamedAt time.Time `json:"renamed_at"`
}

func (NoteRenamed) EventType() string { return EventNoteRenamed }

// NoteContentUpdated is emitted when a note's body changes
type NoteContentUpdated struct {
	NoteID    string    `json:"note_id"`
	Content   string    `json:"content"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (NoteContentUpdated) EventType() string { return EventNoteContentUpdated }

// NoteMoved is emitted when a note is moved to another category
type NoteMoved struct {
	NoteID     string    `json:"note_id"`
	CategoryID string    `json:"category_id"`
	MovedAt    time.Time `json:"moved_at"`
}

func (NoteMoved) EventType() string { return EventNoteMoved }

// NoteTagged is emitted when a tag is attached to a note
type NoteTagged struct {
	NoteID   string    `json:"note_id"`
	Tag      string    `json:"tag"`
	TaggedAt time.Time `json:"tagged_at"`
}

func (NoteTagged) EventType() string { return EventNoteTagged }

// NoteUntagged is emitted when a tag is detached from a note
type NoteUntagged struct {
	NoteID     string    `json:"note_id"`
	Tag        string    `json:"tag"`
	UntaggedAt time.Time `json:"untagged_at"`
}

func (NoteUntagged) EventType() string { return EventNoteUntagged }

// NotePinned is emitted when a note is pinned
type NotePinned struct {
	NoteID   string    `json:"note_id"`
	PinnedAt time.Time `json:"pinned_at"`
}

func (NotePinned) EventType() string { return EventNotePinned }

// NoteUnpinned is emitted when a note is unpinned
type NoteUnpinned struct {
	NoteID     string    `json:"note_id"`
	UnpinnedAt time.Time `json:"unpinned_at"`
}

func (NoteUnpinned) EventType() string { return EventNoteUnpinned }

// NoteArchived is emitted when a note is archived
type NoteArchived struct {
	NoteID     string    `json:"note_id"`
	ArchivedAt time.Time `json:"archived_at"`
}

func (NoteArchived) EventType() string { return EventNoteArchived }

// NoteRestored is emitted when an archived note is restored
type NoteRestored struct {
	NoteID     string    `json:"note_id"`
	RestoredAt time.Time `json:"restored_at"`
}

func (NoteRestored) EventType() string { return EventNoteRestored }

// NoteDeleted is emitted when a note is deleted
type NoteDeleted struct {
	NoteID    string    `json:"note_id"`
	DeletedAt time.Time `json:"deleted_at"`
}

func (NoteDeleted) EventType() string { return EventNoteDeleted }

// Events returns a factory per note event type for serializer registration.
func Events() []func() store.DomainEvent {
	return []func() store.DomainEvent{
		func() store.DomainEvent { return &NoteCreated{} },
		func() store.DomainEvent { return &NoteRenamed{} },
		func() store.DomainEvent { return &NoteContentUpdated{} },
		func() store.DomainEvent { return &NoteMoved{} },
		func() store.DomainEvent { return &NoteTagged{} },
		func() store.DomainEvent { return &NoteUntagged{} },
		func() store.DomainEvent { return &NotePinned{} },
		func() store.DomainEvent { return &NoteUnpinned{} },
		func() store.DomainEvent { return &NoteArchived{} },
		func() store.DomainEvent { return &NoteRestored{} },
		func() store.DomainEvent { return &NoteDeleted{} },
	}
}
