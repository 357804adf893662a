package note

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/example/notelog/internal/domain/aggregate"
	"github.com/example/notelog/internal/infrastructure/store"
	"github.com/google/uuid"
)

const AggregateType = "Note"

var (
	ErrNoteDeleted  = errors.New("note is deleted")
	ErrInvalidTag   = errors.New("tag is required")
	ErrDuplicateTag = errors.New("tag already attached")
	ErrTagNotFound  = errors.New("tag not attached")
)

// Note is an event-sourced note. State is derived entirely from its event
// stream; snapshots of the exported fields shorten replay.
type Note struct {
	aggregate.Base
	Title      Title     `json:"title"`
	Content    string    `json:"content"`
	CategoryID string    `json:"category_id"`
	Tags       []string  `json:"tags"`
	Pinned     bool      `json:"pinned"`
	Archived   bool      `json:"archived"`
	Deleted    bool      `json:"deleted"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// NewEmpty returns a note ready for hydration by replay.
func NewEmpty() *Note { return &Note{} }

// New creates a note, raising NoteCreated. The note persists with
// expectedVersion 0 on first save.
func New(title, content, categoryID string) (*Note, error) {
	t, err := NewTitle(title)
	if err != nil {
		return nil, err
	}

	n := NewEmpty()
	err = n.raise(&NoteCreated{
		NoteID:     uuid.New().String(),
		Title:      t,
		Content:    content,
		CategoryID: categoryID,
		CreatedAt:  time.Now().UTC(),
	})
	if err != nil {
		return nil, err
	}
	return n, nil
}

func (n *Note) AggregateType() string { return AggregateType }

// Rename changes the note title.
func (n *Note) Rename(title string) error {
	if n.Deleted {
		return ErrNoteDeleted
	}
	t, err := NewTitle(title)
	if err != nil {
		return err
	}
	return n.raise(&NoteRenamed{NoteID: n.ID, Title: t, RenamedAt: time.Now().UTC()})
}

// UpdateContent replaces the note body.
func (n *Note) UpdateContent(content string) error {
	if n.Deleted {
		return ErrNoteDeleted
	}
	return n.raise(&NoteContentUpdated{NoteID: n.ID, Content: content, UpdatedAt: time.Now().UTC()})
}

// Move assigns the note to a category. An empty id moves it to the inbox.
func (n *Note) Move(categoryID string) error {
	if n.Deleted {
		return ErrNoteDeleted
	}
	if categoryID == n.CategoryID {
		return nil
	}
	return n.raise(&NoteMoved{NoteID: n.ID, CategoryID: categoryID, MovedAt: time.Now().UTC()})
}

// AttachTag attaches a normalized tag to the note.
func (n *Note) AttachTag(tag string) error {
	if n.Deleted {
		return ErrNoteDeleted
	}
	normalized := NormalizeTag(tag)
	if normalized == "" {
		return ErrInvalidTag
	}
	if n.hasTag(normalized) {
		return ErrDuplicateTag
	}
	return n.raise(&NoteTagged{NoteID: n.ID, Tag: normalized, TaggedAt: time.Now().UTC()})
}

// DetachTag removes a tag from the note.
func (n *Note) DetachTag(tag string) error {
	if n.Deleted {
		return ErrNoteDeleted
	}
	normalized := NormalizeTag(tag)
	if !n.hasTag(normalized) {
		return ErrTagNotFound
	}
	return n.raise(&NoteUntagged{NoteID: n.ID, Tag: normalized, UntaggedAt: time.Now().UTC()})
}

// Pin pins the note. Pinning a pinned note is a no-op.
func (n *Note) Pin() error {
	if n.Deleted {
		return ErrNoteDeleted
	}
	if n.Pinned {
		return nil
	}
	return n.raise(&NotePinned{NoteID: n.ID, PinnedAt: time.Now().UTC()})
}

// Unpin unpins the note.
func (n *Note) Unpin() error {
	if n.Deleted {
		return ErrNoteDeleted
	}
	if !n.Pinned {
		return nil
	}
	return n.raise(&NoteUnpinned{NoteID: n.ID, UnpinnedAt: time.Now().UTC()})
}

// Archive moves the note out of active lists.
func (n *Note) Archive() error {
	if n.Deleted {
		return ErrNoteDeleted
	}
	if n.Archived {
		return nil
	}
	return n.raise(&NoteArchived{NoteID: n.ID, ArchivedAt: time.Now().UTC()})
}

// Restore brings an archived note back.
func (n *Note) Restore() error {
	if n.Deleted {
		return ErrNoteDeleted
	}
	if !n.Archived {
		return nil
	}
	return n.raise(&NoteRestored{NoteID: n.ID, RestoredAt: time.Now().UTC()})
}

// Delete tombstones the note. Further mutations fail with ErrNoteDeleted.
func (n *Note) Delete() error {
	if n.Deleted {
		return nil
	}
	return n.raise(&NoteDeleted{NoteID: n.ID, DeletedAt: time.Now().UTC()})
}

// Apply transitions note state for one event. It handles every event type the
// note can produce; an unrecognized event is a programmer error.
func (n *Note) Apply(event store.DomainEvent) error {
	switch e := event.(type) {
	case *NoteCreated:
		n.ID = e.NoteID
		n.Title = e.Title
		n.Content = e.Content
		n.CategoryID = e.CategoryID
		n.CreatedAt = e.CreatedAt
		n.UpdatedAt = e.CreatedAt
	case *NoteRenamed:
		n.Title = e.Title
		n.UpdatedAt = e.RenamedAt
	case *NoteContentUpdated:
		n.Content = e.Content
		n.UpdatedAt = e.UpdatedAt
	case *NoteMoved:
		n.CategoryID = e.CategoryID
		n.UpdatedAt = e.MovedAt
	case *NoteTagged:
		if !n.hasTag(e.Tag) {
			n.Tags = append(n.Tags, e.Tag)
		}
		n.UpdatedAt = e.TaggedAt
	case *NoteUntagged:
		n.Tags = removeTag(n.Tags, e.Tag)
		n.UpdatedAt = e.UntaggedAt
	case *NotePinned:
		n.Pinned = true
		n.UpdatedAt = e.PinnedAt
	case *NoteUnpinned:
		n.Pinned = false
		n.UpdatedAt = e.UnpinnedAt
	case *NoteArchived:
		n.Archived = true
		n.UpdatedAt = e.ArchivedAt
	case *NoteRestored:
		n.Archived = false
		n.UpdatedAt = e.RestoredAt
	case *NoteDeleted:
		n.Deleted = true
		n.UpdatedAt = e.DeletedAt
	default:
		return fmt.Errorf("note: unexpected event %T", event)
	}
	return nil
}

// raise applies the event to in-memory state, then records it for the next
// save. Replay and live application share the Apply path.
func (n *Note) raise(event store.DomainEvent) error {
	if err := n.Apply(event); err != nil {
		return err
	}
	n.Record(event)
	return nil
}

func (n *Note) hasTag(tag string) bool {
	for _, t := range n.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

func removeTag(tags []string, tag string) []string {
	out := tags[:0]
	for _, t := range tags {
		if t != tag {
			out = append(out, t)
		}
	}
	return out
}

// NormalizeTag lowercases and trims a raw tag.
func NormalizeTag(tag string) string {
	return strings.ToLower(strings.TrimSpace(tag))
}
