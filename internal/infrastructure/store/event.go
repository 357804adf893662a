package store

import (
	"context"
	"encoding/json"
	"time"
)

// DomainEvent is implemented by every event an aggregate can raise. The tag
// returned by EventType is the stable identifier persisted with the event row
// and used for type discovery when replaying history.
type DomainEvent interface {
	EventType() string
}

// Event is a persisted event record. Immutable once written.
type Event struct {
	EventID        string          `json:"event_id"`
	AggregateID    string          `json:"aggregate_id"`
	AggregateType  string          `json:"aggregate_type"`
	EventType      string          `json:"event_type"`
	Data           json.RawMessage `json:"data"`
	Metadata       Metadata        `json:"metadata"`
	SequenceNumber int             `json:"sequence_number"` // 1-based within the aggregate stream
	StreamPosition int64           `json:"stream_position"` // strictly increasing across all aggregates
	CreatedAt      time.Time       `json:"created_at"`
}

// Metadata is the envelope persisted next to each event payload.
type Metadata struct {
	CreatedAt     time.Time `json:"created_at"`
	CorrelationID string    `json:"correlation_id,omitempty"`
	CausationID   string    `json:"causation_id,omitempty"`
}

type metadataKey struct{}

// WithCorrelation attaches correlation/causation identifiers to the context.
// Save stamps them into the metadata envelope of every event it persists.
func WithCorrelation(ctx context.Context, correlationID, causationID string) context.Context {
	return context.WithValue(ctx, metadataKey{}, Metadata{
		CorrelationID: correlationID,
		CausationID:   causationID,
	})
}

func metadataFromContext(ctx context.Context) Metadata {
	md, _ := ctx.Value(metadataKey{}).(Metadata)
	md.CreatedAt = time.Now().UTC()
	return md
}

// Persistable is the store-facing surface of an aggregate: identity plus the
// events raised since it was loaded. MarkCommitted is called after a
// successful save so the aggregate drops its pending events and adopts the
// persisted version.
type Persistable interface {
	AggregateID() string
	AggregateType() string
	UncommittedEvents() []DomainEvent
	MarkCommitted(version int)
}
