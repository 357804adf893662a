package projection

import (
	"database/sql"
	"fmt"

	"github.com/example/notelog/internal/infrastructure/store"
)

// Base carries what every concrete projection needs: the database its tables
// live in and the serializer used to decode event payloads into typed events.
type Base struct {
	db         *sql.DB
	serializer *store.Serializer
}

func NewBase(db *sql.DB, serializer *store.Serializer) Base {
	return Base{db: db, serializer: serializer}
}

// DB exposes the handle to the embedding projection.
func (b Base) DB() *sql.DB { return b.db }

// Decode turns a persisted event into its typed form. A failure here is a
// deserialization failure: the orchestrator freezes the projection at its
// checkpoint and reports the offending position.
func (b Base) Decode(event store.Event) (store.DomainEvent, error) {
	domainEvent, err := b.serializer.Deserialize(event.EventType, event.Data)
	if err != nil {
		return nil, fmt.Errorf("decode event at position %d: %w", event.StreamPosition, err)
	}
	return domainEvent, nil
}
