package projection

import (
	"context"

	"github.com/example/notelog/internal/infrastructure/store"
)

// Projection consumes ordered events and maintains denormalized read tables.
// Each projection owns its tables exclusively; nothing else writes them.
//
// Handle must be idempotent: re-applying an event that was already applied
// (a crash before the checkpoint advanced) must leave the tables in the same
// state. Concrete projections achieve this with full-row upserts and keyed
// deletes, never incremental arithmetic.
type Projection interface {
	// Name is the checkpoint key. Stable across restarts.
	Name() string

	// Handle folds one event into the read tables. Events the projection
	// does not care about are ignored without error.
	Handle(ctx context.Context, event store.Event) error

	// Reset truncates all owned tables. The orchestrator resets the
	// checkpoint to 0 afterwards and replays the whole log.
	Reset(ctx context.Context) error
}
