package store

import (
	"errors"
	"fmt"
)

var (
	// ErrConcurrencyConflict is matched with errors.Is when a Save lost the
	// race against another writer. Callers reload the aggregate and retry.
	ErrConcurrencyConflict = errors.New("concurrency conflict")

	// ErrUnknownEventType is matched with errors.Is when a persisted event
	// tag has no registered type.
	ErrUnknownEventType = errors.New("unknown event type")

	// ErrNoUncommittedEvents is returned by Save when the aggregate has
	// nothing to persist.
	ErrNoUncommittedEvents = errors.New("no uncommitted events")
)

// ConcurrencyConflictError reports an expected-version mismatch on append.
type ConcurrencyConflictError struct {
	AggregateID     string
	ExpectedVersion int
	ActualVersion   int
}

func (e *ConcurrencyConflictError) Error() string {
	return fmt.Sprintf("concurrency conflict on aggregate %s: expected version %d, found %d",
		e.AggregateID, e.ExpectedVersion, e.ActualVersion)
}

func (e *ConcurrencyConflictError) Is(target error) bool {
	return target == ErrConcurrencyConflict
}

// UnknownEventTypeError reports a persisted event tag with no registered
// factory. Deserialization fails loudly rather than dropping data.
type UnknownEventTypeError struct {
	Tag string
}

func (e *UnknownEventTypeError) Error() string {
	return fmt.Sprintf("unknown event type %q", e.Tag)
}

func (e *UnknownEventTypeError) Is(target error) bool {
	return target == ErrUnknownEventType
}
