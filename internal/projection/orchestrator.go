package projection

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/example/notelog/internal/infrastructure/store"
)

const (
	// DefaultBatchSize bounds how many events one catch-up batch reads, so a
	// large backlog is processed incrementally and stays cancellable between
	// batches.
	DefaultBatchSize = 200

	// DefaultInterval is how often the background loop polls for new events
	// when no explicit signal arrives.
	DefaultInterval = 2 * time.Second
)

// SyncListener is notified after a projection's checkpoint advances. The
// notification is advisory, at-least-once and possibly redundant; query
// services remain the source of truth.
type SyncListener interface {
	ProjectionSynced(name string, position int64)
}

// SyncListenerFunc adapts a function to the SyncListener interface.
type SyncListenerFunc func(name string, position int64)

func (f SyncListenerFunc) ProjectionSynced(name string, position int64) { f(name, position) }

// ProjectionStatus is one row of the orchestrator's health report.
type ProjectionStatus struct {
	Name            string
	Status          Status
	Position        int64
	LastProcessedAt time.Time
	ErrorMessage    string
}

// registration tracks one projection's in-memory state. catchUpMu keeps the
// background loop and synchronous catch-up from interleaving batches for the
// same projection.
type registration struct {
	projection Projection
	catchUpMu  sync.Mutex

	mu     sync.Mutex
	status Status
}

func (r *registration) getStatus() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

func (r *registration) setStatus(s Status) {
	r.mu.Lock()
	r.status = s
	r.mu.Unlock()
}

// Orchestrator coordinates catch-up and rebuild across all registered
// projections. Projections progress independently: one projection's failure
// freezes only that projection.
type Orchestrator struct {
	eventStore  store.EventStoreInterface
	checkpoints *CheckpointStore
	batchSize   int
	interval    time.Duration

	mu            sync.RWMutex
	registrations map[string]*registration
	order         []string
	listeners     []SyncListener

	notifyCh chan struct{}
}

// Option configures the orchestrator.
type Option func(*Orchestrator)

// WithBatchSize overrides the catch-up batch size.
func WithBatchSize(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.batchSize = n
		}
	}
}

// WithInterval overrides the background polling interval.
func WithInterval(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.interval = d
		}
	}
}

func NewOrchestrator(eventStore store.EventStoreInterface, checkpoints *CheckpointStore, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		eventStore:    eventStore,
		checkpoints:   checkpoints,
		batchSize:     DefaultBatchSize,
		interval:      DefaultInterval,
		registrations: make(map[string]*registration),
		notifyCh:      make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Register adds a projection. Registering the same name twice is a
// programmer error. A projection whose persisted checkpoint is in the error
// state stays frozen across restarts until an explicit Retry.
func (o *Orchestrator) Register(p Projection) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, exists := o.registrations[p.Name()]; exists {
		return fmt.Errorf("projection %q already registered", p.Name())
	}
	status := StatusStopped
	cp, err := o.checkpoints.Get(context.Background(), p.Name())
	if err != nil {
		return fmt.Errorf("load checkpoint for %q: %w", p.Name(), err)
	}
	if cp.Status == StatusError {
		status = StatusError
	}
	o.registrations[p.Name()] = &registration{projection: p, status: status}
	o.order = append(o.order, p.Name())
	return nil
}

// AddListener registers an advisory sync listener.
func (o *Orchestrator) AddListener(l SyncListener) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.listeners = append(o.listeners, l)
}

// Notify signals the background loop that new events are available. Never
// blocks.
func (o *Orchestrator) Notify() {
	select {
	case o.notifyCh <- struct{}{}:
	default:
	}
}

// CatchUp processes all unseen events for the named projections, or for every
// registered projection when no names are given. Projections currently in
// the error state are skipped until Retry. Errors are collected per
// projection; one projection failing never stops the others.
func (o *Orchestrator) CatchUp(ctx context.Context, names ...string) error {
	regs, err := o.resolve(names)
	if err != nil {
		return err
	}

	var errs []error
	for _, reg := range regs {
		if reg.getStatus() == StatusError {
			continue
		}
		if err := o.catchUpOne(ctx, reg); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Rebuild resets the named projection and replays the entire log into it.
func (o *Orchestrator) Rebuild(ctx context.Context, name string) error {
	regs, err := o.resolve([]string{name})
	if err != nil {
		return err
	}
	reg := regs[0]

	reg.catchUpMu.Lock()
	defer reg.catchUpMu.Unlock()

	reg.setStatus(StatusRebuilding)
	if err := o.checkpoints.SetStatus(ctx, name, StatusRebuilding, ""); err != nil {
		return err
	}

	log.Printf("[Orchestrator] Rebuilding projection %s", name)

	if err := reg.projection.Reset(ctx); err != nil {
		return o.fail(ctx, reg, fmt.Errorf("reset %s: %w", name, err))
	}
	if err := o.checkpoints.Save(ctx, Checkpoint{
		ProjectionName: name,
		Position:       0,
		Status:         StatusRebuilding,
	}); err != nil {
		return err
	}
	checkpointPosition.WithLabelValues(name).Set(0)

	if err := o.runCatchUp(ctx, reg); err != nil {
		return err
	}
	rebuildsTotal.WithLabelValues(name).Inc()
	return nil
}

// Retry clears a projection's error state and catches it up from its frozen
// checkpoint.
func (o *Orchestrator) Retry(ctx context.Context, name string) error {
	regs, err := o.resolve([]string{name})
	if err != nil {
		return err
	}
	reg := regs[0]
	reg.setStatus(StatusStopped)
	if err := o.checkpoints.SetStatus(ctx, name, StatusStopped, ""); err != nil {
		return err
	}
	return o.catchUpOne(ctx, reg)
}

// Status reports every registered projection's persisted checkpoint and
// current state.
func (o *Orchestrator) Status(ctx context.Context) ([]ProjectionStatus, error) {
	o.mu.RLock()
	names := append([]string(nil), o.order...)
	o.mu.RUnlock()

	statuses := make([]ProjectionStatus, 0, len(names))
	for _, name := range names {
		cp, err := o.checkpoints.Get(ctx, name)
		if err != nil {
			return nil, err
		}
		o.mu.RLock()
		reg := o.registrations[name]
		o.mu.RUnlock()
		statuses = append(statuses, ProjectionStatus{
			Name:            name,
			Status:          reg.getStatus(),
			Position:        cp.Position,
			LastProcessedAt: cp.LastProcessedAt,
			ErrorMessage:    cp.ErrorMessage,
		})
	}
	return statuses, nil
}

// Run drives background catch-up until the context is cancelled. Catch-up is
// triggered by the polling interval or an explicit Notify. Cancellation takes
// effect at batch boundaries; the next start resumes from the persisted
// checkpoints.
func (o *Orchestrator) Run(ctx context.Context) {
	ticker := time.NewTicker(o.interval)
	defer ticker.Stop()

	log.Printf("[Orchestrator] Background catch-up loop started (interval %s)", o.interval)
	for {
		select {
		case <-ctx.Done():
			log.Printf("[Orchestrator] Background catch-up loop stopped")
			return
		case <-ticker.C:
		case <-o.notifyCh:
		}
		if err := o.CatchUp(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("[Orchestrator] Catch-up error: %v", err)
		}
	}
}

func (o *Orchestrator) resolve(names []string) ([]*registration, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	if len(names) == 0 {
		names = o.order
	}
	regs := make([]*registration, 0, len(names))
	for _, name := range names {
		reg, ok := o.registrations[name]
		if !ok {
			return nil, fmt.Errorf("projection %q not registered", name)
		}
		regs = append(regs, reg)
	}
	return regs, nil
}

func (o *Orchestrator) catchUpOne(ctx context.Context, reg *registration) error {
	reg.catchUpMu.Lock()
	defer reg.catchUpMu.Unlock()

	if reg.getStatus() == StatusError {
		return nil
	}
	reg.setStatus(StatusCatchingUp)
	return o.runCatchUp(ctx, reg)
}

// runCatchUp pages through unseen events in bounded batches. The checkpoint
// advances only after a batch's row writes are committed, so a crash between
// batch and checkpoint repeats work instead of skipping it. Repetition is
// safe because handlers are idempotent.
func (o *Orchestrator) runCatchUp(ctx context.Context, reg *registration) error {
	name := reg.projection.Name()

	cp, err := o.checkpoints.Get(ctx, name)
	if err != nil {
		return err
	}
	position := cp.Position

	for {
		if err := ctx.Err(); err != nil {
			// Clean stop at a batch boundary; resume from the persisted
			// checkpoint on the next run.
			reg.setStatus(StatusStopped)
			return err
		}

		events, err := o.eventStore.ReadStream(ctx, position, o.batchSize)
		if err != nil {
			return o.fail(ctx, reg, fmt.Errorf("read stream for %s: %w", name, err))
		}
		if len(events) == 0 {
			break
		}

		for _, event := range events {
			if err := reg.projection.Handle(ctx, event); err != nil {
				// Freeze at the last good position. Events at or before
				// `position` are fully applied; this one is not.
				handlerErrors.WithLabelValues(name).Inc()
				return o.fail(ctx, reg, fmt.Errorf("projection %s failed at position %d: %w",
					name, event.StreamPosition, err))
			}
			position = event.StreamPosition
			eventsProcessed.WithLabelValues(name).Inc()
		}

		if err := o.advance(ctx, reg, position); err != nil {
			return err
		}
	}

	reg.setStatus(StatusRunning)
	if err := o.checkpoints.SetStatus(ctx, name, StatusRunning, ""); err != nil {
		return err
	}
	return nil
}

func (o *Orchestrator) advance(ctx context.Context, reg *registration, position int64) error {
	name := reg.projection.Name()
	err := o.checkpoints.Save(ctx, Checkpoint{
		ProjectionName:  name,
		Position:        position,
		LastProcessedAt: time.Now().UTC(),
		Status:          reg.getStatus(),
	})
	if err != nil {
		return o.fail(ctx, reg, err)
	}
	checkpointPosition.WithLabelValues(name).Set(float64(position))

	o.mu.RLock()
	listeners := append([]SyncListener(nil), o.listeners...)
	o.mu.RUnlock()
	for _, l := range listeners {
		l.ProjectionSynced(name, position)
	}
	return nil
}

// fail transitions a projection to the error state, keeping its checkpoint
// at the last good position. The projection is excluded from catch-up until
// Retry.
func (o *Orchestrator) fail(ctx context.Context, reg *registration, cause error) error {
	name := reg.projection.Name()
	reg.setStatus(StatusError)
	log.Printf("[Orchestrator] Projection %s entered error state: %v", name, cause)
	if err := o.checkpoints.SetStatus(ctx, name, StatusError, cause.Error()); err != nil {
		log.Printf("[Orchestrator] Failed to persist error state for %s: %v", name, err)
	}
	return cause
}
