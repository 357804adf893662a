package projection

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/example/notelog/internal/domain/category"
	"github.com/example/notelog/internal/domain/note"
	"github.com/example/notelog/internal/domain/tag"
	"github.com/example/notelog/internal/domain/todo"
	"github.com/example/notelog/internal/infrastructure/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	db           *sql.DB
	serializer   *store.Serializer
	eventStore   *store.SQLiteEventStore
	checkpoints  *CheckpointStore
	orchestrator *Orchestrator

	notes      *NoteListProjection
	todos      *TodoBoardProjection
	categories *CategoryTreeProjection
	tags       *TagCatalogProjection
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()

	db, err := store.ConnectSQLite(filepath.Join(t.TempDir(), "notelog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	serializer := store.NewSerializer()
	serializer.RegisterAll(note.Events()...)
	serializer.RegisterAll(category.Events()...)
	serializer.RegisterAll(todo.Events()...)
	serializer.RegisterAll(tag.Events()...)

	f := &fixture{
		db:          db,
		serializer:  serializer,
		eventStore:  store.NewSQLiteEventStore(db, serializer),
		checkpoints: NewCheckpointStore(db),
	}
	f.orchestrator = NewOrchestrator(f.eventStore, f.checkpoints, opts...)

	f.notes, err = NewNoteListProjection(db, serializer)
	require.NoError(t, err)
	f.todos, err = NewTodoBoardProjection(db, serializer)
	require.NoError(t, err)
	f.categories, err = NewCategoryTreeProjection(db, serializer)
	require.NoError(t, err)
	f.tags, err = NewTagCatalogProjection(db, serializer)
	require.NoError(t, err)

	for _, p := range []Projection{f.notes, f.todos, f.categories, f.tags} {
		require.NoError(t, f.orchestrator.Register(p))
	}
	return f
}

func (f *fixture) saveNote(t *testing.T, title, content, categoryID string) *note.Note {
	t.Helper()
	n, err := note.New(title, content, categoryID)
	require.NoError(t, err)
	_, err = f.eventStore.Save(context.Background(), n, 0)
	require.NoError(t, err)
	return n
}

func (f *fixture) save(t *testing.T, agg interface {
	store.Persistable
	GetVersion() int
}) {
	t.Helper()
	_, err := f.eventStore.Save(context.Background(), agg, agg.GetVersion())
	require.NoError(t, err)
}

func (f *fixture) countRows(t *testing.T, table string) int {
	t.Helper()
	var n int
	require.NoError(t, f.db.QueryRow(`SELECT COUNT(*) FROM `+table).Scan(&n))
	return n
}

// flakyProjection fails every Handle call while failing is set.
type flakyProjection struct {
	failing bool
	handled int
}

func (p *flakyProjection) Name() string { return "flaky" }

func (p *flakyProjection) Handle(ctx context.Context, event store.Event) error {
	p.handled++
	if p.failing {
		return errors.New("handler blew up")
	}
	return nil
}

func (p *flakyProjection) Reset(ctx context.Context) error {
	p.handled = 0
	return nil
}

// ============================================
// Catch-Up Tests
// ============================================

func TestOrchestrator_CatchUp_FoldsEvents(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	n := f.saveNote(t, "Meeting notes", "Discuss roadmap", "cat-1")
	require.NoError(t, n.Rename("Roadmap"))
	require.NoError(t, n.AttachTag("work"))
	f.save(t, n)

	require.NoError(t, f.orchestrator.CatchUp(ctx))

	var title, snippet string
	require.NoError(t, f.db.QueryRow(
		`SELECT title, snippet FROM notes_view WHERE id = ?`, n.ID,
	).Scan(&title, &snippet))
	assert.Equal(t, "Roadmap", title)
	assert.Equal(t, "Discuss roadmap", snippet)
	assert.Equal(t, 1, f.countRows(t, "note_tags"))

	// The checkpoint sits at the end of the log with a running status.
	max, err := f.eventStore.MaxStreamPosition(ctx)
	require.NoError(t, err)
	cp, err := f.checkpoints.Get(ctx, "note_list")
	require.NoError(t, err)
	assert.Equal(t, max, cp.Position)
	assert.Equal(t, StatusRunning, cp.Status)
}

func TestOrchestrator_CatchUp_SmallBatches(t *testing.T) {
	f := newFixture(t, WithBatchSize(1))
	ctx := context.Background()

	n := f.saveNote(t, "Meeting notes", "content", "")
	for i := 0; i < 4; i++ {
		if i%2 == 0 {
			require.NoError(t, n.Pin())
		} else {
			require.NoError(t, n.Unpin())
		}
		f.save(t, n)
	}

	require.NoError(t, f.orchestrator.CatchUp(ctx))

	cp, err := f.checkpoints.Get(ctx, "note_list")
	require.NoError(t, err)
	assert.Equal(t, int64(5), cp.Position)
}

func TestOrchestrator_CatchUp_SecondRunIsNoOp(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.saveNote(t, "Meeting notes", "content", "")

	var advances []int64
	f.orchestrator.AddListener(SyncListenerFunc(func(name string, position int64) {
		if name == "note_list" {
			advances = append(advances, position)
		}
	}))

	require.NoError(t, f.orchestrator.CatchUp(ctx))
	require.NoError(t, f.orchestrator.CatchUp(ctx))

	// Only the first run had events to fold, so only it advanced.
	assert.Equal(t, []int64{1}, advances)
}

func TestOrchestrator_CatchUp_Cancelled(t *testing.T) {
	f := newFixture(t)
	f.saveNote(t, "Meeting notes", "content", "")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := f.orchestrator.CatchUp(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	// Nothing was processed; the next run starts from scratch.
	cp, cpErr := f.checkpoints.Get(context.Background(), "note_list")
	require.NoError(t, cpErr)
	assert.Equal(t, int64(0), cp.Position)
}

func TestOrchestrator_CatchUp_UnknownProjection(t *testing.T) {
	f := newFixture(t)

	err := f.orchestrator.CatchUp(context.Background(), "nope")

	assert.Error(t, err)
}

// ============================================
// Idempotence Tests
// ============================================

func TestNoteListProjection_Handle_Idempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	n := f.saveNote(t, "Meeting notes", "content", "cat-1")
	require.NoError(t, n.AttachTag("work"))
	f.save(t, n)

	events, err := f.eventStore.ReadStream(ctx, 0, 0)
	require.NoError(t, err)

	// Replaying the same events twice must land on the same rows.
	for i := 0; i < 2; i++ {
		for _, e := range events {
			require.NoError(t, f.notes.Handle(ctx, e))
		}
	}

	assert.Equal(t, 1, f.countRows(t, "notes_view"))
	assert.Equal(t, 1, f.countRows(t, "note_tags"))
}

func TestTagCatalogProjection_Handle_Idempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tg, err := tag.New("work", "#ff8800")
	require.NoError(t, err)
	_, err = f.eventStore.Save(ctx, tg, 0)
	require.NoError(t, err)

	n := f.saveNote(t, "Meeting notes", "content", "")
	require.NoError(t, n.AttachTag("work"))
	f.save(t, n)

	events, err := f.eventStore.ReadStream(ctx, 0, 0)
	require.NoError(t, err)
	for i := 0; i < 2; i++ {
		for _, e := range events {
			require.NoError(t, f.tags.Handle(ctx, e))
		}
	}

	assert.Equal(t, 1, f.countRows(t, "tags_view"))
	assert.Equal(t, 1, f.countRows(t, "tag_assignments"))
}

// ============================================
// Rebuild Tests
// ============================================

func TestOrchestrator_Rebuild_RestoresCorruptedRows(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	n := f.saveNote(t, "Meeting notes", "content", "")
	require.NoError(t, f.orchestrator.CatchUp(ctx))

	_, err := f.db.Exec(`UPDATE notes_view SET title = 'corrupted' WHERE id = ?`, n.ID)
	require.NoError(t, err)

	require.NoError(t, f.orchestrator.Rebuild(ctx, "note_list"))

	var title string
	require.NoError(t, f.db.QueryRow(`SELECT title FROM notes_view WHERE id = ?`, n.ID).Scan(&title))
	assert.Equal(t, "Meeting notes", title)

	cp, err := f.checkpoints.Get(ctx, "note_list")
	require.NoError(t, err)
	max, err := f.eventStore.MaxStreamPosition(ctx)
	require.NoError(t, err)
	assert.Equal(t, max, cp.Position)
	assert.Equal(t, StatusRunning, cp.Status)
}

func TestOrchestrator_Rebuild_DropsStaleRows(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.saveNote(t, "Meeting notes", "content", "")
	require.NoError(t, f.orchestrator.CatchUp(ctx))

	// A row that no event justifies disappears on rebuild.
	_, err := f.db.Exec(
		`INSERT INTO notes_view (id, title, snippet, category_id, created_at, updated_at)
		 VALUES ('ghost', 'Ghost', '', '', '2026-01-01', '2026-01-01')`)
	require.NoError(t, err)
	require.Equal(t, 2, f.countRows(t, "notes_view"))

	require.NoError(t, f.orchestrator.Rebuild(ctx, "note_list"))

	assert.Equal(t, 1, f.countRows(t, "notes_view"))
}

// ============================================
// Error Isolation Tests
// ============================================

func TestOrchestrator_ErrorIsolation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	flaky := &flakyProjection{failing: true}
	require.NoError(t, f.orchestrator.Register(flaky))

	f.saveNote(t, "Meeting notes", "content", "")

	err := f.orchestrator.CatchUp(ctx)
	require.Error(t, err)

	// The healthy projection advanced despite the failure.
	assert.Equal(t, 1, f.countRows(t, "notes_view"))

	// The failing projection froze at its last good position.
	cp, cpErr := f.checkpoints.Get(ctx, "flaky")
	require.NoError(t, cpErr)
	assert.Equal(t, int64(0), cp.Position)
	assert.Equal(t, StatusError, cp.Status)
	assert.NotEmpty(t, cp.ErrorMessage)

	// Until Retry, catch-up skips the frozen projection entirely.
	handledBefore := flaky.handled
	require.NoError(t, f.orchestrator.CatchUp(ctx))
	assert.Equal(t, handledBefore, flaky.handled)

	// Retry resumes from the frozen checkpoint.
	flaky.failing = false
	require.NoError(t, f.orchestrator.Retry(ctx, "flaky"))
	cp, cpErr = f.checkpoints.Get(ctx, "flaky")
	require.NoError(t, cpErr)
	assert.Equal(t, int64(1), cp.Position)
	assert.Equal(t, StatusRunning, cp.Status)
	assert.Empty(t, cp.ErrorMessage)
}

// ============================================
// Status Tests
// ============================================

func TestOrchestrator_Status(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.saveNote(t, "Meeting notes", "content", "")
	require.NoError(t, f.orchestrator.CatchUp(ctx))

	statuses, err := f.orchestrator.Status(ctx)
	require.NoError(t, err)
	require.Len(t, statuses, 4)

	byName := make(map[string]ProjectionStatus, len(statuses))
	for _, s := range statuses {
		byName[s.Name] = s
	}
	assert.Equal(t, StatusRunning, byName["note_list"].Status)
	assert.Equal(t, int64(1), byName["note_list"].Position)
}

// ============================================
// Cross-Aggregate Fold Tests
// ============================================

func TestTodoBoard_NoteDeleted_ClearsLink(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	n := f.saveNote(t, "Meeting notes", "content", "")
	td, err := todo.New("Follow up", n.ID, nil)
	require.NoError(t, err)
	_, err = f.eventStore.Save(ctx, td, 0)
	require.NoError(t, err)

	require.NoError(t, n.Delete())
	f.save(t, n)

	require.NoError(t, f.orchestrator.CatchUp(ctx))

	var noteID string
	require.NoError(t, f.db.QueryRow(`SELECT note_id FROM todos_view WHERE id = ?`, td.ID).Scan(&noteID))
	assert.Empty(t, noteID)
}

func TestCategoryTree_Delete_PromotesChildren(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	parent, err := category.New("Parent", "", 0)
	require.NoError(t, err)
	_, err = f.eventStore.Save(ctx, parent, 0)
	require.NoError(t, err)

	child, err := category.New("Child", parent.ID, 0)
	require.NoError(t, err)
	_, err = f.eventStore.Save(ctx, child, 0)
	require.NoError(t, err)

	require.NoError(t, parent.Delete())
	f.save(t, parent)

	require.NoError(t, f.orchestrator.CatchUp(ctx))

	assert.Equal(t, 1, f.countRows(t, "categories_view"))
	var parentID string
	require.NoError(t, f.db.QueryRow(`SELECT parent_id FROM categories_view WHERE id = ?`, child.ID).Scan(&parentID))
	assert.Empty(t, parentID)
}

func TestTagCatalog_AdHocTagGetsCatalogRow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// The tag is used on a note without ever being formally created.
	n := f.saveNote(t, "Meeting notes", "content", "")
	require.NoError(t, n.AttachTag("adhoc"))
	f.save(t, n)

	require.NoError(t, f.orchestrator.CatchUp(ctx))

	var name, tagID string
	require.NoError(t, f.db.QueryRow(`SELECT name, tag_id FROM tags_view WHERE name = 'adhoc'`).Scan(&name, &tagID))
	assert.Equal(t, "adhoc", name)
	assert.Empty(t, tagID)
}

func TestTagCatalog_RenameOntoAdHocName_MergesAndRebuilds(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// "urgent" already has an ad-hoc catalog row before the formal tag is
	// renamed onto the same name.
	n := f.saveNote(t, "Meeting notes", "content", "")
	require.NoError(t, n.AttachTag("urgent"))
	f.save(t, n)

	tg, err := tag.New("work", "#ff8800")
	require.NoError(t, err)
	_, err = f.eventStore.Save(ctx, tg, 0)
	require.NoError(t, err)
	require.NoError(t, tg.Rename("urgent"))
	f.save(t, tg)

	require.NoError(t, f.orchestrator.CatchUp(ctx))

	// The two rows merged: the formal tag's identity and color landed on the
	// surviving "urgent" row, and the "work" row is gone.
	assert.Equal(t, 1, f.countRows(t, "tags_view"))
	var tagID, color string
	require.NoError(t, f.db.QueryRow(
		`SELECT tag_id, color FROM tags_view WHERE name = 'urgent'`,
	).Scan(&tagID, &color))
	assert.Equal(t, tg.ID, tagID)
	assert.Equal(t, "#ff8800", color)

	// The same history replays cleanly from scratch.
	require.NoError(t, f.orchestrator.Rebuild(ctx, "tag_catalog"))
	assert.Equal(t, 1, f.countRows(t, "tags_view"))
	require.NoError(t, f.db.QueryRow(
		`SELECT tag_id, color FROM tags_view WHERE name = 'urgent'`,
	).Scan(&tagID, &color))
	assert.Equal(t, tg.ID, tagID)
	assert.Equal(t, "#ff8800", color)

	cp, err := f.checkpoints.Get(ctx, "tag_catalog")
	require.NoError(t, err)
	max, err := f.eventStore.MaxStreamPosition(ctx)
	require.NoError(t, err)
	assert.Equal(t, max, cp.Position)
	assert.Equal(t, StatusRunning, cp.Status)
}

// ============================================
// Checkpoint Store Tests
// ============================================

func TestCheckpointStore_Get_DefaultsToStopped(t *testing.T) {
	f := newFixture(t)

	cp, err := f.checkpoints.Get(context.Background(), "never_seen")

	require.NoError(t, err)
	assert.Equal(t, int64(0), cp.Position)
	assert.Equal(t, StatusStopped, cp.Status)
}

func TestCheckpointStore_SetStatus_PreservesPosition(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.checkpoints.Save(ctx, Checkpoint{
		ProjectionName: "note_list",
		Position:       42,
		Status:         StatusRunning,
	}))
	require.NoError(t, f.checkpoints.SetStatus(ctx, "note_list", StatusError, "boom"))

	cp, err := f.checkpoints.Get(ctx, "note_list")
	require.NoError(t, err)
	assert.Equal(t, int64(42), cp.Position)
	assert.Equal(t, StatusError, cp.Status)
	assert.Equal(t, "boom", cp.ErrorMessage)
}

// ============================================
// Registration Tests
// ============================================

func TestOrchestrator_Register_Duplicate(t *testing.T) {
	f := newFixture(t)

	err := f.orchestrator.Register(f.notes)

	assert.Error(t, err)
}

func TestOrchestrator_Register_SeedsErrorStateFromCheckpoint(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.saveNote(t, "Meeting notes", "content", "")
	require.NoError(t, f.checkpoints.SetStatus(ctx, "note_list", StatusError, "handler blew up"))

	// A restarted orchestrator picks up the persisted error state: the
	// projection stays frozen until an explicit Retry.
	restarted := NewOrchestrator(f.eventStore, f.checkpoints)
	require.NoError(t, restarted.Register(f.notes))

	require.NoError(t, restarted.CatchUp(ctx))
	cp, err := f.checkpoints.Get(ctx, "note_list")
	require.NoError(t, err)
	assert.Equal(t, int64(0), cp.Position)
	assert.Equal(t, StatusError, cp.Status)

	statuses, err := restarted.Status(ctx)
	require.NoError(t, err)
	require.Len(t, statuses, 1)
	assert.Equal(t, StatusError, statuses[0].Status)

	require.NoError(t, restarted.Retry(ctx, "note_list"))
	cp, err = f.checkpoints.Get(ctx, "note_list")
	require.NoError(t, err)
	assert.Equal(t, int64(1), cp.Position)
	assert.Equal(t, StatusRunning, cp.Status)
}
