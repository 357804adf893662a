// Rebuild drops and replays projections from the event log. With no
// arguments it rebuilds every projection; otherwise only the named ones.
//
//	rebuild [projection ...]
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/example/notelog/internal/config"
	"github.com/example/notelog/internal/domain/category"
	"github.com/example/notelog/internal/domain/note"
	"github.com/example/notelog/internal/domain/tag"
	"github.com/example/notelog/internal/domain/todo"
	"github.com/example/notelog/internal/infrastructure/store"
	"github.com/example/notelog/internal/projection"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Println("[Rebuild] Interrupted, stopping at next batch boundary...")
		cancel()
	}()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[Rebuild] Failed to load config: %v", err)
	}

	db, err := store.ConnectSQLite(cfg.DBPath)
	if err != nil {
		log.Fatalf("[Rebuild] Failed to open database: %v", err)
	}
	defer db.Close()

	serializer := store.NewSerializer()
	serializer.RegisterAll(note.Events()...)
	serializer.RegisterAll(category.Events()...)
	serializer.RegisterAll(todo.Events()...)
	serializer.RegisterAll(tag.Events()...)

	eventStore := store.NewSQLiteEventStore(db, serializer)
	checkpoints := projection.NewCheckpointStore(db)
	orchestrator := projection.NewOrchestrator(eventStore, checkpoints,
		projection.WithBatchSize(cfg.CatchUpBatchSize),
	)

	noteList, err := projection.NewNoteListProjection(db, serializer)
	if err != nil {
		log.Fatalf("[Rebuild] Failed to set up projections: %v", err)
	}
	todoBoard, err := projection.NewTodoBoardProjection(db, serializer)
	if err != nil {
		log.Fatalf("[Rebuild] Failed to set up projections: %v", err)
	}
	categoryTree, err := projection.NewCategoryTreeProjection(db, serializer)
	if err != nil {
		log.Fatalf("[Rebuild] Failed to set up projections: %v", err)
	}
	tagCatalog, err := projection.NewTagCatalogProjection(db, serializer)
	if err != nil {
		log.Fatalf("[Rebuild] Failed to set up projections: %v", err)
	}

	projections := []projection.Projection{noteList, todoBoard, categoryTree, tagCatalog}
	for _, p := range projections {
		if err := orchestrator.Register(p); err != nil {
			log.Fatalf("[Rebuild] Failed to register projection: %v", err)
		}
	}

	names := os.Args[1:]
	if len(names) == 0 {
		for _, p := range projections {
			names = append(names, p.Name())
		}
	}

	for _, name := range names {
		log.Printf("[Rebuild] Rebuilding %s...", name)
		if err := orchestrator.Rebuild(ctx, name); err != nil {
			log.Fatalf("[Rebuild] Failed to rebuild %s: %v", name, err)
		}
		log.Printf("[Rebuild] %s rebuilt", name)
	}
	log.Println("[Rebuild] Done")
}
