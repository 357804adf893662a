package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/example/notelog/internal/config"
	"github.com/example/notelog/internal/domain/category"
	"github.com/example/notelog/internal/domain/note"
	"github.com/example/notelog/internal/domain/tag"
	"github.com/example/notelog/internal/domain/todo"
	"github.com/example/notelog/internal/infrastructure/kafka"
	"github.com/example/notelog/internal/infrastructure/store"
	"github.com/example/notelog/internal/projection"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[Notelog] Failed to load config: %v", err)
	}

	log.Println("[Notelog] ========================================")
	log.Println("[Notelog] Notelog - Event-Sourced Note Store")
	log.Println("[Notelog] ========================================")
	log.Printf("[Notelog] Database: %s", cfg.DBPath)
	log.Printf("[Notelog] Catch-up: batch %d, interval %s", cfg.CatchUpBatchSize, cfg.CatchUpInterval)

	db, err := store.ConnectSQLite(cfg.DBPath)
	if err != nil {
		log.Fatalf("[Notelog] Failed to open database: %v", err)
	}
	defer db.Close()
	log.Println("[Notelog] Connected to SQLite")

	serializer := store.NewSerializer()
	serializer.RegisterAll(note.Events()...)
	serializer.RegisterAll(category.Events()...)
	serializer.RegisterAll(todo.Events()...)
	serializer.RegisterAll(tag.Events()...)
	log.Printf("[Notelog] Registered %d event types", len(serializer.RegisteredTypes()))

	eventStore := store.NewSQLiteEventStore(db, serializer)
	checkpoints := projection.NewCheckpointStore(db)

	orchestrator := projection.NewOrchestrator(eventStore, checkpoints,
		projection.WithBatchSize(cfg.CatchUpBatchSize),
		projection.WithInterval(cfg.CatchUpInterval),
	)
	if err := registerProjections(orchestrator, db, serializer); err != nil {
		log.Fatalf("[Notelog] Failed to set up projections: %v", err)
	}

	if len(cfg.KafkaBrokers) > 0 {
		publisher := kafka.NewSyncPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer publisher.Close()
		orchestrator.AddListener(publisher)
		log.Printf("[Notelog] Sync signals: Kafka %v topic %s", cfg.KafkaBrokers, cfg.KafkaTopic)
	}

	// Startup catch-up: fold any events appended while the daemon was down
	// before serving.
	log.Println("[Notelog] Catching up projections...")
	if err := orchestrator.CatchUp(ctx); err != nil {
		log.Printf("[Notelog] Startup catch-up error: %v", err)
	}
	log.Println("[Notelog] Projections up to date")

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		orchestrator.Run(ctx)
	}()

	var metricsServer *http.Server
	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsServer = &http.Server{Addr: cfg.MetricsAddr, Handler: mux}
		go func() {
			log.Printf("[Notelog] Metrics on %s/metrics", cfg.MetricsAddr)
			if err := metricsServer.ListenAndServe(); err != http.ErrServerClosed {
				log.Printf("[Notelog] Metrics server error: %v", err)
			}
		}()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[Notelog] Shutting down...")
	cancel()

	if metricsServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		metricsServer.Shutdown(shutdownCtx)
	}
	wg.Wait()
}

func registerProjections(orchestrator *projection.Orchestrator, db *sql.DB, serializer *store.Serializer) error {
	noteList, err := projection.NewNoteListProjection(db, serializer)
	if err != nil {
		return err
	}
	todoBoard, err := projection.NewTodoBoardProjection(db, serializer)
	if err != nil {
		return err
	}
	categoryTree, err := projection.NewCategoryTreeProjection(db, serializer)
	if err != nil {
		return err
	}
	tagCatalog, err := projection.NewTagCatalogProjection(db, serializer)
	if err != nil {
		return err
	}
	for _, p := range []projection.Projection{noteList, todoBoard, categoryTree, tagCatalog} {
		if err := orchestrator.Register(p); err != nil {
			return err
		}
	}
	return nil
}
