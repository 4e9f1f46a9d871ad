// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/flowdeck/console/internal/actions"
	"github.com/flowdeck/console/internal/blocker"
	"github.com/flowdeck/console/internal/config"
	"github.com/flowdeck/console/internal/eventstore"
	"github.com/flowdeck/console/internal/logging"
	"github.com/flowdeck/console/internal/notify"
	"github.com/flowdeck/console/internal/orchestrator"
	"github.com/flowdeck/console/internal/persistence/postgres"
	"github.com/flowdeck/console/internal/repository"
	"github.com/flowdeck/console/internal/statesync"
	httptransport "github.com/flowdeck/console/internal/transport/http"
	"github.com/flowdeck/console/internal/transport/ws"
)

var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config failed: %v", err)
	}

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer stop()

	logger := logging.NewLogger(cfg.Env)

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer pool.Close()

	if cfg.AutoMigrate {
		if err := postgres.EnsureSchema(ctx, pool, logger); err != nil {
			log.Fatalf("schema bootstrap failed: %v", err)
		}
	} else if err := postgres.SchemaReady(ctx, pool); err != nil {
		log.Fatalf("schema check failed: %v", err)
	}

	stateRepo := repository.NewStateRepository(pool, logger)
	store := eventstore.New()

	persisted, err := stateRepo.Load(ctx)
	if err != nil {
		log.Fatalf("load persisted state failed: %v", err)
	}
	store.Restore(persisted)
	logger.Info("state restored",
		"selected_workflow_id", persisted.SelectedWorkflowID,
		"last_event_id", persisted.LastEventID,
	)

	client := orchestrator.NewClient(cfg.OrchestratorURL)
	feed := notify.NewFeed(notify.DefaultFeedCapacity, logger)
	dispatcher := actions.NewDispatcher(actions.NewTracker(), client, feed, logger)
	manager := blocker.NewManager(client, logger)

	handler := httptransport.NewRouter(httptransport.Deps{
		Store:          store,
		Orchestrator:   client,
		Commands:       dispatcher,
		Pending:        dispatcher.Tracker(),
		Blockers:       manager,
		Notifications:  feed,
		Health:         postgres.NewSchemaHealthChecker(pool),
		Logger:         logger,
		AdminToken:     cfg.AdminToken,
		CommandsPerMin: cfg.CommandsPerMin,
		Version:        Version,
		Commit:         Commit,
		BuildDate:      BuildDate,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	var wg sync.WaitGroup

	consumer := ws.New(cfg.EventStreamURL, store, logger)
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := consumer.Run(ctx); err != nil && ctx.Err() == nil {
			logger.Error("event consumer stopped", "error", err)
		}
	}()

	syncer := statesync.New(statesync.Deps{
		Store:  store,
		Repo:   stateRepo,
		Logger: logger,
	})
	wg.Add(1)
	go func() {
		defer wg.Done()
		syncer.Run(ctx)
	}()

	go func() {
		logger.Info("console listening",
			"addr", cfg.HTTPAddr,
			"version", Version,
			"commit", Commit,
			"build_date", BuildDate,
		)

		if err := srv.ListenAndServe(); err != nil &&
			err != http.ErrServerClosed {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		5*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	wg.Wait()
}
