/*
main.go - Rating server entry point

PURPOSE:
  Initializes and starts the rating engine HTTP server. Handles
  configuration, dependency injection, background snapshot refresh, and
  graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration from environment
  2. Build the zap logger
  3. Open the SQLite back-office store
  4. Create the rating service and attempt an initial refresh
  5. Start the refresh ticker and HTTP server

  A failed initial refresh is not fatal: the server starts and answers
  quotes with 503 until reference data loads (an empty store on first run
  is expected; load a scenario or seed via the CLI).

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop the refresh ticker
  2. Stop accepting new connections
  3. Wait for active requests to complete (30s timeout)
  4. Close the database connection

ENVIRONMENT:
  RATING_PORT              HTTP port (default 8080)
  RATING_DB_PATH           SQLite path (default rating.db, ":memory:" works)
  RATING_CURRENCY          Snapshot currency (default USD)
  RATING_REFRESH_INTERVAL  Background refresh period (default 5m, 0 disables)
  RATING_LOG_LEVEL         debug|info|warn|error (default info)
  RATING_LOG_FORMAT        json|console (default console)

SEE ALSO:
  - api/server.go: Router configuration
  - rating/service.go: Snapshot refresh semantics
  - store/sqlite/sqlite.go: Back-office schema
*/
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/coverline/rating-engine/api"
	"github.com/coverline/rating-engine/internal/config"
	"github.com/coverline/rating-engine/internal/logging"
	"github.com/coverline/rating-engine/rating"
	"github.com/coverline/rating-engine/store/sqlite"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log := logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	defer log.Sync()

	store, err := sqlite.New(cfg.DBPath, cfg.Currency)
	if err != nil {
		log.Fatal("failed to open store", zap.String("path", cfg.DBPath), zap.Error(err))
	}
	defer store.Close()

	svc := rating.NewService(store, log)

	// An empty store on first boot is normal; quotes return 503 until a
	// catalog is seeded and refreshed.
	if err := svc.Refresh(context.Background()); err != nil {
		log.Warn("initial snapshot refresh failed, serving without reference data",
			zap.Error(err))
	}

	handler := api.NewHandler(svc, store, log)
	router := api.NewRouter(handler)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	refreshCtx, stopRefresh := context.WithCancel(context.Background())
	if cfg.RefreshInterval > 0 {
		go refreshLoop(refreshCtx, svc, cfg.RefreshInterval, log)
	}

	go func() {
		log.Info("rating server starting",
			zap.Int("port", cfg.Port),
			zap.String("db", cfg.DBPath),
			zap.Duration("refresh_interval", cfg.RefreshInterval))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	stopRefresh()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal("forced shutdown", zap.Error(err))
	}
	log.Info("server stopped")
}

// refreshLoop re-reads reference data on a fixed interval. Failures are
// logged by the service and the previous snapshot keeps serving.
func refreshLoop(ctx context.Context, svc *rating.Service, interval time.Duration, log *zap.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := svc.Refresh(ctx); err != nil {
				log.Warn("background refresh failed", zap.Error(err))
			}
		}
	}
}
