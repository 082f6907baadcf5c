/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the Premi Engine server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load environment (.env via godotenv), then parse flags
  2. Build the logger
  3. Resolve base rate tables (defaults + RATES_FILE)
  4. Initialize SQLite store
  5. Configure HTTP router
  6. Start server with graceful shutdown

ENVIRONMENT:
  PORT             HTTP server port (default: 8080)
  DB_PATH          SQLite database path (default: premi.db)
  LOG_LEVEL        logrus level (default: info)
  ALLOWED_ORIGINS  Comma separated CORS origins
  RATES_FILE       YAML/JSON override applied to every organization

COMMAND-LINE FLAGS (override the environment):
  -port    HTTP server port
  -db      SQLite database path. Use ":memory:" for in-memory database
  -rates   Rates override file

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close database connection
  4. Exit

EXAMPLES:
  ./server -db="./data/premi.db"
  ./server -db=":memory:" -rates=./rates/acme.yaml

SEE ALSO:
  - api/server.go: Router configuration
  - config/config.go: Environment configuration
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/warp/premi-engine/api"
	"github.com/warp/premi-engine/config"
	"github.com/warp/premi-engine/factory"
	"github.com/warp/premi-engine/store/sqlite"
)

func main() {
	cfg := config.Load(nil)

	// Flags
	port := flag.Int("port", cfg.Port, "HTTP server port")
	dbPath := flag.String("db", cfg.DBPath, "SQLite database path")
	ratesFile := flag.String("rates", cfg.RatesFile, "Rates override file (.yaml, .yml or .json)")
	flag.Parse()

	logger := config.NewLogger(cfg.LogLevel)
	log := logger.WithFields(logrus.Fields{"module": "main", "funcName": "main"})

	// Base rate tables
	overrides := factory.NewOverrideFactory()
	base := factory.DefaultRateTables()
	if *ratesFile != "" {
		o, err := overrides.LoadFile(*ratesFile)
		if err != nil {
			log.Fatalf("Failed to load rates file: %v", err)
		}
		if base, err = overrides.Apply(base, o); err != nil {
			log.Fatalf("Invalid rates file: %v", err)
		}
		log.WithField("file", *ratesFile).Info("rates file applied")
	}

	// Initialize store
	store, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	// Initialize handler
	handler := api.NewHandler(store, logger)
	handler.Overrides = overrides
	handler.Base = base

	// Create router
	router := api.NewRouter(handler, cfg.AllowedOrigins)

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Infof("Server starting on http://localhost:%d", *port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Info("Server stopped")
}
