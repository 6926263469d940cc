package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"classtable-backend/config"
	"classtable-backend/internal/api"
	"classtable-backend/internal/db"
	"classtable-backend/internal/exporter"
	"classtable-backend/internal/store"
	"classtable-backend/internal/timetable"
	"classtable-backend/internal/upstream"
)

func main() {
	// Setup logger
	logger := log.New(os.Stdout, "classtable-backend ", log.LstdFlags)

	// A .env file is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	// Load configuration
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml" // Default path for local development
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatalf("failed to load configuration from %s: %v", configPath, err)
	}
	logger.Printf("configuration loaded successfully from %s", configPath)

	// Build the term catalog; bad adjustment data must fail startup, not a
	// student's export.
	catalog, err := timetable.NewCatalog(cfg.Terms)
	if err != nil {
		logger.Fatalf("failed to build term catalog: %v", err)
	}
	logger.Printf("term catalog loaded with %d term(s)", len(cfg.Terms))

	// Initialize database
	gormDB, err := db.Init(&cfg.Database)
	if err != nil {
		logger.Fatalf("failed to initialize database: %v", err)
	}
	logger.Println("database initialized successfully")

	appStore := store.NewGormStore(gormDB)

	// Upstream academic-records client and the feed pipeline
	upstreamClient := upstream.NewClient(&cfg.Upstream)
	builder := timetable.NewBuilder(cfg.Calendar.UIDDomain)
	renderer := &exporter.FeedRenderer{
		Catalog:  catalog,
		Upstream: upstreamClient,
		Builder:  builder,
	}
	exportSvc := exporter.New(cfg.Calendar.Dir, cfg.Calendar.WorkerPoolSize, appStore, renderer)

	// Create a context that can be cancelled
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	exportSvc.Start(ctx)
	logger.Printf("export worker pool started with %d worker(s)", cfg.Calendar.WorkerPoolSize)

	// Initialize router
	handler := api.NewHandler(appStore, catalog, upstreamClient, exportSvc, renderer)
	router := api.NewRouter(handler, &cfg.Server)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	// Start the server in a goroutine
	go func() {
		logger.Printf("HTTP server starting on port %d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("HTTP server ListenAndServe: %v", err)
		}
	}()

	// Setup signal handling for graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	// Block until a signal is received.
	<-stop
	logger.Println("Shutdown signal received, stopping services...")

	// Create a deadline to wait for.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatalf("HTTP server Shutdown: %v", err)
	}

	logger.Println("Server gracefully stopped")
}
