package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/zbozihub/zbozihub/app/affiliate"
	"github.com/zbozihub/zbozihub/app/api"
	"github.com/zbozihub/zbozihub/app/cfg"
	"github.com/zbozihub/zbozihub/app/clicks"
	"github.com/zbozihub/zbozihub/app/database"
	"github.com/zbozihub/zbozihub/app/ingest"
	"github.com/zbozihub/zbozihub/app/tasks"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	// Load configuration from environment variables and command-line flags
	appCfg, err := cfg.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if appCfg == nil {
		// Help was shown, exit gracefully
		return
	}

	logLevel := slog.LevelInfo
	if appCfg.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	log.Printf("Starting ZboziHub server (version %s)...", appCfg.Version)

	// Database connection
	log.Println("Connecting to database...")
	db, err := database.NewConnection(
		appCfg.DBHost, appCfg.DBPort, appCfg.DBUser,
		appCfg.DBPassword, appCfg.DBName)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()
	log.Printf("Connected to database successfully")

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		log.Fatal("Failed to run migrations:", err)
	}
	log.Printf("Database schema at version %d (dirty: %t)", version, dirty)

	// Initialize repositories
	feedRepo := database.NewFeedRepository(db)
	networkRepo := database.NewNetworkRepository(db)
	categoryRepo := database.NewCategoryRepository(db)
	shopRepo := database.NewShopRepository(db)
	productRepo := database.NewProductRepository(db)
	logRepo := database.NewImportLogRepository(db)

	// Initialize core components
	fetcher := ingest.NewFetcher(&http.Client{}, appCfg.UserAgent)
	processor := ingest.NewProcessor(shopRepo, categoryRepo, productRepo, logRepo)
	ingestService := ingest.NewService(fetcher, processor, feedRepo, categoryRepo)

	affiliateClient := affiliate.NewClient(appCfg.UserAgent)
	syncService := affiliate.NewService(affiliateClient, processor, networkRepo)

	// Click analytics live in a local database so a broken analytics store
	// can never take down redirects
	clickStore, err := clicks.NewStore(appCfg.ClicksDBPath)
	if err != nil {
		log.Printf("Warning: click analytics disabled: %v", err)
		clickStore = nil
	} else {
		defer clickStore.Close()
	}

	var recorder affiliate.ClickRecorder
	var clickStats api.ClickStatsInterface
	if clickStore != nil {
		recorder = clickStore
		clickStats = clickStore
	}
	tracker := affiliate.NewTracker(productRepo, recorder)

	// Initialize and start scheduler
	log.Printf("Starting background scheduler with %d workers...", appCfg.WorkerCount)
	importScheduler := tasks.NewScheduler(feedRepo, networkRepo, ingestService, syncService)
	importScheduler.Start()
	defer importScheduler.Stop()

	// Initialize HTTP server
	log.Println("Initializing HTTP server...")
	apiHandler := api.NewHandler(feedRepo, networkRepo, productRepo, logRepo,
		ingestService, syncService, tracker, importScheduler, clickStats)
	server := api.NewServer(apiHandler, appCfg.APIAccessKey)

	// Create HTTP server with timeouts
	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 300 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start HTTP server in a goroutine
	serverErrChan := make(chan error, 1)
	go func() {
		log.Printf("Starting HTTP server on port %s", appCfg.Port)
		log.Printf("Endpoints available:")
		log.Printf("  Track click:   http://localhost:%s/functions/affiliate-track-click (POST)", appCfg.Port)
		log.Printf("  Health check:  http://localhost:%s/health", appCfg.Port)
		log.Printf("  Statistics:    http://localhost:%s/stats", appCfg.Port)

		if appCfg.APIAccessKey != "" {
			log.Printf("  Process feed:  http://localhost:%s/functions/process-xml-feed (POST, requires API key)", appCfg.Port)
			log.Printf("  Sync network:  http://localhost:%s/functions/affiliate-api-sync (POST, requires API key)", appCfg.Port)
			log.Printf("  Debug feed:    http://localhost:%s/functions/debug-xml (POST, requires API key)", appCfg.Port)
			log.Printf("  Admin:         http://localhost:%s/functions/admin-operations (POST, requires API key)", appCfg.Port)
		} else {
			log.Printf("  Import/admin endpoints: DISABLED (API_ACCESS_KEY not set)")
		}

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// Wait for interrupt signal or server error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	log.Println("ZboziHub server started successfully!")
	log.Println("Press Ctrl+C to shutdown gracefully...")

	select {
	case sig := <-sigChan:
		log.Printf("Received signal: %v", sig)
	case err := <-serverErrChan:
		log.Printf("Server error: %v", err)
	}

	// Graceful shutdown
	log.Println("Shutting down server gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	} else {
		log.Println("HTTP server stopped")
	}

	// Scheduler is stopped via defer
	log.Println("Background scheduler stopped")

	log.Println("ZboziHub server shutdown complete")
}
