package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/partscope/partscope/internal/api"
	"github.com/partscope/partscope/internal/cache"
	"github.com/partscope/partscope/internal/config"
	"github.com/partscope/partscope/internal/metrics"
	"github.com/partscope/partscope/internal/scraper"
	"github.com/partscope/partscope/internal/storage"
	"github.com/partscope/partscope/internal/version"
	"github.com/sirupsen/logrus"
)

func main() {
	_ = godotenv.Load() // load .env if present; not fatal if missing

	// Configure logging
	logrus.SetLevel(logrus.InfoLevel)
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	log := logrus.StandardLogger()

	log.Infof("partscope v%s starting...", version.Version)

	// Load configuration
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.json"
	}
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	log.Infof("Configuration loaded: base=%s, categories=%d, concurrency=%d",
		cfg.BaseURL, len(cfg.Categories), cfg.MaxConcurrentRequests)

	// Initialize storage
	store, err := storage.NewStorage(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	defer store.Close()

	log.Infof("Database initialized: %s", cfg.DBPath)

	// Metrics tracker, injected into fetcher and scheduler
	tracker := metrics.NewTracker()

	// Optional redis cache; absence is not fatal
	scrapeCache := cache.New(cfg.RedisAddr, time.Duration(cfg.CacheTTLMin)*time.Minute, log)
	defer scrapeCache.Close()

	// Crawl pipeline components
	fetcher, err := scraper.NewFetcher(cfg, tracker, log)
	if err != nil {
		log.Fatalf("Failed to initialize fetcher: %v", err)
	}

	discoverer, err := scraper.NewDiscoverer(cfg, fetcher, log)
	if err != nil {
		log.Fatalf("Failed to initialize discoverer: %v", err)
	}

	sched := scraper.NewScheduler(cfg, scraper.SchedulerDeps{
		Fetcher:    fetcher,
		Extractor:  scraper.NewSiteExtractor(log),
		Discoverer: discoverer,
		Store:      store,
		Cache:      scrapeCache,
		Tracker:    tracker,
		Log:        log,
	})

	// Graceful shutdown coordination
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup

	// Start the crawl scheduler
	wg.Add(1)
	go func() {
		defer wg.Done()
		sched.Run(ctx)
	}()

	// Start the reporting API
	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: api.NewRouter(store, log),
	}
	go func() {
		log.Infof("Reporting API listening on %s", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("API server failed: %v", err)
		}
	}()

	// Periodic progress logging
	stopProgress := make(chan struct{})
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(60 * time.Second)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				log.Info(tracker.LogProgress())
			case <-stopProgress:
				return
			}
		}
	}()

	// Wait for interrupt
	<-ctx.Done()
	log.Info("Shutdown signal received")

	close(stopProgress)

	// Stop accepting new requests, allow 15s to finish
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorf("API server shutdown: %v", err)
	}

	// Wait for the scheduler to observe cancellation
	wg.Wait()

	log.Info("Final stats: " + tracker.LogProgress())

	if err := tracker.WriteToFile(cfg.MetricsPath, "signal"); err != nil {
		log.Errorf("Failed to write metrics: %v", err)
	} else {
		log.Infof("Metrics written to %s", cfg.MetricsPath)
	}

	log.Info("Graceful shutdown complete")
}
