package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"contact-scrape-go/pkg/api"
	"contact-scrape-go/pkg/config"
	"contact-scrape-go/pkg/db"
	"contact-scrape-go/pkg/logger"
	"contact-scrape-go/pkg/models"
	"contact-scrape-go/pkg/orchestrator"
	"contact-scrape-go/pkg/registry"
	"contact-scrape-go/pkg/scraper"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.Init(logger.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		File:   "-",
		Name:   "api",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.CloseLog()

	ctx := context.Background()

	client := scraper.NewClient(scraper.Options{
		BaseURL:      cfg.Scraper.BaseURL,
		BasePath:     cfg.Scraper.BasePath,
		APIKey:       cfg.Scraper.APIKey,
		Timeout:      cfg.ScraperTimeout(),
		MaxRetries:   cfg.Scraper.MaxRetries,
		RetryBackoff: cfg.RetryBackoff(),
		Logger:       log,
	})

	// Contacts come from Postgres when configured, otherwise from the backend
	var source registry.Source = client
	if cfg.Database.URL != "" {
		database, err := db.Connect(ctx, cfg.Database.URL)
		if err != nil {
			log.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer database.Close()
		source = database
	}

	reg := registry.New(source)
	orch := orchestrator.New(client, reg, orchestrator.Options{
		Concurrency:     cfg.Scrape.Concurrency,
		SettleDelay:     cfg.SettleDelay(),
		BatchLimitSlack: cfg.Scrape.BatchLimitSlack,
		Logger:          log,
	})
	if err := orch.ChangeFilter(ctx, models.ContactQuery{UploadID: cfg.Scrape.UploadID}); err != nil {
		log.Warn("initial contact load failed", "error", err)
	}

	router := api.NewRouter(api.Deps{
		Orchestrator: orch,
		Selection:    registry.NewSelection(reg),
		Health:       client,
		Token:        cfg.API.Token,
		Logger:       log,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 5 * time.Minute, // scrape requests wait for the whole run
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("API server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")
	if n := orch.AbortAll(); n > 0 {
		log.Info("aborted in-flight tasks", "count", n)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("server forced to shutdown", "error", err)
		return
	}

	log.Info("server exited")
}
