package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dvloznov/upi-tracker/internal/api"
	"github.com/dvloznov/upi-tracker/internal/app"
	"github.com/dvloznov/upi-tracker/internal/config"
	"github.com/dvloznov/upi-tracker/internal/jobs"
	"github.com/dvloznov/upi-tracker/internal/jobs/inmemory"
	"github.com/dvloznov/upi-tracker/internal/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log := logger.New()
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	port := flag.String("port", cfg.Port, "HTTP server port (or set SERVER_PORT env)")
	workers := flag.Int("workers", inmemory.DefaultWorkers, "Number of sync job workers")
	flag.Parse()

	log := logger.NewWithLevel(cfg.LogLevel)
	ctx := logger.WithContext(context.Background(), log)

	services, err := app.Open(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open stores")
	}
	defer services.Close()

	if err := services.OpenBackup(ctx, time.Now()); err != nil {
		log.Warn().Err(err).Msg("Backup target disabled")
	}

	// Initialize job infrastructure
	jobStore := inmemory.NewStore(inmemory.WithMaxFinished(500))
	jobQueue := inmemory.NewQueue(100, jobStore, inmemory.WithWorkers(*workers))

	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()

	if err := jobQueue.Start(workerCtx, jobs.NewSyncHandler(services.SyncDependencies())); err != nil {
		log.Fatal().Err(err).Msg("Failed to start job consumer")
	}

	handler := api.NewRouter(api.Services{
		Ledger:     services.Ledger,
		Categories: services.Categories,
		Profile:    services.Profile,
		Suggester:  services.Suggester,
		Publisher:  jobQueue,
		JobStore:   jobStore,
	}, log)

	server := &http.Server{
		Addr:         ":" + *port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", *port).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	// Stop job queue and wait for in-flight jobs
	cancelWorker()
	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping job queue")
	}
	if err := jobQueue.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close job queue")
	}

	log.Info().Msg("Server exited")
}
