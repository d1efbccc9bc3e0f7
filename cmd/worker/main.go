package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dvloznov/upi-tracker/internal/app"
	"github.com/dvloznov/upi-tracker/internal/config"
	"github.com/dvloznov/upi-tracker/internal/jobs"
	"github.com/dvloznov/upi-tracker/internal/jobs/inmemory"
	"github.com/dvloznov/upi-tracker/internal/logger"
)

// The worker runs one sync pass per target through the job queue and exits
// once every job has finished. It is meant for cron or Cloud Scheduler.
func main() {
	targetsFlag := flag.String("targets", "backup", "Comma-separated sync targets (notion, bigquery, backup)")
	month := flag.String("month", "", "Limit notion and bigquery syncs to one month (YYYY-MM)")
	dryRun := flag.Bool("dry-run", false, "Dry run mode - preview changes without syncing")
	timeout := flag.Duration("timeout", 10*time.Minute, "Maximum time to wait for all jobs")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log := logger.New()
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	log := logger.NewWithLevel(cfg.LogLevel)

	targets, err := parseTargets(*targetsFlag)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid --targets")
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	// Cancel context on interrupt
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Info().Msg("Interrupted, stopping worker...")
		cancel()
	}()

	services, err := app.Open(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open stores")
	}
	defer services.Close()

	if contains(targets, jobs.TargetBackup) {
		if err := services.OpenBackup(ctx, time.Now()); err != nil {
			log.Fatal().Err(err).Msg("Failed to open backup store")
		}
	}

	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(len(targets), jobStore)

	if err := jobQueue.Start(ctx, jobs.NewSyncHandler(services.SyncDependencies())); err != nil {
		log.Fatal().Err(err).Msg("Failed to start job consumer")
	}
	defer jobQueue.Close()

	ids := make([]string, 0, len(targets))
	for _, target := range targets {
		job := &jobs.SyncJob{Target: target, Month: *month, DryRun: *dryRun}
		if err := jobQueue.Publish(ctx, job); err != nil {
			log.Fatal().Err(err).Str("target", string(target)).Msg("Failed to enqueue sync job")
		}
		ids = append(ids, job.JobID)
	}

	log.Info().Int("jobs", len(ids)).Msg("Worker started, waiting for jobs...")

	finished, err := waitForJobs(ctx, jobStore, ids, 500*time.Millisecond)
	if err != nil {
		log.Error().Err(err).Msg("Stopped waiting for jobs")
	}

	failed := 0
	for _, job := range finished {
		if job.Status != jobs.JobStatusCompleted {
			failed++
		}
		fmt.Printf("%-9s %-9s %s%s\n", job.Target, job.Status, job.Summary, job.Error)
	}

	if err != nil || failed > 0 {
		os.Exit(1)
	}
}

func parseTargets(s string) ([]jobs.Target, error) {
	var targets []jobs.Target
	for _, part := range strings.Split(s, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		t, err := jobs.ParseTarget(part)
		if err != nil {
			return nil, err
		}
		if !contains(targets, t) {
			targets = append(targets, t)
		}
	}
	if len(targets) == 0 {
		return nil, fmt.Errorf("parseTargets: at least one target is required")
	}
	return targets, nil
}

func contains(targets []jobs.Target, t jobs.Target) bool {
	for _, x := range targets {
		if x == t {
			return true
		}
	}
	return false
}

// waitForJobs polls the store until every job has finished or ctx ends. It
// returns the latest state of each job in ids order.
func waitForJobs(ctx context.Context, store jobs.JobStore, ids []string, interval time.Duration) ([]*jobs.SyncJob, error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		latest := make([]*jobs.SyncJob, 0, len(ids))
		done := true
		for _, id := range ids {
			job, err := store.GetJob(ctx, id)
			if err != nil {
				return latest, fmt.Errorf("waitForJobs: %w", err)
			}
			latest = append(latest, job)
			done = done && job.Status.Finished()
		}
		if done {
			return latest, nil
		}

		select {
		case <-ctx.Done():
			return latest, ctx.Err()
		case <-ticker.C:
		}
	}
}
