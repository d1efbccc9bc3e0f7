package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/upi-tracker/internal/config"
	"github.com/dvloznov/upi-tracker/internal/kvstore"
	"github.com/dvloznov/upi-tracker/internal/logger"
	"github.com/dvloznov/upi-tracker/internal/warehouse"
)

// migrate moves the stored keys from the configured backend to another one,
// and prepares the BigQuery dataset and table used by the bigquery sync.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log := logger.New()
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	log := logger.NewWithLevel(cfg.LogLevel)

	to := flag.String("to", "", "Destination backend (memory, file, sqlite, postgres, gcs)")
	toDir := flag.String("to-dir", "", "Destination directory for the file backend")
	toSQLite := flag.String("to-sqlite", "", "Destination database path for the sqlite backend")
	toDSN := flag.String("to-dsn", "", "Destination DSN for the postgres backend")
	toBucket := flag.String("to-bucket", "", "Destination bucket for the gcs backend")
	toPrefix := flag.String("to-prefix", "", "Destination object prefix for the gcs backend")
	dryRun := flag.Bool("dry-run", false, "List the keys that would be copied without writing")
	bq := flag.Bool("bigquery", false, "Create the BigQuery dataset and transactions table")
	bqLocation := flag.String("bq-location", "asia-south1", "Location for a new BigQuery dataset")
	flag.Parse()

	if *to == "" && !*bq {
		log.Fatal().Msg("Error: nothing to do, pass --to and/or --bigquery")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	if *to != "" {
		dst := kvstore.Options{
			Backend:     *to,
			DataDir:     *toDir,
			SQLitePath:  *toSQLite,
			PostgresDSN: *toDSN,
			GCSBucket:   *toBucket,
			GCSPrefix:   *toPrefix,
		}
		if err := copyStore(ctx, log, cfg.StoreOptions(), dst, *dryRun); err != nil {
			log.Fatal().Err(err).Msg("Store migration failed")
		}
	}

	if *bq {
		if err := prepareWarehouse(ctx, log, cfg, *bqLocation); err != nil {
			log.Fatal().Err(err).Msg("BigQuery setup failed")
		}
	}
}

func copyStore(ctx context.Context, log zerolog.Logger, srcOpts, dstOpts kvstore.Options, dryRun bool) error {
	if srcOpts == dstOpts {
		return fmt.Errorf("copyStore: source and destination are the same store")
	}

	src, err := kvstore.Open(ctx, srcOpts)
	if err != nil {
		return fmt.Errorf("copyStore: open source: %w", err)
	}
	defer src.Close()

	if dryRun {
		present, err := presentKeys(ctx, src, kvstore.AllKeys())
		if err != nil {
			return fmt.Errorf("copyStore: %w", err)
		}
		for _, key := range present {
			log.Info().Str("key", key).Msg("  [DRY RUN] Would copy")
		}
		fmt.Printf("%d key(s) would be copied from %s to %s\n", len(present), srcOpts.Backend, dstOpts.Backend)
		return nil
	}

	dst, err := kvstore.Open(ctx, dstOpts)
	if err != nil {
		return fmt.Errorf("copyStore: open destination: %w", err)
	}
	defer dst.Close()

	n, err := kvstore.Copy(ctx, src, dst, kvstore.AllKeys())
	if err != nil {
		return fmt.Errorf("copyStore: %w", err)
	}
	fmt.Printf("Copied %d key(s) from %s to %s\n", n, srcOpts.Backend, dstOpts.Backend)
	return nil
}

// presentKeys returns the keys that have a value in s.
func presentKeys(ctx context.Context, s kvstore.Store, keys []string) ([]string, error) {
	var present []string
	for _, key := range keys {
		_, found, err := s.Get(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("presentKeys: %s: %w", key, err)
		}
		if found {
			present = append(present, key)
		}
	}
	return present, nil
}

func prepareWarehouse(ctx context.Context, log zerolog.Logger, cfg *config.Config, location string) error {
	repo, err := warehouse.NewBigQueryRepository(ctx, cfg.BQProject, cfg.BQDataset)
	if err != nil {
		return err
	}
	defer repo.Close()

	log.Info().Str("project", cfg.BQProject).Str("dataset", cfg.BQDataset).Msg("Connected to BigQuery")

	if err := repo.EnsureDataset(ctx, location); err != nil {
		return err
	}
	if err := repo.EnsureTable(ctx); err != nil {
		return err
	}
	fmt.Printf("BigQuery dataset %s is ready\n", cfg.BQDataset)
	return nil
}
