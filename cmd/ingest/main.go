package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dvloznov/upi-tracker/internal/app"
	"github.com/dvloznov/upi-tracker/internal/config"
	"github.com/dvloznov/upi-tracker/internal/logger"
	"github.com/dvloznov/upi-tracker/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log := logger.New()
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	log := logger.NewWithLevel(cfg.LogLevel)

	// Parse CLI flags
	file := flag.String("file", "", "CSV file of payments to import, - for stdin (required)")
	suggest := flag.Bool("suggest", false, "Ask the model for a category when the category column is blank")
	dryRun := flag.Bool("dry-run", false, "Dry run mode - validate rows without recording them")
	flag.Parse()

	if *file == "" {
		log.Fatal().Msg("Error: --file is required")
	}

	var in io.Reader = os.Stdin
	if *file != "-" {
		f, err := os.Open(*file)
		if err != nil {
			log.Fatal().Err(err).Str("file", *file).Msg("Failed to open file")
		}
		defer f.Close()
		in = f
	}

	rows, err := pipeline.ParseCSV(in)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read CSV")
	}

	// Create context with timeout so CLI doesn't hang
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	services, err := app.Open(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open stores")
	}
	defer services.Close()

	opts := []pipeline.Option{pipeline.WithDryRun(*dryRun)}
	if *suggest {
		opts = append(opts, pipeline.WithSuggester(services.Suggester))
	}

	log.Info().Str("file", *file).Int("rows", len(rows)).Msg("Starting import")

	result := pipeline.NewImporter(services.Ledger, services.Categories, opts...).Import(ctx, rows)

	for _, failed := range result.Failed {
		fmt.Fprintln(os.Stderr, failed.Error())
	}
	fmt.Printf("Imported %d of %d row(s), %d category suggestion(s), %d failed.\n",
		result.Imported, len(rows), result.Suggested, len(result.Failed))

	if len(result.Failed) > 0 {
		os.Exit(1)
	}
}
