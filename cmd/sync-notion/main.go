package main

import (
	"context"
	"flag"
	"fmt"
	"regexp"
	"time"

	"github.com/dvloznov/upi-tracker/internal/app"
	"github.com/dvloznov/upi-tracker/internal/config"
	"github.com/dvloznov/upi-tracker/internal/logger"
	"github.com/dvloznov/upi-tracker/internal/notionsync"
)

var monthPattern = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log := logger.New()
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	log := logger.NewWithLevel(cfg.LogLevel)

	month := flag.String("month", "", "Month to sync in YYYY-MM format (default: every month)")
	notionToken := flag.String("notion-token", cfg.NotionToken, "Notion API token (or set NOTION_TOKEN env)")
	notionDBID := flag.String("notion-db-id", cfg.NotionDBID, "Notion database ID (or set NOTION_DB_ID env)")
	dryRun := flag.Bool("dry-run", false, "Dry run mode - preview changes without syncing")
	refresh := flag.Bool("refresh", false, "Rewrite properties of pages that already exist")
	flag.Parse()

	if *notionToken == "" {
		log.Fatal().Msg("Error: --notion-token is required")
	}
	if *notionDBID == "" {
		log.Fatal().Msg("Error: --notion-db-id is required")
	}
	if *month != "" && !monthPattern.MatchString(*month) {
		log.Fatal().Str("month", *month).Msg("Error: invalid month format, expected YYYY-MM")
	}

	// Create context with timeout so CLI doesn't hang
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	services, err := app.Open(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open stores")
	}
	defer services.Close()

	records := services.Ledger.ListAll(ctx)
	if *month != "" {
		records = services.Ledger.TransactionsByMonth(ctx, *month)
	}

	log.Info().
		Str("month", *month).
		Int("records", len(records)).
		Bool("dry_run", *dryRun).
		Msg("Starting Notion sync")

	result, err := notionsync.SyncLedger(ctx, records, services.Categories.Lookup(ctx),
		notionsync.NewNotionClient(*notionToken), *notionDBID,
		notionsync.Options{DryRun: *dryRun, Refresh: *refresh, Location: cfg.Location})
	if err != nil {
		log.Fatal().Err(err).Msg("Sync failed")
	}

	fmt.Printf("Sync completed: created=%d updated=%d deleted=%d skipped=%d failed=%d\n",
		result.Created, result.Updated, result.Deleted, result.Skipped, result.Failed)
}
