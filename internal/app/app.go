// Package app wires the stores and optional integrations shared by the
// command-line programs.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/upi-tracker/internal/categories"
	"github.com/dvloznov/upi-tracker/internal/categorize"
	"github.com/dvloznov/upi-tracker/internal/config"
	"github.com/dvloznov/upi-tracker/internal/jobs"
	"github.com/dvloznov/upi-tracker/internal/kvstore"
	"github.com/dvloznov/upi-tracker/internal/ledger"
	"github.com/dvloznov/upi-tracker/internal/notionsync"
	"github.com/dvloznov/upi-tracker/internal/profile"
	"github.com/dvloznov/upi-tracker/internal/warehouse"
)

// App holds the opened stores. Integrations that are not configured are nil.
type App struct {
	Config *config.Config
	Store  kvstore.Backend

	Ledger     *ledger.Ledger
	Categories *categories.Store
	Profile    *profile.Store
	Suggester  *categorize.Suggester

	Notion    notionsync.NotionService
	Warehouse *warehouse.BigQueryRepository
	Backup    kvstore.Backend

	closers []func() error
}

// Open opens the primary store and builds the services on top of it.
// Optional integrations are enabled by their configuration and a failure to
// create one is logged rather than returned.
func Open(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*App, error) {
	store, err := kvstore.Open(ctx, cfg.StoreOptions())
	if err != nil {
		return nil, fmt.Errorf("app.Open: open %s store: %w", cfg.StoreBackend, err)
	}

	a := &App{
		Config: cfg,
		Store:  store,
		Ledger: ledger.New(store,
			ledger.WithLocation(cfg.Location),
			ledger.WithLogger(log),
		),
		Categories: categories.NewStore(store, log),
		Profile:    profile.NewStore(store, log),
		closers:    []func() error{store.Close},
	}

	log.Info().
		Str("backend", cfg.StoreBackend).
		Str("timezone", cfg.Timezone).
		Msg("Opened transaction store")

	if cfg.NotionToken != "" && cfg.NotionDBID != "" {
		a.Notion = notionsync.NewNotionClient(cfg.NotionToken)
	} else {
		log.Debug().Msg("Notion sync disabled: NOTION_TOKEN or NOTION_DB_ID not set")
	}

	if cfg.BQProject != "" {
		repo, err := warehouse.NewBigQueryRepository(ctx, cfg.BQProject, cfg.BQDataset)
		if err != nil {
			log.Warn().Err(err).Msg("BigQuery export disabled")
		} else {
			a.Warehouse = repo
			a.closers = append(a.closers, repo.Close)
		}
	}

	var gen categorize.Generator
	if g, err := categorize.NewGeminiGenerator(ctx, cfg.GeminiModel); err != nil {
		log.Debug().Err(err).Msg("Category suggestions fall back to Other")
	} else {
		gen = g
	}
	a.Suggester = categorize.NewSuggester(gen)

	return a, nil
}

// OpenBackup opens the backup destination for today's date.
func (a *App) OpenBackup(ctx context.Context, now time.Time) error {
	if a.Backup != nil {
		return nil
	}
	backup, err := kvstore.Open(ctx, a.Config.BackupOptions(now))
	if err != nil {
		return fmt.Errorf("app.OpenBackup: %w", err)
	}
	a.Backup = backup
	a.closers = append(a.closers, backup.Close)
	return nil
}

// SyncDependencies returns the dependencies of the sync job handler.
func (a *App) SyncDependencies() jobs.Dependencies {
	deps := jobs.Dependencies{
		Ledger:     a.Ledger,
		Categories: a.Categories,
		Notion:     a.Notion,
		NotionDBID: a.Config.NotionDBID,
		Source:     a.Store,
	}
	// Assigning a nil pointer to an interface field would make it non-nil.
	if a.Warehouse != nil {
		deps.Warehouse = a.Warehouse
	}
	if a.Backup != nil {
		deps.Backup = a.Backup
	}
	return deps
}

// Close releases every opened store and client, newest first.
func (a *App) Close() error {
	var first error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	a.closers = nil
	return first
}
