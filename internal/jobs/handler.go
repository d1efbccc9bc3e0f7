package jobs

import (
	"context"
	"fmt"

	"github.com/dvloznov/upi-tracker/internal/categories"
	"github.com/dvloznov/upi-tracker/internal/domain"
	"github.com/dvloznov/upi-tracker/internal/kvstore"
	"github.com/dvloznov/upi-tracker/internal/ledger"
	"github.com/dvloznov/upi-tracker/internal/logger"
	"github.com/dvloznov/upi-tracker/internal/notionsync"
	"github.com/dvloznov/upi-tracker/internal/warehouse"
)

// Dependencies wires the sync handler. Targets whose dependency is nil fail
// with ErrTargetNotConfigured.
type Dependencies struct {
	Ledger     *ledger.Ledger
	Categories *categories.Store

	Notion     notionsync.NotionService
	NotionDBID string

	Warehouse warehouse.Repository

	// Source is the primary store; Backup receives a copy of every key.
	Source kvstore.Store
	Backup kvstore.Store
}

// NewSyncHandler returns a JobHandler dispatching on the job target.
func NewSyncHandler(deps Dependencies) JobHandler {
	return func(ctx context.Context, job *SyncJob) error {
		log := logger.FromContext(ctx).With().
			Str("job_id", job.JobID).
			Str("target", string(job.Target)).
			Logger()
		ctx = logger.WithContext(ctx, log)

		switch job.Target {
		case TargetNotion:
			return runNotion(ctx, deps, job)
		case TargetBigQuery:
			return runBigQuery(ctx, deps, job)
		case TargetBackup:
			return runBackup(ctx, deps, job)
		default:
			return fmt.Errorf("SyncHandler: target %q: %w", job.Target, ErrTargetNotConfigured)
		}
	}
}

func records(ctx context.Context, deps Dependencies, month string) []domain.TransactionRecord {
	if month == "" {
		return deps.Ledger.ListAll(ctx)
	}
	return deps.Ledger.TransactionsByMonth(ctx, month)
}

func runNotion(ctx context.Context, deps Dependencies, job *SyncJob) error {
	if deps.Notion == nil || deps.NotionDBID == "" || deps.Ledger == nil || deps.Categories == nil {
		return fmt.Errorf("runNotion: %w", ErrTargetNotConfigured)
	}
	res, err := notionsync.SyncLedger(ctx,
		records(ctx, deps, job.Month),
		deps.Categories.Lookup(ctx),
		deps.Notion, deps.NotionDBID,
		notionsync.Options{DryRun: job.DryRun, Location: deps.Ledger.Location()},
	)
	if err != nil {
		return fmt.Errorf("runNotion: %w", err)
	}
	job.Summary = fmt.Sprintf("created=%d updated=%d deleted=%d skipped=%d failed=%d",
		res.Created, res.Updated, res.Deleted, res.Skipped, res.Failed)
	return nil
}

func runBigQuery(ctx context.Context, deps Dependencies, job *SyncJob) error {
	if deps.Warehouse == nil || deps.Ledger == nil || deps.Categories == nil {
		return fmt.Errorf("runBigQuery: %w", ErrTargetNotConfigured)
	}
	recs := records(ctx, deps, job.Month)
	if job.DryRun {
		job.Summary = fmt.Sprintf("dry run: %d candidate records", len(recs))
		return nil
	}
	res, err := warehouse.NewExporter(deps.Warehouse, deps.Ledger.Location()).
		Export(ctx, recs, deps.Categories.Lookup(ctx))
	if err != nil {
		return fmt.Errorf("runBigQuery: %w", err)
	}
	job.Summary = fmt.Sprintf("inserted=%d skipped=%d", res.Inserted, res.Skipped)
	return nil
}

func runBackup(ctx context.Context, deps Dependencies, job *SyncJob) error {
	if deps.Source == nil || deps.Backup == nil {
		return fmt.Errorf("runBackup: %w", ErrTargetNotConfigured)
	}
	if job.DryRun {
		job.Summary = fmt.Sprintf("dry run: %d keys", len(kvstore.AllKeys()))
		return nil
	}
	n, err := kvstore.Copy(ctx, deps.Source, deps.Backup, kvstore.AllKeys())
	if err != nil {
		return fmt.Errorf("runBackup: %w", err)
	}
	job.Summary = fmt.Sprintf("copied=%d", n)
	return nil
}
