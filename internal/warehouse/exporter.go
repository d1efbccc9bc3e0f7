package warehouse

import (
	"context"
	"fmt"
	"time"

	"github.com/dvloznov/upi-tracker/internal/categories"
	"github.com/dvloznov/upi-tracker/internal/domain"
	"github.com/dvloznov/upi-tracker/internal/logger"
)

// DefaultBatchSize bounds a single streaming insert.
const DefaultBatchSize = 500

// ExportResult counts one export pass.
type ExportResult struct {
	Inserted int `json:"inserted"`
	Skipped  int `json:"skipped"`
}

// Exporter appends ledger records the warehouse has not seen yet.
type Exporter struct {
	repo      Repository
	loc       *time.Location
	batchSize int
	now       func() time.Time
}

// NewExporter builds an exporter. loc is the ledger's location.
func NewExporter(repo Repository, loc *time.Location) *Exporter {
	return &Exporter{repo: repo, loc: loc, batchSize: DefaultBatchSize, now: time.Now}
}

// Export inserts every record whose id is not already in the table. Rows
// are sent in batches; a failed batch stops the pass, and the rows already
// sent stay counted in the returned result.
func (e *Exporter) Export(ctx context.Context, records []domain.TransactionRecord, lookup categories.Lookup) (ExportResult, error) {
	log := logger.FromContext(ctx)
	var res ExportResult

	existing, err := e.repo.ExistingTransactionIDs(ctx)
	if err != nil {
		return res, fmt.Errorf("Export: load existing ids: %w", err)
	}
	if existing == nil {
		existing = make(map[string]bool)
	}

	exportedAt := e.now()
	var pending []*TransactionRow
	for _, rec := range records {
		if existing[rec.ID] {
			res.Skipped++
			continue
		}
		existing[rec.ID] = true
		pending = append(pending, RowFromRecord(rec, lookup, e.loc, exportedAt))
	}

	for start := 0; start < len(pending); start += e.batchSize {
		end := start + e.batchSize
		if end > len(pending) {
			end = len(pending)
		}
		if err := e.repo.InsertTransactions(ctx, pending[start:end]); err != nil {
			return res, fmt.Errorf("Export: batch %d-%d: %w", start, end, err)
		}
		res.Inserted += end - start
		log.Debug().Int("batch_start", start).Int("batch_end", end).Msg("Inserted warehouse batch")
	}

	log.Info().
		Int("inserted", res.Inserted).
		Int("skipped", res.Skipped).
		Msg("Warehouse export completed")
	return res, nil
}
