package pipeline

import (
	"context"
	"time"

	"github.com/dvloznov/upi-tracker/internal/ledger"
	"github.com/dvloznov/upi-tracker/internal/logger"
	"github.com/dvloznov/upi-tracker/internal/payflow"
)

// Importer records rows into a ledger.
type Importer struct {
	ledger     *ledger.Ledger
	categories CategoryLister
	suggester  CategorySuggester
	loc        *time.Location
	dryRun     bool
}

// Option configures an Importer.
type Option func(*Importer)

// WithSuggester fills blank categories from s instead of using Other.
func WithSuggester(s CategorySuggester) Option {
	return func(im *Importer) { im.suggester = s }
}

// WithDryRun validates rows without recording them.
func WithDryRun(dryRun bool) Option {
	return func(im *Importer) { im.dryRun = dryRun }
}

// NewImporter creates an importer. Dates without a zone are read in the
// ledger's location.
func NewImporter(l *ledger.Ledger, cats CategoryLister, opts ...Option) *Importer {
	im := &Importer{ledger: l, categories: cats, loc: l.Location()}
	for _, opt := range opts {
		opt(im)
	}
	return im
}

// Import processes rows in order. Failing rows are collected in
// Result.Failed; only a cancelled context stops the run early.
func (im *Importer) Import(ctx context.Context, rows []Row) Result {
	log := logger.FromContext(ctx)

	cats := im.categories.List(ctx)
	validator := NewCategoryValidator(cats)

	var result Result
	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			result.Failed = append(result.Failed, RowError{Line: row.Line, Err: err})
			break
		}

		payment, suggested, err := im.preparePayment(ctx, row, cats, validator)
		if err != nil {
			log.Warn().Err(err).Int("line", row.Line).Msg("Skipping row")
			result.Failed = append(result.Failed, RowError{Line: row.Line, Err: err})
			continue
		}
		if suggested {
			result.Suggested++
		}

		if im.dryRun {
			log.Info().
				Int("line", row.Line).
				Str("payee", payment.Intent.PayeeAddress).
				Str("category", payment.CategoryKey).
				Msg("[DRY RUN] Would import payment")
			result.Imported++
			continue
		}

		recorded, err := payflow.Record(ctx, im.ledger, payment)
		if err != nil {
			log.Error().Err(err).Int("line", row.Line).Msg("Failed to record row")
			result.Failed = append(result.Failed, RowError{Line: row.Line, Err: err})
			continue
		}
		result.Imported++
		result.Records = append(result.Records, recorded.Record)
	}

	log.Info().
		Int("imported", result.Imported).
		Int("suggested", result.Suggested).
		Int("failed", len(result.Failed)).
		Bool("dry_run", im.dryRun).
		Msg("Import finished")

	return result
}
