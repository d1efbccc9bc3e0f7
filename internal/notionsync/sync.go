package notionsync

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jomei/notionapi"

	"github.com/dvloznov/upi-tracker/internal/categories"
	"github.com/dvloznov/upi-tracker/internal/domain"
	"github.com/dvloznov/upi-tracker/internal/logger"
)

const queryPageSize = 100

// ErrSchemaMismatch is returned when the target database lacks ledger columns.
var ErrSchemaMismatch = errors.New("notion database is missing ledger properties")

// SyncResult counts what one sync pass did. In dry-run mode the counts
// describe what would have happened.
type SyncResult struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Deleted int `json:"deleted"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

// Options tunes a sync pass.
type Options struct {
	DryRun bool
	// Refresh rewrites pages that already exist, picking up renamed
	// categories. Without it existing pages are skipped.
	Refresh  bool
	Location *time.Location
}

// SyncLedger mirrors records into a Notion database. Pages whose
// Transaction ID is missing, unknown or duplicated are archived, records
// that already have a page are skipped (or refreshed), and the rest are
// created.
// Per-page failures are logged and counted. A database missing any of
// RequiredProperties, or a failed query, aborts the pass before any write.
func SyncLedger(ctx context.Context, records []domain.TransactionRecord, lookup categories.Lookup, notion NotionService, dbID string, opts Options) (SyncResult, error) {
	log := logger.FromContext(ctx)
	var res SyncResult

	log.Info().
		Bool("dry_run", opts.DryRun).
		Int("record_count", len(records)).
		Msg("Starting ledger sync to Notion")

	if err := checkSchema(ctx, notion, dbID); err != nil {
		return res, fmt.Errorf("SyncLedger: %w", err)
	}

	wanted := make(map[string]bool, len(records))
	for _, rec := range records {
		wanted[rec.ID] = true
	}

	pages, err := queryAllNotionPages(ctx, notion, dbID)
	if err != nil {
		return res, fmt.Errorf("SyncLedger: query Notion pages: %w", err)
	}
	log.Info().Int("notion_page_count", len(pages)).Msg("Retrieved existing Notion pages")

	existing := make(map[string]string, len(pages))
	for _, page := range pages {
		txID := extractTransactionID(page)
		if txID != "" && wanted[txID] {
			if _, dup := existing[txID]; !dup {
				existing[txID] = string(page.ID)
				continue
			}
		}

		if opts.DryRun {
			log.Info().
				Str("transaction_id", txID).
				Str("page_id", string(page.ID)).
				Msg("[DRY RUN] Would archive stale Notion page")
			res.Deleted++
			continue
		}
		if err := notion.DeletePage(ctx, string(page.ID)); err != nil {
			log.Warn().
				Err(err).
				Str("transaction_id", txID).
				Str("page_id", string(page.ID)).
				Msg("Failed to archive stale Notion page")
			res.Failed++
			continue
		}
		res.Deleted++
	}

	for _, rec := range records {
		if pageID, ok := existing[rec.ID]; ok {
			if !opts.Refresh {
				res.Skipped++
				continue
			}
			if opts.DryRun {
				log.Info().
					Str("transaction_id", rec.ID).
					Str("page_id", pageID).
					Msg("[DRY RUN] Would update Notion page")
				res.Updated++
				continue
			}
			if _, err := notion.UpdatePage(ctx, pageID, RecordToNotionProperties(rec, lookup, opts.Location)); err != nil {
				log.Warn().
					Err(err).
					Str("transaction_id", rec.ID).
					Str("page_id", pageID).
					Msg("Failed to update Notion page")
				res.Failed++
				continue
			}
			res.Updated++
			continue
		}
		if opts.DryRun {
			log.Info().
				Str("transaction_id", rec.ID).
				Msg("[DRY RUN] Would create Notion page")
			res.Created++
			continue
		}

		page, err := notion.CreatePage(ctx, dbID, RecordToNotionProperties(rec, lookup, opts.Location))
		if err != nil {
			log.Warn().
				Err(err).
				Str("transaction_id", rec.ID).
				Msg("Failed to create Notion page")
			res.Failed++
			continue
		}
		log.Debug().
			Str("transaction_id", rec.ID).
			Str("page_id", string(page.ID)).
			Msg("Created Notion page")
		res.Created++
	}

	log.Info().
		Int("created", res.Created).
		Int("updated", res.Updated).
		Int("deleted", res.Deleted).
		Int("skipped", res.Skipped).
		Int("failed", res.Failed).
		Msg("Ledger sync completed")

	return res, nil
}

func checkSchema(ctx context.Context, notion NotionService, dbID string) error {
	names, err := notion.DatabaseProperties(ctx, dbID)
	if err != nil {
		return fmt.Errorf("checkSchema: %w", err)
	}
	have := make(map[string]bool, len(names))
	for _, name := range names {
		have[name] = true
	}
	var missing []string
	for _, name := range RequiredProperties {
		if !have[name] {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("checkSchema: %w: %s", ErrSchemaMismatch, strings.Join(missing, ", "))
	}
	return nil
}

// queryAllNotionPages follows the query cursor until the database is exhausted.
func queryAllNotionPages(ctx context.Context, notion NotionService, databaseID string) ([]notionapi.Page, error) {
	var all []notionapi.Page
	var cursor notionapi.Cursor

	for {
		req := &notionapi.DatabaseQueryRequest{PageSize: queryPageSize}
		if cursor != "" {
			req.StartCursor = cursor
		}

		resp, err := notion.QueryDatabase(ctx, databaseID, req)
		if err != nil {
			return nil, fmt.Errorf("queryAllNotionPages: %w", err)
		}
		all = append(all, resp.Results...)

		if !resp.HasMore {
			break
		}
		cursor = resp.NextCursor
	}
	return all, nil
}

// extractTransactionID reads the Transaction ID property. Pages returned by
// the API carry pointer property values, pages built locally carry values.
func extractTransactionID(page notionapi.Page) string {
	var texts []notionapi.RichText
	switch prop := page.Properties[PropTransactionID].(type) {
	case *notionapi.RichTextProperty:
		texts = prop.RichText
	case notionapi.RichTextProperty:
		texts = prop.RichText
	}
	if len(texts) == 0 {
		return ""
	}
	if texts[0].PlainText != "" {
		return texts[0].PlainText
	}
	if texts[0].Text != nil {
		return texts[0].Text.Content
	}
	return ""
}
