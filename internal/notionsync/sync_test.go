package notionsync

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jomei/notionapi"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvloznov/upi-tracker/internal/categories"
	"github.com/dvloznov/upi-tracker/internal/domain"
)

type fakeNotion struct {
	pages     []notionapi.Page
	pageSize  int
	created   []notionapi.Properties
	updated   map[string]notionapi.Properties
	archived  []string
	queries   int
	createErr error
	queryErr  error
	columns   []string
}

func (f *fakeNotion) DatabaseProperties(ctx context.Context, databaseID string) ([]string, error) {
	if f.columns != nil {
		return f.columns, nil
	}
	return RequiredProperties, nil
}

func (f *fakeNotion) CreatePage(ctx context.Context, databaseID string, props notionapi.Properties) (*notionapi.Page, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = append(f.created, props)
	return &notionapi.Page{ID: notionapi.ObjectID(fmt.Sprintf("new-%d", len(f.created)))}, nil
}

func (f *fakeNotion) UpdatePage(ctx context.Context, pageID string, props notionapi.Properties) (*notionapi.Page, error) {
	if f.updated == nil {
		f.updated = map[string]notionapi.Properties{}
	}
	f.updated[pageID] = props
	return &notionapi.Page{ID: notionapi.ObjectID(pageID)}, nil
}

func (f *fakeNotion) QueryDatabase(ctx context.Context, databaseID string, req *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error) {
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	f.queries++
	size := f.pageSize
	if size <= 0 {
		size = len(f.pages)
	}
	start := 0
	if req.StartCursor != "" {
		fmt.Sscanf(string(req.StartCursor), "%d", &start)
	}
	end := start + size
	if end >= len(f.pages) {
		return &notionapi.DatabaseQueryResponse{Results: f.pages[start:]}, nil
	}
	return &notionapi.DatabaseQueryResponse{
		Results:    f.pages[start:end],
		HasMore:    true,
		NextCursor: notionapi.Cursor(fmt.Sprint(end)),
	}, nil
}

func (f *fakeNotion) DeletePage(ctx context.Context, pageID string) error {
	f.archived = append(f.archived, pageID)
	return nil
}

func page(id, txID string) notionapi.Page {
	p := notionapi.Page{ID: notionapi.ObjectID(id), Properties: notionapi.Properties{}}
	if txID != "" {
		p.Properties[PropTransactionID] = &notionapi.RichTextProperty{
			RichText: []notionapi.RichText{{PlainText: txID}},
		}
	}
	return p
}

func record(id, category string) domain.TransactionRecord {
	return domain.TransactionRecord{
		ID:                   id,
		Amount:               decimal.RequireFromString("249.50"),
		PayeeAddress:         "chai@okaxis",
		PayeeName:            "Chai Point",
		CategoryKey:          category,
		CreatedAtEpochMillis: time.Date(2026, 1, 5, 9, 30, 0, 0, time.UTC).UnixMilli(),
		MonthBucket:          "2026-01",
	}
}

func lookup() categories.Lookup {
	return categories.NewLookup(categories.Defaults())
}

func TestSyncLedger_CreatesArchivesAndSkips(t *testing.T) {
	fake := &fakeNotion{
		pages: []notionapi.Page{
			page("p1", "tx-1"),
			page("p2", "tx-gone"),
			page("p3", ""),
		},
	}
	records := []domain.TransactionRecord{record("tx-1", "food"), record("tx-2", "rent")}

	res, err := SyncLedger(context.Background(), records, lookup(), fake, "db", Options{})
	require.NoError(t, err)

	assert.Equal(t, SyncResult{Created: 1, Deleted: 2, Skipped: 1}, res)
	assert.ElementsMatch(t, []string{"p2", "p3"}, fake.archived)
	require.Len(t, fake.created, 1)
	assert.Equal(t, "tx-2", extractTransactionID(notionapi.Page{Properties: fake.created[0]}))
}

func TestSyncLedger_DryRunTouchesNothing(t *testing.T) {
	fake := &fakeNotion{pages: []notionapi.Page{page("p1", "stale")}}

	res, err := SyncLedger(context.Background(), []domain.TransactionRecord{record("tx-1", "food")}, lookup(), fake, "db", Options{DryRun: true})
	require.NoError(t, err)

	assert.Equal(t, SyncResult{Created: 1, Deleted: 1}, res)
	assert.Empty(t, fake.archived)
	assert.Empty(t, fake.created)
}

func TestSyncLedger_DuplicatePagesAreArchived(t *testing.T) {
	fake := &fakeNotion{pages: []notionapi.Page{page("p1", "tx-1"), page("p2", "tx-1")}}

	res, err := SyncLedger(context.Background(), []domain.TransactionRecord{record("tx-1", "food")}, lookup(), fake, "db", Options{})
	require.NoError(t, err)

	assert.Equal(t, SyncResult{Deleted: 1, Skipped: 1}, res)
	assert.Equal(t, []string{"p2"}, fake.archived)
}

func TestSyncLedger_Refresh(t *testing.T) {
	fake := &fakeNotion{pages: []notionapi.Page{page("p1", "tx-1")}}

	res, err := SyncLedger(context.Background(), []domain.TransactionRecord{record("tx-1", "food")}, lookup(), fake, "db", Options{Refresh: true})
	require.NoError(t, err)

	assert.Equal(t, SyncResult{Updated: 1}, res)
	require.Contains(t, fake.updated, "p1")
}

func TestSyncLedger_FollowsPagination(t *testing.T) {
	var pages []notionapi.Page
	var records []domain.TransactionRecord
	for i := 0; i < 7; i++ {
		id := fmt.Sprintf("tx-%d", i)
		pages = append(pages, page(fmt.Sprintf("p%d", i), id))
		records = append(records, record(id, "food"))
	}
	fake := &fakeNotion{pages: pages, pageSize: 3}

	res, err := SyncLedger(context.Background(), records, lookup(), fake, "db", Options{})
	require.NoError(t, err)

	assert.Equal(t, 3, fake.queries)
	assert.Equal(t, 7, res.Skipped)
	assert.Zero(t, res.Created)
}

func TestSyncLedger_Failures(t *testing.T) {
	_, err := SyncLedger(context.Background(), nil, lookup(), &fakeNotion{queryErr: errors.New("401")}, "db", Options{})
	assert.ErrorContains(t, err, "401")

	fake := &fakeNotion{createErr: errors.New("rate limited")}
	res, err := SyncLedger(context.Background(), []domain.TransactionRecord{record("tx-1", "food")}, lookup(), fake, "db", Options{})
	require.NoError(t, err, "page-level failures do not abort the pass")
	assert.Equal(t, SyncResult{Failed: 1}, res)
}

func TestSyncLedger_SchemaMismatch(t *testing.T) {
	fake := &fakeNotion{columns: []string{PropPayee, PropTransactionID, PropAmount}}

	_, err := SyncLedger(context.Background(), []domain.TransactionRecord{record("tx-1", "food")}, lookup(), fake, "db", Options{DryRun: true})

	require.True(t, errors.Is(err, ErrSchemaMismatch))
	assert.ErrorContains(t, err, PropCategory)
	assert.Zero(t, fake.queries)
	assert.Empty(t, fake.created)
}

func TestRecordToNotionProperties(t *testing.T) {
	rec := record("tx-1", "deleted-category")
	rec.Note = "morning chai"
	rec.Kind = domain.KindMerchant
	rec.MerchantCategoryCode = "5812"

	props := RecordToNotionProperties(rec, lookup(), time.UTC)

	assert.Equal(t, "Chai Point", props[PropPayee].(notionapi.TitleProperty).Title[0].Text.Content)
	assert.Equal(t, 249.5, props[PropAmount].(notionapi.NumberProperty).Number)
	assert.Equal(t, "Other", props[PropCategory].(notionapi.SelectProperty).Select.Name)
	assert.Equal(t, "merchant", props[PropKind].(notionapi.SelectProperty).Select.Name)
	assert.Equal(t, "2026-01", props[PropMonth].(notionapi.SelectProperty).Select.Name)
	assert.Equal(t, "morning chai", props[PropNote].(notionapi.RichTextProperty).RichText[0].Text.Content)
	assert.Equal(t, "5812", props[PropMCC].(notionapi.RichTextProperty).RichText[0].Text.Content)

	start := time.Time(*props[PropDate].(notionapi.DateProperty).Date.Start)
	assert.Equal(t, 9, start.Hour())

	plain := RecordToNotionProperties(record("tx-2", "food"), lookup(), nil)
	assert.NotContains(t, plain, PropNote)
	assert.NotContains(t, plain, PropMCC)
	assert.Equal(t, "p2p", plain[PropKind].(notionapi.SelectProperty).Select.Name)
}
