// Package ledger keeps the locally recorded UPI payments and derives the
// history, monthly and chart views from them.
//
// The whole collection lives under one storage key. Every read loads and
// decodes the full array and every write replaces it. There is no locking
// across a read-modify-write, so two concurrent writers can lose an update;
// callers are expected to serialize writes.
package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/dvloznov/upi-tracker/internal/domain"
	"github.com/dvloznov/upi-tracker/internal/kvstore"
	"github.com/dvloznov/upi-tracker/internal/logger"
)

// DefaultTimezone is the zone month buckets are computed in unless overridden.
const DefaultTimezone = "Asia/Kolkata"

// Ledger is the transaction aggregator.
type Ledger struct {
	store kvstore.Store
	now   func() time.Time
	newID func() string
	loc   *time.Location
	log   zerolog.Logger
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithClock sets the wall clock used for timestamps and the current month.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// WithIDGenerator sets the record id generator.
func WithIDGenerator(newID func() string) Option {
	return func(l *Ledger) { l.newID = newID }
}

// WithLocation sets the zone month buckets and day keys are computed in.
func WithLocation(loc *time.Location) Option {
	return func(l *Ledger) {
		if loc != nil {
			l.loc = loc
		}
	}
}

// WithLogger sets the logger used when the context carries none.
func WithLogger(log zerolog.Logger) Option {
	return func(l *Ledger) { l.log = log }
}

// New creates a Ledger over store.
func New(store kvstore.Store, opts ...Option) *Ledger {
	l := &Ledger{
		store: store,
		now:   time.Now,
		newID: uuid.NewString,
		loc:   defaultLocation(),
		log:   logger.Nop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func defaultLocation() *time.Location {
	loc, err := time.LoadLocation(DefaultTimezone)
	if err != nil {
		// No tzdata on the host; IST has no DST so a fixed zone is exact.
		return time.FixedZone("IST", 5*60*60+30*60)
	}
	return loc
}

// Location returns the zone month buckets are computed in.
func (l *Ledger) Location() *time.Location {
	return l.loc
}

// Now returns the ledger clock's current time in its zone.
func (l *Ledger) Now() time.Time {
	return l.now().In(l.loc)
}

// Intent is the payee information a record is created from.
type Intent struct {
	PayeeAddress string
	PayeeName    string
	// Amount is the amount fixed by the payment link, if any. It is only a
	// default; AppendInput.Amount wins when positive.
	Amount decimal.NullDecimal
}

// AppendInput carries the user-supplied fields of a new record.
type AppendInput struct {
	CategoryKey          string
	Note                 string
	Amount               decimal.NullDecimal
	Kind                 domain.TransactionKind
	MerchantCategoryCode string
	OrganizationID       string
	// CreatedAt backdates an imported record. Zero means now.
	CreatedAt time.Time
}

// Append records a new transaction and returns it. The record is stamped with
// the current time and prepended to the collection.
func (l *Ledger) Append(ctx context.Context, intent Intent, in AppendInput) (*domain.TransactionRecord, error) {
	log := l.logger(ctx)

	records, err := l.load(ctx)
	if err != nil {
		log.Error().Err(err).Str("key", kvstore.TransactionsKey).Msg("Failed to load transactions for append")
		return nil, fmt.Errorf("Append: %w", err)
	}

	now := l.now()
	if !in.CreatedAt.IsZero() {
		now = in.CreatedAt
	}
	kind := in.Kind
	if kind == "" {
		kind = domain.KindP2P
	}
	record := domain.TransactionRecord{
		ID:                   l.newID(),
		Amount:               chooseAmount(in.Amount, intent.Amount),
		PayeeAddress:         intent.PayeeAddress,
		PayeeName:            intent.PayeeName,
		CategoryKey:          in.CategoryKey,
		Note:                 in.Note,
		CreatedAtEpochMillis: now.UnixMilli(),
		MonthBucket:          domain.MonthBucket(now, l.loc),
		Kind:                 kind,
		MerchantCategoryCode: in.MerchantCategoryCode,
		OrganizationID:       in.OrganizationID,
	}

	records = append([]domain.TransactionRecord{record}, records...)
	if err := l.save(ctx, records); err != nil {
		log.Error().Err(err).Str("key", kvstore.TransactionsKey).Msg("Failed to save transaction")
		return nil, fmt.Errorf("Append: %w", err)
	}

	log.Debug().
		Str("transaction_id", record.ID).
		Str("category", record.CategoryKey).
		Str("amount", record.Amount.String()).
		Msg("Transaction recorded")

	return &record, nil
}

func chooseAmount(explicit, fromIntent decimal.NullDecimal) decimal.Decimal {
	if explicit.Valid && explicit.Decimal.IsPositive() {
		return explicit.Decimal
	}
	if fromIntent.Valid && fromIntent.Decimal.IsPositive() {
		return fromIntent.Decimal
	}
	return decimal.Zero
}

// ListAll returns every record, newest first. It returns an empty slice when
// the stored collection cannot be read.
func (l *Ledger) ListAll(ctx context.Context) []domain.TransactionRecord {
	records, err := l.load(ctx)
	if err != nil {
		log := l.logger(ctx)
		log.Error().Err(err).Str("key", kvstore.TransactionsKey).Msg("Failed to load transactions")
		return []domain.TransactionRecord{}
	}
	return records
}

// Remove deletes the record with id. It reports false when no such record
// exists or the collection could not be rewritten.
func (l *Ledger) Remove(ctx context.Context, id string) bool {
	log := l.logger(ctx)

	records, err := l.load(ctx)
	if err != nil {
		log.Error().Err(err).Str("key", kvstore.TransactionsKey).Msg("Failed to load transactions for delete")
		return false
	}

	kept := make([]domain.TransactionRecord, 0, len(records))
	for _, r := range records {
		if r.ID != id {
			kept = append(kept, r)
		}
	}
	if len(kept) == len(records) {
		return false
	}

	if err := l.save(ctx, kept); err != nil {
		log.Error().Err(err).Str("key", kvstore.TransactionsKey).Str("transaction_id", id).Msg("Failed to delete transaction")
		return false
	}
	return true
}

// ClearAll removes every record.
func (l *Ledger) ClearAll(ctx context.Context) bool {
	if err := l.store.Remove(ctx, kvstore.TransactionsKey); err != nil {
		log := l.logger(ctx)
		log.Error().Err(err).Str("key", kvstore.TransactionsKey).Msg("Failed to clear transactions")
		return false
	}
	return true
}

// CurrentMonthBucket returns the "YYYY-MM" bucket of the current time.
func (l *Ledger) CurrentMonthBucket() string {
	return domain.MonthBucket(l.now(), l.loc)
}

// load reads and decodes the collection, sorted newest first. A missing key
// is an empty ledger, not an error.
func (l *Ledger) load(ctx context.Context) ([]domain.TransactionRecord, error) {
	data, found, err := l.store.Get(ctx, kvstore.TransactionsKey)
	if err != nil {
		return nil, fmt.Errorf("load: read: %w", err)
	}
	if !found || len(bytes.TrimSpace(data)) == 0 {
		return []domain.TransactionRecord{}, nil
	}

	var records []domain.TransactionRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("load: decode: %w", err)
	}
	if records == nil {
		records = []domain.TransactionRecord{}
	}
	sortNewestFirst(records)
	return records, nil
}

func (l *Ledger) save(ctx context.Context, records []domain.TransactionRecord) error {
	if records == nil {
		records = []domain.TransactionRecord{}
	}
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("save: encode: %w", err)
	}
	if err := l.store.Set(ctx, kvstore.TransactionsKey, data); err != nil {
		return fmt.Errorf("save: write: %w", err)
	}
	return nil
}

func (l *Ledger) logger(ctx context.Context) zerolog.Logger {
	return logger.FromContextOr(ctx, l.log)
}

func sortNewestFirst(records []domain.TransactionRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].CreatedAtEpochMillis > records[j].CreatedAtEpochMillis
	})
}
