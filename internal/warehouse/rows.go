package warehouse

import (
	"math/big"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"

	"github.com/dvloznov/upi-tracker/internal/categories"
	"github.com/dvloznov/upi-tracker/internal/domain"
	"github.com/dvloznov/upi-tracker/internal/upi"
)

// TransactionRow is one ledger record in upi_tracker.transactions.
type TransactionRow struct {
	TransactionID string `bigquery:"transaction_id"` // REQUIRED

	TransactionDate civil.Date `bigquery:"transaction_date"` // REQUIRED, local calendar day
	CreatedTS       time.Time  `bigquery:"created_ts"`       // REQUIRED
	MonthBucket     string     `bigquery:"month_bucket"`     // REQUIRED

	Amount   *big.Rat `bigquery:"amount"`   // REQUIRED NUMERIC
	Currency string   `bigquery:"currency"` // REQUIRED

	PayeeAddress string `bigquery:"payee_address"` // REQUIRED
	PayeeName    string `bigquery:"payee_name"`    // REQUIRED

	CategoryKey  string              `bigquery:"category_key"`  // REQUIRED
	CategoryName bigquery.NullString `bigquery:"category_name"` // label at export time

	Note bigquery.NullString `bigquery:"note"`
	Kind string              `bigquery:"kind"` // p2p | merchant

	MerchantCategoryCode bigquery.NullString `bigquery:"merchant_category_code"`
	OrganizationID       bigquery.NullString `bigquery:"organization_id"`

	ExportedTS time.Time `bigquery:"exported_ts"`
}

func nullString(s string) bigquery.NullString {
	return bigquery.NullString{StringVal: s, Valid: s != ""}
}

// RowFromRecord converts a ledger record. loc decides the calendar day, so
// it should match the location the month bucket was derived in.
func RowFromRecord(rec domain.TransactionRecord, lookup categories.Lookup, loc *time.Location, exportedAt time.Time) *TransactionRow {
	if loc == nil {
		loc = time.Local
	}
	created := rec.CreatedAt(loc)

	return &TransactionRow{
		TransactionID:        rec.ID,
		TransactionDate:      civil.DateOf(created),
		CreatedTS:            created.UTC(),
		MonthBucket:          rec.MonthBucket,
		Amount:               rec.Amount.Rat(),
		Currency:             upi.Currency,
		PayeeAddress:         rec.PayeeAddress,
		PayeeName:            rec.PayeeName,
		CategoryKey:          rec.CategoryKey,
		CategoryName:         nullString(lookup.LabelFor(rec.CategoryKey)),
		Note:                 nullString(rec.Note),
		Kind:                 string(rec.EffectiveKind()),
		MerchantCategoryCode: nullString(rec.MerchantCategoryCode),
		OrganizationID:       nullString(rec.OrganizationID),
		ExportedTS:           exportedAt.UTC(),
	}
}
