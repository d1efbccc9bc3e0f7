package domain

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// MonthBucketLayout is the Go layout for a "YYYY-MM" month bucket.
const MonthBucketLayout = "2006-01"

// DayLayout is the Go layout for a "YYYY-MM-DD" day key.
const DayLayout = "2006-01-02"

// TransactionKind tells P2P payments apart from merchant payments.
type TransactionKind string

const (
	KindP2P      TransactionKind = "p2p"
	KindMerchant TransactionKind = "merchant"
)

// TransactionRecord is one locally recorded payment. Records are created once
// when the user proceeds to the payment app and are never edited.
type TransactionRecord struct {
	ID                   string          `json:"id"`
	Amount               decimal.Decimal `json:"amount"`
	PayeeAddress         string          `json:"payeeAddress"`
	PayeeName            string          `json:"payeeName"`
	CategoryKey          string          `json:"categoryKey"`
	Note                 string          `json:"note,omitempty"`
	CreatedAtEpochMillis int64           `json:"createdAtEpochMillis"`
	MonthBucket          string          `json:"monthBucket"` // derived from CreatedAtEpochMillis at write time
	Kind                 TransactionKind `json:"kind,omitempty"`
	MerchantCategoryCode string          `json:"merchantCategoryCode,omitempty"`
	OrganizationID       string          `json:"organizationId,omitempty"`
}

// EffectiveKind returns the record kind, treating a missing kind as P2P.
func (r TransactionRecord) EffectiveKind() TransactionKind {
	if r.Kind == "" {
		return KindP2P
	}
	return r.Kind
}

// CreatedAt returns the creation timestamp in the given location.
func (r TransactionRecord) CreatedAt(loc *time.Location) time.Time {
	return time.UnixMilli(r.CreatedAtEpochMillis).In(loc)
}

// MarshalJSON writes Amount as a JSON number. Decoding needs no override:
// decimal accepts both numbers and quoted strings.
func (r TransactionRecord) MarshalJSON() ([]byte, error) {
	type plain TransactionRecord
	return json.Marshal(struct {
		plain
		Amount json.Number `json:"amount"`
	}{plain(r), AmountJSON(r.Amount)})
}

// MonthlyStats summarises one month bucket.
type MonthlyStats struct {
	MonthBucket       string                     `json:"monthBucket"`
	Total             decimal.Decimal            `json:"total"`
	CategoryBreakdown map[string]decimal.Decimal `json:"categoryBreakdown"`
	TransactionCount  int                        `json:"transactionCount"`
}

// DailyTotal is one bar of a daily spending chart.
type DailyTotal struct {
	Date     string          `json:"date"`
	DayLabel string          `json:"dayLabel"`
	Amount   decimal.Decimal `json:"amount"`
}

func (s MonthlyStats) MarshalJSON() ([]byte, error) {
	type plain MonthlyStats
	var breakdown map[string]json.Number
	if s.CategoryBreakdown != nil {
		breakdown = make(map[string]json.Number, len(s.CategoryBreakdown))
		for key, amount := range s.CategoryBreakdown {
			breakdown[key] = AmountJSON(amount)
		}
	}
	return json.Marshal(struct {
		plain
		Total             json.Number            `json:"total"`
		CategoryBreakdown map[string]json.Number `json:"categoryBreakdown"`
	}{plain(s), AmountJSON(s.Total), breakdown})
}

func (d DailyTotal) MarshalJSON() ([]byte, error) {
	type plain DailyTotal
	return json.Marshal(struct {
		plain
		Amount json.Number `json:"amount"`
	}{plain(d), AmountJSON(d.Amount)})
}

// AmountJSON renders an amount as an unquoted JSON number.
func AmountJSON(d decimal.Decimal) json.Number {
	return json.Number(d.String())
}

// MonthBucket formats t as "YYYY-MM" in loc.
func MonthBucket(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(MonthBucketLayout)
}
