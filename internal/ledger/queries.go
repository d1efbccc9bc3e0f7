package ledger

import (
	"context"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/dvloznov/upi-tracker/internal/domain"
)

// TransactionsByMonth returns the records in month, newest first.
func (l *Ledger) TransactionsByMonth(ctx context.Context, month string) []domain.TransactionRecord {
	return filterMonth(l.ListAll(ctx), month)
}

func filterMonth(records []domain.TransactionRecord, month string) []domain.TransactionRecord {
	out := make([]domain.TransactionRecord, 0)
	for _, r := range records {
		if r.MonthBucket == month {
			out = append(out, r)
		}
	}
	return out
}

// StatsForMonth sums the records in month. The category breakdown only holds
// categories that occur in that month.
func (l *Ledger) StatsForMonth(ctx context.Context, month string) domain.MonthlyStats {
	return Summarize(month, l.TransactionsByMonth(ctx, month))
}

// Summarize builds MonthlyStats over records already filtered to month.
func Summarize(month string, records []domain.TransactionRecord) domain.MonthlyStats {
	stats := domain.MonthlyStats{
		MonthBucket:       month,
		Total:             decimal.Zero,
		CategoryBreakdown: make(map[string]decimal.Decimal),
	}
	for _, r := range records {
		stats.Total = stats.Total.Add(r.Amount)
		stats.CategoryBreakdown[r.CategoryKey] = stats.CategoryBreakdown[r.CategoryKey].Add(r.Amount)
		stats.TransactionCount++
	}
	return stats
}

// ListAvailableMonths returns the distinct month buckets present, most recent first.
func (l *Ledger) ListAvailableMonths(ctx context.Context) []string {
	seen := make(map[string]struct{})
	months := make([]string, 0)
	for _, r := range l.ListAll(ctx) {
		if _, ok := seen[r.MonthBucket]; ok {
			continue
		}
		seen[r.MonthBucket] = struct{}{}
		months = append(months, r.MonthBucket)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(months)))
	return months
}

// Search returns records whose note, category key, payee name or payee
// address contains query, ignoring case. A blank query returns everything.
func (l *Ledger) Search(ctx context.Context, query string) []domain.TransactionRecord {
	records := l.ListAll(ctx)
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return records
	}

	out := make([]domain.TransactionRecord, 0)
	for _, r := range records {
		if matches(r, q) {
			out = append(out, r)
		}
	}
	return out
}

func matches(r domain.TransactionRecord, q string) bool {
	for _, field := range []string{r.Note, r.CategoryKey, r.PayeeName, r.PayeeAddress} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}

// Recent returns at most limit of the newest records.
func (l *Ledger) Recent(ctx context.Context, limit int) []domain.TransactionRecord {
	if limit <= 0 {
		return []domain.TransactionRecord{}
	}
	records := l.ListAll(ctx)
	if limit < len(records) {
		records = records[:limit]
	}
	return records
}
