// Package export renders the ledger as a printable PDF expense report.
package export

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dvloznov/upi-tracker/internal/categories"
	"github.com/dvloznov/upi-tracker/internal/domain"
	"github.com/dvloznov/upi-tracker/internal/ledger"
)

// Source is the part of the ledger a report reads.
type Source interface {
	ListAll(ctx context.Context) []domain.TransactionRecord
	Location() *time.Location
}

// Report is everything WritePDF draws.
type Report struct {
	Title        string
	GeneratedAt  time.Time
	Total        decimal.Decimal
	Count        int
	Categories   []CategoryLine
	Transactions []TransactionLine
}

// CategoryLine is one row of the category breakdown.
type CategoryLine struct {
	Key     string
	Label   string
	Color   string
	Amount  decimal.Decimal
	Percent decimal.Decimal
}

// TransactionLine is one row of the transaction table.
type TransactionLine struct {
	Date     string
	Category string
	Color    string
	Note     string
	Payee    string
	Amount   decimal.Decimal
}

// BuildReport collects the records of month, or of every month when month is
// empty. Category keys of deleted categories render as the fallback category.
func BuildReport(ctx context.Context, src Source, lookup categories.Lookup, month string, now time.Time) Report {
	loc := src.Location()
	records := src.ListAll(ctx)

	title := "Complete Expense Report"
	if month != "" {
		filtered := make([]domain.TransactionRecord, 0, len(records))
		for _, r := range records {
			if r.MonthBucket == month {
				filtered = append(filtered, r)
			}
		}
		records = filtered
		title = "Expense Report - " + monthTitle(month)
	}

	stats := ledger.Summarize(month, records)
	report := Report{
		Title:       title,
		GeneratedAt: now.In(loc),
		Total:       stats.Total,
		Count:       stats.TransactionCount,
	}

	for key, amount := range stats.CategoryBreakdown {
		if !amount.IsPositive() {
			continue
		}
		c := lookup.Resolve(key)
		report.Categories = append(report.Categories, CategoryLine{
			Key:     key,
			Label:   lookup.LabelFor(key),
			Color:   c.Color,
			Amount:  amount,
			Percent: percentOf(amount, stats.Total),
		})
	}
	sort.Slice(report.Categories, func(i, j int) bool {
		a, b := report.Categories[i], report.Categories[j]
		if !a.Amount.Equal(b.Amount) {
			return a.Amount.GreaterThan(b.Amount)
		}
		return a.Key < b.Key
	})

	for _, r := range records {
		report.Transactions = append(report.Transactions, TransactionLine{
			Date:     r.CreatedAt(loc).Format("Jan 2, 2006"),
			Category: lookup.LabelFor(r.CategoryKey),
			Color:    lookup.ColorFor(r.CategoryKey),
			Note:     r.Note,
			Payee:    r.PayeeName,
			Amount:   r.Amount,
		})
	}
	return report
}

// FileName returns the conventional file name for a report.
func FileName(month string, now time.Time) string {
	if month != "" {
		return fmt.Sprintf("UPI_Tracker_%s.pdf", month)
	}
	return fmt.Sprintf("UPI_Tracker_All_%s.pdf", now.Format(domain.DayLayout))
}

func monthTitle(month string) string {
	t, err := time.Parse(domain.MonthBucketLayout, month)
	if err != nil {
		return month
	}
	return t.Format("January 2006")
}

func percentOf(part, total decimal.Decimal) decimal.Decimal {
	if !total.IsPositive() {
		return decimal.Zero
	}
	return part.Mul(decimal.NewFromInt(100)).Div(total).Round(1)
}

// FormatINR formats an amount with Indian digit grouping, e.g. "INR 1,23,456.50".
func FormatINR(d decimal.Decimal) string {
	s := d.Abs().StringFixed(2)
	intPart, frac, _ := strings.Cut(s, ".")

	var grouped string
	if len(intPart) <= 3 {
		grouped = intPart
	} else {
		head, tail := intPart[:len(intPart)-3], intPart[len(intPart)-3:]
		var groups []string
		for len(head) > 2 {
			groups = append([]string{head[len(head)-2:]}, groups...)
			head = head[:len(head)-2]
		}
		if head != "" {
			groups = append([]string{head}, groups...)
		}
		grouped = strings.Join(groups, ",") + "," + tail
	}

	sign := ""
	if d.IsNegative() {
		sign = "-"
	}
	return "INR " + sign + grouped + "." + frac
}
