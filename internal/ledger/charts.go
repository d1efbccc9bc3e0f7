package ledger

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dvloznov/upi-tracker/internal/domain"
)

// DailyTotals returns one entry per calendar day from start to end inclusive,
// including days without spending. Days are taken in the ledger's location.
func (l *Ledger) DailyTotals(ctx context.Context, start, end time.Time) []domain.DailyTotal {
	first := l.dayStart(start)
	last := l.dayStart(end)
	if last.Before(first) {
		return []domain.DailyTotal{}
	}

	sums := make(map[string]decimal.Decimal)
	for _, r := range l.ListAll(ctx) {
		key := r.CreatedAt(l.loc).Format(domain.DayLayout)
		sums[key] = sums[key].Add(r.Amount)
	}

	var out []domain.DailyTotal
	for day := first; !day.After(last); day = nextDay(day) {
		key := day.Format(domain.DayLayout)
		amount, ok := sums[key]
		if !ok {
			amount = decimal.Zero
		}
		out = append(out, domain.DailyTotal{
			Date:     key,
			DayLabel: day.Format("Mon"),
			Amount:   amount,
		})
	}
	return out
}

// WeekTotals returns the seven days of the Monday-first week containing day.
func (l *Ledger) WeekTotals(ctx context.Context, day time.Time) []domain.DailyTotal {
	monday := WeekStart(day.In(l.loc))
	sunday := time.Date(monday.Year(), monday.Month(), monday.Day()+6, 0, 0, 0, 0, l.loc)
	return l.DailyTotals(ctx, monday, sunday)
}

// WeekStart returns midnight of the Monday on or before t, in t's location.
func WeekStart(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	return time.Date(t.Year(), t.Month(), t.Day()-offset, 0, 0, 0, 0, t.Location())
}

func (l *Ledger) dayStart(t time.Time) time.Time {
	t = t.In(l.loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, l.loc)
}

func nextDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day()+1, 0, 0, 0, 0, t.Location())
}
