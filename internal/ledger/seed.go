package ledger

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dvloznov/upi-tracker/internal/domain"
)

type samplePayee struct {
	name    string
	address string
}

var samplePayees = []samplePayee{
	{"Coffee Shop", "coffee@paytm"},
	{"Grocery Store", "grocery@phonepe"},
	{"Restaurant", "restaurant@bhim"},
	{"Uber", "uber@paytm"},
	{"Amazon", "amazon@phonepe"},
	{"Swiggy", "swiggy@paytm"},
	{"Zomato", "zomato@bhim"},
	{"Book Store", "books@phonepe"},
	{"Pharmacy", "pharma@paytm"},
	{"Gas Station", "gas@bhim"},
}

var sampleCategories = []string{"food", "utility", "college", "rent", "other"}

var sampleNotes = []string{
	"Lunch", "Dinner", "Groceries", "Transport", "Shopping",
	"Books", "Medicine", "Snacks", "Coffee", "Utilities",
}

// SeedSampleData adds demo records for each of the last days days, ending
// today. The same seed always produces the same records. It returns the
// number of records added.
func (l *Ledger) SeedSampleData(ctx context.Context, days int, seed int64) (int, error) {
	if days <= 0 {
		return 0, nil
	}

	records, err := l.load(ctx)
	if err != nil {
		return 0, fmt.Errorf("SeedSampleData: %w", err)
	}

	r := rand.New(rand.NewSource(seed))
	today := l.dayStart(l.now())
	var added []domain.TransactionRecord

	for offset := days - 1; offset >= 0; offset-- {
		day := time.Date(today.Year(), today.Month(), today.Day()-offset, 0, 0, 0, 0, l.loc)

		// Weekends get 2-4 payments, weekdays 1-3.
		count := r.Intn(3) + 1
		if wd := day.Weekday(); wd == time.Saturday || wd == time.Sunday {
			count++
		}

		for i := 0; i < count; i++ {
			payee := samplePayees[r.Intn(len(samplePayees))]
			at := day.Add(time.Duration(r.Intn(15)+8)*time.Hour + time.Duration(r.Intn(60))*time.Minute)

			added = append(added, domain.TransactionRecord{
				ID:                   l.newID(),
				Amount:               decimal.NewFromInt(int64(r.Intn(4950) + 50)),
				PayeeAddress:         payee.address,
				PayeeName:            payee.name,
				CategoryKey:          sampleCategories[r.Intn(len(sampleCategories))],
				Note:                 sampleNotes[r.Intn(len(sampleNotes))],
				CreatedAtEpochMillis: at.UnixMilli(),
				MonthBucket:          domain.MonthBucket(at, l.loc),
				Kind:                 domain.KindP2P,
			})
		}
	}

	records = append(records, added...)
	sortNewestFirst(records)
	if err := l.save(ctx, records); err != nil {
		return 0, fmt.Errorf("SeedSampleData: %w", err)
	}

	log := l.logger(ctx)
	log.Info().Int("records", len(added)).Int("days", days).Msg("Seeded sample transactions")
	return len(added), nil
}
