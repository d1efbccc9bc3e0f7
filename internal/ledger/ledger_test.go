package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvloznov/upi-tracker/internal/domain"
	"github.com/dvloznov/upi-tracker/internal/kvstore"
	mock_kvstore "github.com/dvloznov/upi-tracker/internal/kvstore/mocks"
	"github.com/dvloznov/upi-tracker/internal/logger"
)

var ist = time.FixedZone("IST", 5*60*60+30*60)

// fakeClock returns a clock that advances one minute per call.
func fakeClock(start time.Time) func() time.Time {
	current := start
	return func() time.Time {
		t := current
		current = current.Add(time.Minute)
		return t
	}
}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("tx-%d", n)
	}
}

func newTestLedger(t *testing.T, start time.Time) (*Ledger, *kvstore.MemoryStore) {
	t.Helper()
	store := kvstore.NewMemoryStore()
	l := New(store,
		WithClock(fakeClock(start)),
		WithIDGenerator(sequentialIDs()),
		WithLocation(ist),
	)
	return l, store
}

func d(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(s))
}

func mustAppend(t *testing.T, l *Ledger, payee, category, note, amount string) *domain.TransactionRecord {
	t.Helper()
	rec, err := l.Append(context.Background(),
		Intent{PayeeAddress: payee + "@ybl", PayeeName: payee},
		AppendInput{CategoryKey: category, Note: note, Amount: d(amount)})
	require.NoError(t, err)
	return rec
}

func TestAppend(t *testing.T) {
	start := time.Date(2026, 1, 31, 23, 50, 0, 0, ist)
	l, store := newTestLedger(t, start)

	rec, err := l.Append(context.Background(),
		Intent{PayeeAddress: "shop@ybl", PayeeName: "Shop", Amount: d("499")},
		AppendInput{CategoryKey: "food", Note: "dinner", Kind: domain.KindMerchant, MerchantCategoryCode: "5812", OrganizationID: "0001"})
	require.NoError(t, err)

	assert.Equal(t, "tx-1", rec.ID)
	assert.Equal(t, "499", rec.Amount.String(), "intent amount is the default")
	assert.Equal(t, start.UnixMilli(), rec.CreatedAtEpochMillis)
	assert.Equal(t, "2026-01", rec.MonthBucket)
	assert.Equal(t, domain.KindMerchant, rec.Kind)
	assert.Equal(t, "5812", rec.MerchantCategoryCode)

	raw, found, err := store.Get(context.Background(), kvstore.TransactionsKey)
	require.NoError(t, err)
	require.True(t, found)

	var stored []map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &stored))
	require.Len(t, stored, 1)
	assert.Equal(t, float64(499), stored[0]["amount"], "amount is stored as a JSON number")
	assert.Equal(t, "shop@ybl", stored[0]["payeeAddress"])
	assert.Equal(t, "2026-01", stored[0]["monthBucket"])
	assert.Equal(t, "merchant", stored[0]["kind"])
	assert.Equal(t, "0001", stored[0]["organizationId"])
}

func TestAppend_AmountPrecedence(t *testing.T) {
	l, _ := newTestLedger(t, time.Date(2026, 3, 1, 10, 0, 0, 0, ist))
	ctx := context.Background()

	tests := []struct {
		name     string
		intent   decimal.NullDecimal
		explicit decimal.NullDecimal
		want     string
	}{
		{"explicit wins", d("100"), d("250"), "250"},
		{"intent default", d("100"), decimal.NullDecimal{}, "100"},
		{"zero explicit falls back", d("100"), d("0"), "100"},
		{"nothing gives zero", decimal.NullDecimal{}, decimal.NullDecimal{}, "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := l.Append(ctx, Intent{PayeeAddress: "a@b", PayeeName: "A", Amount: tt.intent},
				AppendInput{CategoryKey: "other", Amount: tt.explicit})
			require.NoError(t, err)
			assert.Equal(t, tt.want, rec.Amount.String())
			assert.Equal(t, domain.KindP2P, rec.Kind)
		})
	}
}

func TestAppend_Backdated(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLedger(t, time.Date(2026, 3, 14, 10, 0, 0, 0, ist))

	mustAppend(t, l, "today", "food", "", "10")
	old, err := l.Append(ctx, Intent{PayeeAddress: "old@ybl", PayeeName: "old"},
		AppendInput{CategoryKey: "rent", Amount: d("5000"), CreatedAt: time.Date(2026, 1, 31, 23, 0, 0, 0, ist)})
	require.NoError(t, err)
	assert.Equal(t, "2026-01", old.MonthBucket)

	all := l.ListAll(ctx)
	require.Len(t, all, 2)
	assert.Equal(t, "today", all[0].PayeeName, "backdated records sort by their own time")
	assert.Equal(t, []string{"2026-03", "2026-01"}, l.ListAvailableMonths(ctx))
}

func TestMonthBucketUsesLocation(t *testing.T) {
	// 20:00 UTC on Jan 31 is already Feb 1 in India.
	start := time.Date(2026, 1, 31, 20, 0, 0, 0, time.UTC)
	l, _ := newTestLedger(t, start)

	rec := mustAppend(t, l, "late", "food", "", "10")
	assert.Equal(t, "2026-02", rec.MonthBucket)
	assert.Equal(t, "2026-02", l.CurrentMonthBucket())
	assert.Equal(t, 1, l.Now().Day(), "the clock is read in the ledger's zone")
	assert.Equal(t, ist, l.Now().Location())
}

func TestListAll_SortsNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := kvstore.NewMemoryStore()
	require.NoError(t, store.Set(ctx, kvstore.TransactionsKey, []byte(`[
		{"id":"old","amount":1,"payeeAddress":"a@b","payeeName":"A","categoryKey":"food","createdAtEpochMillis":1000,"monthBucket":"1970-01"},
		{"id":"new","amount":2,"payeeAddress":"a@b","payeeName":"A","categoryKey":"food","createdAtEpochMillis":3000,"monthBucket":"1970-01"},
		{"id":"mid","amount":3,"payeeAddress":"a@b","payeeName":"A","categoryKey":"food","createdAtEpochMillis":2000,"monthBucket":"1970-01"}
	]`)))

	l := New(store, WithLocation(ist))
	records := l.ListAll(ctx)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"new", "mid", "old"}, []string{records[0].ID, records[1].ID, records[2].ID})
	assert.Equal(t, domain.KindP2P, records[0].EffectiveKind())
}

func TestListAll_Empty(t *testing.T) {
	l, _ := newTestLedger(t, time.Now())
	records := l.ListAll(context.Background())
	assert.NotNil(t, records)
	assert.Empty(t, records)
}

func TestReadFailuresAreLogged(t *testing.T) {
	var ctxBuf, ownBuf bytes.Buffer
	store := kvstore.NewMemoryStore()
	require.NoError(t, store.Set(context.Background(), kvstore.TransactionsKey, []byte(`{not json`)))
	l := New(store, WithLogger(logger.NewWithWriter(&ownBuf)))

	ctx := logger.WithContext(context.Background(), logger.NewWithWriter(&ctxBuf))
	assert.Empty(t, l.ListAll(ctx))
	assert.Contains(t, ctxBuf.String(), "Failed to load transactions")
	assert.Contains(t, ctxBuf.String(), kvstore.TransactionsKey)
	assert.Zero(t, ownBuf.Len(), "the context logger wins over the ledger's own")

	assert.Empty(t, l.ListAll(context.Background()))
	assert.Contains(t, ownBuf.String(), "Failed to load transactions")
}

func TestListAll_CorruptDataDegradesToEmpty(t *testing.T) {
	ctx := context.Background()
	store := kvstore.NewMemoryStore()
	require.NoError(t, store.Set(ctx, kvstore.TransactionsKey, []byte(`{not json`)))

	l := New(store)
	assert.Empty(t, l.ListAll(ctx))
	assert.False(t, l.Remove(ctx, "anything"))
	assert.Empty(t, l.ListAvailableMonths(ctx))

	stats := l.StatsForMonth(ctx, "2026-01")
	assert.True(t, stats.Total.IsZero())

	_, err := l.Append(ctx, Intent{PayeeAddress: "a@b"}, AppendInput{CategoryKey: "food", Amount: d("1")})
	assert.Error(t, err)

	raw, _, _ := store.Get(ctx, kvstore.TransactionsKey)
	assert.Equal(t, `{not json`, string(raw), "a failed append must not overwrite stored data")
}

func TestRemove(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLedger(t, time.Date(2026, 1, 5, 9, 0, 0, 0, ist))

	a := mustAppend(t, l, "alpha", "food", "", "10")
	mustAppend(t, l, "beta", "rent", "", "20")

	before := l.ListAll(ctx)
	assert.False(t, l.Remove(ctx, "missing"))
	assert.Equal(t, before, l.ListAll(ctx), "removing an unknown id leaves the ledger unchanged")

	assert.True(t, l.Remove(ctx, a.ID))
	after := l.ListAll(ctx)
	require.Len(t, after, 1)
	assert.Equal(t, "beta", after[0].PayeeName)
	assert.False(t, l.Remove(ctx, a.ID))
}

func TestClearAll(t *testing.T) {
	ctx := context.Background()
	l, store := newTestLedger(t, time.Date(2026, 1, 5, 9, 0, 0, 0, ist))
	mustAppend(t, l, "alpha", "food", "", "10")

	assert.True(t, l.ClearAll(ctx))
	assert.Empty(t, l.ListAll(ctx))
	_, found, _ := store.Get(ctx, kvstore.TransactionsKey)
	assert.False(t, found)
	assert.True(t, l.ClearAll(ctx), "clearing an empty ledger succeeds")
}

func TestStatsForMonth_ConcreteScenario(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLedger(t, time.Date(2026, 1, 10, 12, 0, 0, 0, ist))

	mustAppend(t, l, "canteen", "food", "", "100")
	mustAppend(t, l, "cafe", "food", "", "50")
	mustAppend(t, l, "landlord", "rent", "", "1000")

	stats := l.StatsForMonth(ctx, "2026-01")
	assert.Equal(t, "2026-01", stats.MonthBucket)
	assert.Equal(t, "1150", stats.Total.String())
	assert.Equal(t, 3, stats.TransactionCount)
	require.Len(t, stats.CategoryBreakdown, 2)
	assert.Equal(t, "150", stats.CategoryBreakdown["food"].String())
	assert.Equal(t, "1000", stats.CategoryBreakdown["rent"].String())
}

func TestStatsForMonth_UnknownMonth(t *testing.T) {
	l, _ := newTestLedger(t, time.Date(2026, 1, 10, 12, 0, 0, 0, ist))
	mustAppend(t, l, "canteen", "food", "", "100")

	for _, month := range []string{"2025-12", ""} {
		stats := l.StatsForMonth(context.Background(), month)
		assert.True(t, stats.Total.IsZero())
		assert.NotNil(t, stats.CategoryBreakdown)
		assert.Empty(t, stats.CategoryBreakdown)
		assert.Equal(t, 0, stats.TransactionCount)
	}
}

func TestStatsForMonth_BreakdownSumsToTotal(t *testing.T) {
	ctx := context.Background()
	store := kvstore.NewMemoryStore()
	r := rand.New(rand.NewSource(99))

	// Spread records over several months with a clock that jumps days.
	current := time.Date(2025, 10, 1, 8, 0, 0, 0, ist)
	l := New(store, WithLocation(ist), WithIDGenerator(sequentialIDs()), WithClock(func() time.Time {
		current = current.Add(time.Duration(r.Intn(96)) * time.Hour)
		return current
	}))

	categories := []string{"food", "rent", "college", "utility", "other", "custom-1"}
	for i := 0; i < 120; i++ {
		amount := decimal.New(int64(r.Intn(500000)+1), -2)
		_, err := l.Append(ctx, Intent{PayeeAddress: "p@ybl", PayeeName: "P"},
			AppendInput{CategoryKey: categories[r.Intn(len(categories))], Amount: decimal.NewNullDecimal(amount)})
		require.NoError(t, err)
	}

	months := l.ListAvailableMonths(ctx)
	require.NotEmpty(t, months)
	for _, m := range months {
		stats := l.StatsForMonth(ctx, m)
		sum := decimal.Zero
		for _, v := range stats.CategoryBreakdown {
			sum = sum.Add(v)
		}
		assert.True(t, sum.Equal(stats.Total), "month %s: breakdown %s != total %s", m, sum, stats.Total)
	}
}

func TestListAvailableMonths(t *testing.T) {
	ctx := context.Background()
	times := []time.Time{
		time.Date(2025, 11, 3, 10, 0, 0, 0, ist),
		time.Date(2026, 1, 3, 10, 0, 0, 0, ist),
		time.Date(2025, 12, 3, 10, 0, 0, 0, ist),
		time.Date(2026, 1, 9, 10, 0, 0, 0, ist),
	}
	i := 0
	l := New(kvstore.NewMemoryStore(), WithLocation(ist), WithClock(func() time.Time {
		t := times[i]
		i++
		return t
	}))
	for range times {
		mustAppend(t, l, "p", "food", "", "1")
	}

	assert.Equal(t, []string{"2026-01", "2025-12", "2025-11"}, l.ListAvailableMonths(ctx))
	assert.Len(t, l.TransactionsByMonth(ctx, "2026-01"), 2)
}

func TestSearch(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLedger(t, time.Date(2026, 2, 1, 9, 0, 0, 0, ist))

	mustAppend(t, l, "Ravi", "rent", "February flat", "9000")
	mustAppend(t, l, "Canteen", "food", "Samosa", "40")
	mustAppend(t, l, "Metro", "utility", "", "60")

	tests := []struct {
		query string
		want  []string
	}{
		{"samosa", []string{"Canteen"}},
		{"FEB", []string{"Ravi"}},
		{"util", []string{"Metro"}},
		{"metro@", []string{"Metro"}},
		{"@ybl", []string{"Metro", "Canteen", "Ravi"}},
		{"nothing-matches", []string{}},
		{"   ", []string{"Metro", "Canteen", "Ravi"}},
		{"", []string{"Metro", "Canteen", "Ravi"}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			names := []string{}
			for _, r := range l.Search(ctx, tt.query) {
				names = append(names, r.PayeeName)
			}
			assert.Equal(t, tt.want, names)
		})
	}
}

func TestSearch_MatchesNoteOnly(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLedger(t, time.Date(2026, 2, 1, 9, 0, 0, 0, ist))

	x := mustAppend(t, l, "Shop", "other", "birthday gift", "500")
	mustAppend(t, l, "Other", "food", "", "20")

	results := l.Search(ctx, "birthday")
	require.Len(t, results, 1)
	assert.Equal(t, x.ID, results[0].ID)
}

func TestRecent(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLedger(t, time.Date(2026, 2, 1, 9, 0, 0, 0, ist))
	for i := 0; i < 4; i++ {
		mustAppend(t, l, fmt.Sprintf("p%d", i), "food", "", "1")
	}

	recent := l.Recent(ctx, 2)
	require.Len(t, recent, 2)
	assert.Equal(t, "p3", recent[0].PayeeName)
	assert.Equal(t, "p2", recent[1].PayeeName)

	assert.Len(t, l.Recent(ctx, 10), 4)
	assert.Empty(t, l.Recent(ctx, 0))
	assert.Empty(t, l.Recent(ctx, -1))
}

func TestWeekTotals(t *testing.T) {
	ctx := context.Background()
	times := []time.Time{
		time.Date(2026, 1, 5, 9, 0, 0, 0, ist),   // Monday
		time.Date(2026, 1, 5, 21, 0, 0, 0, ist),  // Monday
		time.Date(2026, 1, 7, 12, 0, 0, 0, ist),  // Wednesday
		time.Date(2026, 1, 11, 23, 0, 0, 0, ist), // Sunday
		time.Date(2026, 1, 12, 0, 30, 0, 0, ist), // next Monday
	}
	amounts := []string{"100", "50", "20", "5", "999"}
	i := 0
	l := New(kvstore.NewMemoryStore(), WithLocation(ist), WithClock(func() time.Time {
		t := times[i]
		i++
		return t
	}))
	for _, a := range amounts {
		mustAppend(t, l, "p", "food", "", a)
	}

	week := l.WeekTotals(ctx, time.Date(2026, 1, 8, 15, 0, 0, 0, ist))
	require.Len(t, week, 7)

	labels := []string{}
	values := []string{}
	for _, day := range week {
		labels = append(labels, day.DayLabel)
		values = append(values, day.Amount.String())
	}
	assert.Equal(t, "2026-01-05", week[0].Date)
	assert.Equal(t, "2026-01-11", week[6].Date)
	assert.Equal(t, []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}, labels)
	assert.Equal(t, []string{"150", "0", "20", "0", "0", "0", "5"}, values)

	sundayWeek := l.WeekTotals(ctx, time.Date(2026, 1, 11, 8, 0, 0, 0, ist))
	assert.Equal(t, "2026-01-05", sundayWeek[0].Date, "Sunday belongs to the week that started on Monday")
}

func TestDailyTotals(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLedger(t, time.Date(2026, 2, 27, 10, 0, 0, 0, ist))
	mustAppend(t, l, "p", "food", "", "10")

	days := l.DailyTotals(ctx, time.Date(2026, 2, 26, 0, 0, 0, 0, ist), time.Date(2026, 3, 1, 23, 0, 0, 0, ist))
	require.Len(t, days, 4)
	assert.Equal(t, "2026-02-26", days[0].Date)
	assert.Equal(t, "10", days[1].Amount.String())
	assert.Equal(t, "2026-03-01", days[3].Date)

	assert.Empty(t, l.DailyTotals(ctx, time.Date(2026, 3, 1, 0, 0, 0, 0, ist), time.Date(2026, 2, 1, 0, 0, 0, 0, ist)))
}

func TestWeekStart(t *testing.T) {
	tests := []struct {
		in   time.Time
		want string
	}{
		{time.Date(2026, 1, 5, 0, 0, 0, 0, ist), "2026-01-05"},
		{time.Date(2026, 1, 11, 23, 59, 0, 0, ist), "2026-01-05"},
		{time.Date(2026, 1, 1, 12, 0, 0, 0, ist), "2025-12-29"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, WeekStart(tt.in).Format(domain.DayLayout))
	}
}

func TestSeedSampleData(t *testing.T) {
	ctx := context.Background()
	newLedger := func() *Ledger {
		return New(kvstore.NewMemoryStore(),
			WithLocation(ist),
			WithIDGenerator(sequentialIDs()),
			WithClock(func() time.Time { return time.Date(2026, 1, 7, 18, 0, 0, 0, ist) }))
	}

	first := newLedger()
	n, err := first.SeedSampleData(ctx, 14, 1)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, n, 14)
	assert.LessOrEqual(t, n, 14*4)

	second := newLedger()
	_, err = second.SeedSampleData(ctx, 14, 1)
	require.NoError(t, err)
	assert.Equal(t, first.ListAll(ctx), second.ListAll(ctx), "same seed gives same data")

	records := first.ListAll(ctx)
	assert.Len(t, records, n)
	for _, r := range records {
		at := r.CreatedAt(ist)
		assert.GreaterOrEqual(t, at.Hour(), 8)
		assert.Equal(t, domain.MonthBucket(at, ist), r.MonthBucket)
		assert.True(t, r.Amount.GreaterThanOrEqual(decimal.NewFromInt(50)))
	}
	assert.Equal(t, []string{"2026-01", "2025-12"}, first.ListAvailableMonths(ctx))

	zero, err := first.SeedSampleData(ctx, 0, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, zero)
}

func TestStorageFailures(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	storeErr := errors.New("storage unavailable")

	t.Run("read failure", func(t *testing.T) {
		store := mock_kvstore.NewMockStore(ctrl)
		store.EXPECT().Get(gomock.Any(), kvstore.TransactionsKey).Return(nil, false, storeErr).AnyTimes()
		l := New(store)

		assert.Empty(t, l.ListAll(ctx))
		assert.Empty(t, l.Search(ctx, "x"))
		assert.Empty(t, l.Recent(ctx, 5))
		assert.False(t, l.Remove(ctx, "id"))

		_, err := l.Append(ctx, Intent{PayeeAddress: "a@b"}, AppendInput{CategoryKey: "food"})
		require.Error(t, err)
		assert.True(t, errors.Is(err, storeErr))
	})

	t.Run("write failure", func(t *testing.T) {
		existing := []byte(`[{"id":"keep","amount":5,"payeeAddress":"a@b","payeeName":"A","categoryKey":"food","createdAtEpochMillis":1,"monthBucket":"1970-01"}]`)
		store := mock_kvstore.NewMockStore(ctrl)
		store.EXPECT().Get(gomock.Any(), kvstore.TransactionsKey).Return(existing, true, nil).AnyTimes()
		store.EXPECT().Set(gomock.Any(), kvstore.TransactionsKey, gomock.Any()).Return(storeErr).Times(2)
		l := New(store)

		_, err := l.Append(ctx, Intent{PayeeAddress: "a@b"}, AppendInput{CategoryKey: "food"})
		assert.Error(t, err)
		assert.False(t, l.Remove(ctx, "keep"))
	})

	t.Run("clear failure", func(t *testing.T) {
		store := mock_kvstore.NewMockStore(ctrl)
		store.EXPECT().Remove(gomock.Any(), kvstore.TransactionsKey).Return(storeErr)
		l := New(store)

		assert.False(t, l.ClearAll(ctx))
	})
}
