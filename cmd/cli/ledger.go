package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/upi-tracker/internal/categories"
	"github.com/dvloznov/upi-tracker/internal/domain"
	"github.com/dvloznov/upi-tracker/internal/export"
)

var monthPattern = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

func printRecords(records []domain.TransactionRecord, lookup categories.Lookup, loc *time.Location) {
	if len(records) == 0 {
		fmt.Println("No transactions.")
		return
	}
	for _, r := range records {
		fmt.Printf("%s  %s  %12s  %-10s  %-24s  %s\n",
			r.ID,
			r.CreatedAt(loc).Format("2006-01-02 15:04"),
			export.FormatINR(r.Amount),
			lookup.LabelFor(r.CategoryKey),
			r.PayeeName,
			r.Note,
		)
	}
	fmt.Printf("\n%d transaction(s)\n", len(records))
}

func requireMonth(log zerolog.Logger, month string) {
	if !monthPattern.MatchString(month) {
		log.Fatal().Str("month", month).Msg("Error: invalid month format, expected YYYY-MM")
	}
}

func runList(log zerolog.Logger, args []string) {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	month := fs.String("month", "", "Only show one month (YYYY-MM)")
	fs.Parse(args)

	ctx, services, closeFn := openServices(log)
	defer closeFn()

	records := services.Ledger.ListAll(ctx)
	if *month != "" {
		requireMonth(log, *month)
		records = services.Ledger.TransactionsByMonth(ctx, *month)
	}
	printRecords(records, services.Categories.Lookup(ctx), services.Ledger.Location())
}

func runRecent(log zerolog.Logger, args []string) {
	fs := flag.NewFlagSet("recent", flag.ExitOnError)
	n := fs.Int("n", 5, "Number of transactions")
	fs.Parse(args)

	ctx, services, closeFn := openServices(log)
	defer closeFn()

	printRecords(services.Ledger.Recent(ctx, *n), services.Categories.Lookup(ctx), services.Ledger.Location())
}

func runSearch(log zerolog.Logger, args []string) {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	q := fs.String("q", "", "Text to look for")
	fs.Parse(args)

	ctx, services, closeFn := openServices(log)
	defer closeFn()

	printRecords(services.Ledger.Search(ctx, *q), services.Categories.Lookup(ctx), services.Ledger.Location())
}

func runStats(log zerolog.Logger, args []string) {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	month := fs.String("month", "", "Month (YYYY-MM, default: current)")
	fs.Parse(args)

	ctx, services, closeFn := openServices(log)
	defer closeFn()

	if *month == "" {
		*month = services.Ledger.CurrentMonthBucket()
	}
	requireMonth(log, *month)

	stats := services.Ledger.StatsForMonth(ctx, *month)
	lookup := services.Categories.Lookup(ctx)

	keys := make([]string, 0, len(stats.CategoryBreakdown))
	for k := range stats.CategoryBreakdown {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return stats.CategoryBreakdown[keys[i]].GreaterThan(stats.CategoryBreakdown[keys[j]])
	})

	fmt.Printf("=== %s ===\n", stats.MonthBucket)
	fmt.Printf("Total:        %s\n", export.FormatINR(stats.Total))
	fmt.Printf("Transactions: %d\n\n", stats.TransactionCount)
	for _, k := range keys {
		fmt.Printf("  %-14s %12s\n", lookup.LabelFor(k), export.FormatINR(stats.CategoryBreakdown[k]))
	}
}

func runMonths(log zerolog.Logger, args []string) {
	ctx, services, closeFn := openServices(log)
	defer closeFn()

	months := services.Ledger.ListAvailableMonths(ctx)
	if len(months) == 0 {
		fmt.Println("No transactions.")
		return
	}
	for _, m := range months {
		fmt.Println(m)
	}
}

func printDaily(days []domain.DailyTotal) {
	for _, d := range days {
		fmt.Printf("%s  %-3s  %12s\n", d.Date, d.DayLabel, export.FormatINR(d.Amount))
	}
}

func runWeek(log zerolog.Logger, args []string) {
	fs := flag.NewFlagSet("week", flag.ExitOnError)
	date := fs.String("date", "", "Any day of the week (YYYY-MM-DD, default: today)")
	fs.Parse(args)

	ctx, services, closeFn := openServices(log)
	defer closeFn()

	loc := services.Ledger.Location()
	day := time.Now().In(loc)
	if *date != "" {
		var err error
		day, err = time.ParseInLocation(domain.DayLayout, *date, loc)
		if err != nil {
			log.Fatal().Err(err).Msg("Error: invalid --date, expected YYYY-MM-DD")
		}
	}
	printDaily(services.Ledger.WeekTotals(ctx, day))
}

func runDaily(log zerolog.Logger, args []string) {
	fs := flag.NewFlagSet("daily", flag.ExitOnError)
	start := fs.String("start", "", "First day (YYYY-MM-DD)")
	end := fs.String("end", "", "Last day (YYYY-MM-DD)")
	fs.Parse(args)

	ctx, services, closeFn := openServices(log)
	defer closeFn()

	loc := services.Ledger.Location()
	startDay, err := time.ParseInLocation(domain.DayLayout, *start, loc)
	if err != nil {
		log.Fatal().Err(err).Msg("Error: invalid --start, expected YYYY-MM-DD")
	}
	endDay, err := time.ParseInLocation(domain.DayLayout, *end, loc)
	if err != nil {
		log.Fatal().Err(err).Msg("Error: invalid --end, expected YYYY-MM-DD")
	}
	if endDay.Before(startDay) {
		log.Fatal().Msg("Error: --end must not be before --start")
	}
	printDaily(services.Ledger.DailyTotals(ctx, startDay, endDay))
}

func runDelete(log zerolog.Logger, args []string) {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	id := fs.String("id", "", "Transaction ID")
	fs.Parse(args)

	if *id == "" {
		log.Fatal().Msg("Error: --id is required")
	}

	ctx, services, closeFn := openServices(log)
	defer closeFn()

	if !services.Ledger.Remove(ctx, *id) {
		log.Fatal().Str("transaction_id", *id).Msg("Transaction not deleted")
	}
	fmt.Printf("Deleted %s\n", *id)
}

func runClear(log zerolog.Logger, args []string) {
	fs := flag.NewFlagSet("clear", flag.ExitOnError)
	yes := fs.Bool("yes", false, "Confirm deleting every transaction")
	fs.Parse(args)

	if !*yes {
		log.Fatal().Msg("Refusing to clear without --yes")
	}

	ctx, services, closeFn := openServices(log)
	defer closeFn()

	if !services.Ledger.ClearAll(ctx) {
		log.Fatal().Msg("Failed to clear transactions")
	}
	fmt.Println("All transactions deleted.")
}

func runSeed(log zerolog.Logger, args []string) {
	fs := flag.NewFlagSet("seed", flag.ExitOnError)
	days := fs.Int("days", 30, "Number of days to fill, ending today")
	seed := fs.Int64("seed", time.Now().UnixNano(), "Random seed")
	fs.Parse(args)

	ctx, services, closeFn := openServices(log)
	defer closeFn()

	n, err := services.Ledger.SeedSampleData(ctx, *days, *seed)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to seed sample data")
	}
	fmt.Printf("Added %d sample transaction(s).\n", n)
}

func runExportPDF(log zerolog.Logger, args []string) {
	fs := flag.NewFlagSet("export-pdf", flag.ExitOnError)
	month := fs.String("month", "", "Month (YYYY-MM, default: current)")
	all := fs.Bool("all", false, "Report every month instead of one")
	out := fs.String("out", ".", "Directory to write the report to")
	fs.Parse(args)

	ctx, services, closeFn := openServices(log)
	defer closeFn()

	switch {
	case *all:
		*month = ""
	case *month == "":
		*month = services.Ledger.CurrentMonthBucket()
	default:
		requireMonth(log, *month)
	}

	now := time.Now()
	report := export.BuildReport(ctx, services.Ledger, services.Categories.Lookup(ctx), *month, now)

	path := filepath.Join(*out, export.FileName(*month, now))
	f, err := os.Create(path)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create report file")
	}
	if err := export.WritePDF(f, report); err != nil {
		_ = f.Close()
		log.Fatal().Err(err).Msg("Failed to write report")
	}
	if err := f.Close(); err != nil {
		log.Fatal().Err(err).Msg("Failed to close report file")
	}

	fmt.Printf("Wrote %s (%d transactions, %s)\n", path, report.Count, export.FormatINR(report.Total))
}
