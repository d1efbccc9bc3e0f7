package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/dvloznov/upi-tracker/internal/app"
	"github.com/dvloznov/upi-tracker/internal/config"
	"github.com/dvloznov/upi-tracker/internal/logger"
)

type command struct {
	name    string
	summary string
	run     func(log zerolog.Logger, args []string)
}

var commands = []command{
	{"parse", "Decode a UPI payment link", runParse},
	{"build", "Build a UPI payment link", runBuild},
	{"modify", "Change the amount or note of a link", runModify},
	{"validate", "Check a UPI ID", runValidate},
	{"qr", "Render a link as a QR code PNG", runQR},
	{"pay", "Record a payment and open it in a UPI app", runPay},
	{"add", "Record a payment without opening an app", runAdd},
	{"list", "List recorded payments", runList},
	{"recent", "Show the latest payments", runRecent},
	{"search", "Search payments by payee, note or category", runSearch},
	{"stats", "Show a month's totals by category", runStats},
	{"months", "List months that have payments", runMonths},
	{"week", "Show daily totals for a week", runWeek},
	{"daily", "Show daily totals for a date range", runDaily},
	{"delete", "Delete a payment by ID", runDelete},
	{"clear", "Delete every payment", runClear},
	{"seed", "Add sample payments", runSeed},
	{"export-pdf", "Write a monthly PDF report", runExportPDF},
	{"categories", "Manage spending categories", runCategories},
	{"suggest", "Suggest a category for a payee", runSuggest},
	{"profile", "Show or change the profile", runProfile},
}

func main() {
	log := logger.New()
	if lvl := os.Getenv("LOG_LEVEL"); lvl != "" {
		log = logger.NewWithLevel(lvl)
	}

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	name := os.Args[1]
	if name == "help" || name == "-h" || name == "--help" {
		printUsage()
		return
	}
	for _, c := range commands {
		if c.name == name {
			c.run(log, os.Args[2:])
			return
		}
	}

	fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", name)
	printUsage()
	os.Exit(1)
}

func printUsage() {
	fmt.Println("UPI Tracker CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  cli <command> [options]")
	fmt.Println("\nCommands:")
	for _, c := range commands {
		fmt.Printf("  %-11s %s\n", c.name, c.summary)
	}
	fmt.Printf("  %-11s %s\n", "help", "Show this help message")
	fmt.Println("\nRun 'cli <command> -h' for more information on a command.")
}

// openServices loads configuration and opens the stores. The returned
// function closes them.
func openServices(log zerolog.Logger) (context.Context, *app.App, func()) {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	ctx = logger.WithContext(ctx, log)

	services, err := app.Open(ctx, cfg, log)
	if err != nil {
		cancel()
		log.Fatal().Err(err).Msg("Failed to open stores")
	}
	return ctx, services, func() {
		if err := services.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close stores")
		}
		cancel()
	}
}

// parseAmount reads an optional rupee amount. An empty string is no amount.
func parseAmount(s string) (decimal.NullDecimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}, fmt.Errorf("parseAmount: %q: %w", s, err)
	}
	return decimal.NewNullDecimal(d), nil
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "encode output: %v\n", err)
		os.Exit(1)
	}
}
