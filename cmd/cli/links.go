package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/dvloznov/upi-tracker/internal/app"
	"github.com/dvloznov/upi-tracker/internal/launcher"
	"github.com/dvloznov/upi-tracker/internal/logger"
	"github.com/dvloznov/upi-tracker/internal/payflow"
	"github.com/dvloznov/upi-tracker/internal/qrcode"
	"github.com/dvloznov/upi-tracker/internal/upi"
)

func runParse(log zerolog.Logger, args []string) {
	fs := flag.NewFlagSet("parse", flag.ExitOnError)
	uri := fs.String("uri", "", "Scanned or pasted payment link")
	fs.Parse(args)

	if *uri == "" {
		log.Fatal().Msg("Error: --uri is required")
	}

	intent, err := upi.Parse(*uri)
	if err != nil {
		log.Fatal().Err(err).Msg("Not a usable payment link")
	}
	printJSON(intent)
}

func runBuild(log zerolog.Logger, args []string) {
	fs := flag.NewFlagSet("build", flag.ExitOnError)
	pa := fs.String("pa", "", "Payee UPI ID")
	pn := fs.String("pn", "", "Payee name")
	am := fs.String("am", "", "Amount in rupees")
	tn := fs.String("tn", "", "Transaction note")
	fs.Parse(args)

	address := upi.FormatHandle(*pa)
	if !upi.ValidateHandle(address) {
		log.Fatal().Str("pa", *pa).Msg("Error: --pa must be a valid UPI ID")
	}
	amount, err := parseAmount(*am)
	if err != nil {
		log.Fatal().Err(err).Msg("Error: invalid --am")
	}

	fmt.Println(upi.BuildLink(address, *pn, amount, *tn))
}

func runModify(log zerolog.Logger, args []string) {
	fs := flag.NewFlagSet("modify", flag.ExitOnError)
	uri := fs.String("uri", "", "Payment link to change")
	am := fs.String("am", "", "New amount in rupees")
	tn := fs.String("tn", "", "New transaction note")
	clearNote := fs.Bool("clear-note", false, "Remove the transaction note")
	fs.Parse(args)

	if *uri == "" {
		log.Fatal().Msg("Error: --uri is required")
	}
	amount, err := parseAmount(*am)
	if err != nil {
		log.Fatal().Err(err).Msg("Error: invalid --am")
	}

	var note *string
	switch {
	case *clearNote:
		empty := ""
		note = &empty
	case *tn != "":
		note = tn
	}

	fmt.Println(upi.ModifyLink(*uri, amount, note))
}

func runValidate(log zerolog.Logger, args []string) {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	id := fs.String("id", "", "UPI ID to check")
	fs.Parse(args)

	formatted := upi.FormatHandle(*id)
	if !upi.ValidateHandle(formatted) {
		fmt.Printf("invalid: %q\n", *id)
		os.Exit(1)
	}
	fmt.Printf("valid: %s\n", formatted)
}

func runQR(log zerolog.Logger, args []string) {
	fs := flag.NewFlagSet("qr", flag.ExitOnError)
	uri := fs.String("uri", "", "Payment link to encode")
	out := fs.String("out", os.TempDir(), "Directory to write the PNG to")
	share := fs.String("share", "", "Share the PNG with a UPI app on a connected device (name or package)")
	fs.Parse(args)

	if *uri == "" {
		log.Fatal().Msg("Error: --uri is required")
	}

	path, err := qrcode.WriteFile(*out, *uri, time.Now())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to write QR code")
	}
	fmt.Println(path)

	if *share == "" {
		return
	}
	target, ok := launcher.FindApp(*share)
	if !ok {
		log.Fatal().Str("app", *share).Msg("Unknown UPI app")
	}

	ctx := logger.WithContext(context.Background(), log)
	if err := launcher.NewADBSharer().ShareTo(ctx, target.PackageName, path); err != nil {
		log.Fatal().Err(err).Str("app", target.Name).Msg("Failed to share QR code")
	}
	fmt.Printf("Shared %s with %s\n", filepath.Base(path), target.Name)
}

// paymentFlags are shared by add and pay.
type paymentFlags struct {
	uri, pa, pn, am, category, note *string
}

func newPaymentFlags(fs *flag.FlagSet) paymentFlags {
	return paymentFlags{
		uri:      fs.String("uri", "", "Scanned or pasted payment link"),
		pa:       fs.String("pa", "", "Payee UPI ID (when no --uri)"),
		pn:       fs.String("pn", "", "Payee name (when no --uri)"),
		am:       fs.String("am", "", "Amount in rupees"),
		category: fs.String("category", "", "Category key (default: other)"),
		note:     fs.String("note", "", "Note"),
	}
}

func recordPayment(ctx context.Context, log zerolog.Logger, services *app.App, f paymentFlags) (*upi.PaymentIntent, *payflow.Result) {
	intent, err := payflow.Resolve(payflow.Source{Link: *f.uri, PayeeAddress: *f.pa, PayeeName: *f.pn})
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid payee")
	}
	amount, err := parseAmount(*f.am)
	if err != nil {
		log.Fatal().Err(err).Msg("Error: invalid --am")
	}
	if *f.category != "" {
		if _, ok := services.Categories.Get(ctx, *f.category); !ok {
			log.Fatal().Str("category", *f.category).Msg("Unknown category")
		}
	}

	result, err := payflow.Record(ctx, services.Ledger, payflow.Payment{
		Intent:      intent,
		Amount:      amount,
		CategoryKey: *f.category,
		Note:        *f.note,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to record payment")
	}
	return intent, result
}

func runAdd(log zerolog.Logger, args []string) {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	f := newPaymentFlags(fs)
	fs.Parse(args)

	ctx, services, closeFn := openServices(log)
	defer closeFn()

	_, result := recordPayment(ctx, log, services, f)
	printJSON(result)
}

func runPay(log zerolog.Logger, args []string) {
	fs := flag.NewFlagSet("pay", flag.ExitOnError)
	f := newPaymentFlags(fs)
	command := fs.String("command", "", "Command that opens a link, {uri} or {quoted_uri} is replaced (or set UPI_LAUNCH_COMMAND env)")
	fs.Parse(args)

	ctx, services, closeFn := openServices(log)
	defer closeFn()

	template := *command
	if template == "" {
		template = services.Config.LaunchCommand
	}
	opener := launcher.NewCommandOpener(template)
	if !launcher.IsUPIAvailable(ctx, opener) {
		log.Fatal().Msg("No UPI app available to open the payment")
	}

	intent, result := recordPayment(ctx, log, services, f)
	if !launcher.Launch(ctx, opener, intent, decimal.NewNullDecimal(result.Record.Amount), result.Record.Note) {
		log.Fatal().Str("transaction_id", result.Record.ID).Msg("Payment recorded but no app could open it")
	}
	fmt.Printf("Recorded %s and opened payment to %s\n", result.Record.ID, result.Record.PayeeName)
}
