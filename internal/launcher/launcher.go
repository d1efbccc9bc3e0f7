// Package launcher hands a payment off to an installed UPI app, either by
// opening a deep link or by sharing a QR image with a specific app.
package launcher

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/dvloznov/upi-tracker/internal/logger"
	"github.com/dvloznov/upi-tracker/internal/upi"
)

// Opener opens deep links on the payment device.
type Opener interface {
	CanOpen(ctx context.Context, uri string) (bool, error)
	Open(ctx context.Context, uri string) error
}

// Sharer sends a file to a specific app, identified by package name.
type Sharer interface {
	ShareTo(ctx context.Context, packageName, path string) error
}

// App is a UPI app that can receive shared QR images.
type App struct {
	Name        string `json:"name"`
	PackageName string `json:"packageName"`
}

// KnownApps lists the UPI apps offered as share targets.
var KnownApps = []App{
	{Name: "Google Pay", PackageName: "com.google.android.apps.nbu.paisa.user"},
	{Name: "PhonePe", PackageName: "com.phonepe.app"},
	{Name: "Paytm", PackageName: "net.one97.paytm"},
	{Name: "BHIM", PackageName: "in.org.npci.upiapp"},
	{Name: "Amazon Pay", PackageName: "in.amazon.mShop.android.shopping"},
}

// FindApp matches an app by display name or package name, ignoring case.
func FindApp(nameOrPackage string) (App, bool) {
	q := strings.TrimSpace(nameOrPackage)
	for _, app := range KnownApps {
		if strings.EqualFold(app.Name, q) || strings.EqualFold(app.PackageName, q) {
			return app, true
		}
	}
	return App{}, false
}

// Launch opens the payment in Google Pay if it is available and otherwise
// in whichever app handles upi:// links. It reports false when neither link
// could be opened.
func Launch(ctx context.Context, opener Opener, intent *upi.PaymentIntent, amount decimal.NullDecimal, note string) bool {
	log := logger.FromContext(ctx)

	links := []string{
		upi.GPayLink(intent, amount, note),
		upi.HandoffLink(intent, amount, note),
	}
	for _, link := range links {
		ok, err := opener.CanOpen(ctx, link)
		if err != nil {
			log.Warn().Err(err).Str("uri", link).Msg("Failed to check payment link handler")
			continue
		}
		if !ok {
			continue
		}
		if err := opener.Open(ctx, link); err != nil {
			log.Error().Err(err).Str("uri", link).Msg("Failed to open payment link")
			continue
		}
		log.Info().Str("payee", intent.PayeeAddress).Bool("merchant", intent.IsMerchant).Msg("Payment handed off")
		return true
	}

	log.Error().Str("payee", intent.PayeeAddress).Msg("No UPI app available to handle payment")
	return false
}

// IsUPIAvailable reports whether any app handles upi:// links.
func IsUPIAvailable(ctx context.Context, opener Opener) bool {
	ok, err := opener.CanOpen(ctx, "upi://pay")
	return err == nil && ok
}

// IsGPayAvailable reports whether Google Pay's own scheme is handled.
func IsGPayAvailable(ctx context.Context, opener Opener) bool {
	ok, err := opener.CanOpen(ctx, "gpay://upi/pay")
	return err == nil && ok
}
