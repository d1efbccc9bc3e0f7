package payflow

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvloznov/upi-tracker/internal/domain"
	"github.com/dvloznov/upi-tracker/internal/kvstore"
	"github.com/dvloznov/upi-tracker/internal/ledger"
	"github.com/dvloznov/upi-tracker/internal/upi"
)

func amount(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(s))
}

func newLedger() *ledger.Ledger {
	return ledger.New(kvstore.NewMemoryStore(),
		ledger.WithLocation(time.UTC),
		ledger.WithIDGenerator(func() string { return "tx-1" }),
	)
}

func TestResolve(t *testing.T) {
	intent, err := Resolve(Source{Link: "upi://pay?pa=shop@ybl&pn=Shop", PayeeAddress: "ignored@upi"})
	require.NoError(t, err)
	assert.Equal(t, "shop@ybl", intent.PayeeAddress)

	manual, err := Resolve(Source{PayeeAddress: "  Friend@OKAXIS ", PayeeName: " Ravi "})
	require.NoError(t, err)
	assert.Equal(t, "friend@okaxis", manual.PayeeAddress)
	assert.Equal(t, "Ravi", manual.PayeeName)
	assert.Empty(t, manual.OriginalSourceText)

	unnamed, err := Resolve(Source{PayeeAddress: "x@upi"})
	require.NoError(t, err)
	assert.Equal(t, upi.UnknownPayee, unnamed.PayeeName)

	_, err = Resolve(Source{PayeeAddress: "not a handle"})
	assert.True(t, errors.Is(err, ErrInvalidHandle))

	_, err = Resolve(Source{Link: "https://example.com"})
	assert.True(t, errors.Is(err, upi.ErrNotAPaymentLink))
}

func TestRecord_P2P(t *testing.T) {
	intent, err := Resolve(Source{PayeeAddress: "friend@okaxis", PayeeName: "Ravi"})
	require.NoError(t, err)

	res, err := Record(context.Background(), newLedger(), Payment{
		Intent: intent,
		Amount: amount("150"),
		Note:   " dinner ",
	})
	require.NoError(t, err)

	assert.Equal(t, "150", res.Record.Amount.String())
	assert.Equal(t, domain.OtherCategoryKey, res.Record.CategoryKey)
	assert.Equal(t, "dinner", res.Record.Note)
	assert.Equal(t, domain.KindP2P, res.Record.Kind)
	assert.Equal(t, "upi://pay?pa=friend%40okaxis&pn=Ravi&cu=INR&am=150&tn=dinner", res.Link)
	assert.Equal(t, "gpay://upi/pay?pa=friend%40okaxis&pn=Ravi&cu=INR&am=150&tn=dinner", res.GPayLink)
}

func TestRecord_MerchantKeepsSignedLink(t *testing.T) {
	link := "upi://pay?pa=store@hdfcbank&pn=Big%20Store&mc=5411&orgid=000000&sign=AbC%2B%2F%3D&am=499.00"
	intent, err := Resolve(Source{Link: link})
	require.NoError(t, err)

	res, err := Record(context.Background(), newLedger(), Payment{
		Intent:      intent,
		Amount:      amount("10"),
		CategoryKey: "food",
		Note:        "ignored for fixed-amount links",
	})
	require.NoError(t, err)

	assert.Equal(t, "499", res.Record.Amount.String(), "a fixed link amount wins")
	assert.Equal(t, domain.KindMerchant, res.Record.Kind)
	assert.Equal(t, "5411", res.Record.MerchantCategoryCode)
	assert.Equal(t, "000000", res.Record.OrganizationID)
	assert.Equal(t, link, res.Link)
	assert.Contains(t, res.GPayLink, "sign=AbC%2B%2F%3D")
}

func TestRecord_RequiresAmount(t *testing.T) {
	intent, err := Resolve(Source{PayeeAddress: "friend@okaxis"})
	require.NoError(t, err)

	_, err = Record(context.Background(), newLedger(), Payment{Intent: intent, Amount: amount("0")})
	assert.True(t, errors.Is(err, ErrAmountRequired))

	_, err = Record(context.Background(), newLedger(), Payment{})
	assert.Error(t, err)
}
