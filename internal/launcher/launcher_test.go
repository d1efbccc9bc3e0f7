package launcher

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvloznov/upi-tracker/internal/logger"
	"github.com/dvloznov/upi-tracker/internal/upi"
)

type fakeOpener struct {
	openable map[string]bool
	openErr  error
	opened   []string
	checked  []string
}

func (f *fakeOpener) CanOpen(ctx context.Context, uri string) (bool, error) {
	f.checked = append(f.checked, uri)
	scheme, _, _ := strings.Cut(uri, ":")
	return f.openable[scheme], nil
}

func (f *fakeOpener) Open(ctx context.Context, uri string) error {
	if f.openErr != nil {
		return f.openErr
	}
	f.opened = append(f.opened, uri)
	return nil
}

func quietCtx() context.Context {
	return logger.WithContext(context.Background(), logger.Nop())
}

func amount(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(s))
}

func TestLaunch_PrefersGPay(t *testing.T) {
	opener := &fakeOpener{openable: map[string]bool{"gpay": true, "upi": true}}
	intent := &upi.PaymentIntent{PayeeAddress: "ravi@okhdfc", PayeeName: "Ravi"}

	ok := Launch(quietCtx(), opener, intent, amount("150"), "tea")
	require.True(t, ok)
	assert.Equal(t, []string{"gpay://upi/pay?pa=ravi%40okhdfc&pn=Ravi&cu=INR&am=150&tn=tea"}, opener.opened)
}

func TestLaunch_FallsBackToUPI(t *testing.T) {
	opener := &fakeOpener{openable: map[string]bool{"upi": true}}
	intent, err := upi.Parse("upi://pay?pa=shop@ybl&sign=abc&mc=5411")
	require.NoError(t, err)

	ok := Launch(quietCtx(), opener, intent, amount("20"), "")
	require.True(t, ok)
	assert.Equal(t, []string{"upi://pay?pa=shop@ybl&sign=abc&mc=5411&am=20"}, opener.opened)
	assert.Len(t, opener.checked, 2)
}

func TestLaunch_NothingAvailable(t *testing.T) {
	opener := &fakeOpener{}
	intent := &upi.PaymentIntent{PayeeAddress: "ravi@okhdfc", PayeeName: "Ravi"}

	assert.False(t, Launch(quietCtx(), opener, intent, amount("1"), ""))
	assert.Empty(t, opener.opened)
}

func TestLaunch_OpenErrorIsFalse(t *testing.T) {
	opener := &fakeOpener{openable: map[string]bool{"gpay": true, "upi": true}, openErr: errors.New("device offline")}
	intent := &upi.PaymentIntent{PayeeAddress: "ravi@okhdfc", PayeeName: "Ravi"}

	assert.False(t, Launch(quietCtx(), opener, intent, amount("1"), ""))
}

func TestAvailability(t *testing.T) {
	opener := &fakeOpener{openable: map[string]bool{"upi": true}}
	assert.True(t, IsUPIAvailable(context.Background(), opener))
	assert.False(t, IsGPayAvailable(context.Background(), opener))
}

func TestFindApp(t *testing.T) {
	app, ok := FindApp("phonepe")
	require.True(t, ok)
	assert.Equal(t, "com.phonepe.app", app.PackageName)

	app, ok = FindApp("in.org.npci.upiapp")
	require.True(t, ok)
	assert.Equal(t, "BHIM", app.Name)

	_, ok = FindApp("cred")
	assert.False(t, ok)
	assert.Len(t, KnownApps, 5)
}

type recordedCall struct {
	name string
	args []string
}

func recorder(calls *[]recordedCall, err error) Runner {
	return func(ctx context.Context, name string, args ...string) error {
		*calls = append(*calls, recordedCall{name: name, args: args})
		return err
	}
}

func TestCommandOpener_Default(t *testing.T) {
	var calls []recordedCall
	o := NewCommandOpener("").WithRunner(recorder(&calls, nil))

	ok, err := o.CanOpen(context.Background(), "upi://pay?pa=a@b")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, _ = o.CanOpen(context.Background(), "https://example.com")
	assert.False(t, ok)

	require.NoError(t, o.Open(context.Background(), "upi://pay?pa=a@b&am=1"))
	require.Len(t, calls, 1)
	assert.Equal(t, "adb", calls[0].name)
	assert.Equal(t, []string{"shell", "am", "start", "-a", "android.intent.action.VIEW", "-d", "'upi://pay?pa=a@b&am=1'"}, calls[0].args)
}

func TestCommandOpener_CustomTemplate(t *testing.T) {
	var calls []recordedCall
	o := NewCommandOpener("xdg-open", "upi").WithRunner(recorder(&calls, nil))

	ok, _ := o.CanOpen(context.Background(), "gpay://upi/pay")
	assert.False(t, ok, "only configured schemes are openable")

	require.NoError(t, o.Open(context.Background(), "upi://pay?pa=a@b"))
	assert.Equal(t, []recordedCall{{name: "xdg-open", args: []string{"upi://pay?pa=a@b"}}}, calls)
}

func TestCommandOpener_RunError(t *testing.T) {
	var calls []recordedCall
	o := NewCommandOpener("").WithRunner(recorder(&calls, errors.New("no devices")))
	err := o.Open(context.Background(), "upi://pay?pa=a@b")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no devices")
}

func TestADBSharer(t *testing.T) {
	var calls []recordedCall
	s := NewADBSharer().WithRunner(recorder(&calls, nil))

	require.NoError(t, s.ShareTo(context.Background(), "com.phonepe.app", "/tmp/qr/qr_1700000000000.png"))
	require.Len(t, calls, 2)
	assert.Equal(t, []string{"push", "/tmp/qr/qr_1700000000000.png", "/sdcard/Download/qr_1700000000000.png"}, calls[0].args)
	assert.Contains(t, calls[1].args, "com.phonepe.app")
	assert.Contains(t, calls[1].args, "'file:///sdcard/Download/qr_1700000000000.png'")

	assert.Error(t, s.ShareTo(context.Background(), "", "/tmp/x.png"))
}

func TestShellQuote(t *testing.T) {
	assert.Equal(t, `'a&b'`, shellQuote("a&b"))
	assert.Equal(t, `'it'\''s'`, shellQuote("it's"))
}
