// Package payflow connects the link codec to the ledger: it turns a scanned
// link or a manually entered UPI ID into an intent, records the payment and
// produces the links handed to the payment app.
package payflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dvloznov/upi-tracker/internal/domain"
	"github.com/dvloznov/upi-tracker/internal/ledger"
	"github.com/dvloznov/upi-tracker/internal/upi"
)

var (
	// ErrInvalidHandle is returned for a manual UPI ID that fails validation.
	ErrInvalidHandle = errors.New("payflow: invalid UPI ID")
	// ErrAmountRequired is returned when neither the link nor the user
	// supplied a positive amount.
	ErrAmountRequired = errors.New("payflow: amount must be greater than zero")
)

// Source is how the payee was entered: a scanned/pasted link or a typed
// UPI ID with an optional name.
type Source struct {
	Link         string `json:"uri,omitempty"`
	PayeeAddress string `json:"payeeAddress,omitempty"`
	PayeeName    string `json:"payeeName,omitempty"`
}

// Resolve produces the payment intent for src. A link wins over manual
// fields.
func Resolve(src Source) (*upi.PaymentIntent, error) {
	if strings.TrimSpace(src.Link) != "" {
		intent, err := upi.Parse(src.Link)
		if err != nil {
			return nil, fmt.Errorf("Resolve: %w", err)
		}
		return intent, nil
	}

	address := upi.FormatHandle(src.PayeeAddress)
	if !upi.ValidateHandle(address) {
		return nil, fmt.Errorf("Resolve: %q: %w", src.PayeeAddress, ErrInvalidHandle)
	}
	name := strings.TrimSpace(src.PayeeName)
	if name == "" {
		name = upi.UnknownPayee
	}
	return &upi.PaymentIntent{PayeeAddress: address, PayeeName: name}, nil
}

// Payment is the user's confirmation of an intent.
type Payment struct {
	Intent      *upi.PaymentIntent
	Amount      decimal.NullDecimal
	CategoryKey string
	Note        string
	// At is when the payment was made. Zero means now.
	At time.Time
}

// Result is the recorded transaction plus the hand-off links for it.
type Result struct {
	Record   *domain.TransactionRecord `json:"record"`
	Link     string                    `json:"link"`
	GPayLink string                    `json:"gpayLink"`
}

// EffectiveAmount is the amount a payment will be recorded with. A
// positive amount fixed by the link always wins, since the payment app
// will charge it regardless of what the user typed.
func EffectiveAmount(p Payment) decimal.NullDecimal {
	if p.Intent != nil && p.Intent.Amount.Valid && p.Intent.Amount.Decimal.IsPositive() {
		return p.Intent.Amount
	}
	if p.Amount.Valid && p.Amount.Decimal.IsPositive() {
		return p.Amount
	}
	return decimal.NullDecimal{}
}

// Record appends the payment to the ledger and returns the links to open.
func Record(ctx context.Context, l *ledger.Ledger, p Payment) (*Result, error) {
	if p.Intent == nil {
		return nil, fmt.Errorf("Record: nil intent")
	}
	amount := EffectiveAmount(p)
	if !amount.Valid {
		return nil, fmt.Errorf("Record: %w", ErrAmountRequired)
	}
	note := strings.TrimSpace(p.Note)
	category := p.CategoryKey
	if category == "" {
		category = domain.OtherCategoryKey
	}

	kind := domain.KindP2P
	if p.Intent.IsMerchant {
		kind = domain.KindMerchant
	}
	rec, err := l.Append(ctx,
		ledger.Intent{
			PayeeAddress: p.Intent.PayeeAddress,
			PayeeName:    p.Intent.PayeeName,
			Amount:       p.Intent.Amount,
		},
		ledger.AppendInput{
			CategoryKey:          category,
			Note:                 note,
			Amount:               amount,
			Kind:                 kind,
			MerchantCategoryCode: p.Intent.MerchantCategoryCode(),
			OrganizationID:       p.Intent.OrganizationID(),
			CreatedAt:            p.At,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("Record: %w", err)
	}

	return &Result{
		Record:   rec,
		Link:     upi.HandoffLink(p.Intent, amount, note),
		GPayLink: upi.GPayLink(p.Intent, amount, note),
	}, nil
}
