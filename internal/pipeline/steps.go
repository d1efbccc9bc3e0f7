package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dvloznov/upi-tracker/internal/categorize"
	"github.com/dvloznov/upi-tracker/internal/domain"
	"github.com/dvloznov/upi-tracker/internal/logger"
	"github.com/dvloznov/upi-tracker/internal/payflow"
	"github.com/dvloznov/upi-tracker/internal/upi"
)

// ErrInvalidAmount is returned for an amount column that is not a number.
var ErrInvalidAmount = errors.New("invalid amount")

// ErrInvalidDate is returned for a date column in none of the accepted layouts.
var ErrInvalidDate = errors.New("invalid date")

// dateLayouts are tried in order.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	domain.DayLayout,
	"02/01/2006",
}

// resolvePayee returns the payment intent for the row's link or UPI ID.
func resolvePayee(row Row) (*upi.PaymentIntent, error) {
	intent, err := payflow.Resolve(payflow.Source{
		Link:         row.Link,
		PayeeAddress: row.PayeeAddress,
		PayeeName:    row.PayeeName,
	})
	if err != nil {
		return nil, fmt.Errorf("resolvePayee: %w", err)
	}
	return intent, nil
}

// parseAmount accepts plain decimals and tolerates a leading rupee sign and
// thousands separators.
func parseAmount(s string) (decimal.NullDecimal, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "₹")
	s = strings.TrimPrefix(strings.TrimPrefix(s, "INR"), "Rs.")
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}, fmt.Errorf("parseAmount: %w: %q", ErrInvalidAmount, s)
	}
	return decimal.NewNullDecimal(d), nil
}

// parseDate reads the date column in loc. A blank date is the zero time.
func parseDate(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("parseDate: %w: %q", ErrInvalidDate, s)
}

// chooseCategory validates the category column, or asks the suggester when
// the column is blank. It reports whether the key was suggested.
func (im *Importer) chooseCategory(ctx context.Context, row Row, intent *upi.PaymentIntent, cats []domain.Category, v *CategoryValidator) (string, bool, error) {
	if row.Category != "" {
		key, err := v.ValidateCategory(row.Category)
		if err != nil {
			return "", false, fmt.Errorf("chooseCategory: %w", err)
		}
		return key, false, nil
	}
	if im.suggester == nil {
		return domain.OtherCategoryKey, false, nil
	}

	suggestion, err := im.suggester.Suggest(ctx, categorize.Request{
		PayeeName:            intent.PayeeName,
		PayeeAddress:         intent.PayeeAddress,
		Note:                 row.Note,
		MerchantCategoryCode: intent.MerchantCategoryCode(),
	}, cats)
	if err != nil {
		log := logger.FromContext(ctx)
		log.Warn().Err(err).Int("line", row.Line).Msg("Category suggestion failed, using fallback")
	}
	return suggestion.CategoryKey, suggestion.Source == categorize.SourceModel, nil
}

// preparePayment runs every step short of recording.
func (im *Importer) preparePayment(ctx context.Context, row Row, cats []domain.Category, v *CategoryValidator) (payflow.Payment, bool, error) {
	intent, err := resolvePayee(row)
	if err != nil {
		return payflow.Payment{}, false, err
	}
	amount, err := parseAmount(row.Amount)
	if err != nil {
		return payflow.Payment{}, false, err
	}
	at, err := parseDate(row.Date, im.loc)
	if err != nil {
		return payflow.Payment{}, false, err
	}
	category, suggested, err := im.chooseCategory(ctx, row, intent, cats, v)
	if err != nil {
		return payflow.Payment{}, false, err
	}

	p := payflow.Payment{
		Intent:      intent,
		Amount:      amount,
		CategoryKey: category,
		Note:        row.Note,
		At:          at,
	}
	if !payflow.EffectiveAmount(p).Valid {
		return payflow.Payment{}, false, fmt.Errorf("preparePayment: %w", payflow.ErrAmountRequired)
	}
	return p, suggested, nil
}
