package upi

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Parse decodes a scanned or typed UPI link. The returned error is always a
// *ParseFailure.
func Parse(source string) (*PaymentIntent, error) {
	normalized, ok := normalize(source)
	if !ok {
		return nil, &ParseFailure{Kind: NotAPaymentLink, Input: source}
	}

	l := splitLink(normalized)
	params := l.values()

	payee := strings.TrimSpace(params[ParamPayeeAddress])
	if payee == "" {
		return nil, &ParseFailure{Kind: MissingPayeeAddress, Input: source}
	}

	intent := &PaymentIntent{
		PayeeAddress:       payee,
		PayeeName:          params[ParamPayeeName],
		Amount:             parseAmount(params[ParamAmount]),
		TransactionNote:    params[ParamNote],
		OriginalSourceText: strings.TrimSpace(source),
	}
	if intent.PayeeName == "" {
		intent.PayeeName = UnknownPayee
	}

	if hasMerchantParams(params) {
		intent.IsMerchant = true
		intent.MerchantParams = merchantParams(l, params)
	}

	return intent, nil
}

// IsMerchantLink reports whether source is a payment link carrying any
// merchant-only parameter. It agrees with Parse(source).IsMerchant whenever
// Parse succeeds.
func IsMerchantLink(source string) bool {
	normalized, ok := normalize(source)
	if !ok {
		return false
	}
	return hasMerchantParams(splitLink(normalized).values())
}

func hasMerchantParams(params map[string]string) bool {
	for _, key := range merchantKeys {
		if strings.TrimSpace(params[key]) != "" {
			return true
		}
	}
	return false
}

func merchantParams(l link, params map[string]string) MerchantParams {
	raw, order := l.rawValues()
	var out MerchantParams
	for _, key := range order {
		if !isMerchantKey(key) || strings.TrimSpace(params[key]) == "" {
			continue
		}
		out = append(out, Param{Key: key, Value: raw[key]})
	}
	return out
}

func isMerchantKey(key string) bool {
	for _, k := range merchantKeys {
		if k == key {
			return true
		}
	}
	return false
}

// parseAmount treats unparsable and non-positive amounts as absent.
func parseAmount(s string) decimal.NullDecimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.NullDecimal{}
	}
	d, err := decimal.NewFromString(s)
	if err != nil || !d.IsPositive() {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d)
}

var handlePattern = regexp.MustCompile(`^[a-zA-Z0-9._-]+@[a-zA-Z0-9]+$`)

// ValidateHandle checks the localpart@bank shape of a UPI handle. It does not
// contact any registry.
func ValidateHandle(candidate string) bool {
	return handlePattern.MatchString(strings.TrimSpace(candidate))
}

// FormatHandle returns the canonical display form of a handle.
func FormatHandle(handle string) string {
	return strings.ToLower(strings.TrimSpace(handle))
}
