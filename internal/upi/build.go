package upi

import (
	"net/url"
	"strings"

	"github.com/shopspring/decimal"
)

const gpayBase = "gpay://upi/pay"

// BuildLink creates a fresh P2P payment link. am is omitted unless amount is
// positive and tn is omitted when note is blank.
func BuildLink(payeeAddress, payeeName string, amount decimal.NullDecimal, note string) string {
	return "upi://pay?" + buildQuery(payeeAddress, payeeName, amount, note)
}

func buildQuery(payeeAddress, payeeName string, amount decimal.NullDecimal, note string) string {
	parts := []string{
		ParamPayeeAddress + "=" + url.QueryEscape(payeeAddress),
		ParamPayeeName + "=" + url.QueryEscape(payeeName),
		ParamCurrency + "=" + Currency,
	}
	if positive(amount) {
		parts = append(parts, ParamAmount+"="+amount.Decimal.String())
	}
	if strings.TrimSpace(note) != "" {
		parts = append(parts, ParamNote+"="+url.QueryEscape(note))
	}
	return strings.Join(parts, "&")
}

// ModifyLink sets am and tn on an existing link and leaves every other
// parameter byte-for-byte as it was.
//
// A positive amount replaces am, otherwise am is untouched. A nil note leaves
// tn untouched, a blank note removes it. Input that does not parse is returned
// unchanged.
func ModifyLink(source string, amount decimal.NullDecimal, note *string) string {
	if _, err := Parse(source); err != nil {
		return source
	}
	normalized, _ := normalize(source)
	l := splitLink(normalized)

	if positive(amount) {
		l.segments = setParam(l.segments, ParamAmount, amount.Decimal.String())
	}
	if note != nil {
		if strings.TrimSpace(*note) == "" {
			l.segments = removeParam(l.segments, ParamNote)
		} else {
			l.segments = setParam(l.segments, ParamNote, url.QueryEscape(*note))
		}
	}
	return l.String()
}

// HandoffLink returns the link to give the payment app. An intent parsed from
// a source keeps that source text, gaining am and tn only when the source did
// not fix an amount. Intents without a source are rebuilt with BuildLink.
func HandoffLink(intent *PaymentIntent, amount decimal.NullDecimal, note string) string {
	if intent.OriginalSourceText == "" {
		if !positive(amount) {
			amount = intent.Amount
		}
		return BuildLink(intent.PayeeAddress, intent.PayeeName, amount, note)
	}
	if positive(intent.Amount) {
		return intent.OriginalSourceText
	}
	var notePtr *string
	if strings.TrimSpace(note) != "" {
		notePtr = &note
	}
	return ModifyLink(intent.OriginalSourceText, amount, notePtr)
}

// GPayLink is HandoffLink addressed to Google Pay's own scheme.
func GPayLink(intent *PaymentIntent, amount decimal.NullDecimal, note string) string {
	handoff := HandoffLink(intent, amount, note)
	normalized, ok := normalize(handoff)
	if !ok {
		return handoff
	}
	l := splitLink(normalized)
	l.base = gpayBase
	return l.String()
}

// setParam replaces the first key segment in place and drops later duplicates,
// or appends a new segment.
func setParam(segments []string, key, rawValue string) []string {
	out := make([]string, 0, len(segments)+1)
	replaced := false
	for _, seg := range segments {
		if k, _, _ := splitSegment(seg); seg != "" && k == key {
			if replaced {
				continue
			}
			out = append(out, key+"="+rawValue)
			replaced = true
			continue
		}
		out = append(out, seg)
	}
	if !replaced {
		out = append(out, key+"="+rawValue)
	}
	return out
}

func removeParam(segments []string, key string) []string {
	out := make([]string, 0, len(segments))
	for _, seg := range segments {
		if k, _, _ := splitSegment(seg); seg != "" && k == key {
			continue
		}
		out = append(out, seg)
	}
	return out
}

func positive(amount decimal.NullDecimal) bool {
	return amount.Valid && amount.Decimal.IsPositive()
}
