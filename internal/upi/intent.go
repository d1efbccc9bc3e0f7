// Package upi parses and builds UPI payment deep links (upi://pay?...).
//
// Merchant links carry a signature over their original parameter string, so
// the package never re-encodes or reorders parameters it did not change.
package upi

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// Query parameter names used by UPI payment links.
const (
	ParamPayeeAddress = "pa"
	ParamPayeeName    = "pn"
	ParamAmount       = "am"
	ParamCurrency     = "cu"
	ParamNote         = "tn"

	ParamSign         = "sign"
	ParamMerchantCode = "mc"
	ParamMode         = "mode"
	ParamOrgID        = "orgid"
	ParamPurpose      = "purpose"
	ParamTerminalID   = "tid"
)

// Currency is the only currency UPI supports.
const Currency = "INR"

// UnknownPayee is used when a link carries no payee name.
const UnknownPayee = "Unknown"

// merchantKeys are the parameters only issued on registered merchant links.
var merchantKeys = []string{ParamSign, ParamMerchantCode, ParamMode, ParamOrgID, ParamPurpose, ParamTerminalID}

// Param is a single query parameter with its value exactly as it appeared in
// the source text.
type Param struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// MerchantParams keeps merchant-only parameters in order of first appearance.
type MerchantParams []Param

// Get returns the raw value for key.
func (p MerchantParams) Get(key string) (string, bool) {
	for _, param := range p {
		if param.Key == key {
			return param.Value, true
		}
	}
	return "", false
}

// PaymentIntent is a parsed payment request.
type PaymentIntent struct {
	PayeeAddress    string              `json:"payeeAddress"`
	PayeeName       string              `json:"payeeName"`
	Amount          decimal.NullDecimal `json:"amount"`
	TransactionNote string              `json:"transactionNote,omitempty"`
	IsMerchant      bool                `json:"isMerchant"`
	MerchantParams  MerchantParams      `json:"merchantParams,omitempty"`

	// OriginalSourceText is the trimmed input. For merchant links it must be
	// handed to the payment app unchanged apart from am/tn.
	OriginalSourceText string `json:"originalSourceText,omitempty"`
}

// MarshalJSON writes Amount as a JSON number, or null when the link carries
// no amount.
func (p PaymentIntent) MarshalJSON() ([]byte, error) {
	type plain PaymentIntent
	var amount *json.Number
	if p.Amount.Valid {
		n := json.Number(p.Amount.Decimal.String())
		amount = &n
	}
	return json.Marshal(struct {
		plain
		Amount *json.Number `json:"amount"`
	}{plain(p), amount})
}

// MerchantCategoryCode returns the raw mc parameter, if any.
func (p *PaymentIntent) MerchantCategoryCode() string {
	v, _ := p.MerchantParams.Get(ParamMerchantCode)
	return v
}

// OrganizationID returns the raw orgid parameter, if any.
func (p *PaymentIntent) OrganizationID() string {
	v, _ := p.MerchantParams.Get(ParamOrgID)
	return v
}

// FailureKind discriminates parse failures.
type FailureKind string

const (
	NotAPaymentLink     FailureKind = "NotAPaymentLink"
	MissingPayeeAddress FailureKind = "MissingPayeeAddress"
)

// ParseFailure is returned by Parse for input that is not a usable payment link.
type ParseFailure struct {
	Kind  FailureKind
	Input string
}

func (e *ParseFailure) Error() string {
	switch e.Kind {
	case NotAPaymentLink:
		return "upi: not a payment link"
	case MissingPayeeAddress:
		return "upi: payment link has no payee address (pa)"
	default:
		return fmt.Sprintf("upi: parse failure %s", e.Kind)
	}
}

// Is reports whether target is a ParseFailure of the same kind.
func (e *ParseFailure) Is(target error) bool {
	t, ok := target.(*ParseFailure)
	return ok && t.Kind == e.Kind
}

// Sentinels for errors.Is.
var (
	ErrNotAPaymentLink     = &ParseFailure{Kind: NotAPaymentLink}
	ErrMissingPayeeAddress = &ParseFailure{Kind: MissingPayeeAddress}
)
