package notionsync

import (
	"time"

	"github.com/jomei/notionapi"

	"github.com/dvloznov/upi-tracker/internal/categories"
	"github.com/dvloznov/upi-tracker/internal/domain"
)

// Property names of the Notion ledger database.
const (
	PropPayee         = "Payee"
	PropTransactionID = "Transaction ID"
	PropAmount        = "Amount"
	PropDate          = "Date"
	PropMonth         = "Month"
	PropCategory      = "Category"
	PropUPIID         = "UPI ID"
	PropKind          = "Kind"
	PropNote          = "Note"
	PropMCC           = "Merchant Code"
)

// RequiredProperties are the columns a ledger database must have before a
// sync writes to it.
var RequiredProperties = []string{
	PropPayee, PropTransactionID, PropAmount, PropDate, PropMonth,
	PropCategory, PropUPIID, PropKind, PropNote, PropMCC,
}

func richText(s string) []notionapi.RichText {
	return []notionapi.RichText{{
		Type: notionapi.ObjectTypeText,
		Text: &notionapi.Text{Content: s},
	}}
}

// RecordToNotionProperties maps one ledger record onto the Notion schema.
// The category is written by label, resolved through lookup so records
// pointing at deleted categories land under the fallback.
func RecordToNotionProperties(rec domain.TransactionRecord, lookup categories.Lookup, loc *time.Location) notionapi.Properties {
	if loc == nil {
		loc = time.Local
	}
	created := notionapi.Date(rec.CreatedAt(loc))
	amount, _ := rec.Amount.Float64()

	props := notionapi.Properties{
		PropPayee: notionapi.TitleProperty{
			Title: richText(rec.PayeeName),
		},
		PropTransactionID: notionapi.RichTextProperty{
			RichText: richText(rec.ID),
		},
		PropAmount: notionapi.NumberProperty{
			Number: amount,
		},
		PropDate: notionapi.DateProperty{
			Date: &notionapi.DateObject{Start: &created},
		},
		PropMonth: notionapi.SelectProperty{
			Select: notionapi.Option{Name: rec.MonthBucket},
		},
		PropCategory: notionapi.SelectProperty{
			Select: notionapi.Option{Name: lookup.LabelFor(rec.CategoryKey)},
		},
		PropUPIID: notionapi.RichTextProperty{
			RichText: richText(rec.PayeeAddress),
		},
		PropKind: notionapi.SelectProperty{
			Select: notionapi.Option{Name: string(rec.EffectiveKind())},
		},
	}

	if rec.Note != "" {
		props[PropNote] = notionapi.RichTextProperty{RichText: richText(rec.Note)}
	}
	if rec.MerchantCategoryCode != "" {
		props[PropMCC] = notionapi.RichTextProperty{RichText: richText(rec.MerchantCategoryCode)}
	}
	return props
}
