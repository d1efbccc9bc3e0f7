// Package pipeline imports payments recorded elsewhere, such as a CSV export
// of past UPI payments, into the ledger.
//
// Each row goes through the same steps: resolve the payee, parse the amount
// and date, validate or suggest the category, then record. A failing row is
// reported and the import continues with the next one.
package pipeline

import (
	"fmt"

	"github.com/dvloznov/upi-tracker/internal/domain"
)

// Row is one payment to import. Line is the 1-based line in the source file.
type Row struct {
	Line         int
	Link         string
	PayeeAddress string
	PayeeName    string
	Amount       string
	Category     string
	Note         string
	Date         string
}

// RowError is a row that could not be imported.
type RowError struct {
	Line int
	Err  error
}

func (e RowError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e RowError) Unwrap() error {
	return e.Err
}

// Result summarizes an import run.
type Result struct {
	Imported  int
	Suggested int
	Failed    []RowError
	Records   []*domain.TransactionRecord
}
