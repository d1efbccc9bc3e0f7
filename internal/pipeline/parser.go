package pipeline

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Column names accepted in the header row, case-insensitively. Either uri or
// payee_address must be present.
const (
	ColumnURI          = "uri"
	ColumnPayeeAddress = "payee_address"
	ColumnPayeeName    = "payee_name"
	ColumnAmount       = "amount"
	ColumnCategory     = "category"
	ColumnNote         = "note"
	ColumnDate         = "date"
)

var columnAliases = map[string]string{
	"link":   ColumnURI,
	"upi":    ColumnURI,
	"pa":     ColumnPayeeAddress,
	"upi_id": ColumnPayeeAddress,
	"pn":     ColumnPayeeName,
	"name":   ColumnPayeeName,
	"am":     ColumnAmount,
	"tn":     ColumnNote,
}

// ErrNoPayeeColumn is returned when the header has neither uri nor
// payee_address.
var ErrNoPayeeColumn = errors.New("header needs a uri or payee_address column")

// ParseCSV reads rows from a CSV file with a header row. Unknown columns are
// ignored and blank lines are skipped.
func ParseCSV(r io.Reader) ([]Row, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("ParseCSV: empty input")
	}
	if err != nil {
		return nil, fmt.Errorf("ParseCSV: read header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if alias, ok := columnAliases[name]; ok {
			name = alias
		}
		if _, dup := index[name]; !dup {
			index[name] = i
		}
	}
	_, hasURI := index[ColumnURI]
	_, hasPA := index[ColumnPayeeAddress]
	if !hasURI && !hasPA {
		return nil, fmt.Errorf("ParseCSV: %w", ErrNoPayeeColumn)
	}

	var rows []Row
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ParseCSV: %w", err)
		}
		line, _ := reader.FieldPos(0)

		field := func(column string) string {
			i, ok := index[column]
			if !ok || i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}

		row := Row{
			Line:         line,
			Link:         field(ColumnURI),
			PayeeAddress: field(ColumnPayeeAddress),
			PayeeName:    field(ColumnPayeeName),
			Amount:       field(ColumnAmount),
			Category:     field(ColumnCategory),
			Note:         field(ColumnNote),
			Date:         field(ColumnDate),
		}
		if row == (Row{Line: line}) {
			continue
		}
		rows = append(rows, row)
	}
	return rows, nil
}
