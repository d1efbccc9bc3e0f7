package export

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/phpdave11/gofpdf"
)

const (
	fontFamily = "Helvetica"
	pageWidth  = 190.0 // A4 width minus default margins, mm
)

// WritePDF draws r as an A4 PDF to w.
func WritePDF(w io.Writer, r Report) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(r.Title, true)
	pdf.SetCreator("upi-tracker", true)
	pdf.AddPage()

	// Header
	pdf.SetFont(fontFamily, "B", 22)
	pdf.SetTextColor(17, 24, 39)
	pdf.CellFormat(0, 12, "UPI Tracker", "", 1, "L", false, 0, "")
	pdf.SetFont(fontFamily, "", 11)
	pdf.SetTextColor(107, 114, 128)
	subtitle := fmt.Sprintf("%s | Generated on %s", r.Title, r.GeneratedAt.Format("January 2, 2006"))
	pdf.CellFormat(0, 7, tr(subtitle), "", 1, "L", false, 0, "")
	pdf.Ln(6)

	// Summary cards
	cardWidth := (pageWidth - 6) / 2
	drawCard(pdf, cardWidth, "Total Spent", FormatINR(r.Total), true)
	pdf.SetX(pdf.GetX() + 6)
	drawCard(pdf, cardWidth, "Transactions", strconv.Itoa(r.Count), false)
	pdf.Ln(26)

	// Category breakdown
	sectionTitle(pdf, "Category Breakdown")
	catCols := []float64{90, 60, 40}
	tableHeader(pdf, catCols, []string{"Category", "Amount", "Percentage"}, []string{"L", "R", "R"})
	if len(r.Categories) == 0 {
		emptyRow(pdf, "No spending recorded")
	}
	for i, c := range r.Categories {
		fill := i%2 == 1
		setFill(pdf, fill)
		setHexText(pdf, c.Color)
		pdf.CellFormat(catCols[0], 8, tr(truncate(c.Label, 40)), "B", 0, "L", fill, 0, "")
		pdf.SetTextColor(17, 24, 39)
		pdf.CellFormat(catCols[1], 8, FormatINR(c.Amount), "B", 0, "R", fill, 0, "")
		pdf.CellFormat(catCols[2], 8, c.Percent.StringFixed(1)+"%", "B", 1, "R", fill, 0, "")
	}
	pdf.Ln(8)

	// Transactions
	sectionTitle(pdf, "All Transactions")
	txCols := []float64{28, 32, 52, 46, 32}
	tableHeader(pdf, txCols, []string{"Date", "Category", "Note", "Payee", "Amount"}, []string{"L", "L", "L", "L", "R"})
	if len(r.Transactions) == 0 {
		emptyRow(pdf, "No transactions")
	}
	for i, t := range r.Transactions {
		fill := i%2 == 1
		setFill(pdf, fill)
		pdf.SetTextColor(17, 24, 39)
		pdf.CellFormat(txCols[0], 7, t.Date, "B", 0, "L", fill, 0, "")
		setHexText(pdf, t.Color)
		pdf.CellFormat(txCols[1], 7, tr(truncate(t.Category, 16)), "B", 0, "L", fill, 0, "")
		pdf.SetTextColor(17, 24, 39)
		pdf.CellFormat(txCols[2], 7, tr(truncate(t.Note, 28)), "B", 0, "L", fill, 0, "")
		pdf.CellFormat(txCols[3], 7, tr(truncate(t.Payee, 24)), "B", 0, "L", fill, 0, "")
		pdf.CellFormat(txCols[4], 7, FormatINR(t.Amount), "B", 1, "R", fill, 0, "")
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("WritePDF: %w", err)
	}
	return nil
}

func drawCard(pdf *gofpdf.Fpdf, width float64, label, value string, highlight bool) {
	x, y := pdf.GetX(), pdf.GetY()
	pdf.SetFillColor(243, 244, 246)
	pdf.Rect(x, y, width, 22, "F")

	pdf.SetXY(x+4, y+3)
	pdf.SetFont(fontFamily, "", 9)
	pdf.SetTextColor(107, 114, 128)
	pdf.CellFormat(width-8, 5, strings.ToUpper(label), "", 2, "L", false, 0, "")

	pdf.SetFont(fontFamily, "B", 16)
	if highlight {
		pdf.SetTextColor(79, 70, 229)
	} else {
		pdf.SetTextColor(17, 24, 39)
	}
	pdf.CellFormat(width-8, 10, value, "", 0, "L", false, 0, "")
	pdf.SetXY(x+width, y)
}

func sectionTitle(pdf *gofpdf.Fpdf, title string) {
	pdf.SetFont(fontFamily, "B", 14)
	pdf.SetTextColor(17, 24, 39)
	pdf.CellFormat(0, 10, title, "", 1, "L", false, 0, "")
}

func tableHeader(pdf *gofpdf.Fpdf, widths []float64, titles, aligns []string) {
	pdf.SetFont(fontFamily, "B", 10)
	pdf.SetFillColor(229, 231, 235)
	pdf.SetTextColor(55, 65, 81)
	for i, title := range titles {
		ln := 0
		if i == len(titles)-1 {
			ln = 1
		}
		pdf.CellFormat(widths[i], 8, title, "", ln, aligns[i], true, 0, "")
	}
	pdf.SetFont(fontFamily, "", 9)
}

func emptyRow(pdf *gofpdf.Fpdf, msg string) {
	pdf.SetTextColor(156, 163, 175)
	pdf.CellFormat(0, 8, msg, "", 1, "C", false, 0, "")
}

func setFill(pdf *gofpdf.Fpdf, alt bool) {
	if alt {
		pdf.SetFillColor(249, 250, 251)
	} else {
		pdf.SetFillColor(255, 255, 255)
	}
}

func setHexText(pdf *gofpdf.Fpdf, hex string) {
	r, g, b, ok := parseHex(hex)
	if !ok {
		r, g, b = 107, 114, 128
	}
	pdf.SetTextColor(r, g, b)
}

func parseHex(hex string) (int, int, int, bool) {
	hex = strings.TrimPrefix(hex, "#")
	if len(hex) != 6 {
		return 0, 0, 0, false
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 0, 0, 0, false
	}
	return int(v >> 16 & 0xff), int(v >> 8 & 0xff), int(v & 0xff), true
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}
