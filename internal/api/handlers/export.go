package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/upi-tracker/internal/api/middleware"
	"github.com/dvloznov/upi-tracker/internal/categories"
	"github.com/dvloznov/upi-tracker/internal/export"
	"github.com/dvloznov/upi-tracker/internal/ledger"
)

// ExportHandler renders PDF reports.
type ExportHandler struct {
	ledger     *ledger.Ledger
	categories *categories.Store
	now        func() time.Time
	log        zerolog.Logger
}

// NewExportHandler creates an export handler.
func NewExportHandler(l *ledger.Ledger, cats *categories.Store, log zerolog.Logger) *ExportHandler {
	return &ExportHandler{ledger: l, categories: cats, now: time.Now, log: log}
}

// ExportPDF handles GET /api/export/pdf?month=YYYY-MM
// Without month the report covers every transaction.
func (h *ExportHandler) ExportPDF(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	month := r.URL.Query().Get("month")
	if month != "" && !validMonth(month) {
		middleware.WriteError(w, http.StatusBadRequest, "month must be YYYY-MM")
		return
	}

	now := h.now()
	report := export.BuildReport(ctx, h.ledger, h.categories.Lookup(ctx), month, now)

	var buf bytes.Buffer
	if err := export.WritePDF(&buf, report); err != nil {
		log := requestLogger(r, h.log)
		log.Error().Err(err).Str("month", month).Msg("Failed to render PDF")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to render PDF")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.FileName(month, now)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
