package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/dvloznov/upi-tracker/internal/api/middleware"
	"github.com/dvloznov/upi-tracker/internal/categorize"
	"github.com/dvloznov/upi-tracker/internal/categories"
	"github.com/dvloznov/upi-tracker/internal/ledger"
	"github.com/dvloznov/upi-tracker/internal/payflow"
	"github.com/dvloznov/upi-tracker/internal/upi"
)

// TransactionsHandler serves the ledger.
type TransactionsHandler struct {
	ledger     *ledger.Ledger
	categories *categories.Store
	suggester  *categorize.Suggester
	log        zerolog.Logger
}

// NewTransactionsHandler creates a transactions handler. suggester may be nil.
func NewTransactionsHandler(l *ledger.Ledger, cats *categories.Store, suggester *categorize.Suggester, log zerolog.Logger) *TransactionsHandler {
	if suggester == nil {
		suggester = categorize.NewSuggester(nil)
	}
	return &TransactionsHandler{ledger: l, categories: cats, suggester: suggester, log: log}
}

// ListTransactions handles GET /api/transactions
// Optional filters: month=YYYY-MM, q=<search text>. Month wins when both are set.
func (h *TransactionsHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()

	records := h.ledger.ListAll(ctx)
	switch {
	case query.Get("month") != "":
		records = h.ledger.TransactionsByMonth(ctx, query.Get("month"))
	case query.Has("q"):
		records = h.ledger.Search(ctx, query.Get("q"))
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"transactions": records,
		"count":        len(records),
	})
}

// Recent handles GET /api/transactions/recent?limit=N
func (h *TransactionsHandler) Recent(w http.ResponseWriter, r *http.Request) {
	records := h.ledger.Recent(r.Context(), queryInt(r, "limit", 5))
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"transactions": records,
		"count":        len(records),
	})
}

type createTransactionRequest struct {
	payflow.Source
	Amount      decimal.NullDecimal `json:"amount"`
	CategoryKey string              `json:"categoryKey"`
	Note        string              `json:"note"`
}

// CreateTransaction handles POST /api/transactions
// The body carries either a payment link (uri) or a manual payeeAddress.
// The response includes the hand-off links for the payment app.
func (h *TransactionsHandler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := requestLogger(r, h.log)

	var req createTransactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	intent, err := payflow.Resolve(req.Source)
	if err != nil {
		var failure *upi.ParseFailure
		switch {
		case errors.As(err, &failure):
			middleware.WriteError(w, http.StatusUnprocessableEntity, failure.Error())
		case errors.Is(err, payflow.ErrInvalidHandle):
			middleware.WriteError(w, http.StatusBadRequest, "Invalid UPI ID")
		default:
			middleware.WriteError(w, http.StatusBadRequest, err.Error())
		}
		return
	}

	// Any category key is kept as given. Keys that no longer name a category
	// read back as "other".
	res, err := payflow.Record(ctx, h.ledger, payflow.Payment{
		Intent:      intent,
		Amount:      req.Amount,
		CategoryKey: req.CategoryKey,
		Note:        req.Note,
	})
	if errors.Is(err, payflow.ErrAmountRequired) {
		middleware.WriteError(w, http.StatusUnprocessableEntity, "Amount must be greater than zero")
		return
	}
	if err != nil {
		log.Error().Err(err).Msg("Failed to record transaction")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to record transaction")
		return
	}

	middleware.WriteJSON(w, http.StatusCreated, res)
}

// DeleteTransaction handles DELETE /api/transactions/{id}
func (h *TransactionsHandler) DeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if !h.ledger.Remove(r.Context(), id) {
		middleware.WriteError(w, http.StatusNotFound, "Transaction not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ClearTransactions handles DELETE /api/transactions?confirm=true
func (h *TransactionsHandler) ClearTransactions(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("confirm") != "true" {
		middleware.WriteError(w, http.StatusBadRequest, "Pass confirm=true to delete every transaction")
		return
	}
	if !h.ledger.ClearAll(r.Context()) {
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to clear transactions")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SuggestCategory handles POST /api/transactions/suggest-category
func (h *TransactionsHandler) SuggestCategory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req categorize.Request
	if err := decodeJSON(w, r, &req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	suggestion, err := h.suggester.Suggest(ctx, req, h.categories.List(ctx))
	if err != nil {
		log := requestLogger(r, h.log)
		log.Warn().Err(err).Msg("Category suggestion failed, using fallback")
	}
	middleware.WriteJSON(w, http.StatusOK, suggestion)
}

// Stats handles GET /api/stats?month=YYYY-MM (default: current month)
func (h *TransactionsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	month := r.URL.Query().Get("month")
	if month == "" {
		month = h.ledger.CurrentMonthBucket()
	}
	if !validMonth(month) {
		middleware.WriteError(w, http.StatusBadRequest, "month must be YYYY-MM")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, h.ledger.StatsForMonth(r.Context(), month))
}

// Months handles GET /api/months
func (h *TransactionsHandler) Months(w http.ResponseWriter, r *http.Request) {
	months := h.ledger.ListAvailableMonths(r.Context())
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"months":  months,
		"current": h.ledger.CurrentMonthBucket(),
	})
}

// Week handles GET /api/charts/week?date=YYYY-MM-DD (default: today)
func (h *TransactionsHandler) Week(w http.ResponseWriter, r *http.Request) {
	day := h.ledger.Now()
	if s := r.URL.Query().Get("date"); s != "" {
		parsed, err := parseDay(s, h.ledger.Location())
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}
		day = parsed
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"days": h.ledger.WeekTotals(r.Context(), day),
	})
}

// Daily handles GET /api/charts/daily?start=YYYY-MM-DD&end=YYYY-MM-DD
func (h *TransactionsHandler) Daily(w http.ResponseWriter, r *http.Request) {
	loc := h.ledger.Location()
	start, err := parseDay(r.URL.Query().Get("start"), loc)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "start must be YYYY-MM-DD")
		return
	}
	end, err := parseDay(r.URL.Query().Get("end"), loc)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "end must be YYYY-MM-DD")
		return
	}
	if end.Before(start) || end.Sub(start) > 366*24*time.Hour {
		middleware.WriteError(w, http.StatusBadRequest, "range must be ordered and at most one year")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"days": h.ledger.DailyTotals(r.Context(), start, end),
	})
}
