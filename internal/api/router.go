// Package api assembles the local HTTP API.
package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/dvloznov/upi-tracker/internal/api/handlers"
	"github.com/dvloznov/upi-tracker/internal/api/middleware"
	"github.com/dvloznov/upi-tracker/internal/categorize"
	"github.com/dvloznov/upi-tracker/internal/categories"
	"github.com/dvloznov/upi-tracker/internal/jobs"
	"github.com/dvloznov/upi-tracker/internal/ledger"
	"github.com/dvloznov/upi-tracker/internal/profile"
)

// Services are the stores and queues the routes are served from.
type Services struct {
	Ledger     *ledger.Ledger
	Categories *categories.Store
	Profile    *profile.Store
	Suggester  *categorize.Suggester

	Publisher jobs.Publisher
	JobStore  jobs.JobStore
}

// NewRouter registers every route behind the middleware chain.
func NewRouter(s Services, log zerolog.Logger) http.Handler {
	links := handlers.NewLinksHandler()
	transactions := handlers.NewTransactionsHandler(s.Ledger, s.Categories, s.Suggester, log)
	cats := handlers.NewCategoriesHandler(s.Categories, log)
	prof := handlers.NewProfileHandler(s.Profile, log)
	exp := handlers.NewExportHandler(s.Ledger, s.Categories, log)

	r := mux.NewRouter()
	r.Use(middleware.Metrics)

	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/links/parse", links.Parse).Methods(http.MethodPost)
	api.HandleFunc("/links/build", links.Build).Methods(http.MethodPost)
	api.HandleFunc("/links/modify", links.Modify).Methods(http.MethodPost)
	api.HandleFunc("/links/validate", links.Validate).Methods(http.MethodGet)
	api.HandleFunc("/links/qr", links.QRCode).Methods(http.MethodPost)

	api.HandleFunc("/transactions", transactions.ListTransactions).Methods(http.MethodGet)
	api.HandleFunc("/transactions", transactions.CreateTransaction).Methods(http.MethodPost)
	api.HandleFunc("/transactions", transactions.ClearTransactions).Methods(http.MethodDelete)
	api.HandleFunc("/transactions/recent", transactions.Recent).Methods(http.MethodGet)
	api.HandleFunc("/transactions/suggest-category", transactions.SuggestCategory).Methods(http.MethodPost)
	api.HandleFunc("/transactions/{id}", transactions.DeleteTransaction).Methods(http.MethodDelete)
	api.HandleFunc("/stats", transactions.Stats).Methods(http.MethodGet)
	api.HandleFunc("/months", transactions.Months).Methods(http.MethodGet)
	api.HandleFunc("/charts/week", transactions.Week).Methods(http.MethodGet)
	api.HandleFunc("/charts/daily", transactions.Daily).Methods(http.MethodGet)

	api.HandleFunc("/categories", cats.ListCategories).Methods(http.MethodGet)
	api.HandleFunc("/categories", cats.CreateCategory).Methods(http.MethodPost)
	api.HandleFunc("/categories/options", cats.Options).Methods(http.MethodGet)
	api.HandleFunc("/categories/reset", cats.ResetCategories).Methods(http.MethodPost)
	api.HandleFunc("/categories/{key}", cats.UpdateCategory).Methods(http.MethodPatch)
	api.HandleFunc("/categories/{key}", cats.DeleteCategory).Methods(http.MethodDelete)

	api.HandleFunc("/profile", prof.GetProfile).Methods(http.MethodGet)
	api.HandleFunc("/profile", prof.UpdateProfile).Methods(http.MethodPut)
	api.HandleFunc("/onboarding", prof.Onboarding).Methods(http.MethodGet)
	api.HandleFunc("/onboarding", prof.CompleteOnboarding).Methods(http.MethodPost)

	api.HandleFunc("/export/pdf", exp.ExportPDF).Methods(http.MethodGet)

	if s.Publisher != nil && s.JobStore != nil {
		jh := handlers.NewJobsHandler(s.Publisher, s.JobStore, log)
		api.HandleFunc("/sync", jh.EnqueueSync).Methods(http.MethodPost)
		api.HandleFunc("/jobs", jh.ListJobs).Methods(http.MethodGet)
		api.HandleFunc("/jobs/{id}", jh.GetJob).Methods(http.MethodGet)
	}

	var h http.Handler = r
	h = middleware.CORS(h)
	h = middleware.Logger(log)(h)
	h = middleware.RequestID(h)
	h = middleware.Recovery(log)(h)
	return h
}
