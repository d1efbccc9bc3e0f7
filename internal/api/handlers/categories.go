package handlers

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/dvloznov/upi-tracker/internal/api/middleware"
	"github.com/dvloznov/upi-tracker/internal/categories"
)

// CategoriesHandler serves the user's category list.
type CategoriesHandler struct {
	store *categories.Store
	log   zerolog.Logger
}

// NewCategoriesHandler creates a categories handler.
func NewCategoriesHandler(store *categories.Store, log zerolog.Logger) *CategoriesHandler {
	return &CategoriesHandler{store: store, log: log}
}

// ListCategories handles GET /api/categories
func (h *CategoriesHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	list := h.store.List(r.Context())
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"categories": list,
		"count":      len(list),
	})
}

// Options handles GET /api/categories/options
func (h *CategoriesHandler) Options(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"icons":  categories.AvailableIcons(),
		"colors": categories.AvailableColors(),
	})
}

// CreateCategory handles POST /api/categories
func (h *CategoriesHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categories.NewCategory
	if err := decodeJSON(w, r, &req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	c, err := h.store.Add(r.Context(), req)
	switch {
	case errors.Is(err, categories.ErrInvalidLabel),
		errors.Is(err, categories.ErrInvalidIcon),
		errors.Is(err, categories.ErrInvalidColor):
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		log := requestLogger(r, h.log)
		log.Error().Err(err).Msg("Failed to add category")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to add category")
		return
	}

	middleware.WriteJSON(w, http.StatusCreated, c)
}

// UpdateCategory handles PATCH /api/categories/{key}
func (h *CategoriesHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	key := mux.Vars(r)["key"]

	var req categories.Update
	if err := decodeJSON(w, r, &req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if _, ok := h.store.Get(ctx, key); !ok {
		middleware.WriteError(w, http.StatusNotFound, "Category not found")
		return
	}
	if !h.store.Update(ctx, key, req) {
		middleware.WriteError(w, http.StatusBadRequest, "Category not updated: check label, icon and color")
		return
	}

	updated, _ := h.store.Get(ctx, key)
	middleware.WriteJSON(w, http.StatusOK, updated)
}

// DeleteCategory handles DELETE /api/categories/{key}
// The "other" category cannot be deleted.
func (h *CategoriesHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	key := mux.Vars(r)["key"]

	if _, ok := h.store.Get(ctx, key); !ok {
		middleware.WriteError(w, http.StatusNotFound, "Category not found")
		return
	}
	if !h.store.Delete(ctx, key) {
		middleware.WriteError(w, http.StatusConflict, "Category cannot be deleted")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ResetCategories handles POST /api/categories/reset
func (h *CategoriesHandler) ResetCategories(w http.ResponseWriter, r *http.Request) {
	if !h.store.Reset(r.Context()) {
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to reset categories")
		return
	}
	h.ListCategories(w, r)
}
