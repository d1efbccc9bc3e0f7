package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/dvloznov/upi-tracker/internal/api/middleware"
	"github.com/dvloznov/upi-tracker/internal/domain"
	"github.com/dvloznov/upi-tracker/internal/profile"
)

// ProfileHandler serves the owner profile and onboarding state.
type ProfileHandler struct {
	store *profile.Store
	log   zerolog.Logger
}

// NewProfileHandler creates a profile handler.
func NewProfileHandler(store *profile.Store, log zerolog.Logger) *ProfileHandler {
	return &ProfileHandler{store: store, log: log}
}

// GetProfile handles GET /api/profile
func (h *ProfileHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	p, ok := h.store.GetProfile(r.Context())
	if !ok {
		middleware.WriteError(w, http.StatusNotFound, "Profile not set")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, p)
}

// UpdateProfile handles PUT /api/profile
func (h *ProfileHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	h.save(w, r, h.store.UpdateProfile)
}

// Onboarding handles GET /api/onboarding
func (h *ProfileHandler) Onboarding(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, map[string]bool{
		"complete": h.store.IsOnboardingComplete(r.Context()),
	})
}

// CompleteOnboarding handles POST /api/onboarding with the first profile.
func (h *ProfileHandler) CompleteOnboarding(w http.ResponseWriter, r *http.Request) {
	h.save(w, r, h.store.CompleteOnboardingWithProfile)
}

func (h *ProfileHandler) save(w http.ResponseWriter, r *http.Request, saveFn func(context.Context, domain.UserProfile) error) {
	var req domain.UserProfile
	if err := decodeJSON(w, r, &req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	err := saveFn(r.Context(), req)
	if errors.Is(err, profile.ErrEmptyName) {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		log := requestLogger(r, h.log)
		log.Error().Err(err).Msg("Failed to save profile")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to save profile")
		return
	}

	h.GetProfile(w, r)
}
