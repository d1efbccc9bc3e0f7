// Package profile stores the user's display profile and onboarding state.
package profile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/dvloznov/upi-tracker/internal/domain"
	"github.com/dvloznov/upi-tracker/internal/kvstore"
	"github.com/dvloznov/upi-tracker/internal/logger"
)

const onboardingDone = "true"

// ErrEmptyName is returned when a profile has no name.
var ErrEmptyName = errors.New("profile name must not be blank")

type Store struct {
	kv  kvstore.Store
	log zerolog.Logger
}

func NewStore(kv kvstore.Store, log zerolog.Logger) *Store {
	return &Store{kv: kv, log: log}
}

// IsOnboardingComplete reports whether onboarding has finished. Read errors
// count as not complete.
func (s *Store) IsOnboardingComplete(ctx context.Context) bool {
	value, found, err := s.kv.Get(ctx, kvstore.OnboardingKey)
	if err != nil {
		log := s.logger(ctx)
		log.Error().Err(err).Str("key", kvstore.OnboardingKey).Msg("Failed to read onboarding flag")
		return false
	}
	return found && string(value) == onboardingDone
}

// CompleteOnboarding marks onboarding as finished.
func (s *Store) CompleteOnboarding(ctx context.Context) error {
	if err := s.kv.Set(ctx, kvstore.OnboardingKey, []byte(onboardingDone)); err != nil {
		return fmt.Errorf("CompleteOnboarding: %w", err)
	}
	return nil
}

// SaveProfile replaces the stored profile.
func (s *Store) SaveProfile(ctx context.Context, p domain.UserProfile) error {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return ErrEmptyName
	}
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("SaveProfile: encode: %w", err)
	}
	if err := s.kv.Set(ctx, kvstore.ProfileKey, data); err != nil {
		return fmt.Errorf("SaveProfile: %w", err)
	}
	return nil
}

// GetProfile returns the stored profile. A missing or unreadable profile
// reports false.
func (s *Store) GetProfile(ctx context.Context) (*domain.UserProfile, bool) {
	data, found, err := s.kv.Get(ctx, kvstore.ProfileKey)
	if err != nil {
		log := s.logger(ctx)
		log.Error().Err(err).Str("key", kvstore.ProfileKey).Msg("Failed to read profile")
		return nil, false
	}
	if !found {
		return nil, false
	}

	var p domain.UserProfile
	if err := json.Unmarshal(data, &p); err != nil {
		log := s.logger(ctx)
		log.Error().Err(err).Str("key", kvstore.ProfileKey).Msg("Failed to decode profile")
		return nil, false
	}
	return &p, true
}

// CompleteOnboardingWithProfile saves the profile and then marks onboarding
// as finished. Onboarding is left incomplete if the profile cannot be saved.
func (s *Store) CompleteOnboardingWithProfile(ctx context.Context, p domain.UserProfile) error {
	if err := s.SaveProfile(ctx, p); err != nil {
		return fmt.Errorf("CompleteOnboardingWithProfile: %w", err)
	}
	if err := s.CompleteOnboarding(ctx); err != nil {
		return fmt.Errorf("CompleteOnboardingWithProfile: %w", err)
	}
	return nil
}

// UpdateProfile replaces the profile without touching onboarding state.
func (s *Store) UpdateProfile(ctx context.Context, p domain.UserProfile) error {
	return s.SaveProfile(ctx, p)
}

func (s *Store) logger(ctx context.Context) zerolog.Logger {
	return logger.FromContextOr(ctx, s.log)
}
