package profile

import (
	"context"
	"errors"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvloznov/upi-tracker/internal/domain"
	"github.com/dvloznov/upi-tracker/internal/kvstore"
	mock_kvstore "github.com/dvloznov/upi-tracker/internal/kvstore/mocks"
	"github.com/dvloznov/upi-tracker/internal/logger"
)

func TestOnboarding(t *testing.T) {
	ctx := context.Background()
	kv := kvstore.NewMemoryStore()
	s := NewStore(kv, logger.Nop())

	assert.False(t, s.IsOnboardingComplete(ctx))
	require.NoError(t, s.CompleteOnboarding(ctx))
	assert.True(t, s.IsOnboardingComplete(ctx))

	raw, _, _ := kv.Get(ctx, kvstore.OnboardingKey)
	assert.Equal(t, "true", string(raw))

	require.NoError(t, kv.Set(ctx, kvstore.OnboardingKey, []byte("yes")))
	assert.False(t, s.IsOnboardingComplete(ctx), "only the literal \"true\" counts")
}

func TestProfileRoundTrip(t *testing.T) {
	ctx := context.Background()
	kv := kvstore.NewMemoryStore()
	s := NewStore(kv, logger.Nop())

	_, ok := s.GetProfile(ctx)
	assert.False(t, ok)

	require.NoError(t, s.SaveProfile(ctx, domain.UserProfile{Name: " Asha ", AvatarID: "cat-3"}))
	p, ok := s.GetProfile(ctx)
	require.True(t, ok)
	assert.Equal(t, domain.UserProfile{Name: "Asha", AvatarID: "cat-3"}, *p)

	raw, _, _ := kv.Get(ctx, kvstore.ProfileKey)
	assert.JSONEq(t, `{"name":"Asha","avatarId":"cat-3"}`, string(raw))

	assert.ErrorIs(t, s.SaveProfile(ctx, domain.UserProfile{Name: "  "}), ErrEmptyName)
}

func TestGetProfile_Corrupt(t *testing.T) {
	ctx := context.Background()
	kv := kvstore.NewMemoryStore()
	require.NoError(t, kv.Set(ctx, kvstore.ProfileKey, []byte("{")))

	p, ok := NewStore(kv, logger.Nop()).GetProfile(ctx)
	assert.Nil(t, p)
	assert.False(t, ok)
}

func TestCompleteOnboardingWithProfile(t *testing.T) {
	ctx := context.Background()
	s := NewStore(kvstore.NewMemoryStore(), logger.Nop())

	require.NoError(t, s.CompleteOnboardingWithProfile(ctx, domain.UserProfile{Name: "Ravi", AvatarID: "dog-1"}))
	assert.True(t, s.IsOnboardingComplete(ctx))

	require.NoError(t, s.UpdateProfile(ctx, domain.UserProfile{Name: "Ravi K", AvatarID: "dog-2"}))
	p, _ := s.GetProfile(ctx)
	assert.Equal(t, "Ravi K", p.Name)
	assert.True(t, s.IsOnboardingComplete(ctx))
}

func TestCompleteOnboardingWithProfile_SaveFails(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	kv := mock_kvstore.NewMockStore(ctrl)
	kv.EXPECT().Set(gomock.Any(), kvstore.ProfileKey, gomock.Any()).Return(errors.New("read-only"))
	kv.EXPECT().Get(gomock.Any(), kvstore.OnboardingKey).Return(nil, false, nil)

	s := NewStore(kv, logger.Nop())
	assert.Error(t, s.CompleteOnboardingWithProfile(ctx, domain.UserProfile{Name: "Ravi"}))
	assert.False(t, s.IsOnboardingComplete(ctx))
}
