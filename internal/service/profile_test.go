package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestEnrollCreatesProfileWithReferralCode(t *testing.T) {
	store := newFakeStore()
	svc := NewProfileService(store)

	userID := uuid.New()
	profile, err := svc.Enroll(context.Background(), userID, "Ada@Example.com", "")
	require.NoError(t, err)
	require.Equal(t, userID, profile.ID)
	require.Equal(t, "ada@example.com", profile.Email)
	require.Len(t, profile.ReferralCode, 8)
	require.True(t, profile.Balance.IsZero())
	require.Equal(t, "user", profile.Role)
	require.Nil(t, profile.ReferredBy)
}

func TestEnrollLinksReferrer(t *testing.T) {
	store := newFakeStore()
	referrer := store.addProfile("0")
	svc := NewProfileService(store)

	userID := uuid.New()
	profile, err := svc.Enroll(context.Background(), userID, "new@example.com", referrer.ReferralCode)
	require.NoError(t, err)
	require.NotNil(t, profile.ReferredBy)
	require.Equal(t, referrer.ID, *profile.ReferredBy)
	require.Equal(t, referrer.ID, store.referrals[userID])
}

func TestEnrollIgnoresUnknownReferralCode(t *testing.T) {
	store := newFakeStore()
	svc := NewProfileService(store)

	profile, err := svc.Enroll(context.Background(), uuid.New(), "new@example.com", "NOPE1234")
	require.NoError(t, err)
	require.Nil(t, profile.ReferredBy)
	require.Empty(t, store.referrals)
}

func TestEnrollRequiresEmail(t *testing.T) {
	store := newFakeStore()
	svc := NewProfileService(store)

	_, err := svc.Enroll(context.Background(), uuid.New(), "   ", "")
	require.ErrorIs(t, err, ErrValidation)
}

func TestNewReferralCodeCharset(t *testing.T) {
	for i := 0; i < 50; i++ {
		code := newReferralCode()
		require.Len(t, code, 8)
		for _, c := range code {
			require.Contains(t, referralCodeAlphabet, string(c))
		}
	}
}
