package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"strings"

	"github.com/adesina-dev/panelpay/internal/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProfileStore covers enrollment and lookup of platform accounts.
type ProfileStore interface {
	CreateProfile(ctx context.Context, p *models.Profile) error
	GetProfile(ctx context.Context, id uuid.UUID) (*models.Profile, error)
	GetProfileByReferralCode(ctx context.Context, code string) (*models.Profile, error)
	CreateReferral(ctx context.Context, referrerID, referredID uuid.UUID) error
}

// ProfileService enrolls authenticated users and resolves referral codes.
// Credentials live with the identity provider; the profile row only carries
// what the financial core needs.
type ProfileService struct {
	store ProfileStore
}

func NewProfileService(store ProfileStore) *ProfileService {
	return &ProfileService{store: store}
}

const referralCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
const referralCodeLength = 8

// Enroll creates the profile for a freshly authenticated user. When a valid
// referral code is supplied the new profile is linked to its referrer and
// an unpaid referral row is recorded; the bonus itself is paid by the
// reconciler on the first qualifying deposit.
func (s *ProfileService) Enroll(ctx context.Context, userID uuid.UUID, email, referralCode string) (*models.Profile, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", ErrValidation)
	}

	var referredBy *uuid.UUID
	if code := strings.TrimSpace(referralCode); code != "" {
		referrer, err := s.store.GetProfileByReferralCode(ctx, code)
		if err != nil && !errors.Is(err, models.ErrNotFound) {
			return nil, fmt.Errorf("resolve referral code: %w", err)
		}
		// An unknown code is silently ignored, matching signup behavior.
		if err == nil {
			referredBy = &referrer.ID
		}
	}

	profile := &models.Profile{
		ID:           userID,
		Email:        email,
		Balance:      decimal.Zero,
		ReferralCode: newReferralCode(),
		ReferredBy:   referredBy,
		Role:         "user",
	}
	if err := s.store.CreateProfile(ctx, profile); err != nil {
		return nil, fmt.Errorf("create profile: %w", err)
	}

	if referredBy != nil {
		if err := s.store.CreateReferral(ctx, *referredBy, userID); err != nil {
			return nil, fmt.Errorf("create referral: %w", err)
		}
	}
	return profile, nil
}

func (s *ProfileService) Get(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	return s.store.GetProfile(ctx, id)
}

func newReferralCode() string {
	buf := make([]byte, referralCodeLength)
	_, _ = rand.Read(buf)
	code := make([]byte, referralCodeLength)
	for i, b := range buf {
		code[i] = referralCodeAlphabet[int(b)%len(referralCodeAlphabet)]
	}
	return string(code)
}
