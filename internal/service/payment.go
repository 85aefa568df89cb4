package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/adesina-dev/panelpay/internal/domain"
	"github.com/adesina-dev/panelpay/internal/gateway"
	"github.com/adesina-dev/panelpay/internal/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentStore records the pending deposit the webhook later reconciles.
type PaymentStore interface {
	GetProfile(ctx context.Context, id uuid.UUID) (*models.Profile, error)
	CreateDeposit(ctx context.Context, d *models.Deposit) error
}

// PaymentService initiates deposits with the payment gateway.
type PaymentService struct {
	store   PaymentStore
	gateway gateway.PaymentGateway
}

func NewPaymentService(store PaymentStore, gw gateway.PaymentGateway) *PaymentService {
	return &PaymentService{store: store, gateway: gw}
}

type InitiateDepositRequest struct {
	UserID      uuid.UUID
	Amount      decimal.Decimal
	RedirectURL string
}

type InitiateDepositResult struct {
	Reference  string `json:"reference"`
	PaymentURL string `json:"payment_url"`
}

// Initiate records a pending deposit under a fresh reference and starts a
// gateway charge for the same amount in minor units. The reference written
// here is the idempotency key the webhook settles against, so the deposit
// row must exist before the gateway learns the reference.
func (s *PaymentService) Initiate(ctx context.Context, req InitiateDepositRequest) (*InitiateDepositResult, error) {
	if req.Amount.LessThan(domain.MinDepositAmount) {
		return nil, fmt.Errorf("%w: minimum deposit is %s", ErrValidation, domain.MinDepositAmount.StringFixed(0))
	}
	if strings.TrimSpace(req.RedirectURL) == "" {
		return nil, fmt.Errorf("%w: redirect url is required", ErrValidation)
	}

	profile, err := s.store.GetProfile(ctx, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}

	deposit := &models.Deposit{
		ID:            uuid.New(),
		UserID:        req.UserID,
		Amount:        req.Amount,
		Reference:     newDepositReference(),
		Status:        domain.DepositPending,
		PaymentMethod: domain.PaymentMethodGateway,
	}
	if err := s.store.CreateDeposit(ctx, deposit); err != nil {
		return nil, fmt.Errorf("create deposit: %w", err)
	}

	charge := gateway.ChargeRequest{
		AmountMinor: domain.ToMinorUnits(req.Amount),
		Reference:   deposit.Reference,
		RedirectURL: req.RedirectURL,
	}
	charge.Customer.Email = profile.Email
	charge.Customer.Name = customerName(profile.Email)

	paymentURL, err := s.gateway.InitializeCharge(ctx, charge)
	if err != nil {
		// The pending row stays; without a checkout there is no settlement
		// webhook, and the caller may retry with a new reference.
		return nil, fmt.Errorf("initialize charge: %w", err)
	}

	return &InitiateDepositResult{Reference: deposit.Reference, PaymentURL: paymentURL}, nil
}

func newDepositReference() string {
	buf := make([]byte, 4)
	_, _ = rand.Read(buf)
	return fmt.Sprintf("DEP_%d_%s", time.Now().Unix(), hex.EncodeToString(buf))
}

func customerName(email string) string {
	if i := strings.IndexByte(email, '@'); i > 0 {
		return email[:i]
	}
	return email
}
