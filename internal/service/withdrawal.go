package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/adesina-dev/panelpay/internal/domain"
	"github.com/adesina-dev/panelpay/internal/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrValidation marks a request rejected before any mutation.
var ErrValidation = errors.New("validation failed")

// WithdrawalStore covers the reads and the insert the admission path needs.
// Balance is deliberately not debited here; the approval step moves funds.
type WithdrawalStore interface {
	GetProfile(ctx context.Context, id uuid.UUID) (*models.Profile, error)
	CreateWithdrawal(ctx context.Context, w *models.Withdrawal) error
}

// WithdrawalService admits withdrawal requests as pending liabilities.
type WithdrawalService struct {
	store     WithdrawalStore
	minAmount decimal.Decimal
}

func NewWithdrawalService(store WithdrawalStore) *WithdrawalService {
	return &WithdrawalService{store: store, minAmount: domain.MinWithdrawalAmount}
}

type WithdrawalRequest struct {
	UserID        uuid.UUID
	Amount        decimal.Decimal
	AccountName   string
	AccountNumber string
	Bank          string
}

// Request validates destination and amount against the current balance and
// records a pending withdrawal. The balance is untouched until an admin
// approves; a concurrent second request can therefore be admitted against
// the same funds, and approval re-checks the balance with a guarded debit.
func (s *WithdrawalService) Request(ctx context.Context, req WithdrawalRequest) (*models.Withdrawal, error) {
	if strings.TrimSpace(req.AccountName) == "" {
		return nil, fmt.Errorf("%w: account name is required", ErrValidation)
	}
	if strings.TrimSpace(req.AccountNumber) == "" {
		return nil, fmt.Errorf("%w: account number is required", ErrValidation)
	}
	if strings.TrimSpace(req.Bank) == "" {
		return nil, fmt.Errorf("%w: bank is required", ErrValidation)
	}
	if req.Amount.LessThan(s.minAmount) {
		return nil, fmt.Errorf("%w: minimum withdrawal is %s", ErrValidation, s.minAmount.StringFixed(0))
	}

	profile, err := s.store.GetProfile(ctx, req.UserID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, fmt.Errorf("%w: user not found", ErrValidation)
		}
		return nil, fmt.Errorf("load profile: %w", err)
	}
	if profile.Balance.LessThan(req.Amount) {
		return nil, models.ErrInsufficientFunds
	}

	withdrawal := &models.Withdrawal{
		ID:            uuid.New(),
		UserID:        req.UserID,
		Amount:        req.Amount,
		AccountName:   req.AccountName,
		AccountNumber: req.AccountNumber,
		Bank:          req.Bank,
		Status:        domain.WithdrawalPending,
	}
	if err := s.store.CreateWithdrawal(ctx, withdrawal); err != nil {
		return nil, fmt.Errorf("create withdrawal: %w", err)
	}
	return withdrawal, nil
}
