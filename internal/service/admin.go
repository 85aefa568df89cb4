package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/adesina-dev/panelpay/internal/domain"
	"github.com/adesina-dev/panelpay/internal/models"
	"github.com/adesina-dev/panelpay/internal/observability"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AdminStore bundles the administrative overrides. Every status change runs
// through the same transition tables and conditional writes as the
// automatic paths.
type AdminStore interface {
	OverrideOrderStatus(ctx context.Context, orderID uuid.UUID, next domain.OrderStatus, actorID uuid.UUID) error
	DecideWithdrawal(ctx context.Context, withdrawalID uuid.UUID, next domain.WithdrawalStatus, actorID uuid.UUID) error
	GetDeposit(ctx context.Context, id uuid.UUID) (*models.Deposit, error)
	SettleDeposit(ctx context.Context, reference string, amount decimal.Decimal) (*models.Settlement, error)

	CreateService(ctx context.Context, s *models.Service) error
	UpdateService(ctx context.Context, s *models.Service) error
	DeleteService(ctx context.Context, id int64) error
}

// AdminService exposes the administrative corrections to entity state.
type AdminService struct {
	store AdminStore
}

func NewAdminService(store AdminStore) *AdminService {
	return &AdminService{store: store}
}

func (s *AdminService) OverrideOrderStatus(ctx context.Context, orderID uuid.UUID, next domain.OrderStatus, actorID uuid.UUID) error {
	if !next.Valid() {
		return fmt.Errorf("%w: unknown order status %q", ErrValidation, next)
	}
	return s.store.OverrideOrderStatus(ctx, orderID, next, actorID)
}

func (s *AdminService) DecideWithdrawal(ctx context.Context, withdrawalID uuid.UUID, next domain.WithdrawalStatus, actorID uuid.UUID) error {
	if !next.Valid() {
		return fmt.Errorf("%w: unknown withdrawal status %q", ErrValidation, next)
	}
	return s.store.DecideWithdrawal(ctx, withdrawalID, next, actorID)
}

// SettleDepositManually credits a deposit through the same idempotent
// settlement path the webhook uses, for gateways that fail to deliver.
func (s *AdminService) SettleDepositManually(ctx context.Context, depositID uuid.UUID) (*models.Settlement, error) {
	deposit, err := s.store.GetDeposit(ctx, depositID)
	if err != nil {
		return nil, err
	}
	settlement, err := s.store.SettleDeposit(ctx, deposit.Reference, deposit.Amount)
	if err != nil {
		return nil, err
	}
	if settlement.Credited {
		observability.IncrementDepositSettled()
		if settlement.BonusPaid {
			observability.IncrementReferralBonus()
		}
	}
	return settlement, nil
}

func (s *AdminService) CreateService(ctx context.Context, svc *models.Service) error {
	if err := validateService(svc); err != nil {
		return err
	}
	return s.store.CreateService(ctx, svc)
}

func (s *AdminService) UpdateService(ctx context.Context, svc *models.Service) error {
	if err := validateService(svc); err != nil {
		return err
	}
	return s.store.UpdateService(ctx, svc)
}

func (s *AdminService) DeleteService(ctx context.Context, id int64) error {
	err := s.store.DeleteService(ctx, id)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		return fmt.Errorf("delete service: %w", err)
	}
	return err
}

func validateService(svc *models.Service) error {
	if svc.Name == "" {
		return fmt.Errorf("%w: service name is required", ErrValidation)
	}
	if svc.PricePerUnit.IsNegative() || svc.PricePerUnit.IsZero() {
		return fmt.Errorf("%w: price per unit must be positive", ErrValidation)
	}
	if svc.MinQuantity <= 0 || svc.MaxQuantity < svc.MinQuantity {
		return fmt.Errorf("%w: invalid quantity bounds %d-%d", ErrValidation, svc.MinQuantity, svc.MaxQuantity)
	}
	if svc.ProviderServiceID == "" {
		return fmt.Errorf("%w: provider service id is required", ErrValidation)
	}
	return nil
}
