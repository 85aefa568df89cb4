package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/adesina-dev/panelpay/internal/domain"
	"github.com/adesina-dev/panelpay/internal/models"
	"github.com/google/uuid"
)

// OrderStore covers catalog lookup plus the atomic debit-and-insert.
type OrderStore interface {
	GetService(ctx context.Context, id int64) (*models.Service, error)
	PlaceOrder(ctx context.Context, order *models.Order) error
}

// OrderService places orders against the service catalog.
type OrderService struct {
	store OrderStore
}

func NewOrderService(store OrderStore) *OrderService {
	return &OrderService{store: store}
}

type PlaceOrderRequest struct {
	UserID     uuid.UUID
	ServiceID  int64
	Quantity   int
	TargetLink string
}

// Place validates quantity against the service bounds, prices the order and
// atomically debits the buyer while inserting the pending order. The debit
// is guarded, so a balance can never go negative here.
func (s *OrderService) Place(ctx context.Context, req PlaceOrderRequest) (*models.Order, error) {
	if strings.TrimSpace(req.TargetLink) == "" {
		return nil, fmt.Errorf("%w: target link is required", ErrValidation)
	}

	svc, err := s.store.GetService(ctx, req.ServiceID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, fmt.Errorf("%w: unknown service %d", ErrValidation, req.ServiceID)
		}
		return nil, fmt.Errorf("load service: %w", err)
	}
	if req.Quantity < svc.MinQuantity || req.Quantity > svc.MaxQuantity {
		return nil, fmt.Errorf("%w: quantity %d outside %d-%d", ErrValidation, req.Quantity, svc.MinQuantity, svc.MaxQuantity)
	}

	order := &models.Order{
		ID:         uuid.New(),
		UserID:     req.UserID,
		ServiceID:  svc.ID,
		Quantity:   req.Quantity,
		TargetLink: req.TargetLink,
		TotalPrice: domain.OrderTotal(req.Quantity, svc.PricePerUnit),
		Status:     domain.OrderPending,
	}
	if err := s.store.PlaceOrder(ctx, order); err != nil {
		if errors.Is(err, models.ErrInsufficientFunds) {
			return nil, models.ErrInsufficientFunds
		}
		return nil, fmt.Errorf("place order: %w", err)
	}
	return order, nil
}
