package service

import (
	"context"
	"fmt"
	"time"

	"github.com/adesina-dev/panelpay/internal/gateway"
	"github.com/adesina-dev/panelpay/internal/models"
	"github.com/adesina-dev/panelpay/internal/observability"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DispatchStore is the order slice of the account store used by the
// dispatcher. Both mark operations are conditional on the order still being
// pending; false means another run got there first.
type DispatchStore interface {
	PendingOrders(ctx context.Context, limit int32) ([]models.PendingOrder, error)
	MarkOrderProcessing(ctx context.Context, id uuid.UUID, providerOrderID string) (bool, error)
	MarkOrderFailed(ctx context.Context, id uuid.UUID) (bool, error)
}

// DispatchService submits pending orders to the fulfillment provider.
type DispatchService struct {
	store       DispatchStore
	provider    gateway.FulfillmentProvider
	callTimeout time.Duration
	batchSize   int32
}

func NewDispatchService(store DispatchStore, provider gateway.FulfillmentProvider, callTimeout time.Duration, batchSize int32) *DispatchService {
	if callTimeout <= 0 {
		callTimeout = 30 * time.Second
	}
	if batchSize <= 0 {
		batchSize = 10
	}
	return &DispatchService{
		store:       store,
		provider:    provider,
		callTimeout: callTimeout,
		batchSize:   batchSize,
	}
}

// DispatchResult summarizes one dispatcher run.
type DispatchResult struct {
	Submitted int `json:"submitted"`
	Failed    int `json:"failed"`
	Skipped   int `json:"skipped"`
}

// ProcessPending submits one bounded batch of pending orders, oldest first.
// Each order is handled independently: a provider rejection or transport
// failure marks that order failed and the loop moves on. Cancellation of
// the run context stops the loop; unprocessed orders simply stay pending
// for the next run.
func (s *DispatchService) ProcessPending(ctx context.Context) (DispatchResult, error) {
	var result DispatchResult

	orders, err := s.store.PendingOrders(ctx, s.batchSize)
	if err != nil {
		return result, fmt.Errorf("load pending orders: %w", err)
	}

	for _, order := range orders {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		s.dispatchOne(ctx, order, &result)
	}
	return result, nil
}

func (s *DispatchService) dispatchOne(ctx context.Context, order models.PendingOrder, result *DispatchResult) {
	callCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()

	trackingID, err := s.provider.SubmitOrder(callCtx, order.ProviderServiceID, order.Quantity, order.TargetLink)
	if err != nil {
		// Rejection and transport failure are both terminal for this
		// attempt; resubmission is an administrative reset to pending.
		zap.L().Warn("order submission failed",
			zap.String("order_id", order.ID.String()),
			zap.Error(err),
		)
		updated, markErr := s.store.MarkOrderFailed(ctx, order.ID)
		if markErr != nil {
			zap.L().Error("failed to mark order failed", zap.String("order_id", order.ID.String()), zap.Error(markErr))
			return
		}
		if !updated {
			observability.IncrementDispatchOrder("lost_race")
			result.Skipped++
			return
		}
		observability.IncrementDispatchOrder("failed")
		result.Failed++
		return
	}

	updated, err := s.store.MarkOrderProcessing(ctx, order.ID, trackingID)
	if err != nil {
		zap.L().Error("failed to mark order processing",
			zap.String("order_id", order.ID.String()),
			zap.String("tracking_id", trackingID),
			zap.Error(err),
		)
		return
	}
	if !updated {
		// Another dispatcher already moved this order. The provider now has
		// a duplicate submission; log it so it can be voided manually.
		zap.L().Warn("order no longer pending after submission",
			zap.String("order_id", order.ID.String()),
			zap.String("tracking_id", trackingID),
		)
		observability.IncrementDispatchOrder("lost_race")
		result.Skipped++
		return
	}
	observability.IncrementDispatchOrder("submitted")
	result.Submitted++
}
