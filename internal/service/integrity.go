package service

import (
	"context"
	"fmt"
	"time"

	"github.com/adesina-dev/panelpay/internal/observability"
	"go.uber.org/zap"
)

// IntegrityStore exposes the invariant probes.
type IntegrityStore interface {
	CountNegativeBalances(ctx context.Context) (int64, error)
	CountStalePendingOrders(ctx context.Context, olderThanSeconds int64) (int64, error)
}

// IntegrityService verifies store-level invariants that no single request
// path can observe on its own.
type IntegrityService struct {
	store             IntegrityStore
	pendingStaleAfter time.Duration
}

func NewIntegrityService(store IntegrityStore) *IntegrityService {
	return &IntegrityService{store: store, pendingStaleAfter: time.Hour}
}

// Run checks that no balance went negative and that pending orders are not
// piling up behind the dispatcher.
func (s *IntegrityService) Run(ctx context.Context) error {
	negative, err := s.store.CountNegativeBalances(ctx)
	if err != nil {
		return fmt.Errorf("run negative balance probe: %w", err)
	}
	observability.SetNegativeBalanceProfiles(negative)
	if negative != 0 {
		zap.L().Error("CRITICAL: negative balances detected", zap.Int64("profiles", negative))
	}

	stale, err := s.store.CountStalePendingOrders(ctx, int64(s.pendingStaleAfter.Seconds()))
	if err != nil {
		return fmt.Errorf("run stale order probe: %w", err)
	}
	observability.SetStalePendingOrders(stale)
	if stale > 0 {
		zap.L().Warn("pending orders exceed staleness window", zap.Int64("orders", stale))
	}

	if negative == 0 {
		zap.L().Info("balances consistent")
	}
	return nil
}
