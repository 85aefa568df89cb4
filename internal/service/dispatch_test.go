package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/adesina-dev/panelpay/internal/domain"
	"github.com/adesina-dev/panelpay/internal/gateway"
	"github.com/adesina-dev/panelpay/internal/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func pendingOrder(providerServiceID string) models.PendingOrder {
	return models.PendingOrder{
		Order: models.Order{
			ID:         uuid.New(),
			UserID:     uuid.New(),
			ServiceID:  1,
			Quantity:   100,
			TargetLink: "https://example.com/post/1",
			TotalPrice: decimal.RequireFromString("250"),
			Status:     domain.OrderPending,
		},
		ProviderServiceID: providerServiceID,
	}
}

func TestProcessPendingSubmitsBatch(t *testing.T) {
	a, b := pendingOrder("p-1"), pendingOrder("p-2")
	store := newFakeDispatchStore(a, b)
	provider := &fakeProvider{trackingID: "track-9"}

	svc := NewDispatchService(store, provider, time.Second, 10)
	result, err := svc.ProcessPending(context.Background())
	require.NoError(t, err)
	require.Equal(t, DispatchResult{Submitted: 2}, result)
	require.Equal(t, "track-9", store.processing[a.ID])
	require.Equal(t, "track-9", store.processing[b.ID])
}

func TestProcessPendingIsolatesFailures(t *testing.T) {
	bad, good := pendingOrder("p-bad"), pendingOrder("p-good")
	store := newFakeDispatchStore(bad, good)
	provider := &fakeProvider{
		rejectFor: map[string]error{"p-bad": gateway.ErrProviderRejected},
	}

	svc := NewDispatchService(store, provider, time.Second, 10)
	result, err := svc.ProcessPending(context.Background())
	require.NoError(t, err)
	require.Equal(t, DispatchResult{Submitted: 1, Failed: 1}, result)
	require.True(t, store.failed[bad.ID])
	require.Contains(t, store.processing, good.ID)
}

func TestProcessPendingRespectsBatchSize(t *testing.T) {
	orders := []models.PendingOrder{pendingOrder("p-1"), pendingOrder("p-2"), pendingOrder("p-3")}
	store := newFakeDispatchStore(orders...)
	provider := &fakeProvider{}

	svc := NewDispatchService(store, provider, time.Second, 2)
	result, err := svc.ProcessPending(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, result.Submitted)
	require.Equal(t, 2, provider.calls)
}

func TestProcessPendingLostRaceSkips(t *testing.T) {
	order := pendingOrder("p-1")
	store := newFakeDispatchStore(order)
	store.notPending[order.ID] = true
	provider := &fakeProvider{}

	svc := NewDispatchService(store, provider, time.Second, 10)
	result, err := svc.ProcessPending(context.Background())
	require.NoError(t, err)
	require.Equal(t, DispatchResult{Skipped: 1}, result)
	require.Empty(t, store.processing)
}

func TestProcessPendingStopsOnCancel(t *testing.T) {
	orders := []models.PendingOrder{pendingOrder("p-1"), pendingOrder("p-2")}
	store := newFakeDispatchStore(orders...)
	provider := &fakeProvider{}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	svc := NewDispatchService(store, provider, time.Second, 10)
	_, err := svc.ProcessPending(ctx)
	require.ErrorIs(t, err, context.Canceled)
	require.Zero(t, provider.calls)
}

func TestProcessPendingLoadError(t *testing.T) {
	store := newFakeDispatchStore()
	store.pendingErr = errors.New("db down")
	svc := NewDispatchService(store, &fakeProvider{}, time.Second, 10)

	_, err := svc.ProcessPending(context.Background())
	require.Error(t, err)
}
