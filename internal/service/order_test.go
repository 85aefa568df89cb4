package service

import (
	"context"
	"testing"

	"github.com/adesina-dev/panelpay/internal/domain"
	"github.com/adesina-dev/panelpay/internal/models"
	"github.com/stretchr/testify/require"
)

func TestPlaceOrderDebitsAndInserts(t *testing.T) {
	store := newFakeStore()
	user := store.addProfile("1000")
	svc := store.addService("2.5", 10, 1000)

	orders := NewOrderService(store)
	order, err := orders.Place(context.Background(), PlaceOrderRequest{
		UserID:     user.ID,
		ServiceID:  svc.ID,
		Quantity:   150,
		TargetLink: "https://example.com/p/1",
	})
	require.NoError(t, err)
	require.Equal(t, domain.OrderPending, order.Status)
	require.Equal(t, "375", order.TotalPrice.String())
	require.Equal(t, "625", store.profiles[user.ID].Balance.String())
	require.Len(t, store.orders, 1)
}

func TestPlaceOrderQuantityBounds(t *testing.T) {
	store := newFakeStore()
	user := store.addProfile("1000")
	svc := store.addService("1", 10, 100)

	orders := NewOrderService(store)
	for _, q := range []int{9, 101} {
		_, err := orders.Place(context.Background(), PlaceOrderRequest{
			UserID:     user.ID,
			ServiceID:  svc.ID,
			Quantity:   q,
			TargetLink: "https://example.com/p/1",
		})
		require.ErrorIs(t, err, ErrValidation)
	}
	require.Empty(t, store.orders)
	require.Equal(t, "1000", store.profiles[user.ID].Balance.String())
}

func TestPlaceOrderInsufficientFunds(t *testing.T) {
	store := newFakeStore()
	user := store.addProfile("100")
	svc := store.addService("2.5", 10, 1000)

	orders := NewOrderService(store)
	_, err := orders.Place(context.Background(), PlaceOrderRequest{
		UserID:     user.ID,
		ServiceID:  svc.ID,
		Quantity:   100,
		TargetLink: "https://example.com/p/1",
	})
	require.ErrorIs(t, err, models.ErrInsufficientFunds)
	require.Equal(t, "100", store.profiles[user.ID].Balance.String())
}

func TestPlaceOrderUnknownService(t *testing.T) {
	store := newFakeStore()
	user := store.addProfile("1000")

	orders := NewOrderService(store)
	_, err := orders.Place(context.Background(), PlaceOrderRequest{
		UserID:     user.ID,
		ServiceID:  42,
		Quantity:   10,
		TargetLink: "https://example.com/p/1",
	})
	require.ErrorIs(t, err, ErrValidation)
}

func TestPlaceOrderRequiresLink(t *testing.T) {
	store := newFakeStore()
	user := store.addProfile("1000")
	svc := store.addService("1", 1, 100)

	orders := NewOrderService(store)
	_, err := orders.Place(context.Background(), PlaceOrderRequest{
		UserID:    user.ID,
		ServiceID: svc.ID,
		Quantity:  10,
	})
	require.ErrorIs(t, err, ErrValidation)
}
