package service

import (
	"context"
	"testing"

	"github.com/adesina-dev/panelpay/internal/domain"
	"github.com/adesina-dev/panelpay/internal/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestWithdrawalRequestAdmitsPending(t *testing.T) {
	store := newFakeStore()
	user := store.addProfile("5000")

	svc := NewWithdrawalService(store)
	w, err := svc.Request(context.Background(), WithdrawalRequest{
		UserID:        user.ID,
		Amount:        decimal.RequireFromString("2000"),
		AccountName:   "Ada Obi",
		AccountNumber: "0123456789",
		Bank:          "GTB",
	})
	require.NoError(t, err)
	require.Equal(t, domain.WithdrawalPending, w.Status)
	require.Len(t, store.withdrawals, 1)

	// Admission records a liability only; the balance moves at approval.
	require.Equal(t, "5000", store.profiles[user.ID].Balance.String())
}

func TestWithdrawalRequestBelowMinimum(t *testing.T) {
	store := newFakeStore()
	user := store.addProfile("5000")

	svc := NewWithdrawalService(store)
	_, err := svc.Request(context.Background(), WithdrawalRequest{
		UserID:        user.ID,
		Amount:        decimal.RequireFromString("999"),
		AccountName:   "Ada Obi",
		AccountNumber: "0123456789",
		Bank:          "GTB",
	})
	require.ErrorIs(t, err, ErrValidation)
	require.Empty(t, store.withdrawals)
}

func TestWithdrawalRequestInsufficientBalance(t *testing.T) {
	store := newFakeStore()
	user := store.addProfile("1500")

	svc := NewWithdrawalService(store)
	_, err := svc.Request(context.Background(), WithdrawalRequest{
		UserID:        user.ID,
		Amount:        decimal.RequireFromString("2000"),
		AccountName:   "Ada Obi",
		AccountNumber: "0123456789",
		Bank:          "GTB",
	})
	require.ErrorIs(t, err, models.ErrInsufficientFunds)
	require.Empty(t, store.withdrawals)
}

func TestWithdrawalRequestMissingDestination(t *testing.T) {
	store := newFakeStore()
	user := store.addProfile("5000")

	svc := NewWithdrawalService(store)
	for _, req := range []WithdrawalRequest{
		{UserID: user.ID, Amount: decimal.RequireFromString("2000"), AccountNumber: "0123456789", Bank: "GTB"},
		{UserID: user.ID, Amount: decimal.RequireFromString("2000"), AccountName: "Ada Obi", Bank: "GTB"},
		{UserID: user.ID, Amount: decimal.RequireFromString("2000"), AccountName: "Ada Obi", AccountNumber: "0123456789"},
	} {
		_, err := svc.Request(context.Background(), req)
		require.ErrorIs(t, err, ErrValidation)
	}
	require.Empty(t, store.withdrawals)
}

func TestWithdrawalRequestUnknownUser(t *testing.T) {
	store := newFakeStore()
	svc := NewWithdrawalService(store)

	_, err := svc.Request(context.Background(), WithdrawalRequest{
		UserID:        uuid.New(),
		Amount:        decimal.RequireFromString("2000"),
		AccountName:   "Ada Obi",
		AccountNumber: "0123456789",
		Bank:          "GTB",
	})
	require.ErrorIs(t, err, ErrValidation)
}
