package repository

import (
	"context"
	"os"
	"testing"

	"github.com/adesina-dev/panelpay/internal/db"
	"github.com/adesina-dev/panelpay/internal/domain"
	"github.com/adesina-dev/panelpay/internal/models"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

func init() {
	_ = godotenv.Load("../../.env") // Load from root
}

func testStore(t *testing.T) *Store {
	t.Helper()
	if os.Getenv("DATABASE_URL") == "" {
		t.Skip("Skipping integration test: DATABASE_URL not set")
	}

	pool, err := db.Connect(context.Background(), os.Getenv("DATABASE_URL"))
	if err != nil {
		t.Fatalf("Failed to connect to DB: %v", err)
	}
	t.Cleanup(pool.Close)

	return NewStore(pool, domain.DefaultReferralPolicy())
}

func createTestProfile(t *testing.T, store *Store, balance string) *models.Profile {
	t.Helper()
	id := uuid.New()
	profile := &models.Profile{
		ID:           id,
		Email:        "test_" + id.String()[:8] + "@example.com",
		Balance:      decimal.RequireFromString(balance),
		ReferralCode: "T" + id.String()[:7],
		Role:         "user",
	}
	if err := store.CreateProfile(context.Background(), profile); err != nil {
		t.Fatalf("CreateProfile failed: %v", err)
	}
	return profile
}

func TestSettleDepositIdempotent(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	owner := createTestProfile(t, store, "0")
	deposit := &models.Deposit{
		ID:            uuid.New(),
		UserID:        owner.ID,
		Amount:        decimal.RequireFromString("5000"),
		Reference:     "DEP_TEST_" + uuid.NewString()[:8],
		Status:        domain.DepositPending,
		PaymentMethod: domain.PaymentMethodGateway,
	}
	if err := store.CreateDeposit(ctx, deposit); err != nil {
		t.Fatalf("CreateDeposit failed: %v", err)
	}

	// First delivery credits the owner.
	settlement, err := store.SettleDeposit(ctx, deposit.Reference, deposit.Amount)
	if err != nil {
		t.Fatalf("SettleDeposit failed: %v", err)
	}
	if !settlement.Credited {
		t.Fatal("expected first settlement to credit")
	}

	// Second delivery is a no-op.
	settlement, err = store.SettleDeposit(ctx, deposit.Reference, deposit.Amount)
	if err != nil {
		t.Fatalf("duplicate SettleDeposit failed: %v", err)
	}
	if settlement.Credited {
		t.Error("expected duplicate settlement to not credit")
	}

	profile, err := store.GetProfile(ctx, owner.ID)
	if err != nil {
		t.Fatalf("GetProfile failed: %v", err)
	}
	if !profile.Balance.Equal(deposit.Amount) {
		t.Errorf("Expected balance %s, got %s", deposit.Amount, profile.Balance)
	}
}

func TestSettleDepositUnknownReference(t *testing.T) {
	store := testStore(t)

	_, err := store.SettleDeposit(context.Background(), "DEP_MISSING_"+uuid.NewString()[:8], decimal.NewFromInt(100))
	if err == nil {
		t.Fatal("expected error for unknown reference")
	}
}

func TestPlaceOrderGuardedDebit(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	owner := createTestProfile(t, store, "100")
	svc := &models.Service{
		Name:              "test service " + uuid.NewString()[:8],
		PricePerUnit:      decimal.RequireFromString("2.5"),
		MinQuantity:       10,
		MaxQuantity:       1000,
		ProviderServiceID: "p-test",
	}
	if err := store.CreateService(ctx, svc); err != nil {
		t.Fatalf("CreateService failed: %v", err)
	}

	order := &models.Order{
		ID:         uuid.New(),
		UserID:     owner.ID,
		ServiceID:  svc.ID,
		Quantity:   100,
		TargetLink: "https://example.com/p/1",
		TotalPrice: decimal.RequireFromString("250"),
		Status:     domain.OrderPending,
	}
	if err := store.PlaceOrder(ctx, order); err != models.ErrInsufficientFunds {
		t.Fatalf("Expected ErrInsufficientFunds, got %v", err)
	}

	profile, err := store.GetProfile(ctx, owner.ID)
	if err != nil {
		t.Fatalf("GetProfile failed: %v", err)
	}
	if !profile.Balance.Equal(decimal.RequireFromString("100")) {
		t.Errorf("Expected untouched balance, got %s", profile.Balance)
	}

	order.TotalPrice = decimal.RequireFromString("50")
	if err := store.PlaceOrder(ctx, order); err != nil {
		t.Fatalf("PlaceOrder failed: %v", err)
	}
	profile, err = store.GetProfile(ctx, owner.ID)
	if err != nil {
		t.Fatalf("GetProfile failed: %v", err)
	}
	if !profile.Balance.Equal(decimal.RequireFromString("50")) {
		t.Errorf("Expected balance 50, got %s", profile.Balance)
	}
}

func TestDecideWithdrawalRefundOnRejection(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	owner := createTestProfile(t, store, "5000")
	admin := createTestProfile(t, store, "0")
	withdrawal := &models.Withdrawal{
		ID:            uuid.New(),
		UserID:        owner.ID,
		Amount:        decimal.RequireFromString("2000"),
		AccountName:   "Test User",
		AccountNumber: "0123456789",
		Bank:          "GTB",
		Status:        domain.WithdrawalPending,
	}
	if err := store.CreateWithdrawal(ctx, withdrawal); err != nil {
		t.Fatalf("CreateWithdrawal failed: %v", err)
	}

	// Approval debits the balance.
	if err := store.DecideWithdrawal(ctx, withdrawal.ID, domain.WithdrawalApproved, admin.ID); err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	profile, _ := store.GetProfile(ctx, owner.ID)
	if !profile.Balance.Equal(decimal.RequireFromString("3000")) {
		t.Errorf("Expected balance 3000 after approval, got %s", profile.Balance)
	}

	// A rejection after approval refunds the held funds.
	if err := store.DecideWithdrawal(ctx, withdrawal.ID, domain.WithdrawalRejected, admin.ID); err != nil {
		t.Fatalf("reject failed: %v", err)
	}
	profile, _ = store.GetProfile(ctx, owner.ID)
	if !profile.Balance.Equal(decimal.RequireFromString("5000")) {
		t.Errorf("Expected balance 5000 after refund, got %s", profile.Balance)
	}
}
