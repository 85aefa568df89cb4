package models

import (
	"errors"
	"time"

	"github.com/adesina-dev/panelpay/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidTransition = errors.New("invalid status transition")
)

// Profile is the platform account. Balance never goes negative; every
// mutation is a conditional single-statement update in the repository.
type Profile struct {
	ID           uuid.UUID       `json:"id"`
	Email        string          `json:"email"`
	Balance      decimal.Decimal `json:"balance"`
	ReferralCode string          `json:"referral_code"`
	ReferredBy   *uuid.UUID      `json:"referred_by,omitempty"`
	Role         string          `json:"role"`
	CreatedAt    time.Time       `json:"created_at"`
}

// Deposit tracks one payment-gateway charge. Reference is the globally
// unique idempotency key the webhook reconciles against.
type Deposit struct {
	ID            uuid.UUID            `json:"id"`
	UserID        uuid.UUID            `json:"user_id"`
	Amount        decimal.Decimal      `json:"amount"`
	Reference     string               `json:"reference"`
	Status        domain.DepositStatus `json:"status"`
	PaymentMethod string               `json:"payment_method"`
	CreatedAt     time.Time            `json:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at"`
}

type Order struct {
	ID              uuid.UUID          `json:"id"`
	UserID          uuid.UUID          `json:"user_id"`
	ServiceID       int64              `json:"service_id"`
	Quantity        int                `json:"quantity"`
	TargetLink      string             `json:"target_link"`
	TotalPrice      decimal.Decimal    `json:"total_price"`
	Status          domain.OrderStatus `json:"status"`
	ProviderOrderID *string            `json:"provider_order_id,omitempty"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

// PendingOrder is an order joined with the provider identifier of its
// service, as consumed by the dispatcher.
type PendingOrder struct {
	Order
	ProviderServiceID string `json:"provider_service_id"`
}

type Withdrawal struct {
	ID            uuid.UUID               `json:"id"`
	UserID        uuid.UUID               `json:"user_id"`
	Amount        decimal.Decimal         `json:"amount"`
	AccountName   string                  `json:"account_name"`
	AccountNumber string                  `json:"account_number"`
	Bank          string                  `json:"bank"`
	Status        domain.WithdrawalStatus `json:"status"`
	CreatedAt     time.Time               `json:"created_at"`
	UpdatedAt     time.Time               `json:"updated_at"`
}

type Referral struct {
	ID         int64     `json:"id"`
	ReferrerID uuid.UUID `json:"referrer_id"`
	ReferredID uuid.UUID `json:"referred_id"`
	BonusPaid  bool      `json:"bonus_paid"`
	CreatedAt  time.Time `json:"created_at"`
}

// Service is catalog reference data, mutated only through admin CRUD.
type Service struct {
	ID                int64           `json:"id"`
	Name              string          `json:"name"`
	PricePerUnit      decimal.Decimal `json:"price_per_unit"`
	MinQuantity       int             `json:"min_quantity"`
	MaxQuantity       int             `json:"max_quantity"`
	ProviderServiceID string          `json:"provider_service_id"`
	CreatedAt         time.Time       `json:"created_at"`
}

// Settlement reports what a deposit settlement attempt actually did.
type Settlement struct {
	Reference string
	OwnerID   uuid.UUID
	// Credited is false on duplicate delivery: the deposit was already in a
	// terminal status and no balance was touched.
	Credited   bool
	BonusPaid  bool
	ReferrerID *uuid.UUID
}
