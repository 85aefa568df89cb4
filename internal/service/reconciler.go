package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/adesina-dev/panelpay/internal/domain"
	"github.com/adesina-dev/panelpay/internal/models"
	"github.com/adesina-dev/panelpay/internal/observability"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	ErrInvalidSignature = errors.New("invalid signature")
	ErrInvalidPayload   = errors.New("invalid webhook payload")
)

// SettlementStore is the single conditional-write operation the reconciler
// needs from the account store.
type SettlementStore interface {
	SettleDeposit(ctx context.Context, reference string, amount decimal.Decimal) (*models.Settlement, error)
}

// ReconcilerService consumes payment-gateway webhooks and settles deposits
// idempotently.
type ReconcilerService struct {
	store   SettlementStore
	hmacKey []byte
	skipSig bool
}

// NewReconcilerService creates a ReconcilerService instance.
func NewReconcilerService(store SettlementStore, hmacKey string, skipSignature bool) *ReconcilerService {
	return &ReconcilerService{
		store:   store,
		hmacKey: []byte(hmacKey),
		skipSig: skipSignature,
	}
}

// WebhookPayload is the gateway notification body. Amount arrives in minor
// currency units.
type WebhookPayload struct {
	Event string `json:"event"`
	Data  struct {
		Reference string `json:"reference"`
		Amount    int64  `json:"amount"`
	} `json:"data"`
}

// WebhookOutcome describes what handling one delivery actually did.
type WebhookOutcome string

const (
	OutcomeSettled   WebhookOutcome = "settled"
	OutcomeDuplicate WebhookOutcome = "duplicate"
	OutcomeIgnored   WebhookOutcome = "ignored"
	OutcomeUnknown   WebhookOutcome = "unknown_reference"
)

type WebhookResult struct {
	Outcome   WebhookOutcome `json:"outcome"`
	Reference string         `json:"reference,omitempty"`
	BonusPaid bool           `json:"bonus_paid,omitempty"`
}

// HandleDepositWebhook verifies the raw body against the signature header,
// filters for the charge-success event and settles the referenced deposit.
// Duplicate deliveries and unknown references are acknowledged without
// mutation so the gateway stops redelivering.
func (s *ReconcilerService) HandleDepositWebhook(ctx context.Context, payload []byte, signature string) (*WebhookResult, error) {
	if !s.verifyHMAC(payload, signature) {
		observability.IncrementWebhookEvent("bad_signature")
		return nil, ErrInvalidSignature
	}

	var event WebhookPayload
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	if event.Event != domain.WebhookEventChargeSuccess {
		observability.IncrementWebhookEvent("ignored")
		return &WebhookResult{Outcome: OutcomeIgnored}, nil
	}

	reference := strings.TrimSpace(event.Data.Reference)
	if reference == "" {
		return nil, fmt.Errorf("%w: reference is required", ErrInvalidPayload)
	}
	if event.Data.Amount <= 0 {
		return nil, fmt.Errorf("%w: invalid amount %d", ErrInvalidPayload, event.Data.Amount)
	}

	amount := domain.FromMinorUnits(event.Data.Amount)
	settlement, err := s.store.SettleDeposit(ctx, reference, amount)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			// The gateway knows a reference we never recorded. Benign for us,
			// but worth a trace.
			zap.L().Warn("webhook for unknown deposit reference", zap.String("reference", reference))
			observability.IncrementWebhookEvent("unknown_reference")
			return &WebhookResult{Outcome: OutcomeUnknown, Reference: reference}, nil
		}
		return nil, fmt.Errorf("settle deposit %s: %w", reference, err)
	}

	if !settlement.Credited {
		observability.IncrementWebhookEvent("duplicate")
		return &WebhookResult{Outcome: OutcomeDuplicate, Reference: reference}, nil
	}

	observability.IncrementWebhookEvent("settled")
	observability.IncrementDepositSettled()
	if settlement.BonusPaid {
		observability.IncrementReferralBonus()
	}
	zap.L().Info("deposit settled",
		zap.String("reference", reference),
		zap.String("amount", amount.StringFixed(2)),
		zap.Bool("bonus_paid", settlement.BonusPaid),
	)
	return &WebhookResult{Outcome: OutcomeSettled, Reference: reference, BonusPaid: settlement.BonusPaid}, nil
}

// verifyHMAC checks the hex-encoded HMAC-SHA256 of the raw body.
func (s *ReconcilerService) verifyHMAC(payload []byte, signature string) bool {
	if s.skipSig {
		return true
	}
	if len(s.hmacKey) == 0 {
		return false
	}

	h := hmac.New(sha256.New, s.hmacKey)
	h.Write(payload)
	expected := hex.EncodeToString(h.Sum(nil))

	// hmac.Equal for constant-time comparison.
	return hmac.Equal([]byte(signature), []byte(expected))
}
