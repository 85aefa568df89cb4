package domain

import "github.com/shopspring/decimal"

// WebhookEventChargeSuccess is the only gateway event that settles a deposit.
const WebhookEventChargeSuccess = "charge.success"

const PaymentMethodGateway = "gateway"

// Platform-wide amount rules, in major units.
var (
	MinDepositAmount    = decimal.NewFromInt(100)
	MinWithdrawalAmount = decimal.NewFromInt(1000)

	// A referral bonus is paid once per referred user, on the first settled
	// deposit of at least ReferralMinDeposit.
	ReferralMinDeposit = decimal.NewFromInt(500)
	ReferralBonus      = decimal.NewFromInt(100)
)

// DefaultDispatchBatchSize caps how many pending orders one dispatcher run
// submits to the fulfillment provider.
const DefaultDispatchBatchSize int32 = 10

// ReferralPolicy is the qualifying threshold and bonus applied when a
// referred user's deposit settles.
type ReferralPolicy struct {
	MinDeposit decimal.Decimal
	Bonus      decimal.Decimal
}

func DefaultReferralPolicy() ReferralPolicy {
	return ReferralPolicy{MinDeposit: ReferralMinDeposit, Bonus: ReferralBonus}
}
