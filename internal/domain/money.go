package domain

import "github.com/shopspring/decimal"

// Amounts exchanged with the payment gateway are integer kobo (minor units).
// Everything stored and displayed internally is naira (major units), held as
// decimal to avoid floating point errors.
const minorPerMajor = 100

// FromMinorUnits converts a gateway amount in kobo to naira.
func FromMinorUnits(amount int64) decimal.Decimal {
	return decimal.NewFromInt(amount).Div(decimal.NewFromInt(minorPerMajor))
}

// ToMinorUnits converts a naira amount to kobo, rounding down.
func ToMinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(minorPerMajor)).IntPart()
}

// OrderTotal computes quantity * unit price.
func OrderTotal(quantity int, pricePerUnit decimal.Decimal) decimal.Decimal {
	return pricePerUnit.Mul(decimal.NewFromInt(int64(quantity)))
}
