package checkout

import "github.com/shopspring/decimal"

// TaxRate is the flat sales tax applied to every order.
var TaxRate = decimal.RequireFromString("0.0875")

// Total is subtotal plus tax, unrounded.
func Total(subtotal decimal.Decimal) decimal.Decimal {
	return subtotal.Mul(decimal.NewFromInt(1).Add(TaxRate))
}

// minorUnits converts an amount to cents, rounding half away from zero.
func minorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}
