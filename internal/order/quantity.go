// Package order implements the pure planning and derivation logic behind
// the order workflow: remaining-demand projection, allocation and receipt
// planning, sequential shipment completion and progress rendering. All
// quantity arithmetic goes through shopspring/decimal so that repeated
// partial receipts and allocations never drift.
package order

import "github.com/shopspring/decimal"

// quantityPlaces matches the precision quantities are stored with.
const quantityPlaces = 5

func qty(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v)
}

// RoundQuantity normalizes a quantity to the storage precision.
func RoundQuantity(v float64) float64 {
	f, _ := qty(v).Round(quantityPlaces).Float64()
	return f
}

// PackQuantity converts an ordered-unit quantity into physical received
// units using the supplier part's pack size. Display-only: transmitted
// quantities always stay in ordered units.
func PackQuantity(quantity, packSize float64) float64 {
	if packSize <= 0 {
		packSize = 1
	}
	f, _ := qty(quantity).Mul(qty(packSize)).Round(quantityPlaces).Float64()
	return f
}

// clampNonNegative floors a decimal at zero.
func clampNonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
