package artwork

import "math"

// MinorUnits converts a decimal price to integer minor-currency units
// (19.99 -> 1999). This is the single conversion point for amounts sent to
// the payment provider and stored on order items.
func MinorUnits(price float64) int64 {
	return int64(math.Round(price * 100))
}

// FromMinorUnits is the inverse of MinorUnits.
func FromMinorUnits(cents int64) float64 {
	return float64(cents) / 100
}
