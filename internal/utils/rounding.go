package utils

import (
	"math"

	"github.com/shopspring/decimal"
)

// PricePrecision is the minimum price increment of equities, in decimal places.
const PricePrecision = 2

// Round rounds value half away from zero to the given number of decimal places.
// NaN and infinities are returned unchanged.
func Round(value float64, places int32) float64 {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return value
	}

	return decimal.NewFromFloat(value).Round(places).InexactFloat64()
}

// RoundPrice rounds a price to the minimum price increment.
func RoundPrice(price float64) float64 {
	return Round(price, PricePrecision)
}

// FloorShares returns how many whole units of unitCost fit into amount.
// Non-positive inputs yield zero.
func FloorShares(amount float64, unitCost float64) int64 {
	if amount <= 0 || unitCost <= 0 || math.IsNaN(amount) || math.IsNaN(unitCost) {
		return 0
	}

	return int64(math.Floor(amount / unitCost))
}
