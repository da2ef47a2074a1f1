package domain

import (
	"math"

	"github.com/shopspring/decimal"
)

// tickEpsilon absorbs float noise when comparing a price to its rounded grid point.
const tickEpsilon = 1e-9

// RoundToTickSize redondea price al múltiplo más cercano de tickSize.
// Usa aritmética decimal para que 0.555 con tick 0.01 dé 0.56 y no 0.55.
func RoundToTickSize(price, tickSize float64) float64 {
	if tickSize <= 0 {
		return price
	}
	tick := decimal.NewFromFloat(tickSize)
	steps := decimal.NewFromFloat(price).Div(tick).Round(0)
	return steps.Mul(tick).InexactFloat64()
}

// ValidateTickSize devuelve true si price está sobre la grilla de tickSize.
func ValidateTickSize(price, tickSize float64) bool {
	if tickSize <= 0 {
		return false
	}
	return math.Abs(RoundToTickSize(price, tickSize)-price) < tickEpsilon
}
