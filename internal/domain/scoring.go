package domain

import "math"

// Máximos de cada componente del betting score. Suman 100.
const (
	MaxVolumeScore    = 30.0
	MaxLiquidityScore = 25.0
	MaxSpreadScore    = 25.0
	MaxUrgencyScore   = 20.0
)

// BinarySpread calcula |1 - (YES + NO)| leyendo los outcomes "YES" y "NO".
// Un mercado sin alguno de esos dos outcomes no es binario y devuelve 1.
func BinarySpread(m Market) float64 {
	yes, okYes := m.Outcome(OutcomeYes)
	no, okNo := m.Outcome(OutcomeNo)
	if !okYes || !okNo {
		return 1
	}
	return math.Abs(1 - (yes.Price + no.Price))
}

// VolumeScore puntúa el volumen total (0-30).
func VolumeScore(volume float64) float64 {
	switch {
	case volume >= 100000:
		return 30
	case volume >= 50000:
		return 25
	case volume >= 25000:
		return 20
	case volume >= 10000:
		return 15
	case volume >= 5000:
		return 10
	case volume > 0:
		return 5
	}
	return 0
}

// LiquidityScore puntúa la liquidez (0-25).
func LiquidityScore(liquidity float64) float64 {
	switch {
	case liquidity >= 20000:
		return 25
	case liquidity >= 10000:
		return 20
	case liquidity >= 5000:
		return 15
	case liquidity >= 1000:
		return 10
	case liquidity > 0:
		return 5
	}
	return 0
}

// SpreadScore puntúa la calidad del precio (0-25). Menor spread, mayor score.
func SpreadScore(spread float64) float64 {
	switch {
	case spread <= 0.01:
		return 25
	case spread <= 0.02:
		return 20
	case spread <= 0.03:
		return 15
	case spread <= 0.05:
		return 10
	case spread <= 0.10:
		return 5
	}
	return 0
}

// UrgencyScore puntúa la cercanía al cierre (0-20). Horas negativas cuentan como inminente.
func UrgencyScore(hours float64) float64 {
	switch {
	case hours <= 1:
		return 20
	case hours <= 3:
		return 15
	case hours <= 6:
		return 10
	case hours <= 24:
		return 5
	}
	return 0
}

// BettingScore suma los cuatro componentes y limita el resultado a 100.
func BettingScore(volume, liquidity, spread, hours float64) float64 {
	total := VolumeScore(volume) + LiquidityScore(liquidity) + SpreadScore(spread) + UrgencyScore(hours)
	return math.Min(total, 100)
}
