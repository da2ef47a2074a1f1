package orders

import (
	"fmt"
	"math"
	"slices"

	"github.com/alejandrodnm/polyclob/internal/domain"
)

// RiskValidator checks an intent against configured limits. A nil config disables every check.
type RiskValidator struct {
	cfg *domain.RiskConfig
}

// NewRiskValidator returns a validator for cfg. cfg may be nil.
func NewRiskValidator(cfg *domain.RiskConfig) *RiskValidator {
	return &RiskValidator{cfg: cfg}
}

// Enabled reports whether a risk config is present.
func (v *RiskValidator) Enabled() bool {
	return v != nil && v.cfg != nil
}

// Check returns a *domain.RiskRejectedError naming the first limit the intent breaks.
// Order of checks: notional, size per market, blocked list, allowed list, then the
// reference-based checks when the intent carries a reference.
func (v *RiskValidator) Check(intent domain.OrderIntent) error {
	if !v.Enabled() {
		return nil
	}
	cfg := v.cfg

	if cfg.MaxNotional > 0 {
		if n := intent.Notional(); n > cfg.MaxNotional {
			return reject("maxNotional", "notional %.4f exceeds %.4f", n, cfg.MaxNotional)
		}
	}
	if cfg.MaxSizePerMarket > 0 && intent.Size > cfg.MaxSizePerMarket {
		return reject("maxSizePerMarket", "size %.4f exceeds %.4f", intent.Size, cfg.MaxSizePerMarket)
	}
	if slices.Contains(cfg.BlockedMarkets, intent.TokenID) {
		return reject("blockedMarkets", "token %s is blocked", intent.TokenID)
	}
	if len(cfg.AllowedMarkets) > 0 && !slices.Contains(cfg.AllowedMarkets, intent.TokenID) {
		return reject("allowedMarkets", "token %s is not in the allowed list", intent.TokenID)
	}

	ref := intent.Reference
	if ref == nil {
		return nil
	}
	if cfg.MaxSpreadSlippage > 0 && ref.MidPrice > 0 {
		if slip := math.Abs(intent.Price - ref.MidPrice); slip > cfg.MaxSpreadSlippage {
			return reject("maxSpreadSlippage", "price %.4f is %.4f away from mid %.4f", intent.Price, slip, ref.MidPrice)
		}
	}
	if cfg.MinEdge > 0 && ref.FairValue > 0 {
		if edge := Edge(intent.Side, intent.Price, ref.FairValue); edge < cfg.MinEdge {
			return reject("minEdge", "edge %.4f below %.4f", edge, cfg.MinEdge)
		}
	}
	if cfg.MaxSkew > 0 && math.Abs(ref.Skew) > cfg.MaxSkew {
		return reject("maxSkew", "skew %.4f exceeds %.4f", ref.Skew, cfg.MaxSkew)
	}
	return nil
}

// Edge is the expected value per share against fairValue: buying below fair
// or selling above it is positive.
func Edge(side domain.Side, price, fairValue float64) float64 {
	if side == domain.SideSell {
		return price - fairValue
	}
	return fairValue - price
}

func reject(field, format string, args ...any) error {
	return &domain.RiskRejectedError{Field: field, Message: fmt.Sprintf(format, args...)}
}
