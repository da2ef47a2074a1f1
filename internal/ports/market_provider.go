package ports

import (
	"context"

	"github.com/alejandrodnm/polyclob/internal/domain"
)

// MarketProvider entrega snapshots de mercados activos.
type MarketProvider interface {
	// FetchMarkets devuelve los mercados abiertos ordenados por volumen.
	FetchMarkets(ctx context.Context) ([]domain.Market, error)
}
