package polymarket

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"

	"github.com/alejandrodnm/polyclob/internal/domain"
)

const (
	gammaMarketsPath = "/markets"
	gammaPageSize    = 100
)

// FetchMarkets devuelve los mercados abiertos de Gamma ordenados por volumen,
// hasta marketLimit. Pagina con offset.
func (c *Client) FetchMarkets(ctx context.Context) ([]domain.Market, error) {
	var all []domain.Market

	for offset := 0; offset < c.marketLimit; offset += gammaPageSize {
		limit := gammaPageSize
		if rest := c.marketLimit - offset; rest < limit {
			limit = rest
		}

		q := url.Values{}
		q.Set("active", "true")
		q.Set("closed", "false")
		q.Set("order", "volume")
		q.Set("ascending", "false")
		q.Set("limit", strconv.Itoa(limit))
		q.Set("offset", strconv.Itoa(offset))

		var resp []gammaMarket
		if err := c.get(ctx, c.gammaLimiter, c.gammaBase+gammaMarketsPath+"?"+q.Encode(), &resp); err != nil {
			return nil, fmt.Errorf("gamma.FetchMarkets: %w", err)
		}
		all = append(all, mapGammaMarkets(resp)...)

		slog.Debug("fetched gamma markets page",
			"count", len(resp),
			"total", len(all),
		)

		if len(resp) < limit {
			break
		}
	}

	slog.Info("gamma markets fetched", "total", len(all))
	return all, nil
}
