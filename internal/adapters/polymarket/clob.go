package polymarket

// clob.go: lecturas del CLOB: config de mercado, orderbook y órdenes abiertas.

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync"

	"github.com/alejandrodnm/polyclob/internal/domain"
)

const (
	marketsPath = "/markets/"
	bookPath    = "/book"
	booksPath   = "/books"
	ordersPath  = "/orders"

	// "LTE=" es el cursor vacío codificado en base64 que indica última página
	endCursor = "LTE="

	batchSize = 20 // máx token_ids por request a /books
)

// FetchMarketConfig devuelve tick size y tamaño mínimo de un token.
// Campos ausentes vuelven en cero.
func (c *Client) FetchMarketConfig(ctx context.Context, tokenID string) (domain.MarketConfig, error) {
	var resp marketConfigResponse
	u := c.clobBase + marketsPath + url.PathEscape(tokenID)
	if err := c.get(ctx, c.clobLimiter, u, &resp); err != nil {
		return domain.MarketConfig{}, fmt.Errorf("clob.FetchMarketConfig: %w", err)
	}
	cfg := mapMarketConfig(resp)
	slog.Debug("market config fetched", "token_id", tokenID, "tick", cfg.TickSize, "min_size", cfg.MinSize)
	return cfg, nil
}

// FetchOrderBook devuelve el orderbook actual de un token.
func (c *Client) FetchOrderBook(ctx context.Context, tokenID string) (domain.OrderBook, error) {
	var resp orderBookResponse
	u := c.clobBase + bookPath + "?token_id=" + url.QueryEscape(tokenID)
	if err := c.get(ctx, c.booksLimiter, u, &resp); err != nil {
		return domain.OrderBook{}, fmt.Errorf("clob.FetchOrderBook: %w", err)
	}
	return mapOrderBook(tokenID, resp), nil
}

// FetchOrderBooks obtiene los orderbooks de varios tokens usando el endpoint batch.
// Lanza un goroutine por batch de batchSize tokens; el rate limiter de books
// controla el ritmo. Si un batch falla se devuelve el primer error.
func (c *Client) FetchOrderBooks(ctx context.Context, tokenIDs []string) (map[string]domain.OrderBook, error) {
	if len(tokenIDs) == 0 {
		return map[string]domain.OrderBook{}, nil
	}

	batches := splitBatches(tokenIDs, batchSize)

	type batchResult struct {
		books map[string]domain.OrderBook
		err   error
		idx   int
	}

	resultCh := make(chan batchResult, len(batches))
	var wg sync.WaitGroup

	for i, batch := range batches {
		wg.Add(1)
		go func() {
			defer wg.Done()
			books, err := c.fetchBooksBatch(ctx, batch)
			resultCh <- batchResult{books: books, err: err, idx: i}
		}()
	}

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	result := make(map[string]domain.OrderBook, len(tokenIDs))
	var firstErr error

	for r := range resultCh {
		if r.err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("clob.FetchOrderBooks batch %d: %w", r.idx, r.err)
			}
			continue
		}
		for k, v := range r.books {
			result[k] = v
		}
	}

	if firstErr != nil {
		return nil, firstErr
	}

	slog.Debug("order books fetched", "tokens", len(tokenIDs), "books", len(result))
	return result, nil
}

// splitBatches divide tokenIDs en slices de tamaño máximo size.
func splitBatches(tokenIDs []string, size int) [][]string {
	if size <= 0 {
		size = batchSize
	}
	batches := make([][]string, 0, (len(tokenIDs)+size-1)/size)
	for i := 0; i < len(tokenIDs); i += size {
		end := min(i+size, len(tokenIDs))
		batches = append(batches, tokenIDs[i:end])
	}
	return batches
}

// fetchBooksBatch hace un POST /books para un batch de token_ids.
func (c *Client) fetchBooksBatch(ctx context.Context, tokenIDs []string) (map[string]domain.OrderBook, error) {
	body := make([]orderBookRequest, len(tokenIDs))
	for i, id := range tokenIDs {
		body[i] = orderBookRequest{TokenID: id}
	}

	var resp []orderBookResponse
	if err := c.post(ctx, c.booksLimiter, c.clobBase+booksPath, body, &resp); err != nil {
		return nil, fmt.Errorf("POST /books: %w", err)
	}

	books := make(map[string]domain.OrderBook, len(resp))
	for _, r := range resp {
		if r.AssetID == "" {
			continue
		}
		books[r.AssetID] = mapOrderBook(r.AssetID, r)
	}
	return books, nil
}

// FetchActiveOrders lista las órdenes abiertas de owner.
// Pagina automáticamente usando next_cursor hasta agotar los resultados.
func (c *Client) FetchActiveOrders(ctx context.Context, creds *domain.APICredentials, owner string) ([]domain.OpenOrder, error) {
	var all []domain.OpenOrder
	cursor := ""

	for {
		q := url.Values{}
		q.Set("owner", owner)
		q.Set("active", "true")
		if cursor != "" {
			q.Set("next_cursor", cursor)
		}

		var resp ordersResponse
		if err := c.doL2(ctx, creds, http.MethodGet, ordersPath, q.Encode(), nil, &resp); err != nil {
			return nil, fmt.Errorf("clob.FetchActiveOrders: %w", err)
		}
		all = append(all, mapOpenOrders(resp.Data)...)

		if resp.NextCursor == "" || resp.NextCursor == endCursor {
			break
		}
		cursor = resp.NextCursor
	}

	slog.Debug("active orders fetched", "owner", owner, "total", len(all))
	return all, nil
}
