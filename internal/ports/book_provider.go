package ports

import (
	"context"

	"github.com/alejandrodnm/polyclob/internal/domain"
)

// BookProvider obtiene el orderbook de un token desde el CLOB.
type BookProvider interface {
	FetchOrderBook(ctx context.Context, tokenID string) (domain.OrderBook, error)
}
