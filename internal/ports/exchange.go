package ports

import (
	"context"

	"github.com/alejandrodnm/polyclob/internal/domain"
)

// Exchange is the CLOB HTTP API used by the order client.
// creds may be nil: requests are then sent without L2 headers.
type Exchange interface {
	BookProvider

	// FetchMarketConfig devuelve tick size y tamaño mínimo del token.
	FetchMarketConfig(ctx context.Context, tokenID string) (domain.MarketConfig, error)

	// DeriveAPIKey exchanges a signed ClobAuth proof for L2 credentials.
	DeriveAPIKey(ctx context.Context, auth domain.L1Auth) (domain.APICredentials, error)

	// PostOrder submits a signed order. No retry is attempted.
	// A non-success answer is returned as *domain.OrderSubmissionError.
	PostOrder(ctx context.Context, creds *domain.APICredentials, sub domain.OrderSubmission) (domain.OrderAck, error)

	// DeleteOrder cancels a resting order.
	DeleteOrder(ctx context.Context, creds *domain.APICredentials, orderID, orderHash string) error

	// FetchActiveOrders lists the owner's resting orders.
	FetchActiveOrders(ctx context.Context, creds *domain.APICredentials, owner string) ([]domain.OpenOrder, error)
}
