// Package orders validates, signs and submits orders to the CLOB.
package orders

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/alejandrodnm/polyclob/internal/domain"
	"github.com/alejandrodnm/polyclob/internal/ports"
)

// Config holds the order client settings.
type Config struct {
	ChainID int64
	Risk    *domain.RiskConfig // nil = no risk checks
}

// Client is the order entry point: validate, sign, submit, cancel.
// It is safe for concurrent use.
type Client struct {
	exchange ports.Exchange
	signer   ports.OrderSigner
	journal  ports.OrderJournal // optional

	chainID int64
	configs *MarketConfigCache
	builder *Builder
	risk    *RiskValidator
	now     func() time.Time

	credsMu sync.Mutex
	creds   *domain.APICredentials
}

// NewClient wires the order client. journal may be nil.
func NewClient(cfg Config, exchange ports.Exchange, signer ports.OrderSigner, journal ports.OrderJournal) (*Client, error) {
	b, err := NewBuilder(cfg.ChainID)
	if err != nil {
		return nil, fmt.Errorf("orders.NewClient: %w", err)
	}
	return &Client{
		exchange: exchange,
		signer:   signer,
		journal:  journal,
		chainID:  cfg.ChainID,
		configs:  NewMarketConfigCache(exchange),
		builder:  b,
		risk:     NewRiskValidator(cfg.Risk),
		now:      time.Now,
	}, nil
}

// PlaceOrder validates, signs and submits intent. The gates run in a fixed
// order and the first failure is returned: shape, tick size, min size, risk,
// signing, submission. Nothing is sent to the exchange unless every local
// check passes. There is no retry.
func (c *Client) PlaceOrder(ctx context.Context, intent domain.OrderIntent) (domain.PlacedOrder, error) {
	if err := validateShape(intent); err != nil {
		return domain.PlacedOrder{}, err
	}

	mc := c.configs.Get(ctx, intent.TokenID)
	if !domain.ValidateTickSize(intent.Price, mc.TickSize) {
		return domain.PlacedOrder{}, &domain.ValidationError{
			Field:          "price",
			Message:        fmt.Sprintf("%g is not a multiple of tick size %g", intent.Price, mc.TickSize),
			SuggestedPrice: domain.RoundToTickSize(intent.Price, mc.TickSize),
		}
	}
	if intent.Size < mc.MinSize {
		return domain.PlacedOrder{}, &domain.ValidationError{
			Field:   "size",
			Message: fmt.Sprintf("%g is below the market minimum %g", intent.Size, mc.MinSize),
		}
	}

	if err := c.risk.Check(intent); err != nil {
		return domain.PlacedOrder{}, err
	}

	env, err := c.sign(ctx, intent)
	if err != nil {
		return domain.PlacedOrder{}, err
	}

	creds := c.ensureCreds(ctx)

	ack, err := c.exchange.PostOrder(ctx, creds, domain.OrderSubmission{
		Order:     env.Order,
		Signature: env.Signature,
		Owner:     env.Owner,
		OrderType: intent.OrderType,
		Funder:    c.funder(intent),
	})
	if err != nil {
		return domain.PlacedOrder{}, asSubmissionError(err)
	}

	status := ack.Status
	if status == "" {
		status = domain.OrderStatusPending
	}
	placed := domain.PlacedOrder{
		OrderID:   ack.OrderID,
		OrderHash: ack.OrderHash,
		Status:    status,
		TokenID:   intent.TokenID,
		Side:      intent.Side,
		Price:     intent.Price,
		Size:      intent.Size,
		Filled:    0,
		Remaining: intent.Size,
		Timestamp: c.now().UTC(),
	}

	slog.Info("order placed",
		"order_id", placed.OrderID,
		"token", placed.TokenID,
		"side", placed.Side,
		"price", placed.Price,
		"size", placed.Size,
		"status", placed.Status,
	)

	if c.journal != nil {
		if err := c.journal.RecordPlacement(ctx, placed); err != nil {
			slog.Warn("journal placement failed", "order_id", placed.OrderID, "err", err)
		}
	}
	return placed, nil
}

// CancelOrder asks the exchange to cancel orderID. It never returns an error:
// failures are reported in the result.
func (c *Client) CancelOrder(ctx context.Context, orderID, orderHash string) domain.CancelResult {
	creds := c.ensureCreds(ctx)

	res := domain.CancelResult{Success: true, OrderID: orderID, Message: "order cancelled"}
	if err := c.exchange.DeleteOrder(ctx, creds, orderID, orderHash); err != nil {
		slog.Warn("cancel failed", "order_id", orderID, "err", err)
		res = domain.CancelResult{Success: false, OrderID: orderID, Message: err.Error()}
	}

	if c.journal != nil {
		if err := c.journal.RecordCancel(ctx, res); err != nil {
			slog.Warn("journal cancel failed", "order_id", orderID, "err", err)
		}
	}
	return res
}

// GetOrderBook returns a point-in-time book for tokenID.
func (c *Client) GetOrderBook(ctx context.Context, tokenID string) (domain.OrderBook, error) {
	book, err := c.exchange.FetchOrderBook(ctx, tokenID)
	if err != nil {
		return domain.OrderBook{}, fmt.Errorf("orders.GetOrderBook: %w", err)
	}
	return book, nil
}

// GetActiveOrders lists the signer's resting orders.
func (c *Client) GetActiveOrders(ctx context.Context) ([]domain.OpenOrder, error) {
	creds := c.ensureCreds(ctx)
	open, err := c.exchange.FetchActiveOrders(ctx, creds, c.signer.Address())
	if err != nil {
		return nil, fmt.Errorf("orders.GetActiveOrders: %w", err)
	}
	return open, nil
}

// MarketConfig returns the cached (or fetched, or default) config for tokenID.
func (c *Client) MarketConfig(ctx context.Context, tokenID string) domain.MarketConfig {
	return c.configs.Get(ctx, tokenID)
}

// sign builds the typed data for intent and signs it.
func (c *Client) sign(ctx context.Context, intent domain.OrderIntent) (domain.SignedOrderEnvelope, error) {
	signer := c.signer.Address()
	td, msg, err := c.builder.Build(intent, signer, c.funder(intent))
	if err != nil {
		return domain.SignedOrderEnvelope{}, &domain.SigningError{Err: err}
	}

	sig, err := c.signer.SignTypedData(ctx, td.Domain, td.Types, td.PrimaryType, td.Message)
	if err != nil {
		return domain.SignedOrderEnvelope{}, &domain.SigningError{Err: err}
	}
	return domain.SignedOrderEnvelope{
		TypedData: td,
		Order:     msg,
		Signature: sig,
		Owner:     signer,
	}, nil
}

// ensureCreds derives L2 credentials once. A failure is logged and nil is
// returned; the request then goes out without L2 headers.
func (c *Client) ensureCreds(ctx context.Context) *domain.APICredentials {
	c.credsMu.Lock()
	defer c.credsMu.Unlock()

	if c.creds != nil {
		return c.creds
	}

	auth, err := signClobAuth(ctx, c.signer, c.chainID, c.now(), 0)
	if err != nil {
		slog.Warn("credential derivation skipped: signing failed", "err", err)
		return nil
	}
	creds, err := c.exchange.DeriveAPIKey(ctx, auth)
	if err != nil {
		slog.Warn("credential derivation failed", "err", err)
		return nil
	}
	c.creds = &creds
	slog.Debug("api credentials derived", "address", auth.Address)
	return c.creds
}

func (c *Client) funder(intent domain.OrderIntent) string {
	if intent.Funder != "" {
		return intent.Funder
	}
	return c.signer.Funder()
}

// validateShape checks the fields that need no market data.
func validateShape(intent domain.OrderIntent) error {
	switch {
	case intent.TokenID == "":
		return &domain.ValidationError{Field: "tokenId", Message: "required"}
	case !intent.Side.Valid():
		return &domain.ValidationError{Field: "side", Message: fmt.Sprintf("unknown side %q", intent.Side)}
	case !(intent.Price > 0 && intent.Price < 1):
		return &domain.ValidationError{Field: "price", Message: fmt.Sprintf("%g is outside (0, 1)", intent.Price)}
	case !(intent.Size > 0):
		return &domain.ValidationError{Field: "size", Message: fmt.Sprintf("%g must be positive", intent.Size)}
	case !intent.OrderType.Valid():
		return &domain.ValidationError{Field: "orderType", Message: fmt.Sprintf("unknown order type %q", intent.OrderType)}
	case intent.OrderType == domain.OrderTypeGTD && intent.ExpiresAt.IsZero():
		return &domain.ValidationError{Field: "expiresAt", Message: "required for GTD orders"}
	case intent.Funder != "" && !common.IsHexAddress(intent.Funder):
		return &domain.ValidationError{Field: "funder", Message: fmt.Sprintf("%q is not an address", intent.Funder)}
	}
	return nil
}

// asSubmissionError normalizes adapter errors into *domain.OrderSubmissionError.
func asSubmissionError(err error) error {
	var subErr *domain.OrderSubmissionError
	if errors.As(err, &subErr) {
		return subErr
	}
	return &domain.OrderSubmissionError{Message: err.Error()}
}
