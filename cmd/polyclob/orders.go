package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/alejandrodnm/polyclob/config"
	"github.com/alejandrodnm/polyclob/internal/adapters/notify"
	"github.com/alejandrodnm/polyclob/internal/adapters/polymarket"
	"github.com/alejandrodnm/polyclob/internal/adapters/signer"
	"github.com/alejandrodnm/polyclob/internal/adapters/storage"
	"github.com/alejandrodnm/polyclob/internal/domain"
	"github.com/alejandrodnm/polyclob/internal/orders"
)

// newOrderClient monta el cliente de órdenes con la clave de POLY_PRIVATE_KEY.
func newOrderClient(cfg *config.Config, client *polymarket.Client, store *storage.SQLiteStorage) (*orders.Client, error) {
	if cfg.Wallet.PrivateKey == "" {
		return nil, errors.New("POLY_PRIVATE_KEY is not set")
	}
	s, err := signer.NewLocalSigner(cfg.Wallet.PrivateKey, cfg.Wallet.Funder)
	if err != nil {
		return nil, err
	}

	var risk *domain.RiskConfig
	if cfg.Risk.Enabled {
		risk = &domain.RiskConfig{
			MaxNotional:       cfg.Risk.MaxNotional,
			MaxSizePerMarket:  cfg.Risk.MaxSizePerMarket,
			MaxSkew:           cfg.Risk.MaxSkew,
			MaxSpreadSlippage: cfg.Risk.MaxSpreadSlippage,
			MinEdge:           cfg.Risk.MinEdge,
			AllowedMarkets:    cfg.Risk.AllowedMarkets,
			BlockedMarkets:    cfg.Risk.BlockedMarkets,
		}
	}

	return orders.NewClient(orders.Config{ChainID: cfg.API.ChainID, Risk: risk}, client, s, store)
}

func runBook(ctx context.Context, cfg *config.Config, client *polymarket.Client, console *notify.Console, args []string) error {
	if len(args) == 0 {
		return errors.New("book: expected <token>...")
	}
	// la lectura del libro es pública: no hace falta clave
	if len(args) > 1 {
		books, err := client.FetchOrderBooks(ctx, args)
		if err != nil {
			return err
		}
		for _, id := range args {
			if book, ok := books[id]; ok {
				console.PrintOrderBook(book, 5)
			}
		}
		return nil
	}

	book, err := client.FetchOrderBook(ctx, args[0])
	if err != nil {
		return err
	}
	console.PrintOrderBook(book, 10)

	mc, err := client.FetchMarketConfig(ctx, args[0])
	if err == nil {
		fmt.Printf("  tick %s  min size %s  chain %d\n",
			strconv.FormatFloat(mc.TickSize, 'f', -1, 64),
			strconv.FormatFloat(mc.MinSize, 'f', -1, 64), cfg.API.ChainID)
	}
	return nil
}

func runOrders(ctx context.Context, cfg *config.Config, client *polymarket.Client, store *storage.SQLiteStorage, console *notify.Console) error {
	oc, err := newOrderClient(cfg, client, store)
	if err != nil {
		return err
	}
	open, err := oc.GetActiveOrders(ctx)
	if err != nil {
		return err
	}
	console.PrintOpenOrders(open)
	return nil
}

func runPlace(ctx context.Context, cfg *config.Config, client *polymarket.Client, store *storage.SQLiteStorage, console *notify.Console, args []string, orderType string, negRisk bool) error {
	if len(args) != 4 {
		return errors.New("place: expected <token> <BUY|SELL> <price> <size>")
	}
	price, err := strconv.ParseFloat(args[2], 64)
	if err != nil {
		return fmt.Errorf("place: price: %w", err)
	}
	size, err := strconv.ParseFloat(args[3], 64)
	if err != nil {
		return fmt.Errorf("place: size: %w", err)
	}

	oc, err := newOrderClient(cfg, client, store)
	if err != nil {
		return err
	}

	placed, err := oc.PlaceOrder(ctx, domain.OrderIntent{
		TokenID:   args[0],
		Side:      domain.Side(strings.ToUpper(args[1])),
		Price:     price,
		Size:      size,
		OrderType: domain.OrderType(strings.ToUpper(orderType)),
		NegRisk:   negRisk,
	})
	if err != nil {
		return err
	}
	console.PrintPlaced(placed)
	return nil
}

func runCancel(ctx context.Context, cfg *config.Config, client *polymarket.Client, store *storage.SQLiteStorage, console *notify.Console, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return errors.New("cancel: expected <orderID> [hash]")
	}
	var hash string
	if len(args) == 2 {
		hash = args[1]
	}

	oc, err := newOrderClient(cfg, client, store)
	if err != nil {
		return err
	}
	res := oc.CancelOrder(ctx, args[0], hash)
	console.PrintCancel(res)
	if !res.Success {
		return fmt.Errorf("cancel %s: %s", res.OrderID, res.Message)
	}
	return nil
}

func runJournal(ctx context.Context, store *storage.SQLiteStorage, console *notify.Console) error {
	entries, err := store.RecentOrders(ctx, 50)
	if err != nil {
		return err
	}
	console.PrintJournal(entries)
	return nil
}
