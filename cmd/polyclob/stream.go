package main

import (
	"context"
	"errors"
	"log/slog"

	"github.com/alejandrodnm/polyclob/config"
	"github.com/alejandrodnm/polyclob/internal/adapters/signer"
	"github.com/alejandrodnm/polyclob/internal/adapters/wsconn"
	"github.com/alejandrodnm/polyclob/internal/domain"
	"github.com/alejandrodnm/polyclob/internal/stream"
)

func runStream(ctx context.Context, cfg *config.Config, tokens []string, user bool) error {
	if len(tokens) == 0 && !user {
		return errors.New("stream: at least one token id (or -user) is required")
	}

	conn := stream.NewConnection(stream.Config{
		URL:                  cfg.API.WSURL,
		AutoReconnect:        cfg.Stream.AutoReconnect,
		MaxReconnectAttempts: cfg.Stream.MaxReconnectAttempts,
		ReconnectBaseDelay:   cfg.Stream.ReconnectBaseDelay(),
		ReconnectMaxDelay:    cfg.Stream.ReconnectMaxDelay(),
		PingInterval:         cfg.Stream.PingInterval(),
		EventBuffer:          cfg.Stream.EventBuffer,
	}, wsconn.New())
	defer conn.Disconnect()

	for _, token := range tokens {
		conn.Subscribe(stream.OrderbookChannel(token))
		conn.Subscribe(stream.TradesChannel(token))
	}
	if user {
		s, err := signer.NewLocalSigner(cfg.Wallet.PrivateKey, cfg.Wallet.Funder)
		if err != nil {
			return err
		}
		conn.Subscribe(stream.UserOrdersChannel(s.Address()))
	}

	// un open fallido ya programa el reintento; solo se loguea
	if err := conn.Connect(ctx); err != nil {
		slog.Warn("initial connect failed", "err", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-conn.Events():
			if done := logEvent(ev); done {
				return ev.Err
			}
		}
	}
}

// logEvent imprime un evento. Devuelve true cuando la conexión se ha rendido.
func logEvent(ev stream.Event) bool {
	switch ev.Type {
	case stream.EventOrderbook:
		u := ev.Orderbook
		slog.Info("book", "token", u.TokenID, "bid", u.Book.BestBid(), "ask", u.Book.BestAsk(),
			"levels", len(u.Book.Bids)+len(u.Book.Asks))
	case stream.EventTrade:
		t := ev.Trade
		slog.Info("trade", "token", t.TokenID, "side", t.Side, "price", t.Price, "size", t.Size)
	case stream.EventUserOrder:
		o := ev.UserOrder
		slog.Info("user order", "id", o.OrderID, "status", o.Status, "filled", o.Filled, "size", o.Size)
	case stream.EventMarket:
		slog.Info("market", "id", ev.Market.MarketID, "event", ev.Market.Event, "status", ev.Market.Status)
	case stream.EventConnected:
		slog.Info("stream up")
	case stream.EventDisconnected:
		slog.Warn("stream down", "err", ev.Err)
	case stream.EventError:
		slog.Error("stream error", "err", ev.Err)
		return errors.Is(ev.Err, domain.ErrConnectionExhausted)
	}
	return false
}
