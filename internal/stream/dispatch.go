package stream

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/alejandrodnm/polyclob/internal/domain"
)

// Frame types on the wire.
const (
	frameOrderbook  = "orderbook"
	frameTrades     = "trades"
	frameUserOrders = "user_orders"
	frameMarket     = "market"
	framePong       = "pong"
	framePing       = "ping"
	frameSubscribe  = "subscribe"
	frameUnsub      = "unsubscribe"
)

// --- outbound ---

type controlFrame struct {
	Type    string   `json:"type"`
	Channel *Channel `json:"channel,omitempty"`
}

func subscribeFrame(ch Channel) []byte {
	b, _ := json.Marshal(controlFrame{Type: frameSubscribe, Channel: &ch})
	return b
}

func unsubscribeFrame(ch Channel) []byte {
	b, _ := json.Marshal(controlFrame{Type: frameUnsub, Channel: &ch})
	return b
}

var pingFrame = []byte(`{"type":"ping"}`)

// --- inbound ---

type envelope struct {
	Type string `json:"type"`
}

type levelRaw struct {
	Price decimal.Decimal `json:"price"`
	Size  decimal.Decimal `json:"size"`
}

type orderbookFrame struct {
	TokenID   string          `json:"tokenId"`
	Market    string          `json:"market"`
	Bids      []levelRaw      `json:"bids"`
	Asks      []levelRaw      `json:"asks"`
	Timestamp json.RawMessage `json:"timestamp"`
}

type tradeFrame struct {
	TradeID   string          `json:"tradeId"`
	TokenID   string          `json:"tokenId"`
	Side      string          `json:"side"`
	Price     decimal.Decimal `json:"price"`
	Size      decimal.Decimal `json:"size"`
	Timestamp json.RawMessage `json:"timestamp"`
}

type userOrderFrame struct {
	OrderID   string          `json:"orderId"`
	TokenID   string          `json:"tokenId"`
	Side      string          `json:"side"`
	Price     decimal.Decimal `json:"price"`
	Size      decimal.Decimal `json:"size"`
	Filled    decimal.Decimal `json:"filled"`
	Status    string          `json:"status"`
	Timestamp json.RawMessage `json:"timestamp"`
}

type marketFrame struct {
	MarketID  string          `json:"marketId"`
	Event     string          `json:"event"`
	Status    string          `json:"status"`
	Data      json.RawMessage `json:"data"`
	Timestamp json.RawMessage `json:"timestamp"`
}

// ParseFrame decodes one inbound frame. ok is false for well-formed frames of
// a type this client does not handle. A malformed frame returns *domain.ParseError.
// received is used when the frame carries no timestamp.
func ParseFrame(raw []byte, received time.Time) (Event, bool, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Event{}, false, parseError(raw, err)
	}

	switch env.Type {
	case frameOrderbook:
		var f orderbookFrame
		if err := json.Unmarshal(raw, &f); err != nil {
			return Event{}, false, parseError(raw, err)
		}
		ts := parseTimestamp(f.Timestamp, received)
		return Event{
			Type: EventOrderbook,
			At:   ts,
			Orderbook: &OrderbookUpdate{
				TokenID:  f.TokenID,
				MarketID: f.Market,
				Book: domain.OrderBook{
					TokenID: f.TokenID,
					Bids:    levels(f.Bids, false),
					Asks:    levels(f.Asks, true),
				},
				Timestamp: ts,
			},
		}, true, nil

	case frameTrades:
		var f tradeFrame
		if err := json.Unmarshal(raw, &f); err != nil {
			return Event{}, false, parseError(raw, err)
		}
		ts := parseTimestamp(f.Timestamp, received)
		return Event{
			Type: EventTrade,
			At:   ts,
			Trade: &Trade{
				TradeID:   f.TradeID,
				TokenID:   f.TokenID,
				Side:      domain.Side(strings.ToUpper(f.Side)),
				Price:     f.Price.InexactFloat64(),
				Size:      f.Size.InexactFloat64(),
				Timestamp: ts,
			},
		}, true, nil

	case frameUserOrders:
		var f userOrderFrame
		if err := json.Unmarshal(raw, &f); err != nil {
			return Event{}, false, parseError(raw, err)
		}
		ts := parseTimestamp(f.Timestamp, received)
		return Event{
			Type: EventUserOrder,
			At:   ts,
			UserOrder: &UserOrderUpdate{
				OrderID:   f.OrderID,
				TokenID:   f.TokenID,
				Side:      domain.Side(strings.ToUpper(f.Side)),
				Price:     f.Price.InexactFloat64(),
				Size:      f.Size.InexactFloat64(),
				Filled:    f.Filled.InexactFloat64(),
				Status:    f.Status,
				Timestamp: ts,
			},
		}, true, nil

	case frameMarket:
		var f marketFrame
		if err := json.Unmarshal(raw, &f); err != nil {
			return Event{}, false, parseError(raw, err)
		}
		ts := parseTimestamp(f.Timestamp, received)
		return Event{
			Type: EventMarket,
			At:   ts,
			Market: &MarketUpdate{
				MarketID:  f.MarketID,
				Event:     f.Event,
				Status:    f.Status,
				Data:      []byte(f.Data),
				Timestamp: ts,
			},
		}, true, nil

	case framePong:
		return Event{Type: EventPong, At: received}, true, nil
	}

	return Event{}, false, nil
}

func parseError(raw []byte, err error) error {
	s := string(raw)
	if len(s) > 200 {
		s = s[:200]
	}
	return &domain.ParseError{Raw: s, Err: err}
}

// levels converts raw levels and sorts them.
// ascending=true → menor a mayor (asks), ascending=false → mayor a menor (bids).
func levels(raw []levelRaw, ascending bool) []domain.BookEntry {
	entries := make([]domain.BookEntry, 0, len(raw))
	for _, r := range raw {
		if !r.Price.IsPositive() || !r.Size.IsPositive() {
			continue
		}
		entries = append(entries, domain.BookEntry{
			Price: r.Price.InexactFloat64(),
			Size:  r.Size.InexactFloat64(),
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		if ascending {
			return entries[i].Price < entries[j].Price
		}
		return entries[i].Price > entries[j].Price
	})
	return entries
}

// parseTimestamp accepts unix seconds or milliseconds (number or string) and
// RFC 3339. Anything else falls back to fallback.
func parseTimestamp(raw json.RawMessage, fallback time.Time) time.Time {
	s := strings.Trim(strings.TrimSpace(string(raw)), `"`)
	if s == "" || s == "null" {
		return fallback
	}
	if ts, err := strconv.ParseInt(s, 10, 64); err == nil && ts > 0 {
		if ts > 1e12 {
			return time.UnixMilli(ts).UTC()
		}
		return time.Unix(ts, 0).UTC()
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC()
	}
	return fallback
}

// describe is a short log label for an event.
func describe(ev Event) string {
	switch ev.Type {
	case EventOrderbook:
		return fmt.Sprintf("orderbook %s", ev.Orderbook.TokenID)
	case EventTrade:
		return fmt.Sprintf("trade %s", ev.Trade.TokenID)
	case EventUserOrder:
		return fmt.Sprintf("user_order %s", ev.UserOrder.OrderID)
	case EventMarket:
		return fmt.Sprintf("market %s", ev.Market.MarketID)
	}
	return string(ev.Type)
}
