package stream

import (
	"time"

	"github.com/alejandrodnm/polyclob/internal/domain"
)

// EventType tags an Event.
type EventType string

const (
	EventOrderbook    EventType = "orderbook"
	EventTrade        EventType = "trade"
	EventUserOrder    EventType = "user_order"
	EventMarket       EventType = "market"
	EventPong         EventType = "pong"
	EventConnected    EventType = "connected"
	EventDisconnected EventType = "disconnected"
	EventError        EventType = "error"
)

// Event is what the connection delivers. Exactly one payload field is set for
// data events; lifecycle events carry at most Err.
type Event struct {
	Type EventType
	At   time.Time

	Orderbook *OrderbookUpdate
	Trade     *Trade
	UserOrder *UserOrderUpdate
	Market    *MarketUpdate
	Err       error
}

// OrderbookUpdate is a full book snapshot for one token.
type OrderbookUpdate struct {
	TokenID   string
	MarketID  string
	Book      domain.OrderBook
	Timestamp time.Time
}

// Trade is one print on the tape.
type Trade struct {
	TradeID   string
	TokenID   string
	Side      domain.Side
	Price     float64
	Size      float64
	Timestamp time.Time
}

// UserOrderUpdate is a status change on one of the caller's orders.
type UserOrderUpdate struct {
	OrderID   string
	TokenID   string
	Side      domain.Side
	Price     float64
	Size      float64
	Filled    float64
	Status    string
	Timestamp time.Time
}

// MarketUpdate is a market lifecycle event (opened, paused, resolved...).
type MarketUpdate struct {
	MarketID  string
	Event     string
	Status    string
	Data      []byte // raw payload for fields this client does not model
	Timestamp time.Time
}
