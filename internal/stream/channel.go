package stream

import (
	"strconv"
	"strings"
	"sync"
)

// ChannelType names a stream topic.
type ChannelType string

const (
	ChannelOrderbook  ChannelType = "orderbook"
	ChannelTrades     ChannelType = "trades"
	ChannelUserOrders ChannelType = "user_orders"
	ChannelMarket     ChannelType = "market"
)

// Channel is a subscription target. Two channels are the same subscription
// when their Key matches.
type Channel struct {
	Type     ChannelType `json:"type"`
	TokenID  string      `json:"tokenId,omitempty"`
	MarketID string      `json:"marketId,omitempty"`
	Address  string      `json:"address,omitempty"`
}

// OrderbookChannel subscribes to book snapshots for tokenID.
func OrderbookChannel(tokenID string) Channel {
	return Channel{Type: ChannelOrderbook, TokenID: tokenID}
}

// TradesChannel subscribes to trades for tokenID.
func TradesChannel(tokenID string) Channel {
	return Channel{Type: ChannelTrades, TokenID: tokenID}
}

// UserOrdersChannel subscribes to order updates for address.
func UserOrdersChannel(address string) Channel {
	return Channel{Type: ChannelUserOrders, Address: address}
}

// MarketChannel subscribes to lifecycle events for marketID.
func MarketChannel(marketID string) Channel {
	return Channel{Type: ChannelMarket, MarketID: marketID}
}

// Key is the canonical serialization of the channel: fixed field order,
// empty fields omitted, addresses lower-cased. Values holding a separator are
// quoted, so no field value can forge another field.
func (c Channel) Key() string {
	var b strings.Builder
	writeField(&b, "type", string(c.Type))
	if c.TokenID != "" {
		writeField(&b, "token", c.TokenID)
	}
	if c.MarketID != "" {
		writeField(&b, "market", c.MarketID)
	}
	if c.Address != "" {
		writeField(&b, "address", strings.ToLower(c.Address))
	}
	return b.String()
}

func writeField(b *strings.Builder, name, value string) {
	if b.Len() > 0 {
		b.WriteByte('|')
	}
	b.WriteString(name)
	b.WriteByte('=')
	if strings.ContainsAny(value, "|=\"\\") || !strconv.CanBackquote(value) {
		value = strconv.Quote(value)
	}
	b.WriteString(value)
}

// Registry is the set of active subscriptions, kept in insertion order so
// replays after a reconnect go out in the order callers subscribed.
type Registry struct {
	mu    sync.Mutex
	index map[string]int
	order []Channel
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{index: make(map[string]int)}
}

// Add inserts ch and reports whether it was new.
func (r *Registry) Add(ch Channel) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := ch.Key()
	if _, ok := r.index[key]; ok {
		return false
	}
	r.index[key] = len(r.order)
	r.order = append(r.order, ch)
	return true
}

// Remove deletes ch and reports whether it was present.
func (r *Registry) Remove(ch Channel) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := ch.Key()
	i, ok := r.index[key]
	if !ok {
		return false
	}
	r.order = append(r.order[:i], r.order[i+1:]...)
	delete(r.index, key)
	for j := i; j < len(r.order); j++ {
		r.index[r.order[j].Key()] = j
	}
	return true
}

// Has reports whether ch is registered.
func (r *Registry) Has(ch Channel) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.index[ch.Key()]
	return ok
}

// Snapshot returns a copy of the registered channels in insertion order.
func (r *Registry) Snapshot() []Channel {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Channel, len(r.order))
	copy(out, r.order)
	return out
}

// Len returns the number of subscriptions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.order)
}

// Clear drops every subscription.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.index = make(map[string]int)
	r.order = nil
}
