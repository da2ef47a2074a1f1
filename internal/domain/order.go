package domain

import (
	"time"

	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

// Side is the direction of an order.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Valid reports whether s is one of the known sides.
func (s Side) Valid() bool {
	return s == SideBuy || s == SideSell
}

// OrderType is the time-in-force of an order.
type OrderType string

const (
	OrderTypeGTC OrderType = "GTC" // good-till-cancelled
	OrderTypeFAK OrderType = "FAK" // fill-and-kill
	OrderTypeFOK OrderType = "FOK" // fill-or-kill
	OrderTypeGTD OrderType = "GTD" // good-till-date
)

// Valid reports whether t is one of the known order types.
func (t OrderType) Valid() bool {
	switch t {
	case OrderTypeGTC, OrderTypeFAK, OrderTypeFOK, OrderTypeGTD:
		return true
	}
	return false
}

// OrderStatusPending is used when the exchange acknowledges an order without a status.
const OrderStatusPending = "PENDING"

// OrderIntent is what a caller wants to trade, before validation and signing.
type OrderIntent struct {
	TokenID   string
	Side      Side
	Price     float64 // probability in (0, 1)
	Size      float64 // outcome shares
	OrderType OrderType
	ExpiresAt time.Time // zero = no explicit expiry
	NegRisk   bool      // route through the neg-risk exchange contract
	Funder    string    // optional maker address; defaults to the signer address

	// Reference carries live market context for the reference-based risk checks.
	Reference *RiskReference
}

// Notional returns price × size.
func (o OrderIntent) Notional() float64 {
	return o.Price * o.Size
}

// MarketConfig holds the per-token trading constraints published by the exchange.
type MarketConfig struct {
	TickSize float64
	MinSize  float64
}

// DefaultMarketConfig is used when the exchange does not return a config for a token.
var DefaultMarketConfig = MarketConfig{TickSize: 0.01, MinSize: 1}

// RiskConfig bounds what the client is allowed to submit. Zero numeric limits are not checked.
type RiskConfig struct {
	MaxNotional       float64
	MaxSizePerMarket  float64
	MaxSkew           float64
	MaxSpreadSlippage float64
	MinEdge           float64
	AllowedMarkets    []string
	BlockedMarkets    []string
}

// RiskReference is caller-supplied market context. Skew is the post-trade
// inventory imbalance in [-1, 1].
type RiskReference struct {
	MidPrice  float64
	FairValue float64
	Skew      float64
}

// OrderMessage is the signable order in its wire form: every field a decimal
// string except side and signature type, which the exchange encodes as small ints.
type OrderMessage struct {
	Salt          string `json:"salt"`
	Maker         string `json:"maker"`
	Signer        string `json:"signer"`
	Taker         string `json:"taker"`
	TokenID       string `json:"tokenId"`
	MakerAmount   string `json:"makerAmount"`
	TakerAmount   string `json:"takerAmount"`
	Expiration    string `json:"expiration"`
	Nonce         string `json:"nonce"`
	FeeRateBps    string `json:"feeRateBps"`
	Side          int    `json:"side"`
	SignatureType int    `json:"signatureType"`
}

// SignedOrderEnvelope is the typed data that was signed plus the resulting signature.
type SignedOrderEnvelope struct {
	TypedData apitypes.TypedData
	Order     OrderMessage
	Signature string
	Owner     string
}

// OrderSubmission is the payload posted to the exchange.
type OrderSubmission struct {
	Order     OrderMessage
	Signature string
	Owner     string
	OrderType OrderType
	Funder    string
}

// OrderAck is the exchange's answer to a successful submission.
type OrderAck struct {
	OrderID   string
	OrderHash string
	Status    string
}

// PlacedOrder is the client-side record of an accepted order. Fills are not tracked.
type PlacedOrder struct {
	OrderID   string
	OrderHash string
	Status    string
	TokenID   string
	Side      Side
	Price     float64
	Size      float64
	Filled    float64
	Remaining float64
	Timestamp time.Time
}

// CancelResult is returned by cancellation, which never fails with an error.
type CancelResult struct {
	Success bool
	OrderID string
	Message string
}

// OpenOrder is an order still resting on the book, as reported by the exchange.
type OpenOrder struct {
	ID           string
	TokenID      string
	Market       string
	Side         Side
	Price        float64
	OriginalSize float64
	SizeMatched  float64
	Status       string
	CreatedAt    time.Time
}

// APICredentials are the L2 credentials derived from a wallet signature.
// Address is the wallet they were derived for; L2 headers carry it.
type APICredentials struct {
	APIKey     string `json:"apiKey"`
	Secret     string `json:"secret"`
	Passphrase string `json:"passphrase"`
	Address    string `json:"-"`
}

// L1Auth is a signed proof of wallet control used to derive API credentials.
type L1Auth struct {
	Address   string
	Signature string
	Timestamp string
	Nonce     string
}

// JournalEntry is one row of the local order journal: a placement or a cancel.
type JournalEntry struct {
	ID         string
	Kind       string
	OrderID    string
	OrderHash  string
	TokenID    string
	Side       Side
	Price      float64
	Size       float64
	Status     string
	Success    bool
	Message    string
	RecordedAt time.Time
}
