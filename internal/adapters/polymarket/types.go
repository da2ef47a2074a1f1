package polymarket

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// DTOs raw de la API de Polymarket. Solo se usan dentro de este paquete.
// La conversión a domain entities se hace en mapping.go.

// number acepta número JSON, string numérico, "" o null. Polymarket mezcla
// los tres según el endpoint.
type number struct {
	decimal.Decimal
}

func (n *number) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		n.Decimal = decimal.Zero
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return err
	}
	n.Decimal = d
	return nil
}

// --- CLOB API ---

// marketConfigResponse es la parte de GET /markets/{tokenId} que nos interesa.
// Los números llegan a veces como string y a veces como número.
type marketConfigResponse struct {
	MinimumTickSize  number `json:"minimum_tick_size"`
	MinimumOrderSize number `json:"minimum_order_size"`
	NegRisk          bool   `json:"neg_risk"`
}

// orderBookRequest es un elemento del body de POST /books.
type orderBookRequest struct {
	TokenID string `json:"token_id"`
}

// orderBookResponse es la respuesta de GET /book (y cada elemento de POST /books).
type orderBookResponse struct {
	AssetID string         `json:"asset_id"`
	Market  string         `json:"market"`
	Bids    []bookEntryRaw `json:"bids"`
	Asks    []bookEntryRaw `json:"asks"`
}

// bookEntryRaw es un nivel de precio raw de la API (strings para mayor precisión).
type bookEntryRaw struct {
	Price string `json:"price"`
	Size  string `json:"size"`
}

// orderRequest es el body de POST /order.
// La firma viaja al nivel superior, no dentro de order.
type orderRequest struct {
	Order     orderBody `json:"order"`
	Signature string    `json:"signature"`
	Owner     string    `json:"owner"`
	OrderType string    `json:"orderType"`
	Funder    string    `json:"funder,omitempty"`
}

type orderBody struct {
	Salt          json.Number `json:"salt"`
	Maker         string      `json:"maker"`
	Signer        string      `json:"signer"`
	Taker         string      `json:"taker"`
	TokenID       string      `json:"tokenId"`
	MakerAmount   string      `json:"makerAmount"`
	TakerAmount   string      `json:"takerAmount"`
	Expiration    string      `json:"expiration"`
	Nonce         string      `json:"nonce"`
	FeeRateBps    string      `json:"feeRateBps"`
	Side          int         `json:"side"`
	SignatureType int         `json:"signatureType"`
}

// Success es puntero: el exchange a veces lo omite en respuestas 2xx.
type orderResponse struct {
	Success    *bool  `json:"success"`
	ErrorMsg   string `json:"errorMsg"`
	OrderID    string `json:"orderID"`
	OrderIDAlt string `json:"order_id"`
	OrderHash  string `json:"orderHash"`
	Status     string `json:"status"`
}

func (r orderResponse) id() string {
	if r.OrderID != "" {
		return r.OrderID
	}
	return r.OrderIDAlt
}

// rejected es true solo si el exchange lo dice explícitamente.
func (r orderResponse) rejected() bool {
	return (r.Success != nil && !*r.Success) || r.ErrorMsg != ""
}

// cancelRequest es el body de DELETE /order.
type cancelRequest struct {
	OrderID   string `json:"orderID"`
	OrderHash string `json:"orderHash,omitempty"`
}

type cancelResponse struct {
	Canceled    []string          `json:"canceled"`
	NotCanceled map[string]string `json:"not_canceled"`
}

type openOrderRaw struct {
	ID           string          `json:"id"`
	AssetID      string          `json:"asset_id"`
	Market       string          `json:"market"`
	Side         string          `json:"side"`
	OriginalSize number          `json:"original_size"`
	SizeMatched  number          `json:"size_matched"`
	Price        number          `json:"price"`
	Status       string          `json:"status"`
	CreatedAt    json.RawMessage `json:"created_at"`
}

// ordersResponse es la respuesta paginada de GET /orders.
type ordersResponse struct {
	Data       []openOrderRaw `json:"data"`
	NextCursor string         `json:"next_cursor"`
}

// --- Gamma API ---

// gammaMarket es un mercado tal como lo devuelve GET /markets de Gamma.
// outcomes, outcomePrices y clobTokenIds son arrays JSON codificados como string.
type gammaMarket struct {
	ID            string `json:"id"`
	ConditionID   string `json:"conditionId"`
	Question      string `json:"question"`
	Description   string `json:"description"`
	Slug          string `json:"slug"`
	EndDate       string `json:"endDate"`
	EndDateISO    string `json:"endDateIso"`
	Volume        number `json:"volume"`
	Liquidity     number `json:"liquidity"`
	Outcomes      string `json:"outcomes"`
	OutcomePrices string `json:"outcomePrices"`
	ClobTokenIDs  string `json:"clobTokenIds"`
	Active        bool   `json:"active"`
	Closed        bool   `json:"closed"`
}
