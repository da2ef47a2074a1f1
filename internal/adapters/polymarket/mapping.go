package polymarket

import (
	"encoding/json"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/alejandrodnm/polyclob/internal/domain"
)

// defaultOutcomePrice se usa cuando Gamma no trae precio para un outcome.
const defaultOutcomePrice = 0.5

// mapGammaMarkets convierte los DTOs de Gamma a domain.Market.
func mapGammaMarkets(raw []gammaMarket) []domain.Market {
	markets := make([]domain.Market, 0, len(raw))
	for _, r := range raw {
		markets = append(markets, mapGammaMarket(r))
	}
	return markets
}

// mapGammaMarket convierte un gammaMarket. Los outcomes Yes/No se normalizan a
// YES/NO; el resto conserva su nombre.
func mapGammaMarket(r gammaMarket) domain.Market {
	m := domain.Market{
		ID:          r.ID,
		ConditionID: r.ConditionID,
		Question:    r.Question,
		Description: r.Description,
		Slug:        r.Slug,
		Volume:      r.Volume.InexactFloat64(),
		Liquidity:   r.Liquidity.InexactFloat64(),
		Active:      r.Active,
		Closed:      r.Closed,
		EndDate:     parseEndDate(r.EndDate, r.EndDateISO),
	}

	names := decodeStringList(r.Outcomes)
	prices := decodeStringList(r.OutcomePrices)
	tokens := decodeStringList(r.ClobTokenIDs)

	for i, name := range names {
		o := domain.Outcome{Name: outcomeName(name), Price: defaultOutcomePrice}
		if i < len(prices) {
			if p, err := decimal.NewFromString(prices[i]); err == nil {
				o.Price = p.InexactFloat64()
			}
		}
		if i < len(tokens) {
			o.TokenID = tokens[i]
		}
		m.Outcomes = append(m.Outcomes, o)
	}
	return m
}

func outcomeName(name string) string {
	switch {
	case strings.EqualFold(name, domain.OutcomeYes):
		return domain.OutcomeYes
	case strings.EqualFold(name, domain.OutcomeNo):
		return domain.OutcomeNo
	}
	return name
}

// decodeStringList decodifica un array JSON embebido en un string.
// Acepta elementos string o número; un valor inválido devuelve nil.
func decodeStringList(s string) []string {
	if s == "" {
		return nil
	}
	var raw []json.RawMessage
	if err := json.Unmarshal([]byte(s), &raw); err != nil {
		slog.Debug("gamma list decode failed", "value", s, "err", err)
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		var str string
		if err := json.Unmarshal(r, &str); err == nil {
			out = append(out, str)
			continue
		}
		out = append(out, strings.TrimSpace(string(r)))
	}
	return out
}

// parseEndDate prueba los formatos que usa Polymarket, en orden.
func parseEndDate(values ...string) time.Time {
	for _, v := range values {
		if v == "" {
			continue
		}
		for _, layout := range []string{
			time.RFC3339,
			"2006-01-02T15:04:05.000Z",
			"2006-01-02",
		} {
			if t, err := time.Parse(layout, v); err == nil {
				return t.UTC()
			}
		}
	}
	return time.Time{}
}

// mapOrderBook convierte la respuesta de /book.
func mapOrderBook(tokenID string, r orderBookResponse) domain.OrderBook {
	if r.AssetID != "" {
		tokenID = r.AssetID
	}
	return domain.OrderBook{
		TokenID: tokenID,
		Bids:    mapBookEntries(r.Bids, false),
		Asks:    mapBookEntries(r.Asks, true),
	}
}

// mapBookEntries convierte entries raw a domain.BookEntry y los ordena.
// ascending=true → menor a mayor (asks), ascending=false → mayor a menor (bids).
func mapBookEntries(raw []bookEntryRaw, ascending bool) []domain.BookEntry {
	entries := make([]domain.BookEntry, 0, len(raw))
	for _, r := range raw {
		price, _ := strconv.ParseFloat(r.Price, 64)
		size, _ := strconv.ParseFloat(r.Size, 64)
		if price <= 0 || size <= 0 {
			continue
		}
		entries = append(entries, domain.BookEntry{Price: price, Size: size})
	}

	sort.Slice(entries, func(i, j int) bool {
		if ascending {
			return entries[i].Price < entries[j].Price
		}
		return entries[i].Price > entries[j].Price
	})

	return entries
}

// mapMarketConfig devuelve valores en cero si la API no los trae; el cache
// del order client los reemplaza por los defaults.
func mapMarketConfig(r marketConfigResponse) domain.MarketConfig {
	return domain.MarketConfig{
		TickSize: r.MinimumTickSize.InexactFloat64(),
		MinSize:  r.MinimumOrderSize.InexactFloat64(),
	}
}

func mapOpenOrders(raw []openOrderRaw) []domain.OpenOrder {
	orders := make([]domain.OpenOrder, 0, len(raw))
	for _, r := range raw {
		o := domain.OpenOrder{
			ID:           r.ID,
			TokenID:      r.AssetID,
			Market:       r.Market,
			Side:         domain.Side(strings.ToUpper(r.Side)),
			Price:        r.Price.InexactFloat64(),
			OriginalSize: r.OriginalSize.InexactFloat64(),
			SizeMatched:  r.SizeMatched.InexactFloat64(),
			Status:       r.Status,
		}
		o.CreatedAt = parseCreatedAt(r.CreatedAt)
		orders = append(orders, o)
	}
	return orders
}

// parseCreatedAt acepta unix seconds (número o string) o RFC 3339.
func parseCreatedAt(raw json.RawMessage) time.Time {
	s := strings.Trim(string(raw), `"`)
	if ts, err := strconv.ParseInt(s, 10, 64); err == nil && ts > 0 {
		return time.Unix(ts, 0).UTC()
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC()
	}
	return time.Time{}
}

// toOrderRequest arma el body de POST /order a partir de la submission.
func toOrderRequest(sub domain.OrderSubmission) orderRequest {
	o := sub.Order
	return orderRequest{
		Order: orderBody{
			Salt:          json.Number(o.Salt),
			Maker:         o.Maker,
			Signer:        o.Signer,
			Taker:         o.Taker,
			TokenID:       o.TokenID,
			MakerAmount:   o.MakerAmount,
			TakerAmount:   o.TakerAmount,
			Expiration:    o.Expiration,
			Nonce:         o.Nonce,
			FeeRateBps:    o.FeeRateBps,
			Side:          o.Side,
			SignatureType: o.SignatureType,
		},
		Signature: sub.Signature,
		Owner:     sub.Owner,
		OrderType: string(sub.OrderType),
		Funder:    sub.Funder,
	}
}
