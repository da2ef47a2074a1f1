package polymarket

// trading.go: envío y cancelación de órdenes firmadas.
//
// POST /order sale una sola vez: reintentar una orden podría duplicarla.
// DELETE /order es idempotente y usa el camino con retries.

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/alejandrodnm/polyclob/internal/domain"
)

const orderPath = "/order"

// PostOrder envía una orden firmada. Cualquier respuesta que no sea un éxito
// vuelve como *domain.OrderSubmissionError.
func (c *Client) PostOrder(ctx context.Context, creds *domain.APICredentials, sub domain.OrderSubmission) (domain.OrderAck, error) {
	body, err := json.Marshal(toOrderRequest(sub))
	if err != nil {
		return domain.OrderAck{}, &domain.OrderSubmissionError{Message: "marshal order: " + err.Error()}
	}

	headers, err := l2Headers(creds, http.MethodPost, orderPath, string(body), time.Now())
	if err != nil {
		return domain.OrderAck{}, &domain.OrderSubmissionError{Message: err.Error()}
	}

	status, respBody, err := c.sendOnce(ctx, c.orderLimiter, http.MethodPost, c.clobBase+orderPath, body, headers)
	if err != nil {
		return domain.OrderAck{}, &domain.OrderSubmissionError{StatusCode: status, Message: err.Error()}
	}

	var resp orderResponse
	decodeErr := json.Unmarshal(respBody, &resp)

	if status < 200 || status >= 300 {
		msg := strings.TrimSpace(string(respBody))
		if decodeErr == nil && resp.ErrorMsg != "" {
			msg = resp.ErrorMsg
		}
		slog.Warn("order rejected", "status", status, "token_id", sub.Order.TokenID, "msg", msg)
		return domain.OrderAck{}, &domain.OrderSubmissionError{StatusCode: status, Message: msg}
	}
	if decodeErr != nil {
		return domain.OrderAck{}, &domain.OrderSubmissionError{StatusCode: status, Message: "decode response: " + decodeErr.Error()}
	}
	if resp.rejected() {
		msg := resp.ErrorMsg
		if msg == "" {
			msg = "exchange did not accept the order"
		}
		slog.Warn("order not accepted", "token_id", sub.Order.TokenID, "msg", msg)
		return domain.OrderAck{}, &domain.OrderSubmissionError{StatusCode: status, Message: msg}
	}
	orderID := resp.id()
	if orderID == "" {
		return domain.OrderAck{}, &domain.OrderSubmissionError{StatusCode: status, Message: "response carries no order id"}
	}

	slog.Info("order accepted", "order_id", orderID, "status", resp.Status)
	return domain.OrderAck{
		OrderID:   orderID,
		OrderHash: resp.OrderHash,
		Status:    resp.Status,
	}, nil
}

// DeleteOrder cancela una orden abierta. Si el exchange la reporta en
// not_canceled se devuelve el motivo como error.
func (c *Client) DeleteOrder(ctx context.Context, creds *domain.APICredentials, orderID, orderHash string) error {
	var resp cancelResponse
	req := cancelRequest{OrderID: orderID, OrderHash: orderHash}
	if err := c.doL2(ctx, creds, http.MethodDelete, orderPath, "", req, &resp); err != nil {
		return fmt.Errorf("trading.DeleteOrder: %w", err)
	}
	if reason, ok := resp.NotCanceled[orderID]; ok {
		return fmt.Errorf("trading.DeleteOrder: %s not canceled: %s", orderID, reason)
	}
	slog.Info("order canceled", "order_id", orderID)
	return nil
}
