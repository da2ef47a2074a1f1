package polymarket_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/polyclob/internal/domain"
)

func testSubmission() domain.OrderSubmission {
	return domain.OrderSubmission{
		Order: domain.OrderMessage{
			Salt:          "123456789",
			Maker:         testCreds.Address,
			Signer:        testCreds.Address,
			Taker:         "0x0000000000000000000000000000000000000000",
			TokenID:       "tok-1",
			MakerAmount:   "10000000",
			TakerAmount:   "5500000",
			Expiration:    "0",
			Nonce:         "0",
			FeeRateBps:    "0",
			Side:          0,
			SignatureType: 0,
		},
		Signature: "0xsig",
		Owner:     testCreds.Address,
		OrderType: domain.OrderTypeGTC,
	}
}

func TestPostOrder_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/order", r.URL.Path)
		assert.Equal(t, "key-1", r.Header.Get("POLY_API_KEY"))
		assert.Equal(t, "pass", r.Header.Get("POLY_PASSPHRASE"))

		body, _ := io.ReadAll(r.Body)
		var got map[string]any
		require.NoError(t, json.Unmarshal(body, &got))
		assert.Equal(t, "GTC", got["orderType"])
		assert.Equal(t, testCreds.Address, got["owner"])
		order := got["order"].(map[string]any)
		assert.EqualValues(t, 123456789, order["salt"], "salt va como número")
		assert.Equal(t, "10000000", order["makerAmount"])
		assert.Equal(t, "0xsig", got["signature"], "la firma va fuera de order")
		assert.NotContains(t, order, "signature")
		assert.EqualValues(t, 0, order["side"])

		w.Write([]byte(`{"success":true,"orderID":"0xorder","orderHash":"0xhash","status":"live"}`))
	}))
	defer srv.Close()

	ack, err := newTestClient(srv, nil).PostOrder(context.Background(), testCreds, testSubmission())
	require.NoError(t, err)
	assert.Equal(t, domain.OrderAck{OrderID: "0xorder", OrderHash: "0xhash", Status: "live"}, ack)
}

func TestPostOrder_RejectedIsNotRetried(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"errorMsg":"not enough balance / allowance"}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv, nil).PostOrder(context.Background(), testCreds, testSubmission())

	var subErr *domain.OrderSubmissionError
	require.ErrorAs(t, err, &subErr)
	assert.Equal(t, http.StatusBadRequest, subErr.StatusCode)
	assert.Equal(t, "not enough balance / allowance", subErr.Message)
	assert.ErrorIs(t, err, domain.ErrOrderSubmission)
	assert.Equal(t, 1, calls)
}

func TestPostOrder_ServerErrorIsNotRetried(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("boom"))
	}))
	defer srv.Close()

	_, err := newTestClient(srv, nil).PostOrder(context.Background(), testCreds, testSubmission())
	assert.ErrorIs(t, err, domain.ErrOrderSubmission)
	assert.ErrorContains(t, err, "boom")
	assert.Equal(t, 1, calls)
}

func TestPostOrder_SuccessFalse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":false,"errorMsg":"INVALID_ORDER_MIN_TICK_SIZE"}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv, nil).PostOrder(context.Background(), testCreds, testSubmission())
	var subErr *domain.OrderSubmissionError
	require.ErrorAs(t, err, &subErr)
	assert.Equal(t, http.StatusOK, subErr.StatusCode)
	assert.Equal(t, "INVALID_ORDER_MIN_TICK_SIZE", subErr.Message)
}

func TestPostOrder_AcceptedWithoutSuccessField(t *testing.T) {
	cases := map[string]struct {
		body   string
		wantID string
	}{
		"orderID":  {body: `{"orderID":"0xa","status":"live"}`, wantID: "0xa"},
		"order_id": {body: `{"order_id":"0xb"}`, wantID: "0xb"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			ack, err := newTestClient(srv, nil).PostOrder(context.Background(), testCreds, testSubmission())
			require.NoError(t, err)
			assert.Equal(t, tc.wantID, ack.OrderID)
		})
	}
}

func TestPostOrder_ErrorMsgWithoutSuccessIsRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"orderID":"0xa","errorMsg":"order couldn't be fully filled"}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv, nil).PostOrder(context.Background(), testCreds, testSubmission())
	var subErr *domain.OrderSubmissionError
	require.ErrorAs(t, err, &subErr)
	assert.Equal(t, "order couldn't be fully filled", subErr.Message)
}

func TestPostOrder_MissingOrderID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":true,"status":"live"}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv, nil).PostOrder(context.Background(), testCreds, testSubmission())
	assert.ErrorIs(t, err, domain.ErrOrderSubmission)
	assert.ErrorContains(t, err, "no order id")
}

func TestPostOrder_WithoutCredsSendsNoL2Headers(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("POLY_API_KEY"))
		w.Write([]byte(`{"success":true,"orderID":"0xo","status":"matched"}`))
	}))
	defer srv.Close()

	ack, err := newTestClient(srv, nil).PostOrder(context.Background(), nil, testSubmission())
	require.NoError(t, err)
	assert.Equal(t, "0xo", ack.OrderID)
}

func TestPostOrder_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	_, err := newTestClient(srv, nil).PostOrder(context.Background(), testCreds, testSubmission())
	var subErr *domain.OrderSubmissionError
	require.ErrorAs(t, err, &subErr)
	assert.Zero(t, subErr.StatusCode)
}

func TestDeleteOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/order", r.URL.Path)

		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "0xorder", req["orderID"])
		assert.Equal(t, "0xhash", req["orderHash"])

		w.Write([]byte(`{"canceled":["0xorder"],"not_canceled":{}}`))
	}))
	defer srv.Close()

	err := newTestClient(srv, nil).DeleteOrder(context.Background(), testCreds, "0xorder", "0xhash")
	assert.NoError(t, err)
}

func TestDeleteOrder_NotCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"canceled":[],"not_canceled":{"0xorder":"order already matched"}}`))
	}))
	defer srv.Close()

	err := newTestClient(srv, nil).DeleteOrder(context.Background(), testCreds, "0xorder", "")
	assert.ErrorContains(t, err, "order already matched")
}
