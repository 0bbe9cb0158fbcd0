package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFluxoPayCreateCheckout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/checkout", r.URL.Path)
		require.Equal(t, "Bearer fluxo-secret", r.Header.Get("Authorization"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "order_abc", body["external_id"])
		require.Equal(t, 49.9, body["amount"])

		json.NewEncoder(w).Encode(map[string]string{
			"id":          "pay-1",
			"pix_code":    "00020126pix",
			"payment_url": "https://pay.example/p/pay-1",
		})
	}))
	defer srv.Close()

	c := NewFluxoPayClient(srv.URL, "fluxo-secret", time.Second, 1)
	charge, err := c.CreateCheckout(context.Background(), "abc", "Cards pack", 49.9, "https://cb.example/webhook")
	require.NoError(t, err)
	require.Equal(t, Charge{PaymentID: "pay-1", PixCode: "00020126pix", PaymentURL: "https://pay.example/p/pay-1"}, charge)
}

func TestFluxoPayCheckStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/checkout/pay-1", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]string{"id": "pay-1", "status": "paid"})
	}))
	defer srv.Close()

	c := NewFluxoPayClient(srv.URL, "tok", time.Second, 1)
	status, err := c.CheckStatus(context.Background(), "pay-1")
	require.NoError(t, err)
	require.Equal(t, "paid", status)
}

func TestRetryOnServerError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"id": "pay-2"})
	}))
	defer srv.Close()

	c := NewFluxoPayClient(srv.URL, "tok", time.Second, 3)
	charge, err := c.CreateCheckout(context.Background(), "x", "d", 1, "")
	require.NoError(t, err)
	require.Equal(t, "pay-2", charge.PaymentID)
	require.Equal(t, int32(3), calls.Load())
}

func TestClientErrorIsFinal(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"error":"amount too low"}`))
	}))
	defer srv.Close()

	c := NewFluxoPayClient(srv.URL, "tok", time.Second, 3)
	_, err := c.CreateCheckout(context.Background(), "x", "d", 0.01, "")
	require.Error(t, err)
	require.Contains(t, err.Error(), "422")
	require.Equal(t, int32(1), calls.Load())
}

func TestExhaustedRetries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewFluxoPayClient(srv.URL, "tok", time.Second, 2)
	_, err := c.CheckStatus(context.Background(), "pay-x")
	require.Error(t, err)
	require.Contains(t, err.Error(), "exhausted retries")
}

func TestOnTimeoutHookFiresPerLostAttempt(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // every attempt now fails at the network layer

	c := NewFluxoPayClient(srv.URL, "tok", time.Second, 2)
	var recorded []string
	c.OnTimeout(func(url string) { recorded = append(recorded, url) })

	_, err := c.CheckStatus(context.Background(), "pay-x")
	require.Error(t, err)
	require.Len(t, recorded, 2)
	require.Contains(t, recorded[0], srv.URL)
}

func TestAxionPayCreatePix(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/payments/pix", r.URL.Path)
		require.Equal(t, "Bearer axion-key", r.Header.Get("Authorization"))
		require.Equal(t, "shop-tag", r.Header.Get("pay-tag"))
		require.NotEmpty(t, r.Header.Get("Idempotency-Key"))

		var body axionPixRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "ord-9", body.Metadata["orderId"])

		w.Write([]byte(`{"transaction":{"id":"tx-7","status":"waiting_payment"},"metadata":{"pix":{"copia_colar":"000201pixcopy"}}}`))
	}))
	defer srv.Close()

	c := NewAxionPayClient(srv.URL, "axion-key", "shop-tag", time.Second, 1)
	charge, err := c.CreatePix(context.Background(), "ord-9", "Buyer", "buyer@example.com", 25)
	require.NoError(t, err)
	require.Equal(t, "tx-7", charge.PaymentID)
	require.Equal(t, "000201pixcopy", charge.PixCode)
}

func TestAxionPayMissingTransactionID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"transaction":{},"metadata":{}}`))
	}))
	defer srv.Close()

	c := NewAxionPayClient(srv.URL, "k", "t", time.Second, 1)
	_, err := c.CreatePix(context.Background(), "o", "n", "e", 1)
	require.Error(t, err)
}
