package payment

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// Charge is what the store flow needs back from a gateway: the payment
// id to correlate the webhook, plus whatever the buyer can act on.
type Charge struct {
	PaymentID  string
	PixCode    string
	PaymentURL string
}

type FluxoPayClient struct {
	baseURL string
	token   string
	http    *retryClient
}

func NewFluxoPayClient(baseURL, token string, timeout time.Duration, retries int) *FluxoPayClient {
	return &FluxoPayClient{
		baseURL: baseURL,
		token:   token,
		http:    newRetryClient(timeout, retries),
	}
}

// OnTimeout installs a hook invoked once per request attempt lost to a
// network error, so the caller can record it where the metrics surface
// reads.
func (c *FluxoPayClient) OnTimeout(fn func(url string)) {
	c.http.onTimeout = fn
}

type fluxoCheckoutRequest struct {
	Amount      float64 `json:"amount"`
	ExternalID  string  `json:"external_id"`
	Description string  `json:"description"`
	CallbackURL string  `json:"callback_url,omitempty"`
}

type fluxoCheckoutResponse struct {
	ID         string `json:"id"`
	Status     string `json:"status"`
	PixCode    string `json:"pix_code"`
	PaymentURL string `json:"payment_url"`
}

func (c *FluxoPayClient) headers() map[string]string {
	return map[string]string{"Authorization": "Bearer " + c.token}
}

// CreateCheckout opens a charge for an order. The order id travels as
// external_id so the webhook can be matched back.
func (c *FluxoPayClient) CreateCheckout(ctx context.Context, orderID, description string, amount float64, callbackURL string) (Charge, error) {
	req := fluxoCheckoutRequest{
		Amount:      amount,
		ExternalID:  "order_" + orderID,
		Description: description,
		CallbackURL: callbackURL,
	}
	var resp fluxoCheckoutResponse
	if err := c.http.doJSON(ctx, http.MethodPost, c.baseURL+"/checkout", c.headers(), req, &resp); err != nil {
		return Charge{}, err
	}
	if resp.ID == "" {
		return Charge{}, fmt.Errorf("fluxopay: checkout response missing id")
	}
	return Charge{PaymentID: resp.ID, PixCode: resp.PixCode, PaymentURL: resp.PaymentURL}, nil
}

// CheckStatus polls a checkout's gateway-side status.
func (c *FluxoPayClient) CheckStatus(ctx context.Context, paymentID string) (string, error) {
	var resp fluxoCheckoutResponse
	if err := c.http.doJSON(ctx, http.MethodGet, c.baseURL+"/checkout/"+paymentID, c.headers(), nil, &resp); err != nil {
		return "", err
	}
	return resp.Status, nil
}
