package payment

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
)

type AxionPayClient struct {
	baseURL string
	apiKey  string
	payTag  string
	http    *retryClient
}

func NewAxionPayClient(baseURL, apiKey, payTag string, timeout time.Duration, retries int) *AxionPayClient {
	return &AxionPayClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		payTag:  payTag,
		http:    newRetryClient(timeout, retries),
	}
}

// OnTimeout installs a hook invoked once per request attempt lost to a
// network error.
func (c *AxionPayClient) OnTimeout(fn func(url string)) {
	c.http.onTimeout = fn
}

type axionCustomer struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type axionPixRequest struct {
	Amount   float64           `json:"amount"`
	Customer axionCustomer     `json:"customer"`
	Metadata map[string]string `json:"metadata"`
}

type axionPixResponse struct {
	Transaction struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	} `json:"transaction"`
	Metadata struct {
		Pix struct {
			CopiaColar string `json:"copia_colar"`
		} `json:"pix"`
	} `json:"metadata"`
}

// CreatePix opens a PIX charge. An idempotency key is minted per call
// so gateway-side retries cannot double-charge.
func (c *AxionPayClient) CreatePix(ctx context.Context, orderID, customerName, customerEmail string, amount float64) (Charge, error) {
	headers := map[string]string{
		"Authorization":   "Bearer " + c.apiKey,
		"pay-tag":         c.payTag,
		"Idempotency-Key": uuid.NewString(),
	}
	req := axionPixRequest{
		Amount:   amount,
		Customer: axionCustomer{Name: customerName, Email: customerEmail},
		Metadata: map[string]string{"orderId": orderID},
	}
	var resp axionPixResponse
	if err := c.http.doJSON(ctx, http.MethodPost, c.baseURL+"/payments/pix", headers, req, &resp); err != nil {
		return Charge{}, err
	}
	if resp.Transaction.ID == "" {
		return Charge{}, fmt.Errorf("axionpay: pix response missing transaction id")
	}
	return Charge{PaymentID: resp.Transaction.ID, PixCode: resp.Metadata.Pix.CopiaColar}, nil
}
