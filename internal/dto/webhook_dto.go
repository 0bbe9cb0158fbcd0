package dto

// FluxoPayWebhook is the gateway's payment-status callback. ExternalID
// carries back the "order_<id>" tag set at checkout time.
type FluxoPayWebhook struct {
	Status     string  `json:"status"`
	ExternalID string  `json:"external_id"`
	PaymentID  string  `json:"id"`
	Amount     float64 `json:"amount"`
}

// PixWebhook is the AxionPay transaction event.
type PixWebhook struct {
	Type        string `json:"type"`
	Transaction struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	} `json:"transaction"`
	Metadata struct {
		OrderID string `json:"orderId"`
	} `json:"metadata"`
}
