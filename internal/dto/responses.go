package dto

type ErrorResponse struct {
	Error   bool   `json:"error"`
	Message string `json:"message"`
}

type HealthResponse struct {
	Status        string `json:"status"`
	Timestamp     string `json:"timestamp"`
	DB            string `json:"db"`
	ProviderCount int    `json:"provider_count"`
}

// MetricsResponse is the operator snapshot served on the admin surface.
type MetricsResponse struct {
	Orders          int `json:"orders"`
	PendingOrders   int `json:"pending_orders"`
	Users           int `json:"users"`
	VIPUsers        int `json:"vip_users"`
	RecentLogs      int `json:"recent_logs"`
	ProductsInStock int `json:"products_in_stock"`
	FetchTimeouts   int `json:"fetch_timeouts"`
}
