package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Store
	DBPath         string
	ErrorLogPath   string
	CardsPath      string
	CardsProductID string

	// Telegram
	ControlToken string
	SearchToken  string
	StoreToken   string
	AdminChatID  string

	// Payment providers
	PaymentProvider string // "fluxopay" or "axionpay"
	FluxoPayAPI     string
	FluxoToken      string
	AxionPayURL     string
	AxionPayKey     string
	AxionPayTag     string
	CallbackURL     string
	ProvidersPath   string

	// Search API
	CogAPIURL   string
	CogAPIKey   string
	AllowedURLs []string

	// Outbound HTTP
	FetchTimeout time.Duration
	FetchRetries int

	// Server
	Port       string
	AdminToken string
}

func Load() *Config {
	return &Config{
		DBPath:         getEnv("DB_PATH", "axion_core.json"),
		ErrorLogPath:   getEnv("DB_ERROR_LOG", "db_errors.log"),
		CardsPath:      getEnv("CARDS_INVENTORY_PATH", "cards_inventory.txt"),
		CardsProductID: getEnv("CARDS_PRODUCT_ID", ""),

		ControlToken: getEnv("TOKEN_CONTROL", ""),
		SearchToken:  getEnv("TOKEN_SEARCH", ""),
		StoreToken:   getEnv("TOKEN_STORE", ""),
		AdminChatID:  getEnv("ADMIN_CHAT_ID", ""),

		PaymentProvider: strings.ToLower(getEnv("PAYMENT_PROVIDER", "fluxopay")),
		FluxoPayAPI:     getEnv("FLUXOPAY_API", "https://api.fluxopay.com/v1"),
		FluxoToken:      getEnv("FLUXO_TOKEN", ""),
		AxionPayURL:     getEnv("AXION_PAY_URL", "http://localhost:3060"),
		AxionPayKey:     getEnv("AXION_PAY_KEY", ""),
		AxionPayTag:     getEnv("AXION_PAY_TAG", ""),
		CallbackURL:     getEnv("CALLBACK_URL", ""),
		ProvidersPath:   getEnv("PROVIDERS_CONFIG_PATH", "providers.json"),

		CogAPIURL:   getEnv("COG_API_URL", ""),
		CogAPIKey:   getEnv("COG_API_KEY", ""),
		AllowedURLs: parseCSV(getEnv("ALLOW_URLS", "")),

		FetchTimeout: time.Duration(parseInt(getEnv("FETCH_TIMEOUT_MS", "20000"))) * time.Millisecond,
		FetchRetries: parseInt(getEnv("FETCH_RETRIES", "3")),

		Port:       getEnv("PORT", "3000"),
		AdminToken: getEnv("ADMIN_TOKEN", ""),
	}
}

// RequireEnv exits the process when any of the named variables is
// unset. Called from main before anything else starts.
func RequireEnv(keys ...string) {
	var missing []string
	for _, k := range keys {
		if os.Getenv(k) == "" {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		slog.Error("missing required environment variables", "keys", strings.Join(missing, ", "))
		os.Exit(1)
	}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func parseInt(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

func parseCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
