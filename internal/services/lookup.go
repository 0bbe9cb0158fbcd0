package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

// LookupClient queries the upstream people-search API the search bot
// fronts. Timed-out attempts are reported through the OnTimeout hook
// so the metrics surface can count them.
type LookupClient struct {
	baseURL   string
	apiKey    string
	client    *http.Client
	retries   int
	onTimeout func(url string)
}

func NewLookupClient(baseURL, apiKey string, timeout time.Duration, retries int) *LookupClient {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	if retries <= 0 {
		retries = 3
	}
	return &LookupClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
		retries: retries,
	}
}

// OnTimeout installs a hook invoked once per request attempt lost to
// a network error.
func (c *LookupClient) OnTimeout(fn func(url string)) {
	c.onTimeout = fn
}

type lookupResponse struct {
	Result string `json:"result"`
	Error  string `json:"error"`
}

// Search runs one typed query ("cpf", "nome", "telefone", ...) and
// returns the upstream's formatted result text.
func (c *LookupClient) Search(ctx context.Context, kind, query string) (string, error) {
	endpoint := fmt.Sprintf("%s/search/%s?q=%s", c.baseURL, url.PathEscape(kind), url.QueryEscape(query))

	var lastErr error
	for attempt := 0; attempt < c.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(time.Duration(attempt+1) * 300 * time.Millisecond):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return "", fmt.Errorf("lookup: build request: %w", err)
		}
		req.Header.Set("X-API-Key", c.apiKey)

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = err
			if c.onTimeout != nil {
				c.onTimeout(endpoint)
			}
			slog.Warn("lookup request failed", "kind", kind, "attempt", attempt+1, "error", err)
			continue
		}

		if resp.StatusCode >= 500 {
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			lastErr = fmt.Errorf("lookup upstream returned status %d", resp.StatusCode)
			continue
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return "", fmt.Errorf("lookup upstream returned status %d", resp.StatusCode)
		}

		var body lookupResponse
		err = json.NewDecoder(resp.Body).Decode(&body)
		resp.Body.Close()
		if err != nil {
			return "", fmt.Errorf("lookup: decode response: %w", err)
		}
		if body.Error != "" {
			return "", fmt.Errorf("lookup upstream error: %s", body.Error)
		}
		return body.Result, nil
	}
	return "", fmt.Errorf("lookup: %s exhausted retries: %w", kind, lastErr)
}
