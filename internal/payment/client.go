// Package payment holds the gateway clients used to create and check
// PIX charges.
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// httpDoer is the surface the clients need from *http.Client.
type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

type retryClient struct {
	client    httpDoer
	retries   int
	onTimeout func(url string)
}

func newRetryClient(timeout time.Duration, retries int) *retryClient {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	if retries <= 0 {
		retries = 3
	}
	return &retryClient{
		client:  &http.Client{Timeout: timeout},
		retries: retries,
	}
}

// doJSON sends a JSON request and decodes the JSON response into out.
// Network errors and 5xx responses are retried with a growing pause;
// 4xx responses are final.
func (c *retryClient) doJSON(ctx context.Context, method, url string, headers map[string]string, payload, out any) error {
	var body []byte
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("payment: encode request: %w", err)
		}
	}

	var lastErr error
	for attempt := 0; attempt < c.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt+1) * 300 * time.Millisecond):
			}
		}

		req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("payment: build request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		for k, v := range headers {
			req.Header.Set(k, v)
		}

		resp, err := c.client.Do(req)
		if err != nil {
			if c.onTimeout != nil {
				c.onTimeout(url)
			}
			lastErr = err
			slog.Warn("gateway request failed", "url", url, "attempt", attempt+1, "error", err)
			continue
		}

		if resp.StatusCode >= 500 {
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			lastErr = fmt.Errorf("gateway returned status %d", resp.StatusCode)
			slog.Warn("gateway server error", "url", url, "status", resp.StatusCode, "attempt", attempt+1)
			continue
		}

		if resp.StatusCode >= 400 {
			snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			resp.Body.Close()
			return fmt.Errorf("gateway returned status %d: %s", resp.StatusCode, snippet)
		}

		if out != nil {
			if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
				resp.Body.Close()
				return fmt.Errorf("payment: decode response: %w", err)
			}
		}
		resp.Body.Close()
		return nil
	}
	return fmt.Errorf("payment: %s %s exhausted retries: %w", method, url, lastErr)
}
