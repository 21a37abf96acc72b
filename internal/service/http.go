package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/vzahanych/weather-rag-app/internal/metrics"
)

const DefaultTimeout = 10 * time.Second

func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
	}
}

// getJSON performs a single GET (no retries) and decodes the body into out.
func getJSON(ctx context.Context, client *http.Client, provider, endpoint, rawURL string, out interface{}) error {
	start := time.Now()
	status := "error"
	defer func() {
		metrics.UpstreamCallsTotal.WithLabelValues(provider, endpoint, status).Inc()
		metrics.UpstreamLatency.WithLabelValues(provider, endpoint).Observe(time.Since(start).Seconds())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		status = strconv.Itoa(resp.StatusCode)
		return fmt.Errorf("API request failed with status: %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		status = "decode_error"
		return fmt.Errorf("decode %s response: %w", endpoint, err)
	}

	status = "ok"
	return nil
}
