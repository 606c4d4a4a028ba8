// Package fetch retrieves the reservation page markup over HTTP.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Response body larger than this is treated as a server fault, not a
// calendar page.
const maxBodyBytes = 4 << 20

// Fetcher retrieves one page body per cycle.
// Params: context for cancellation and deadline.
// Returns: raw markup bytes or transport error.
type Fetcher interface {
	Fetch(ctx context.Context) ([]byte, error)
}

// HTTPFetcher fetches the reservation page with a plain HTTP client.
// Params: target URL, per-request timeout, and User-Agent header.
// Returns: Fetcher implementation over net/http.
type HTTPFetcher struct {
	url       string
	userAgent string
	client    *http.Client
}

// NewHTTPFetcher creates an HTTP fetcher.
// Params: page URL, request timeout, and User-Agent string; the
// reservation site rejects requests without a browser-looking agent.
// Returns: initialized fetcher.
func NewHTTPFetcher(url string, timeout time.Duration, userAgent string) *HTTPFetcher {
	return &HTTPFetcher{
		url:       url,
		userAgent: userAgent,
		client:    &http.Client{Timeout: timeout},
	}
}

// Fetch retrieves the page body.
// Params: context for cancellation.
// Returns: body bytes, or an error for transport failures and any
// non-200 status.
func (f *HTTPFetcher) Fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "ja,en-US;q=0.7,en;q=0.3")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch page: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read page body: %w", err)
	}
	if len(body) > maxBodyBytes {
		return nil, fmt.Errorf("read page body: exceeds %d bytes", maxBodyBytes)
	}
	return body, nil
}
