// Package account provides a client for the account/balance service.
package account

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
)

// Client defines the account service operations.
type Client interface {
	// Balance returns the user's current available balance. It is read
	// fresh on every call; the pipeline never caches it.
	Balance(ctx context.Context, userID string) (*Balance, error)
}

// Balance is the account service's balance response.
type Balance struct {
	Amount       float64 `json:"amount"`
	CurrencyUnit string  `json:"currencyUnit"`
}

// Option configures the account client.
type Option func(*httpClient)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewClient creates a new account service client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: "https://accounts.stockdepot.io",
		http:    &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) Balance(ctx context.Context, userID string) (*Balance, error) {
	reqURL := fmt.Sprintf("%s/v1/accounts/%s/balance", c.baseURL, url.PathEscape(userID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "account: create request")
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "account: request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "account: read response body")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("account: unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var bal Balance
	if err := json.Unmarshal(body, &bal); err != nil {
		return nil, eris.Wrap(err, "account: unmarshal balance")
	}

	return &bal, nil
}
