// Package stockapi provides a client for the stock-media metadata and
// provider catalog API.
package stockapi

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

// Client defines the metadata service operations.
type Client interface {
	// Lookup fetches metadata for a single asset. Failures carry an
	// *APIError with the service's classification where possible.
	Lookup(ctx context.Context, site, id string) (*Asset, error)
	// Providers fetches the current provider catalog.
	Providers(ctx context.Context) (map[string]ProviderInfo, error)
}

// Asset is the provider-reported metadata for one stock item.
type Asset struct {
	Title        string  `json:"title"`
	ThumbnailURL string  `json:"thumbnailUrl"`
	Price        float64 `json:"price"`
	CurrencyUnit string  `json:"currencyUnit"`
	Available    bool    `json:"available"`
}

// ProviderInfo is one entry of the catalog response.
type ProviderInfo struct {
	Active       bool   `json:"active"`
	URLPattern   string `json:"urlPattern"`
	IDPattern    string `json:"idPattern"`
	CurrencyUnit string `json:"currencyUnit"`
}

// Error codes returned by the metadata service.
const (
	CodeNotFound    = "not_found"
	CodeRateLimited = "rate_limited"
	CodeUnsupported = "unsupported_format"
	CodeUnavailable = "provider_unavailable"
)

// APIError is a classified failure from the metadata service.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("stockapi: %s (status %d): %s", e.Code, e.StatusCode, e.Message)
}

// Option configures the stockapi client.
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

// NewClient creates a new metadata service client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: "https://api.stockdepot.io",
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Lookup performs a single metadata fetch. It never retries: the caller
// decides whether a failed item gets another attempt.
func (c *httpClient) Lookup(ctx context.Context, site, id string) (*Asset, error) {
	reqURL := fmt.Sprintf("%s/v1/assets/%s/%s", c.baseURL, url.PathEscape(site), url.PathEscape(id))

	body, status, err := c.get(ctx, reqURL)
	if err != nil {
		return nil, err
	}

	if apiErr := classifyStatus(status, body); apiErr != nil {
		return nil, apiErr
	}

	var asset Asset
	if err := json.Unmarshal(body, &asset); err != nil {
		return nil, eris.Wrap(err, "stockapi: unmarshal asset")
	}

	return &asset, nil
}

func (c *httpClient) Providers(ctx context.Context) (map[string]ProviderInfo, error) {
	body, status, err := c.get(ctx, c.baseURL+"/v1/providers")
	if err != nil {
		return nil, err
	}

	if status != http.StatusOK {
		return nil, eris.Errorf("stockapi: providers unexpected status %d: %s", status, string(body))
	}

	var providers map[string]ProviderInfo
	if err := json.Unmarshal(body, &providers); err != nil {
		return nil, eris.Wrap(err, "stockapi: unmarshal providers")
	}

	return providers, nil
}

func (c *httpClient) get(ctx context.Context, reqURL string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, 0, eris.Wrap(err, "stockapi: create request")
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, eris.Wrap(err, "stockapi: request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, eris.Wrap(err, "stockapi: read response body")
	}

	return body, resp.StatusCode, nil
}

// classifyStatus maps a non-200 lookup status to an APIError.
func classifyStatus(status int, body []byte) *APIError {
	if status == http.StatusOK {
		return nil
	}

	code := CodeUnavailable
	switch {
	case status == http.StatusNotFound:
		code = CodeNotFound
	case status == http.StatusTooManyRequests:
		code = CodeRateLimited
	case status == http.StatusUnsupportedMediaType || status == http.StatusUnprocessableEntity:
		code = CodeUnsupported
	}

	// The service reports a code in the error body when it has one.
	var payload struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	msg := string(body)
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Code != "" {
			code = payload.Code
		}
		if payload.Message != "" {
			msg = payload.Message
		}
	}

	return &APIError{StatusCode: status, Code: code, Message: msg}
}
