// Package orderapi provides a client for the bulk order service.
package orderapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
)

// Client defines the order service operations.
type Client interface {
	// CreateBulkOrder submits all items as a single order transaction.
	// The order service owns per-item debit atomicity; the response is
	// surfaced verbatim, including partial per-item rejections.
	CreateBulkOrder(ctx context.Context, req BulkOrderRequest) (*BulkOrderResponse, error)
}

// OrderItem is one line of a bulk order.
type OrderItem struct {
	Site  string  `json:"site"`
	ID    string  `json:"id"`
	Price float64 `json:"price"`
}

// BulkOrderRequest is the order submission payload.
type BulkOrderRequest struct {
	UserID string      `json:"userId"`
	Items  []OrderItem `json:"items"`
}

// ItemStatus is the order service's per-item outcome.
type ItemStatus struct {
	Site   string `json:"site"`
	ID     string `json:"id"`
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

// BulkOrderResponse is the order service's confirmation.
type BulkOrderResponse struct {
	OrderID       string       `json:"orderId"`
	PerItemStatus []ItemStatus `json:"perItemStatus"`
}

// Option configures the order client.
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

// NewClient creates a new order service client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: "https://orders.stockdepot.io",
		http:    &http.Client{Timeout: 60 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) CreateBulkOrder(ctx context.Context, req BulkOrderRequest) (*BulkOrderResponse, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, eris.Wrap(err, "orderapi: marshal request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/orders/bulk", bytes.NewReader(payload))
	if err != nil {
		return nil, eris.Wrap(err, "orderapi: create request")
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, eris.Wrap(err, "orderapi: request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "orderapi: read response body")
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, eris.Errorf("orderapi: unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var result BulkOrderResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, eris.Wrap(err, "orderapi: unmarshal response")
	}

	return &result, nil
}
