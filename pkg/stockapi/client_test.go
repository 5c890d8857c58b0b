package stockapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantErr  string
		wantCode string
		wantAsset *Asset
	}{
		{
			name:   "success",
			status: http.StatusOK,
			body:   `{"title": "Beach sunset", "thumbnailUrl": "https://cdn.example/1.jpg", "price": 12.5, "currencyUnit": "USD", "available": true}`,
			wantAsset: &Asset{
				Title:        "Beach sunset",
				ThumbnailURL: "https://cdn.example/1.jpg",
				Price:        12.5,
				CurrencyUnit: "USD",
				Available:    true,
			},
		},
		{
			name:     "not_found",
			status:   http.StatusNotFound,
			body:     `{"code": "not_found", "message": "no such asset"}`,
			wantCode: CodeNotFound,
		},
		{
			name:     "rate_limited",
			status:   http.StatusTooManyRequests,
			body:     `{"message": "slow down"}`,
			wantCode: CodeRateLimited,
		},
		{
			name:     "unsupported_format",
			status:   http.StatusUnprocessableEntity,
			body:     `{"code": "unsupported_format"}`,
			wantCode: CodeUnsupported,
		},
		{
			name:     "server_error",
			status:   http.StatusInternalServerError,
			body:     `oops`,
			wantCode: CodeUnavailable,
		},
		{
			name:    "malformed_response",
			status:  http.StatusOK,
			body:    `{invalid json`,
			wantErr: "unmarshal asset",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodGet, r.Method)
				assert.Equal(t, "/v1/assets/shutterstock/123", r.URL.Path)
				assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			client := NewClient("test-key", WithBaseURL(srv.URL))
			asset, err := client.Lookup(context.Background(), "shutterstock", "123")

			if tt.wantCode != "" {
				require.Error(t, err)
				var apiErr *APIError
				require.True(t, errors.As(err, &apiErr))
				assert.Equal(t, tt.wantCode, apiErr.Code)
				assert.Equal(t, tt.status, apiErr.StatusCode)
				return
			}
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantAsset, asset)
		})
	}
}

func TestProviders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/providers", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"shutterstock": {"active": true, "urlPattern": "shutterstock\\.com/image-photo/[a-z-]*-(\\d+)", "idPattern": "\\d{6,12}", "currencyUnit": "USD"},
			"istock": {"active": false, "idPattern": "gm\\d+", "currencyUnit": "USD"}
		}`))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	providers, err := client.Providers(context.Background())
	require.NoError(t, err)

	require.Len(t, providers, 2)
	assert.True(t, providers["shutterstock"].Active)
	assert.False(t, providers["istock"].Active)
	assert.Equal(t, "USD", providers["shutterstock"].CurrencyUnit)
}

func TestProvidersError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	_, err := client.Providers(context.Background())
	assert.ErrorContains(t, err, "unexpected status 503")
}
