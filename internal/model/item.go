package model

import "time"

// LookupErrorCode classifies why a metadata lookup failed.
type LookupErrorCode string

const (
	LookupErrNotFound    LookupErrorCode = "not_found"
	LookupErrTimeout     LookupErrorCode = "timeout"
	LookupErrRateLimited LookupErrorCode = "rate_limited"
	LookupErrMalformed   LookupErrorCode = "malformed_response"
	LookupErrUnsupported LookupErrorCode = "unsupported_format"
	LookupErrUnavailable LookupErrorCode = "service_unavailable"
	LookupErrCancelled   LookupErrorCode = "cancelled"
)

// AssetMetadata is the priced metadata returned for a resolvable asset.
type AssetMetadata struct {
	Title        string  `json:"title"`
	ThumbnailURL string  `json:"thumbnailUrl,omitempty"`
	Price        float64 `json:"price"`
	CurrencyUnit string  `json:"currencyUnit"`
	Available    bool    `json:"available"`
}

// ResolvedItem is the outcome of one lookup for one valid reference.
type ResolvedItem struct {
	Input    ParsedReference `json:"input"`
	Metadata *AssetMetadata  `json:"metadata,omitempty"`

	IsSuccess   bool            `json:"isSuccess"`
	Error       LookupErrorCode `json:"error,omitempty"`
	ErrorDetail string          `json:"errorDetail,omitempty"`

	ResolvedAt time.Time `json:"resolvedAt"`
}

// Price returns the item's cost contribution. Failed items contribute zero.
func (it ResolvedItem) Price() float64 {
	if !it.IsSuccess || it.Metadata == nil {
		return 0
	}
	return it.Metadata.Price
}
