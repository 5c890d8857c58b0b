// Package model holds the shared domain types passed between the parsing,
// resolution, costing, and ordering stages.
package model

// InvalidReason explains why a line failed classification.
type InvalidReason string

const (
	// ReasonUnrecognizedFormat marks lines matching no known provider
	// shorthand, URL, or bare id pattern. Ambiguous bare ids land here too.
	ReasonUnrecognizedFormat InvalidReason = "unrecognized format"
	// ReasonProviderInactive marks well-formed lines referencing a provider
	// the catalog lists as inactive.
	ReasonProviderInactive InvalidReason = "provider inactive"
	// ReasonMalformedID marks shorthand lines whose id part fails the
	// provider's id pattern.
	ReasonMalformedID InvalidReason = "malformed id"
)

// ParsedReference is the classification of one non-blank input line.
// Exactly one is produced per non-blank line, in input order.
type ParsedReference struct {
	// Index is the position among the non-blank lines of the batch.
	Index int `json:"index"`
	// Raw is the original line, preserved byte-for-byte.
	Raw string `json:"raw"`

	Site       string `json:"site,omitempty"`
	ExternalID string `json:"externalId,omitempty"`
	SourceURL  string `json:"sourceUrl,omitempty"`

	IsValid       bool          `json:"isValid"`
	InvalidReason InvalidReason `json:"invalidReason,omitempty"`
}
