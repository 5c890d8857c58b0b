// Package store persists submission history and the catalog snapshot
// cache. Two drivers are provided: sqlite for local CLI use and postgres
// for shared deployments.
package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/stockbatch-cli/internal/catalog"
	"github.com/sells-group/stockbatch-cli/internal/config"
)

// ErrNotFound is returned when a submission id does not exist.
var ErrNotFound = eris.New("store: not found")

// SubmissionItem is one ordered line as the order service confirmed it.
type SubmissionItem struct {
	Site       string  `json:"site"`
	ExternalID string  `json:"externalId"`
	Price      float64 `json:"price"`
	Status     string  `json:"status"`
	Reason     string  `json:"reason,omitempty"`
}

// Submission is one recorded bulk order outcome.
type Submission struct {
	ID        string           `json:"id"`
	UserID    string           `json:"userId"`
	OrderID   string           `json:"orderId"`
	TotalCost float64          `json:"totalCost"`
	Items     []SubmissionItem `json:"items"`
	CreatedAt time.Time        `json:"createdAt"`
}

// Store is the persistence interface shared by both drivers.
type Store interface {
	Migrate(ctx context.Context) error

	SaveSubmission(ctx context.Context, sub *Submission) error
	ListSubmissions(ctx context.Context, userID string, limit int) ([]Submission, error)
	GetSubmission(ctx context.Context, id string) (*Submission, error)

	// SaveProviders and LoadProviders implement catalog.Cache.
	SaveProviders(ctx context.Context, providers []catalog.Provider) error
	LoadProviders(ctx context.Context) ([]catalog.Provider, error)

	Close() error
}

// New opens a store for the configured driver.
func New(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case "sqlite", "":
		return NewSQLite(cfg.DatabaseURL)
	case "postgres":
		return NewPostgres(ctx, cfg.DatabaseURL)
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
	}
}
