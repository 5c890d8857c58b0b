package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/stockbatch-cli/internal/catalog"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS submissions (
	id         TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL,
	order_id   TEXT NOT NULL,
	total_cost DOUBLE PRECISION NOT NULL,
	items      JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_submissions_user ON submissions (user_id, created_at DESC);

CREATE TABLE IF NOT EXISTS catalog_cache (
	id         INTEGER PRIMARY KEY CHECK (id = 1),
	providers  JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);
`

// Pool is the slice of pgxpool.Pool the store uses, narrowed so tests can
// substitute pgxmock.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// PostgresStore is the shared-deployment store.
type PostgresStore struct {
	pool Pool
}

// NewPostgres connects to the database at databaseURL.
func NewPostgres(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, eris.Wrap(err, "store: connect postgres")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "store: ping postgres")
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresWithPool wraps an existing pool (used by tests).
func NewPostgresWithPool(pool Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Migrate creates the schema if it does not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, postgresSchema); err != nil {
		return eris.Wrap(err, "store: migrate postgres")
	}
	return nil
}

// SaveSubmission records one bulk order outcome.
func (s *PostgresStore) SaveSubmission(ctx context.Context, sub *Submission) error {
	items, err := json.Marshal(sub.Items)
	if err != nil {
		return eris.Wrap(err, "store: marshal submission items")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO submissions (id, user_id, order_id, total_cost, items, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		sub.ID, sub.UserID, sub.OrderID, sub.TotalCost, items, sub.CreatedAt,
	)
	if err != nil {
		return eris.Wrap(err, "store: insert submission")
	}
	return nil
}

// ListSubmissions returns the most recent submissions, newest first. An
// empty userID lists across all users.
func (s *PostgresStore) ListSubmissions(ctx context.Context, userID string, limit int) ([]Submission, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT id, user_id, order_id, total_cost, items, created_at
	          FROM submissions ORDER BY created_at DESC LIMIT $1`
	args := []any{limit}
	if userID != "" {
		query = `SELECT id, user_id, order_id, total_cost, items, created_at
		         FROM submissions WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2`
		args = []any{userID, limit}
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "store: query submissions")
	}
	defer rows.Close()

	var subs []Submission
	for rows.Next() {
		var sub Submission
		var items []byte
		if err := rows.Scan(&sub.ID, &sub.UserID, &sub.OrderID, &sub.TotalCost, &items, &sub.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "store: scan submission")
		}
		if err := json.Unmarshal(items, &sub.Items); err != nil {
			return nil, eris.Wrap(err, "store: unmarshal submission items")
		}
		subs = append(subs, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "store: iterate submissions")
	}
	return subs, nil
}

// GetSubmission returns one submission by id.
func (s *PostgresStore) GetSubmission(ctx context.Context, id string) (*Submission, error) {
	var sub Submission
	var items []byte
	err := s.pool.QueryRow(ctx,
		`SELECT id, user_id, order_id, total_cost, items, created_at
		 FROM submissions WHERE id = $1`, id,
	).Scan(&sub.ID, &sub.UserID, &sub.OrderID, &sub.TotalCost, &items, &sub.CreatedAt)
	if eris.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "store: get submission")
	}
	if err := json.Unmarshal(items, &sub.Items); err != nil {
		return nil, eris.Wrap(err, "store: unmarshal submission items")
	}
	return &sub, nil
}

// SaveProviders caches the latest catalog snapshot, replacing any previous
// one.
func (s *PostgresStore) SaveProviders(ctx context.Context, providers []catalog.Provider) error {
	payload, err := json.Marshal(providers)
	if err != nil {
		return eris.Wrap(err, "store: marshal providers")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO catalog_cache (id, providers, updated_at) VALUES (1, $1, $2)
		 ON CONFLICT (id) DO UPDATE SET providers = EXCLUDED.providers, updated_at = EXCLUDED.updated_at`,
		payload, time.Now().UTC(),
	)
	if err != nil {
		return eris.Wrap(err, "store: save catalog cache")
	}
	return nil
}

// LoadProviders returns the cached catalog snapshot.
func (s *PostgresStore) LoadProviders(ctx context.Context) ([]catalog.Provider, error) {
	var payload []byte
	err := s.pool.QueryRow(ctx, `SELECT providers FROM catalog_cache WHERE id = 1`).Scan(&payload)
	if eris.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "store: load catalog cache")
	}

	var providers []catalog.Provider
	if err := json.Unmarshal(payload, &providers); err != nil {
		return nil, eris.Wrap(err, "store: unmarshal cached providers")
	}
	return providers, nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
