package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/stockbatch-cli/internal/catalog"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS submissions (
	id         TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL,
	order_id   TEXT NOT NULL,
	total_cost REAL NOT NULL,
	items      TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_submissions_user ON submissions (user_id, created_at DESC);

CREATE TABLE IF NOT EXISTS catalog_cache (
	id         INTEGER PRIMARY KEY CHECK (id = 1),
	providers  TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL
);
`

// SQLiteStore is the embedded local store.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens (or creates) the sqlite database at path.
func NewSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, eris.Wrap(err, "store: open sqlite")
	}

	// Single writer keeps modernc's file locking happy.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA journal_mode=WAL; PRAGMA busy_timeout=5000;"); err != nil {
		db.Close()
		return nil, eris.Wrap(err, "store: set sqlite pragmas")
	}

	return &SQLiteStore{db: db}, nil
}

// Migrate creates the schema if it does not exist.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, sqliteSchema); err != nil {
		return eris.Wrap(err, "store: migrate sqlite")
	}
	return nil
}

// SaveSubmission records one bulk order outcome.
func (s *SQLiteStore) SaveSubmission(ctx context.Context, sub *Submission) error {
	items, err := json.Marshal(sub.Items)
	if err != nil {
		return eris.Wrap(err, "store: marshal submission items")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO submissions (id, user_id, order_id, total_cost, items, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		sub.ID, sub.UserID, sub.OrderID, sub.TotalCost, string(items), sub.CreatedAt,
	)
	if err != nil {
		return eris.Wrap(err, "store: insert submission")
	}
	return nil
}

// ListSubmissions returns the most recent submissions, newest first. An
// empty userID lists across all users.
func (s *SQLiteStore) ListSubmissions(ctx context.Context, userID string, limit int) ([]Submission, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT id, user_id, order_id, total_cost, items, created_at
	          FROM submissions ORDER BY created_at DESC LIMIT ?`
	args := []any{limit}
	if userID != "" {
		query = `SELECT id, user_id, order_id, total_cost, items, created_at
		         FROM submissions WHERE user_id = ? ORDER BY created_at DESC LIMIT ?`
		args = []any{userID, limit}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "store: query submissions")
	}
	defer rows.Close()

	var subs []Submission
	for rows.Next() {
		sub, err := scanSubmission(rows.Scan)
		if err != nil {
			return nil, err
		}
		subs = append(subs, *sub)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "store: iterate submissions")
	}
	return subs, nil
}

// GetSubmission returns one submission by id.
func (s *SQLiteStore) GetSubmission(ctx context.Context, id string) (*Submission, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, order_id, total_cost, items, created_at
		 FROM submissions WHERE id = ?`, id)

	sub, err := scanSubmission(row.Scan)
	if eris.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return sub, err
}

// SaveProviders caches the latest catalog snapshot, replacing any previous
// one.
func (s *SQLiteStore) SaveProviders(ctx context.Context, providers []catalog.Provider) error {
	payload, err := json.Marshal(providers)
	if err != nil {
		return eris.Wrap(err, "store: marshal providers")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO catalog_cache (id, providers, updated_at) VALUES (1, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET providers = excluded.providers, updated_at = excluded.updated_at`,
		string(payload), time.Now().UTC(),
	)
	if err != nil {
		return eris.Wrap(err, "store: save catalog cache")
	}
	return nil
}

// LoadProviders returns the cached catalog snapshot.
func (s *SQLiteStore) LoadProviders(ctx context.Context) ([]catalog.Provider, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, `SELECT providers FROM catalog_cache WHERE id = 1`).Scan(&payload)
	if eris.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "store: load catalog cache")
	}

	var providers []catalog.Provider
	if err := json.Unmarshal([]byte(payload), &providers); err != nil {
		return nil, eris.Wrap(err, "store: unmarshal cached providers")
	}
	return providers, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// scanSubmission reads one submission row through the given scan function
// so it works for both sql.Row and sql.Rows.
func scanSubmission(scan func(dest ...any) error) (*Submission, error) {
	var sub Submission
	var items string
	if err := scan(&sub.ID, &sub.UserID, &sub.OrderID, &sub.TotalCost, &items, &sub.CreatedAt); err != nil {
		if eris.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, eris.Wrap(err, "store: scan submission")
	}
	if err := json.Unmarshal([]byte(items), &sub.Items); err != nil {
		return nil, eris.Wrap(err, "store: unmarshal submission items")
	}
	return &sub, nil
}
