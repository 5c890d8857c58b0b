package main

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/stockbatch-cli/internal/batch"
	"github.com/sells-group/stockbatch-cli/internal/catalog"
	"github.com/sells-group/stockbatch-cli/internal/cost"
	"github.com/sells-group/stockbatch-cli/internal/order"
	"github.com/sells-group/stockbatch-cli/internal/parse"
	"github.com/sells-group/stockbatch-cli/internal/resilience"
	"github.com/sells-group/stockbatch-cli/internal/resolve"
	"github.com/sells-group/stockbatch-cli/internal/store"
	"github.com/sells-group/stockbatch-cli/pkg/account"
	"github.com/sells-group/stockbatch-cli/pkg/orderapi"
	"github.com/sells-group/stockbatch-cli/pkg/stockapi"
)

// catalogFile overrides the live catalog with a pinned yaml file.
var catalogFile string

// appEnv holds the wired pipeline for one command invocation.
type appEnv struct {
	Store      store.Store
	Lookup     stockapi.Client
	Accounts   account.Client
	Orders     orderapi.Client
	Aggregator *cost.Aggregator
	Creator    *order.Creator

	registry *catalog.Registry
	seedSnap *catalog.Snapshot

	resolveOpts resolve.Options
}

// initEnv wires clients, store, and catalog from the loaded config.
func initEnv(ctx context.Context) (*appEnv, error) {
	st, err := store.New(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, err
	}

	env := &appEnv{
		Store:    st,
		Lookup:   stockapi.NewClient(cfg.Lookup.Key, stockapi.WithBaseURL(cfg.Lookup.BaseURL)),
		Accounts: account.NewClient(cfg.Account.Key, account.WithBaseURL(cfg.Account.BaseURL)),
		Orders:   orderapi.NewClient(cfg.Order.Key, orderapi.WithBaseURL(cfg.Order.BaseURL)),
	}
	env.Aggregator = cost.New(env.Accounts)
	env.Creator = order.New(env.Orders, st)

	env.resolveOpts = resolve.Options{
		Workers:     cfg.Resolver.Workers,
		Limiter:     rate.NewLimiter(rate.Limit(cfg.Resolver.RatePerSec), cfg.Resolver.Burst),
		ItemTimeout: time.Duration(cfg.Resolver.ItemTimeoutSecs) * time.Second,
		Breaker: resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
			FailureThreshold: 5,
			ResetTimeout:     30 * time.Second,
		}),
	}

	seedFile := catalogFile
	if seedFile == "" {
		seedFile = cfg.Catalog.SeedFile
	}
	if seedFile != "" {
		snap, err := catalog.LoadSeedFile(seedFile)
		if err != nil {
			st.Close()
			return nil, err
		}
		env.seedSnap = snap
		zap.L().Info("catalog: using seed file", zap.String("file", seedFile), zap.Int("providers", snap.Len()))
		return env, nil
	}

	env.registry = catalog.NewRegistry(env.Lookup, st, time.Duration(cfg.Catalog.RefreshSecs)*time.Second)
	if err := env.registry.Bootstrap(ctx); err != nil {
		st.Close()
		return nil, eris.Wrap(err, "bootstrap catalog")
	}
	return env, nil
}

// Snapshot returns the current catalog snapshot.
func (e *appEnv) Snapshot() *catalog.Snapshot {
	if e.seedSnap != nil {
		return e.seedSnap
	}
	return e.registry.Snapshot()
}

// RunCatalogRefresh starts periodic catalog refresh; no-op with a seed file.
func (e *appEnv) RunCatalogRefresh(ctx context.Context) {
	if e.registry != nil {
		go e.registry.Run(ctx)
	}
}

// NewSession builds a pipeline session for the configured user.
func (e *appEnv) NewSession() *batch.Session {
	return batch.NewSession(cfg.Account.UserID,
		parse.New(e.Snapshot()),
		resolve.New(e.Lookup, e.resolveOpts),
		e.Aggregator,
		e.Creator,
	)
}

// Close releases the store.
func (e *appEnv) Close() {
	if err := e.Store.Close(); err != nil {
		zap.L().Warn("close store", zap.Error(err))
	}
}

// readInput reads the batch text from the file argument, or stdin when the
// argument is absent or "-".
func readInput(args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", eris.Wrap(err, "read stdin")
		}
		return string(data), nil
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", eris.Wrap(err, "read input file")
	}
	return string(data), nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&catalogFile, "catalog-file", "", "yaml provider catalog to use instead of the live catalog")
}
