package catalog

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/stockbatch-cli/internal/resilience"
	"github.com/sells-group/stockbatch-cli/pkg/stockapi"
)

// Source fetches the live provider catalog.
type Source interface {
	Providers(ctx context.Context) (map[string]stockapi.ProviderInfo, error)
}

// Cache persists the last good catalog so the tool works when the catalog
// service is unreachable.
type Cache interface {
	SaveProviders(ctx context.Context, providers []Provider) error
	LoadProviders(ctx context.Context) ([]Provider, error)
}

// Registry holds the live catalog snapshot and refreshes it in the
// background. Readers always get a complete snapshot; a refresh swaps the
// whole snapshot atomically.
type Registry struct {
	source   Source
	cache    Cache // optional
	interval time.Duration

	mu   sync.RWMutex
	snap *Snapshot
}

// NewRegistry creates a registry that refreshes from source every interval.
func NewRegistry(source Source, cache Cache, interval time.Duration) *Registry {
	return &Registry{
		source:   source,
		cache:    cache,
		interval: interval,
	}
}

// Snapshot returns the current catalog snapshot, or nil before Bootstrap.
func (r *Registry) Snapshot() *Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snap
}

// Bootstrap loads the initial snapshot: live catalog first, cached copy as
// fallback.
func (r *Registry) Bootstrap(ctx context.Context) error {
	if err := r.Refresh(ctx); err == nil {
		return nil
	} else {
		zap.L().Warn("catalog: live refresh failed, trying cache", zap.Error(err))
	}

	if r.cache == nil {
		return eris.New("catalog: no live catalog and no cache configured")
	}
	providers, err := r.cache.LoadProviders(ctx)
	if err != nil {
		return eris.Wrap(err, "catalog: load cached providers")
	}
	snap, err := NewSnapshot(providers)
	if err != nil {
		return eris.Wrap(err, "catalog: compile cached providers")
	}

	r.swap(snap)
	zap.L().Info("catalog: using cached snapshot", zap.Int("providers", snap.Len()))
	return nil
}

// Refresh pulls the catalog once and swaps the snapshot on success. The
// catalog is a side input, so transient fetch failures are retried here
// unlike per-item lookups.
func (r *Registry) Refresh(ctx context.Context) error {
	cfg := resilience.DefaultRetryConfig()
	cfg.OnRetry = resilience.RetryLogger("catalog", "providers")

	infos, err := resilience.DoVal(ctx, cfg, func(ctx context.Context) (map[string]stockapi.ProviderInfo, error) {
		return r.source.Providers(ctx)
	})
	if err != nil {
		return eris.Wrap(err, "catalog: fetch providers")
	}

	snap, err := NewSnapshot(FromInfos(infos))
	if err != nil {
		return eris.Wrap(err, "catalog: compile providers")
	}
	r.swap(snap)

	if r.cache != nil {
		if err := r.cache.SaveProviders(ctx, snap.Providers()); err != nil {
			zap.L().Warn("catalog: cache save failed", zap.Error(err))
		}
	}

	zap.L().Debug("catalog: refreshed", zap.Int("providers", snap.Len()))
	return nil
}

// Run refreshes the catalog on the configured interval until ctx is done.
func (r *Registry) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := r.Refresh(ctx); err != nil {
				zap.L().Warn("catalog: periodic refresh failed", zap.Error(err))
			}
		}
	}
}

func (r *Registry) swap(snap *Snapshot) {
	r.mu.Lock()
	r.snap = snap
	r.mu.Unlock()
}

// FromInfos converts a catalog service response into provider descriptors,
// sorted by name for deterministic snapshots.
func FromInfos(infos map[string]stockapi.ProviderInfo) []Provider {
	providers := make([]Provider, 0, len(infos))
	for name, info := range infos {
		providers = append(providers, Provider{
			Name:         name,
			Active:       info.Active,
			URLPattern:   info.URLPattern,
			IDPattern:    info.IDPattern,
			CurrencyUnit: info.CurrencyUnit,
		})
	}
	sort.Slice(providers, func(i, j int) bool { return providers[i].Name < providers[j].Name })
	return providers
}
