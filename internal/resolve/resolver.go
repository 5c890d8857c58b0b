// Package resolve issues concurrent metadata lookups for parsed references
// through a bounded worker pool.
package resolve

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/sells-group/stockbatch-cli/internal/model"
	"github.com/sells-group/stockbatch-cli/internal/resilience"
	"github.com/sells-group/stockbatch-cli/pkg/stockapi"
)

// Lookup is the slice of the metadata client the resolver needs.
type Lookup interface {
	Lookup(ctx context.Context, site, id string) (*stockapi.Asset, error)
}

// Options tunes the resolver pool.
type Options struct {
	// Workers is the fixed worker count. Lookups are never serial and
	// never unbounded fan-out.
	Workers int

	// Limiter throttles lookups across all workers. Optional.
	Limiter *rate.Limiter

	// ItemTimeout bounds a single lookup attempt.
	ItemTimeout time.Duration

	// Breaker guards the lookup service so a dead provider API fails fast
	// instead of burning a timeout per item. Optional.
	Breaker *resilience.CircuitBreaker
}

// Resolver runs resolution passes. Starting a new pass cancels the
// previous one; a cancelled pass never mutates the state of a newer pass.
type Resolver struct {
	lookup Lookup
	opts   Options

	mu         sync.Mutex
	generation uint64
	cancelPrev context.CancelFunc
}

// New creates a resolver around the given lookup client.
func New(lookup Lookup, opts Options) *Resolver {
	if opts.Workers <= 0 {
		opts.Workers = 8
	}
	if opts.ItemTimeout <= 0 {
		opts.ItemTimeout = 20 * time.Second
	}
	return &Resolver{lookup: lookup, opts: opts}
}

// Resolve starts a new resolution pass over the valid references. Invalid
// references never reach the lookup service. The returned Pass exposes
// incremental results; the previous pass, if still running, is cancelled
// before any work starts.
func (r *Resolver) Resolve(ctx context.Context, refs []model.ParsedReference) *Pass {
	valid := make([]model.ParsedReference, 0, len(refs))
	for _, ref := range refs {
		if ref.IsValid {
			valid = append(valid, ref)
		}
	}

	r.mu.Lock()
	if r.cancelPrev != nil {
		r.cancelPrev()
	}
	r.generation++
	gen := r.generation
	passCtx, cancel := context.WithCancel(ctx)
	r.cancelPrev = cancel
	r.mu.Unlock()

	pass := newPass(gen, valid, cancel)

	go r.run(passCtx, pass)

	return pass
}

// RetryItem performs one fresh lookup for a previously failed reference.
// It is independent of any running pass and never retries on its own.
func (r *Resolver) RetryItem(ctx context.Context, ref model.ParsedReference) model.ResolvedItem {
	return r.lookupOne(ctx, ref)
}

func (r *Resolver) run(ctx context.Context, pass *Pass) {
	defer pass.finish()

	if len(pass.refs) == 0 {
		return
	}

	log := zap.L().With(zap.Uint64("pass", pass.gen))
	log.Debug("resolve: starting pass",
		zap.Int("items", len(pass.refs)),
		zap.Int("workers", r.opts.Workers),
	)

	jobs := make(chan int)
	g, gctx := errgroup.WithContext(ctx)

	for w := 0; w < r.opts.Workers; w++ {
		g.Go(func() error {
			for pos := range jobs {
				if gctx.Err() != nil {
					return nil
				}
				pass.markInFlight(pos)

				if r.opts.Limiter != nil {
					if err := r.opts.Limiter.Wait(gctx); err != nil {
						return nil // pass cancelled while throttled
					}
				}

				item := r.lookupOne(gctx, pass.refs[pos])

				// A cancelled pass must not publish results.
				if gctx.Err() != nil {
					return nil
				}
				pass.record(pos, item)
			}
			return nil
		})
	}

	for pos := range pass.refs {
		select {
		case jobs <- pos:
		case <-gctx.Done():
		}
		if gctx.Err() != nil {
			break
		}
	}
	close(jobs)

	_ = g.Wait()

	if ctx.Err() == nil {
		stats := pass.Stats()
		log.Info("resolve: pass complete",
			zap.Int("succeeded", stats.Succeeded),
			zap.Int("failed", stats.Failed),
		)
	}
}

// lookupOne performs a single lookup attempt and classifies the outcome.
// A failure is recorded against its own item only; siblings are unaffected.
func (r *Resolver) lookupOne(ctx context.Context, ref model.ParsedReference) model.ResolvedItem {
	itemCtx := ctx
	if r.opts.ItemTimeout > 0 {
		var cancel context.CancelFunc
		itemCtx, cancel = context.WithTimeout(ctx, r.opts.ItemTimeout)
		defer cancel()
	}

	var asset *stockapi.Asset
	var err error
	if r.opts.Breaker != nil {
		asset, err = resilience.ExecuteVal(itemCtx, r.opts.Breaker, func(ctx context.Context) (*stockapi.Asset, error) {
			return r.lookup.Lookup(ctx, ref.Site, ref.ExternalID)
		})
	} else {
		asset, err = r.lookup.Lookup(itemCtx, ref.Site, ref.ExternalID)
	}

	item := model.ResolvedItem{Input: ref, ResolvedAt: time.Now().UTC()}
	if err != nil {
		item.Error = classifyError(err)
		item.ErrorDetail = err.Error()
		return item
	}

	item.IsSuccess = true
	item.Metadata = &model.AssetMetadata{
		Title:        asset.Title,
		ThumbnailURL: asset.ThumbnailURL,
		Price:        asset.Price,
		CurrencyUnit: asset.CurrencyUnit,
		Available:    asset.Available,
	}
	return item
}

// classifyError maps a lookup failure to the item error taxonomy.
func classifyError(err error) model.LookupErrorCode {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return model.LookupErrTimeout
	case errors.Is(err, context.Canceled):
		return model.LookupErrCancelled
	case errors.Is(err, resilience.ErrCircuitOpen):
		return model.LookupErrUnavailable
	}

	var apiErr *stockapi.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case stockapi.CodeNotFound:
			return model.LookupErrNotFound
		case stockapi.CodeRateLimited:
			return model.LookupErrRateLimited
		case stockapi.CodeUnsupported:
			return model.LookupErrUnsupported
		default:
			return model.LookupErrUnavailable
		}
	}

	if strings.Contains(err.Error(), "unmarshal") {
		return model.LookupErrMalformed
	}
	return model.LookupErrUnavailable
}
