package resolve

import (
	"sync"

	"github.com/sells-group/stockbatch-cli/internal/model"
)

// ItemStatus tracks a reference through one resolution pass.
type ItemStatus int

const (
	// StatusPending means the lookup has not been picked up by a worker.
	StatusPending ItemStatus = iota
	// StatusInFlight means the lookup is currently running.
	StatusInFlight
	// StatusSettled means the item has a recorded outcome.
	StatusSettled
)

// Pass is one resolution run over a fixed reference list. Items arrive on
// Results as they settle, in completion order; Wait restores input order
// once the pass finishes.
type Pass struct {
	gen    uint64
	refs   []model.ParsedReference
	cancel func()

	results chan model.ResolvedItem
	done    chan struct{}

	mu      sync.Mutex
	status  []ItemStatus
	settled []*model.ResolvedItem // indexed by input position
}

func newPass(gen uint64, refs []model.ParsedReference, cancel func()) *Pass {
	return &Pass{
		gen:     gen,
		refs:    refs,
		cancel:  cancel,
		results: make(chan model.ResolvedItem, len(refs)),
		done:    make(chan struct{}),
		status:  make([]ItemStatus, len(refs)),
		settled: make([]*model.ResolvedItem, len(refs)),
	}
}

// Results streams items as their lookups settle, enabling progressive
// rendering before the whole batch completes. The channel closes when the
// pass finishes or is cancelled.
func (p *Pass) Results() <-chan model.ResolvedItem {
	return p.results
}

// Done closes when the pass has finished or been cancelled.
func (p *Pass) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until the pass settles, then returns the items restored to
// input order. A cancelled pass returns only the items that settled before
// cancellation.
func (p *Pass) Wait() []model.ResolvedItem {
	<-p.done

	p.mu.Lock()
	defer p.mu.Unlock()
	items := make([]model.ResolvedItem, 0, len(p.settled))
	for _, it := range p.settled {
		if it != nil {
			items = append(items, *it)
		}
	}
	return items
}

// Cancel aborts all outstanding lookups in this pass.
func (p *Pass) Cancel() {
	p.cancel()
}

// Status returns the current status of the reference at the given input
// position.
func (p *Pass) Status(pos int) ItemStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status[pos]
}

// Stats derives progress counts from the items settled so far.
func (p *Pass) Stats() model.BatchStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	items := make([]model.ResolvedItem, 0, len(p.settled))
	for _, it := range p.settled {
		if it != nil {
			items = append(items, *it)
		}
	}
	return model.ComputeStats(p.refs, items)
}

func (p *Pass) markInFlight(pos int) {
	p.mu.Lock()
	p.status[pos] = StatusInFlight
	p.mu.Unlock()
}

func (p *Pass) record(pos int, item model.ResolvedItem) {
	p.mu.Lock()
	p.status[pos] = StatusSettled
	p.settled[pos] = &item
	p.mu.Unlock()

	p.results <- item
}

func (p *Pass) finish() {
	p.cancel()
	close(p.results)
	close(p.done)
}
