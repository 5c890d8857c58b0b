// Package batch drives the full pipeline for one pasted batch: parse,
// resolve, aggregate, submit. Each stage is callable on its own; the
// session just carries the current batch state between them and recomputes
// derived stats on every update. Nothing here is persisted.
package batch

import (
	"context"
	"sync"

	"github.com/rotisserie/eris"

	"github.com/sells-group/stockbatch-cli/internal/cost"
	"github.com/sells-group/stockbatch-cli/internal/model"
	"github.com/sells-group/stockbatch-cli/internal/order"
	"github.com/sells-group/stockbatch-cli/internal/parse"
	"github.com/sells-group/stockbatch-cli/internal/resolve"
)

// ErrNotAffordable means the gate rejected the batch: total cost exceeds
// the balance, so nothing is submitted.
var ErrNotAffordable = eris.New("batch: total cost exceeds balance")

// ErrNothingToOrder means resolution produced no successful items.
var ErrNothingToOrder = eris.New("batch: no resolvable items to order")

// Session is the state of one batch as it moves through the stages.
type Session struct {
	userID     string
	parser     *parse.Parser
	resolver   *resolve.Resolver
	aggregator *cost.Aggregator
	creator    *order.Creator

	mu      sync.Mutex
	refs    []model.ParsedReference
	items   []model.ResolvedItem
	summary *cost.Summary
}

// NewSession wires a session over the stage implementations.
func NewSession(userID string, parser *parse.Parser, resolver *resolve.Resolver, aggregator *cost.Aggregator, creator *order.Creator) *Session {
	return &Session{
		userID:     userID,
		parser:     parser,
		resolver:   resolver,
		aggregator: aggregator,
		creator:    creator,
	}
}

// Parse classifies the raw input and resets any previous resolution state.
func (s *Session) Parse(rawText string) []model.ParsedReference {
	refs := s.parser.Parse(rawText)

	s.mu.Lock()
	s.refs = refs
	s.items = nil
	s.summary = nil
	s.mu.Unlock()
	return refs
}

// Resolve starts a resolution pass over the parsed references. The caller
// may stream pass.Results for progress; Collect stores the outcome back
// into the session.
func (s *Session) Resolve(ctx context.Context) *resolve.Pass {
	s.mu.Lock()
	refs := s.refs
	s.mu.Unlock()
	return s.resolver.Resolve(ctx, refs)
}

// Collect waits for the pass and stores its items as the session's current
// resolution state.
func (s *Session) Collect(pass *resolve.Pass) []model.ResolvedItem {
	items := pass.Wait()

	s.mu.Lock()
	s.items = items
	s.summary = nil
	s.mu.Unlock()
	return items
}

// ResolveAll runs a pass to completion. Convenience for callers that do
// not stream progress.
func (s *Session) ResolveAll(ctx context.Context) []model.ResolvedItem {
	return s.Collect(s.Resolve(ctx))
}

// Aggregate totals the resolved items and gates them against a fresh
// balance read.
func (s *Session) Aggregate(ctx context.Context) (*cost.Summary, error) {
	s.mu.Lock()
	items := s.items
	s.mu.Unlock()

	summary, err := s.aggregator.Aggregate(ctx, s.userID, items)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.summary = summary
	s.mu.Unlock()
	return summary, nil
}

// Submit sends the eligible items as one bulk order. It aggregates first
// when the caller has not, so the gate always runs against a fresh balance.
func (s *Session) Submit(ctx context.Context) (*order.Confirmation, error) {
	summary, err := s.Aggregate(ctx)
	if err != nil {
		return nil, err
	}
	if !summary.Affordable {
		return nil, ErrNotAffordable
	}
	if len(summary.EligibleItems) == 0 {
		return nil, ErrNothingToOrder
	}
	return s.creator.Submit(ctx, s.userID, summary.EligibleItems)
}

// Refs returns the current parsed references.
func (s *Session) Refs() []model.ParsedReference {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refs
}

// Items returns the current resolved items.
func (s *Session) Items() []model.ResolvedItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.items
}

// Summary returns the latest cost summary, or nil before aggregation.
func (s *Session) Summary() *cost.Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.summary
}

// Stats recomputes batch stats from the current refs and items.
func (s *Session) Stats() model.BatchStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return model.ComputeStats(s.refs, s.items)
}
