package batch

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sells-group/stockbatch-cli/internal/catalog"
	"github.com/sells-group/stockbatch-cli/internal/cost"
	"github.com/sells-group/stockbatch-cli/internal/model"
	"github.com/sells-group/stockbatch-cli/internal/order"
	"github.com/sells-group/stockbatch-cli/internal/parse"
	"github.com/sells-group/stockbatch-cli/internal/resolve"
	"github.com/sells-group/stockbatch-cli/pkg/account"
	"github.com/sells-group/stockbatch-cli/pkg/orderapi"
	"github.com/sells-group/stockbatch-cli/pkg/stockapi"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

type stubLookup struct {
	assets map[string]*stockapi.Asset
	calls  int
}

func (s *stubLookup) Lookup(ctx context.Context, site, id string) (*stockapi.Asset, error) {
	s.calls++
	if a, ok := s.assets[site+"/"+id]; ok {
		return a, nil
	}
	return nil, &stockapi.APIError{StatusCode: 404, Code: stockapi.CodeNotFound, Message: "asset not found"}
}

type stubAccounts struct {
	balance account.Balance
	err     error
}

func (s *stubAccounts) Balance(ctx context.Context, userID string) (*account.Balance, error) {
	if s.err != nil {
		return nil, s.err
	}
	bal := s.balance
	return &bal, nil
}

type stubOrders struct {
	calls int
	got   orderapi.BulkOrderRequest
}

func (s *stubOrders) CreateBulkOrder(ctx context.Context, req orderapi.BulkOrderRequest) (*orderapi.BulkOrderResponse, error) {
	s.calls++
	s.got = req
	resp := &orderapi.BulkOrderResponse{OrderID: "ord-789"}
	for _, it := range req.Items {
		resp.PerItemStatus = append(resp.PerItemStatus, orderapi.ItemStatus{Site: it.Site, ID: it.ID, Status: "fulfilled"})
	}
	return resp, nil
}

func testSession(t *testing.T, lookup resolve.Lookup, accounts account.Client, orders orderapi.Client) *Session {
	t.Helper()

	snap, err := catalog.NewSnapshot([]catalog.Provider{
		{Name: "shutterstock", Active: true, IDPattern: `\d+`, CurrencyUnit: "USD"},
		{Name: "istock", Active: true, IDPattern: `gm\d+`, CurrencyUnit: "USD"},
	})
	require.NoError(t, err)

	return NewSession("user-1",
		parse.New(snap),
		resolve.New(lookup, resolve.Options{Workers: 4}),
		cost.New(accounts),
		order.New(orders, nil),
	)
}

func TestSessionFullPipeline(t *testing.T) {
	t.Parallel()

	// Two valid lines and one invalid; one lookup succeeds at price 10, the
	// other is not found. With a balance of 25 the order carries exactly the
	// successful item.
	lookup := &stubLookup{assets: map[string]*stockapi.Asset{
		"shutterstock/123": {Title: "beach", Price: 10, CurrencyUnit: "USD", Available: true},
	}}
	orders := &stubOrders{}
	sess := testSession(t, lookup, &stubAccounts{balance: account.Balance{Amount: 25, CurrencyUnit: "USD"}}, orders)

	refs := sess.Parse("shutterstock:123\ninvalidline\nistock:456")
	require.Len(t, refs, 3)
	assert.True(t, refs[0].IsValid)
	assert.False(t, refs[1].IsValid)
	assert.False(t, refs[2].IsValid) // "456" fails istock's gm pattern

	items := sess.ResolveAll(context.Background())
	require.Len(t, items, 1)
	assert.True(t, items[0].IsSuccess)

	summary, err := sess.Aggregate(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 10.0, summary.TotalCost, 0.001)
	assert.True(t, summary.Affordable)

	conf, err := sess.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ord-789", conf.OrderID)
	require.Len(t, orders.got.Items, 1)
	assert.Equal(t, "123", orders.got.Items[0].ID)

	stats := sess.Stats()
	assert.Equal(t, 3, stats.TotalLines)
	assert.Equal(t, 1, stats.ValidRefs)
	assert.InDelta(t, 10.0, stats.TotalCost, 0.001)
}

func TestSessionMixedLookupOutcomes(t *testing.T) {
	t.Parallel()

	lookup := &stubLookup{assets: map[string]*stockapi.Asset{
		"shutterstock/123": {Title: "beach", Price: 10, CurrencyUnit: "USD", Available: true},
	}}
	sess := testSession(t, lookup, &stubAccounts{balance: account.Balance{Amount: 25, CurrencyUnit: "USD"}}, &stubOrders{})

	sess.Parse("shutterstock:123\nistock:gm456")
	items := sess.ResolveAll(context.Background())
	require.Len(t, items, 2)
	assert.True(t, items[0].IsSuccess)
	assert.False(t, items[1].IsSuccess)
	assert.Equal(t, model.LookupErrNotFound, items[1].Error)

	summary, err := sess.Aggregate(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 10.0, summary.TotalCost, 0.001)
	require.Len(t, summary.EligibleItems, 1)
	assert.Equal(t, "123", summary.EligibleItems[0].Input.ExternalID)
}

func TestSessionEmptyInputShortCircuits(t *testing.T) {
	t.Parallel()

	lookup := &stubLookup{}
	sess := testSession(t, lookup, &stubAccounts{balance: account.Balance{Amount: 5, CurrencyUnit: "USD"}}, &stubOrders{})

	refs := sess.Parse("\n\n   \n")
	assert.Empty(t, refs)

	items := sess.ResolveAll(context.Background())
	assert.Empty(t, items)
	assert.Zero(t, lookup.calls)

	_, err := sess.Submit(context.Background())
	assert.True(t, errors.Is(err, ErrNothingToOrder))
}

func TestSessionGateBlocksSubmission(t *testing.T) {
	t.Parallel()

	lookup := &stubLookup{assets: map[string]*stockapi.Asset{
		"shutterstock/123": {Title: "beach", Price: 10, CurrencyUnit: "USD", Available: true},
	}}
	orders := &stubOrders{}
	sess := testSession(t, lookup, &stubAccounts{balance: account.Balance{Amount: 5, CurrencyUnit: "USD"}}, orders)

	sess.Parse("shutterstock:123")
	sess.ResolveAll(context.Background())

	_, err := sess.Submit(context.Background())
	assert.True(t, errors.Is(err, ErrNotAffordable))
	assert.Zero(t, orders.calls)
}

func TestSessionBalanceUnavailable(t *testing.T) {
	t.Parallel()

	lookup := &stubLookup{assets: map[string]*stockapi.Asset{
		"shutterstock/123": {Title: "beach", Price: 10, CurrencyUnit: "USD", Available: true},
	}}
	sess := testSession(t, lookup, &stubAccounts{err: errors.New("dial tcp: connection refused")}, &stubOrders{})

	sess.Parse("shutterstock:123")
	sess.ResolveAll(context.Background())

	_, err := sess.Submit(context.Background())
	assert.True(t, errors.Is(err, cost.ErrBalanceUnavailable))
}

func TestSessionReparseResetsState(t *testing.T) {
	t.Parallel()

	lookup := &stubLookup{assets: map[string]*stockapi.Asset{
		"shutterstock/123": {Title: "beach", Price: 10, CurrencyUnit: "USD", Available: true},
	}}
	sess := testSession(t, lookup, &stubAccounts{balance: account.Balance{Amount: 25, CurrencyUnit: "USD"}}, &stubOrders{})

	sess.Parse("shutterstock:123")
	sess.ResolveAll(context.Background())
	require.Len(t, sess.Items(), 1)

	sess.Parse("istock:gm456")
	assert.Empty(t, sess.Items())
	assert.Nil(t, sess.Summary())
}
