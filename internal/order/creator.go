// Package order submits the eligible batch subset as one bulk order and
// records the outcome.
package order

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/stockbatch-cli/internal/model"
	"github.com/sells-group/stockbatch-cli/internal/store"
	"github.com/sells-group/stockbatch-cli/pkg/orderapi"
)

// ErrNoEligibleItems means the caller asked to submit an empty set. The
// gate decides eligibility before submission ever starts, so an empty set
// here is a caller bug, not a user-facing state.
var ErrNoEligibleItems = eris.New("order: no eligible items to submit")

// History persists submission outcomes. Optional; a nil history disables
// recording.
type History interface {
	SaveSubmission(ctx context.Context, sub *store.Submission) error
}

// Confirmation is the submitted order outcome: the service's response
// verbatim plus the local history id.
type Confirmation struct {
	SubmissionID string                `json:"submissionId"`
	OrderID      string                `json:"orderId"`
	TotalCost    float64               `json:"totalCost"`
	PerItem      []orderapi.ItemStatus `json:"perItem"`
}

// Creator submits bulk orders through the order service.
type Creator struct {
	orders  orderapi.Client
	history History
}

// New creates an order creator. history may be nil.
func New(orders orderapi.Client, history History) *Creator {
	return &Creator{orders: orders, history: history}
}

// Submit sends all items as a single bulk order. The order service owns
// debit atomicity; on failure nothing local is mutated and the caller may
// retry. There is no automatic retry here.
func (c *Creator) Submit(ctx context.Context, userID string, items []model.ResolvedItem) (*Confirmation, error) {
	if len(items) == 0 {
		return nil, ErrNoEligibleItems
	}

	req := orderapi.BulkOrderRequest{UserID: userID, Items: make([]orderapi.OrderItem, 0, len(items))}
	var total float64
	for _, it := range items {
		if !it.IsSuccess || it.Metadata == nil {
			return nil, eris.Errorf("order: unresolved item %s:%s in submission", it.Input.Site, it.Input.ExternalID)
		}
		req.Items = append(req.Items, orderapi.OrderItem{
			Site:  it.Input.Site,
			ID:    it.Input.ExternalID,
			Price: it.Metadata.Price,
		})
		total += it.Metadata.Price
	}

	resp, err := c.orders.CreateBulkOrder(ctx, req)
	if err != nil {
		return nil, eris.Wrap(err, "order: submit bulk order")
	}

	conf := &Confirmation{
		SubmissionID: uuid.NewString(),
		OrderID:      resp.OrderID,
		TotalCost:    total,
		PerItem:      resp.PerItemStatus,
	}

	zap.L().Info("order: submitted",
		zap.String("order_id", conf.OrderID),
		zap.Int("items", len(req.Items)),
		zap.Float64("total_cost", total),
	)

	if c.history != nil {
		if err := c.record(ctx, userID, conf, req.Items); err != nil {
			// The order already went through; a history failure must not
			// turn a confirmed submission into an error.
			zap.L().Warn("order: record history failed", zap.Error(err))
		}
	}
	return conf, nil
}

func (c *Creator) record(ctx context.Context, userID string, conf *Confirmation, ordered []orderapi.OrderItem) error {
	prices := make(map[string]float64, len(ordered))
	for _, it := range ordered {
		prices[it.Site+"/"+it.ID] = it.Price
	}

	sub := &store.Submission{
		ID:        conf.SubmissionID,
		UserID:    userID,
		OrderID:   conf.OrderID,
		TotalCost: conf.TotalCost,
		CreatedAt: time.Now().UTC(),
	}
	for _, st := range conf.PerItem {
		sub.Items = append(sub.Items, store.SubmissionItem{
			Site:       st.Site,
			ExternalID: st.ID,
			Price:      prices[st.Site+"/"+st.ID],
			Status:     st.Status,
			Reason:     st.Reason,
		})
	}
	return c.history.SaveSubmission(ctx, sub)
}
