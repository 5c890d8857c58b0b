// Package cost aggregates batch cost and gates it against the user's
// account balance.
package cost

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/stockbatch-cli/internal/model"
	"github.com/sells-group/stockbatch-cli/pkg/account"
)

// ErrBalanceUnavailable means the balance service could not be reached, so
// affordability is unknown for the whole pass. It is distinct from an
// affordable result with nothing to order.
var ErrBalanceUnavailable = eris.New("cost: balance unavailable")

// Summary is the costed view of one resolution pass.
type Summary struct {
	// TotalCost sums prices of successfully resolved items. Failed items
	// contribute zero.
	TotalCost float64 `json:"totalCost"`
	// PerCurrency is an informational breakdown by provider currency unit.
	PerCurrency map[string]float64 `json:"perCurrency,omitempty"`

	// Balance is the fresh account balance this summary was gated against.
	Balance account.Balance `json:"balance"`

	// EligibleItems is the set submitted when the gate passes. The gate is
	// all or nothing: either every successful item is eligible or none is.
	EligibleItems []model.ResolvedItem `json:"eligibleItems,omitempty"`
	Affordable    bool                 `json:"affordable"`
}

// Aggregator totals a pass and checks it against the account balance.
type Aggregator struct {
	accounts account.Client
}

// New creates an aggregator backed by the given account client.
func New(accounts account.Client) *Aggregator {
	return &Aggregator{accounts: accounts}
}

// Aggregate totals the successful items and gates the batch against the
// user's balance. The balance is fetched fresh on every call. A balance
// service failure returns ErrBalanceUnavailable; the items themselves are
// never the cause of an error here.
func (a *Aggregator) Aggregate(ctx context.Context, userID string, items []model.ResolvedItem) (*Summary, error) {
	summary := &Summary{}
	for _, it := range items {
		if !it.IsSuccess {
			continue
		}
		summary.TotalCost += it.Price()
		if it.Metadata != nil && it.Metadata.CurrencyUnit != "" {
			if summary.PerCurrency == nil {
				summary.PerCurrency = make(map[string]float64)
			}
			summary.PerCurrency[it.Metadata.CurrencyUnit] += it.Price()
		}
	}

	bal, err := a.accounts.Balance(ctx, userID)
	if err != nil {
		zap.L().Warn("cost: balance fetch failed", zap.String("user_id", userID), zap.Error(err))
		return nil, eris.Wrapf(ErrBalanceUnavailable, "fetch balance: %v", err)
	}
	summary.Balance = *bal

	summary.Affordable = summary.TotalCost <= bal.Amount
	if summary.Affordable {
		for _, it := range items {
			if it.IsSuccess {
				summary.EligibleItems = append(summary.EligibleItems, it)
			}
		}
	}

	zap.L().Debug("cost: aggregated pass",
		zap.String("user_id", userID),
		zap.Float64("total_cost", summary.TotalCost),
		zap.Float64("balance", bal.Amount),
		zap.Bool("affordable", summary.Affordable),
	)
	return summary, nil
}
