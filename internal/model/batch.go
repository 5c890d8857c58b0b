package model

// BatchStats summarizes one batch at its current stage.
type BatchStats struct {
	TotalLines  int `json:"totalLines"`
	ValidRefs   int `json:"validRefs"`
	InvalidRefs int `json:"invalidRefs"`

	Resolved  int `json:"resolved"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`

	// TotalCost sums the prices of successfully resolved items.
	TotalCost float64 `json:"totalCost"`
	// PerCurrency breaks the total down by the provider currency unit.
	PerCurrency map[string]float64 `json:"perCurrency,omitempty"`
}

// ComputeStats derives stats from the parsed references and whatever items
// have settled so far.
func ComputeStats(refs []ParsedReference, items []ResolvedItem) BatchStats {
	stats := BatchStats{TotalLines: len(refs)}
	for _, ref := range refs {
		if ref.IsValid {
			stats.ValidRefs++
		} else {
			stats.InvalidRefs++
		}
	}

	for _, it := range items {
		stats.Resolved++
		if !it.IsSuccess {
			stats.Failed++
			continue
		}
		stats.Succeeded++
		stats.TotalCost += it.Price()
		if it.Metadata != nil && it.Metadata.CurrencyUnit != "" {
			if stats.PerCurrency == nil {
				stats.PerCurrency = make(map[string]float64)
			}
			stats.PerCurrency[it.Metadata.CurrencyUnit] += it.Price()
		}
	}
	return stats
}
