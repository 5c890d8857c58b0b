// Package report renders a resolved batch as an xlsx cost report.
package report

import (
	"io"
	"sort"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/stockbatch-cli/internal/model"
)

var itemHeaders = []string{"Line", "Input", "Provider", "External ID", "Status", "Title", "Price", "Currency", "Detail"}

// Write renders the batch to w: one Items sheet with a row per input line
// and a Summary sheet with the derived stats.
func Write(w io.Writer, refs []model.ParsedReference, items []model.ResolvedItem) error {
	file := xlsx.NewFile()

	if err := writeItems(file, refs, items); err != nil {
		return err
	}
	if err := writeSummary(file, model.ComputeStats(refs, items)); err != nil {
		return err
	}

	if err := file.Write(w); err != nil {
		return eris.Wrap(err, "report: write workbook")
	}
	return nil
}

func writeItems(file *xlsx.File, refs []model.ParsedReference, items []model.ResolvedItem) error {
	sheet, err := file.AddSheet("Items")
	if err != nil {
		return eris.Wrap(err, "report: add items sheet")
	}

	header := sheet.AddRow()
	for _, h := range itemHeaders {
		header.AddCell().Value = h
	}

	byIndex := make(map[int]model.ResolvedItem, len(items))
	for _, it := range items {
		byIndex[it.Input.Index] = it
	}

	for _, ref := range refs {
		row := sheet.AddRow()
		row.AddCell().SetInt(ref.Index + 1)
		row.AddCell().Value = ref.Raw
		row.AddCell().Value = ref.Site
		row.AddCell().Value = ref.ExternalID

		if !ref.IsValid {
			row.AddCell().Value = "invalid"
			row.AddCell()
			row.AddCell()
			row.AddCell()
			row.AddCell().Value = string(ref.InvalidReason)
			continue
		}

		it, resolved := byIndex[ref.Index]
		switch {
		case !resolved:
			row.AddCell().Value = "unresolved"
		case it.IsSuccess:
			row.AddCell().Value = "resolved"
			row.AddCell().Value = it.Metadata.Title
			row.AddCell().SetFloat(it.Metadata.Price)
			row.AddCell().Value = it.Metadata.CurrencyUnit
		default:
			row.AddCell().Value = "failed"
			row.AddCell()
			row.AddCell()
			row.AddCell()
			row.AddCell().Value = string(it.Error)
		}
	}
	return nil
}

func writeSummary(file *xlsx.File, stats model.BatchStats) error {
	sheet, err := file.AddSheet("Summary")
	if err != nil {
		return eris.Wrap(err, "report: add summary sheet")
	}

	addStat := func(label string, value int) {
		row := sheet.AddRow()
		row.AddCell().Value = label
		row.AddCell().SetInt(value)
	}
	addStat("Total lines", stats.TotalLines)
	addStat("Valid references", stats.ValidRefs)
	addStat("Invalid references", stats.InvalidRefs)
	addStat("Resolved", stats.Resolved)
	addStat("Succeeded", stats.Succeeded)
	addStat("Failed", stats.Failed)

	row := sheet.AddRow()
	row.AddCell().Value = "Total cost"
	row.AddCell().SetFloat(stats.TotalCost)

	units := make([]string, 0, len(stats.PerCurrency))
	for unit := range stats.PerCurrency {
		units = append(units, unit)
	}
	sort.Strings(units)
	for _, unit := range units {
		row := sheet.AddRow()
		row.AddCell().Value = "Total " + unit
		row.AddCell().SetFloat(stats.PerCurrency[unit])
	}
	return nil
}
