package report

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/stockbatch-cli/internal/model"
)

func TestWriteReport(t *testing.T) {
	t.Parallel()

	refs := []model.ParsedReference{
		{Index: 0, Raw: "shutterstock:1234567", Site: "shutterstock", ExternalID: "1234567", IsValid: true},
		{Index: 1, Raw: "garbage", InvalidReason: model.ReasonUnrecognizedFormat},
		{Index: 2, Raw: "istock:gm456", Site: "istock", ExternalID: "gm456", IsValid: true},
	}
	items := []model.ResolvedItem{
		{
			Input:     refs[0],
			IsSuccess: true,
			Metadata:  &model.AssetMetadata{Title: "beach sunset", Price: 10, CurrencyUnit: "USD", Available: true},
		},
		{
			Input:       refs[2],
			Error:       model.LookupErrNotFound,
			ErrorDetail: "asset not found",
		},
	}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, refs, items))

	file, err := xlsx.OpenBinary(buf.Bytes())
	require.NoError(t, err)
	require.Len(t, file.Sheets, 2)

	itemsSheet := file.Sheet["Items"]
	require.NotNil(t, itemsSheet)
	// Header plus one row per input line.
	require.Len(t, itemsSheet.Rows, 4)
	assert.Equal(t, "resolved", itemsSheet.Rows[1].Cells[4].Value)
	assert.Equal(t, "beach sunset", itemsSheet.Rows[1].Cells[5].Value)
	assert.Equal(t, "invalid", itemsSheet.Rows[2].Cells[4].Value)
	assert.Equal(t, "unrecognized format", itemsSheet.Rows[2].Cells[8].Value)
	assert.Equal(t, "failed", itemsSheet.Rows[3].Cells[4].Value)

	summary := file.Sheet["Summary"]
	require.NotNil(t, summary)
	assert.Equal(t, "Total lines", summary.Rows[0].Cells[0].Value)
	total, err := summary.Rows[6].Cells[1].Float()
	require.NoError(t, err)
	assert.InDelta(t, 10.0, total, 0.001)
}

func TestWriteReportEmptyBatch(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, nil, nil))

	file, err := xlsx.OpenBinary(buf.Bytes())
	require.NoError(t, err)
	itemsSheet := file.Sheet["Items"]
	require.NotNil(t, itemsSheet)
	assert.Len(t, itemsSheet.Rows, 1)
}
