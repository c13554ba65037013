package txlsx_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"snapex/pkg/grid"
	"snapex/pkg/model/masset"
	"snapex/pkg/model/msnapshot"
	"snapex/pkg/translate/txlsx"
)

func TestSanitizeSheetName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"clean", "Workflows", "Workflows"},
		{"restricted chars", `A[b]c*d/e\f?g:h`, "Abcdefgh"},
		{"too long", strings.Repeat("x", 40), strings.Repeat("x", 31)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := txlsx.SanitizeSheetName(tt.in)
			assert.Equal(t, tt.want, got)
			assert.LessOrEqual(t, len(got), txlsx.MaxSheetNameLen)
			assert.NotContains(t, got, "[")
			assert.NotContains(t, got, ":")
		})
	}
}

func TestAddSheetUniqueness(t *testing.T) {
	wb := txlsx.NewWorkbook()
	g := grid.Grid{{"a"}}

	first := wb.AddSheet("Pipelines", g, nil)
	second := wb.AddSheet("Pipelines", g, nil)
	assert.Equal(t, "Pipelines", first)
	assert.NotEqual(t, first, second)
	assert.LessOrEqual(t, len(second), txlsx.MaxSheetNameLen)
}

func TestFileName(t *testing.T) {
	assert.Equal(t,
		"Snapshot_s1_Export_2026-09-01T10-00-00.xlsx",
		txlsx.FileName("s1", "2026-09-01T10-00-00"))
}

func buildInput() txlsx.BuildInput {
	return txlsx.BuildInput{
		SnapshotID: "s1",
		Metadata: msnapshot.Metadata{
			LocationID: "loc1",
			Name:       "Agency Base",
			Type:       "own",
		},
		ExportDate: "2026-09-01T10:00:00Z",
		Payload: msnapshot.Payload{
			"workflow":  {{"_id": "w1", "name": "Nurture"}},
			"tags":      {},
			"pipelines": {{"_id": "p1", "name": "Sales"}},
		},
		Enriched: map[string][]masset.Record{
			"workflow": {{"_id": "w1", "name": "Nurture", "totalSteps": 4.0}},
		},
		Extras: map[string][]txlsx.ExtraSheet{
			"pipelines": {{
				Name:    "Pipeline Stages",
				Records: []masset.Record{{"stageId": "st1", "stageName": "New"}},
			}},
		},
	}
}

func TestBuildSheetOrder(t *testing.T) {
	wb := txlsx.Build(buildInput())
	sheets := wb.Sheets()

	names := make([]string, 0, len(sheets))
	for _, s := range sheets {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{"Summary", "Master List", "Pipelines", "Pipeline Stages", "Workflows"}, names)
}

func TestBuildSummaryRows(t *testing.T) {
	wb := txlsx.Build(buildInput())
	summary := wb.Sheets()[0].Grid

	assert.Equal(t, []string{"Snapshot Export Summary"}, summary[0])
	assert.Contains(t, summary, []string{"Snapshot Name", "Agency Base"})
	assert.Contains(t, summary, []string{"Tags", "0", "N/A"})
	assert.Contains(t, summary, []string{"Workflows", "1", "Workflows"})
	assert.Contains(t, summary, []string{"Total Assets", "2"})
	assert.Contains(t, summary, []string{"Total Sheets", "4"})
}

func TestBuildEmptyTypeGetsNoSheet(t *testing.T) {
	wb := txlsx.Build(buildInput())
	for _, s := range wb.Sheets() {
		assert.NotEqual(t, "Tags", s.Name)
	}
}

func TestBuildMasterList(t *testing.T) {
	wb := txlsx.Build(buildInput())
	master := wb.Sheets()[1].Grid

	assert.Equal(t, []string{"ID", "Name", "Type of Asset"}, master[0])
	assert.Contains(t, master, []string{"p1", "Sales", "Pipelines"})
	assert.Contains(t, master, []string{"w1", "Nurture", "Workflows"})
}

func TestBuildUsesEnrichedRecords(t *testing.T) {
	wb := txlsx.Build(buildInput())
	var wf txlsx.Sheet
	for _, s := range wb.Sheets() {
		if s.Name == "Workflows" {
			wf = s
		}
	}
	require.NotEmpty(t, wf.Grid)
	assert.Equal(t, "Name", wf.Grid[0][0])
	assert.Equal(t, "4", wf.Grid[1][14])
	assert.Equal(t, 35.0, wf.ColWidths[0])
}

func TestWriteProducesReadableWorkbook(t *testing.T) {
	wb := txlsx.Build(buildInput())

	var buf bytes.Buffer
	require.NoError(t, wb.Write(&buf))

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	assert.Equal(t, []string{"Summary", "Master List", "Pipelines", "Pipeline Stages", "Workflows"}, f.GetSheetList())

	rows, err := f.GetRows("Summary")
	require.NoError(t, err)
	assert.Equal(t, "Snapshot Export Summary", rows[0][0])
}
