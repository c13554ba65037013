package txlsx

import (
	"strconv"

	"snapex/pkg/grid"
	"snapex/pkg/model/masset"
	"snapex/pkg/model/msnapshot"
)

// workflowColWidths matches the workflow sheet's fixed column order;
// columns past the priority set get the default width.
var workflowColWidths = []float64{
	35, 12, 10, 25, 15, 15, 40, 25, 15, 15,
	20, 20, 15, 20, 12, 40, 30, 30, 30, 12,
	60, 12, 60, 12, 12, 12, 12, 20, 20, 60,
	60,
}

var (
	summaryColWidths    = []float64{25, 15, 25}
	masterListColWidths = []float64{25, 40, 20}
)

// ExtraSheet is a supplemental flattened collection emitted by an
// enrichment strategy, rendered as its own tab right after the owning
// type's sheet.
type ExtraSheet struct {
	Name    string
	Records []masset.Record
}

// BuildInput carries everything the workbook assembly needs. Enriched
// holds the final per-type records; a type key absent from Enriched falls
// back to the raw payload records.
type BuildInput struct {
	SnapshotID string
	Metadata   msnapshot.Metadata
	ExportDate string
	Payload    msnapshot.Payload
	Enriched   map[string][]masset.Record
	Extras     map[string][]ExtraSheet
}

// Build assembles the export workbook: Summary, Master List, then one
// sheet per non-empty asset type in the fixed order, with strategy extras
// following their owning type.
func Build(in BuildInput) *Workbook {
	wb := NewWorkbook()

	summary := grid.Grid{
		{"Snapshot Export Summary"},
		{"Snapshot ID", in.SnapshotID},
		{"Snapshot Name", orNA(in.Metadata.Name)},
		{"Location ID", orNA(in.Metadata.LocationID)},
		{"Snapshot Type", orNA(in.Metadata.Type)},
		{"Date Created", orNA(in.Metadata.DateAdded)},
		{"Date Updated", orNA(in.Metadata.DateUpdated)},
		{"Export Date", in.ExportDate},
		{"Export Format", "Excel Workbook (.xlsx)"},
		{},
		{"Asset Type", "Count", "Sheet Name"},
	}

	master := grid.Grid{{"ID", "Name", "Type of Asset"}}

	type pendingSheet struct {
		name   string
		grid   grid.Grid
		widths []float64
	}
	var typeSheets []pendingSheet
	totalAssets := 0

	for _, t := range masset.Types {
		base := in.Payload.Records(t.Key)
		if len(base) == 0 {
			summary = append(summary, []string{t.SheetName, "0", "N/A"})
			continue
		}

		totalAssets += len(base)
		summary = append(summary, []string{t.SheetName, strconv.Itoa(len(base)), t.SheetName})
		for _, rec := range base {
			master = append(master, []string{rec.ID(), rec.DisplayName(), t.SheetName})
		}

		records := base
		if enriched, ok := in.Enriched[t.Key]; ok {
			records = enriched
		}

		var sheet pendingSheet
		if t.Key == "workflow" {
			g := grid.WorkflowGrid(records)
			sheet = pendingSheet{t.SheetName, g, workflowWidths(len(g[0]))}
		} else {
			sheet = pendingSheet{t.SheetName, grid.ToGrid(records), nil}
		}
		typeSheets = append(typeSheets, sheet)

		for _, extra := range in.Extras[t.Key] {
			typeSheets = append(typeSheets, pendingSheet{extra.Name, grid.ToGrid(extra.Records), nil})
		}
	}

	summary = append(summary,
		[]string{},
		[]string{"Total Assets", strconv.Itoa(totalAssets)},
		[]string{"Total Sheets", strconv.Itoa(len(typeSheets) + 1)},
	)

	wb.AddSheet("Summary", summary, summaryColWidths)
	wb.AddSheet("Master List", master, masterListColWidths)
	for _, s := range typeSheets {
		wb.AddSheet(s.name, s.grid, s.widths)
	}
	return wb
}

func workflowWidths(cols int) []float64 {
	widths := append([]float64{}, workflowColWidths...)
	for len(widths) < cols {
		widths = append(widths, defaultColWidth)
	}
	if cols < len(widths) {
		widths = widths[:cols]
	}
	return widths
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
