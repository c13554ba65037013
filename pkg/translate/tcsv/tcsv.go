// Package tcsv serializes grids to CSV text for spreadsheet import.
package tcsv

import (
	"fmt"
	"strings"

	"snapex/pkg/grid"
	"snapex/pkg/model/masset"
	"snapex/pkg/model/msnapshot"
)

// BOM prefixes every emitted file so spreadsheet applications detect
// UTF-8.
const BOM = "\uFEFF"

// Escape quotes a single CSV field when it carries a comma, quote or line
// break. Embedded quotes are doubled.
func Escape(v string) string {
	if !strings.ContainsAny(v, ",\"\n\r") {
		return v
	}
	return `"` + strings.ReplaceAll(v, `"`, `""`) + `"`
}

// FromGrid renders a grid as CSV text, one line per row with a trailing
// newline.
func FromGrid(g grid.Grid) string {
	var b strings.Builder
	for _, row := range g {
		for i, cell := range row {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(Escape(cell))
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// FileName is the per-type CSV file name.
func FileName(snapshotID string, t masset.Type, timestamp string) string {
	return fmt.Sprintf("Snapshot_%s_%s_%s.csv", snapshotID, t.CSVName(), timestamp)
}

// SummaryFileName is the summary CSV file name.
func SummaryFileName(snapshotID, timestamp string) string {
	return fmt.Sprintf("Snapshot_%s_SUMMARY_%s.csv", snapshotID, timestamp)
}

// Summary builds the export summary CSV: per-type counts, whether a file
// was generated for the type, and the total.
func Summary(snapshotID, exportDate string, payload msnapshot.Payload) string {
	var b strings.Builder
	b.WriteString("Snapshot Export Summary\n")
	fmt.Fprintf(&b, "Snapshot ID,%s\n", Escape(snapshotID))
	fmt.Fprintf(&b, "Export Date,%s\n\n", Escape(exportDate))
	b.WriteString("Asset Type,Count,CSV File Generated\n")

	total := 0
	for _, t := range masset.Types {
		count := len(payload.Records(t.Key))
		total += count
		generated := "No"
		if count > 0 {
			generated = "Yes"
		}
		fmt.Fprintf(&b, "%s,%d,%s\n", Escape(t.SheetName), count, generated)
	}

	fmt.Fprintf(&b, "\nTotal Assets,%d\n", total)
	return b.String()
}
