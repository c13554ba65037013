// Package txlsx assembles multi-sheet export workbooks and serializes
// them through excelize.
package txlsx

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"snapex/pkg/grid"
)

// MaxSheetNameLen is the spreadsheet tab-name limit.
const MaxSheetNameLen = 31

const defaultColWidth = 20

// Sheet is one workbook tab.
type Sheet struct {
	Name      string
	Grid      grid.Grid
	ColWidths []float64
}

// Workbook is an ordered sheet collection with name sanitization and
// uniqueness enforced on insert.
type Workbook struct {
	sheets []Sheet
	used   map[string]bool
}

func NewWorkbook() *Workbook {
	return &Workbook{used: map[string]bool{}}
}

// AddSheet appends a sheet under the sanitized, deduplicated form of
// name and returns the name actually used. A nil widths slice gets the
// default width on every column.
func (w *Workbook) AddSheet(name string, g grid.Grid, widths []float64) string {
	name = w.uniqueName(SanitizeSheetName(name))
	if widths == nil {
		cols := 0
		if len(g) > 0 {
			cols = len(g[0])
		}
		widths = make([]float64, cols)
		for i := range widths {
			widths[i] = defaultColWidth
		}
	}
	w.used[name] = true
	w.sheets = append(w.sheets, Sheet{Name: name, Grid: g, ColWidths: widths})
	return name
}

// Sheets returns the tabs in insertion order.
func (w *Workbook) Sheets() []Sheet {
	return w.sheets
}

// SanitizeSheetName caps name at the tab-name limit and removes the
// characters the format forbids.
func SanitizeSheetName(name string) string {
	if len(name) > MaxSheetNameLen {
		name = name[:MaxSheetNameLen]
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '[', ']', '*', '/', '\\', '?', ':':
			return -1
		}
		return r
	}, name)
}

func (w *Workbook) uniqueName(name string) string {
	if name == "" {
		name = "Sheet"
	}
	if !w.used[name] {
		return name
	}
	for n := 2; ; n++ {
		suffix := fmt.Sprintf(" %d", n)
		base := name
		if len(base)+len(suffix) > MaxSheetNameLen {
			base = base[:MaxSheetNameLen-len(suffix)]
		}
		candidate := base + suffix
		if !w.used[candidate] {
			return candidate
		}
	}
}

// FileName is the workbook file name for one export run.
func FileName(snapshotID, timestamp string) string {
	return fmt.Sprintf("Snapshot_%s_Export_%s.xlsx", snapshotID, timestamp)
}

// Write serializes the workbook.
func (w *Workbook) Write(dst io.Writer) error {
	if len(w.sheets) == 0 {
		return fmt.Errorf("write workbook: no sheets")
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	for i, sheet := range w.sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sheet.Name); err != nil {
				return fmt.Errorf("rename sheet %q: %w", sheet.Name, err)
			}
		} else if _, err := f.NewSheet(sheet.Name); err != nil {
			return fmt.Errorf("add sheet %q: %w", sheet.Name, err)
		}

		for rowIdx, row := range sheet.Grid {
			cell, err := excelize.CoordinatesToCellName(1, rowIdx+1)
			if err != nil {
				return fmt.Errorf("sheet %q row %d: %w", sheet.Name, rowIdx+1, err)
			}
			vals := make([]any, len(row))
			for i, c := range row {
				vals[i] = c
			}
			if err := f.SetSheetRow(sheet.Name, cell, &vals); err != nil {
				return fmt.Errorf("sheet %q row %d: %w", sheet.Name, rowIdx+1, err)
			}
		}

		for colIdx, width := range sheet.ColWidths {
			col, err := excelize.ColumnNumberToName(colIdx + 1)
			if err != nil {
				return fmt.Errorf("sheet %q column %d: %w", sheet.Name, colIdx+1, err)
			}
			if err := f.SetColWidth(sheet.Name, col, col, width); err != nil {
				return fmt.Errorf("sheet %q column %s: %w", sheet.Name, col, err)
			}
		}
	}

	if err := f.Write(dst); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
