// Package grid flattens heterogeneous asset records into rectangular
// header+rows grids ready for spreadsheet or CSV serialization.
package grid

import (
	"sort"
	"strconv"

	"github.com/goccy/go-json"

	"snapex/pkg/model/masset"
)

// Grid is a header row followed by data rows. Every row has the same
// length as the header.
type Grid [][]string

// MaxCellLen is the spreadsheet cell size limit. Every cell a grid emits
// stays within it.
const MaxCellLen = 32767

// EnrichmentColumn is the reserved trailing column carrying the raw
// enrichment payload of each record.
const EnrichmentColumn = "Full Enrichment Data"

// ToGrid converts records into a grid whose header is the sorted union of
// all record keys plus the trailing enrichment column. Missing keys render
// as empty cells. No records yields the single-cell "No data" grid.
func ToGrid(records []masset.Record) Grid {
	if len(records) == 0 {
		return Grid{{"No data"}}
	}

	keySet := map[string]struct{}{}
	for _, rec := range records {
		for k := range rec {
			if k != masset.EnrichmentDataKey {
				keySet[k] = struct{}{}
			}
		}
	}
	keys := make([]string, 0, len(keySet))
	for k := range keySet {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	header := append(append([]string{}, keys...), EnrichmentColumn)
	out := Grid{header}
	for _, rec := range records {
		row := make([]string, 0, len(header))
		for _, k := range keys {
			row = append(row, FormatValue(rec[k]))
		}
		row = append(row, formatEnrichmentData(rec[masset.EnrichmentDataKey]))
		out = append(out, row)
	}
	return out
}

// FormatValue renders one record value as a cell. Arrays join their
// formatted elements with "; ", objects render as compact JSON, nil is
// empty. The result is truncated to the cell limit.
func FormatValue(v any) string {
	return Truncate(formatValue(v))
}

func formatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case []any:
		out := ""
		for i, e := range t {
			if i > 0 {
				out += "; "
			}
			out += formatValue(e)
		}
		return out
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(data)
	}
}

func formatEnrichmentData(v any) string {
	if v == nil {
		return ""
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return ""
	}
	return Truncate(string(data))
}

// Truncate caps s at the cell limit.
func Truncate(s string) string {
	if len(s) <= MaxCellLen {
		return s
	}
	return s[:MaxCellLen]
}
