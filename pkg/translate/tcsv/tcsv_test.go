package tcsv_test

import (
	"encoding/csv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"snapex/pkg/grid"
	"snapex/pkg/model/masset"
	"snapex/pkg/model/msnapshot"
	"snapex/pkg/translate/tcsv"
)

func TestEscape(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "hello", "hello"},
		{"comma", "a,b", `"a,b"`},
		{"quote", `say "hi"`, `"say ""hi"""`},
		{"newline", "line1\nline2", "\"line1\nline2\""},
		{"carriage return", "a\rb", "\"a\rb\""},
		{"mixed", "He said \"hi\", then left\n", "\"He said \"\"hi\"\", then left\n\""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tcsv.Escape(tt.in))
		})
	}
}

func TestFromGridRoundTrip(t *testing.T) {
	g := grid.Grid{
		{"name", "note", "count"},
		{"Widget", "has, comma", "3"},
		{"Gadget", "multi\nline \"quoted\"", ""},
	}

	text := tcsv.FromGrid(g)

	r := csv.NewReader(strings.NewReader(text))
	parsed, err := r.ReadAll()
	require.NoError(t, err)
	require.Len(t, parsed, len(g))
	for i := range g {
		assert.Equal(t, []string(g[i]), parsed[i])
	}
}

func TestFileNames(t *testing.T) {
	ts := "2026-09-01T10-00-00"
	wf, ok := masset.TypeByKey("workflow")
	require.True(t, ok)
	assert.Equal(t, "Snapshot_s1_Workflows_2026-09-01T10-00-00.csv", tcsv.FileName("s1", wf, ts))

	tt, ok := masset.TypeByKey("text_templates")
	require.True(t, ok)
	assert.Equal(t, "Snapshot_s1_Text_Templates_2026-09-01T10-00-00.csv", tcsv.FileName("s1", tt, ts))

	assert.Equal(t, "Snapshot_s1_SUMMARY_2026-09-01T10-00-00.csv", tcsv.SummaryFileName("s1", ts))
}

func TestSummary(t *testing.T) {
	payload := msnapshot.Payload{
		"workflow": {{"_id": "w1"}, {"_id": "w2"}},
		"tags":     {},
	}

	text := tcsv.Summary("s1", "2026-09-01T10:00:00Z", payload)

	assert.True(t, strings.HasPrefix(text, "Snapshot Export Summary\n"))
	assert.Contains(t, text, "Snapshot ID,s1\n")
	assert.Contains(t, text, "Asset Type,Count,CSV File Generated\n")
	assert.Contains(t, text, "Workflows,2,Yes\n")
	assert.Contains(t, text, "Tags,0,No\n")
	assert.Contains(t, text, "Custom Fields,0,No\n")
	assert.Contains(t, text, "\nTotal Assets,2\n")
}

func TestBOM(t *testing.T) {
	assert.Equal(t, "\uFEFF", tcsv.BOM)
}
