// Package export runs one snapshot export end to end: fetch the asset
// payload, enrich every type that has a strategy, then assemble either a
// single workbook or the per-type CSV file set. Artifacts stay in memory;
// writing them anywhere is the caller's concern.
package export

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"

	"snapex/pkg/aisummary"
	"snapex/pkg/enrich"
	"snapex/pkg/grid"
	"snapex/pkg/model/masset"
	"snapex/pkg/model/msnapshot"
	"snapex/pkg/progress"
	"snapex/pkg/retry"
	"snapex/pkg/revex"
	"snapex/pkg/translate/tcsv"
	"snapex/pkg/translate/txlsx"
)

// Export formats.
const (
	FormatXLSX = "xlsx"
	FormatCSV  = "csv"
)

const defaultAssetScope = "own"

// Client is the authenticated GET surface the orchestrator needs.
type Client interface {
	Get(ctx context.Context, path string) ([]byte, error)
}

// File is one in-memory export artifact.
type File struct {
	Name string
	Data []byte
}

// Options selects what one Run exports.
type Options struct {
	SnapshotID string
	CompanyID  string
	// AssetScope is the snapshot asset query type, "own" when empty.
	AssetScope string
	// Format is FormatXLSX (default) or FormatCSV.
	Format string
}

// Exporter wires the transport, the enrichment registry and the
// reporting channels for repeated runs.
type Exporter struct {
	client     Client
	summarizer *aisummary.Summarizer
	reporter   *progress.Reporter
	logger     *slog.Logger
	registry   map[string]enrich.Strategy

	now func() time.Time
}

// New builds an exporter. Summarizer and reporter may be nil; a nil
// logger discards.
func New(client Client, summarizer *aisummary.Summarizer, reporter *progress.Reporter, logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Exporter{
		client:     client,
		summarizer: summarizer,
		reporter:   reporter,
		logger:     logger,
		registry:   enrich.NewRegistry(),
		now:        time.Now,
	}
}

// Run executes one export. Any fatal error is also emitted as the
// terminal progress event.
func (e *Exporter) Run(ctx context.Context, opts Options) ([]File, error) {
	files, err := e.run(ctx, opts)
	if err != nil {
		e.reporter.Error(err)
		return nil, err
	}
	return files, nil
}

func (e *Exporter) run(ctx context.Context, opts Options) ([]File, error) {
	if opts.SnapshotID == "" || opts.CompanyID == "" {
		return nil, fmt.Errorf("snapshot id and company id are required")
	}
	scope := opts.AssetScope
	if scope == "" {
		scope = defaultAssetScope
	}
	format := opts.Format
	if format == "" {
		format = FormatXLSX
	}
	if format != FormatXLSX && format != FormatCSV {
		return nil, fmt.Errorf("unsupported export format %q", format)
	}

	runID := ulid.Make().String()
	log := e.logger.With("run", runID, "snapshot", opts.SnapshotID)
	log.Info("export started", "format", format)

	e.reporter.Send(5, "Fetching snapshot data...")
	payload, err := e.fetchPayload(ctx, opts.SnapshotID, opts.CompanyID, scope)
	if err != nil {
		return nil, fmt.Errorf("fetch snapshot assets: %w", err)
	}
	log.Info("snapshot payload received", "assets", payload.TotalAssets())

	e.reporter.Send(30, "Processing snapshot assets...")
	metadata := e.fetchMetadata(ctx, opts.SnapshotID, opts.CompanyID, log)

	exportedAt := e.now().UTC()
	var files []File
	if format == FormatXLSX {
		files, err = e.buildWorkbook(ctx, opts.SnapshotID, payload, metadata, exportedAt)
	} else {
		files = e.buildCSVs(opts.SnapshotID, payload, exportedAt)
	}
	if err != nil {
		return nil, err
	}

	e.reporter.Send(100, "Export complete!")
	log.Info("export complete", "files", len(files))
	return files, nil
}

var snapshotFetchPolicy = retry.Policy{
	MaxAttempts: 3,
	Delay:       3 * time.Second,
	Retryable:   revex.IsUnauthorized,
}

func (e *Exporter) fetchPayload(ctx context.Context, snapshotID, companyID, scope string) (msnapshot.Payload, error) {
	path := fmt.Sprintf("/snapshots-appengine/snapshot/%s/get_assets?type=%s&companyId=%s", snapshotID, scope, companyID)
	policy := snapshotFetchPolicy
	policy.OnRetry = func(attempt int, _ error) {
		e.reporter.Send(5, fmt.Sprintf("Retrying... (attempt %d/%d)", attempt, policy.MaxAttempts))
	}
	body, err := retry.DoValue(ctx, policy, func() ([]byte, error) {
		return e.client.Get(ctx, path)
	})
	if err != nil {
		return nil, err
	}
	return msnapshot.DecodePayload(body)
}

// fetchMetadata is best-effort: without it the export still runs, with
// enrichment disabled for the location-bound types.
func (e *Exporter) fetchMetadata(ctx context.Context, snapshotID, companyID string, log *slog.Logger) msnapshot.Metadata {
	path := fmt.Sprintf("/snapshots/snapshotDetails/%s?companyId=%s", snapshotID, companyID)
	body, err := e.client.Get(ctx, path)
	if err != nil {
		log.Warn("snapshot metadata fetch failed", "error", err)
		return msnapshot.Metadata{}
	}
	metadata, err := msnapshot.DecodeMetadata(body)
	if err != nil {
		log.Warn("snapshot metadata decode failed", "error", err)
		return msnapshot.Metadata{}
	}
	return metadata
}

// typeCheckpoints maps the enrichable types to their progress band. The
// workflow entry is the batch start; the strategy refines it per batch.
var typeCheckpoints = map[string]struct {
	pct  int
	noun string
}{
	"forms":             {40, "forms"},
	"funnels":           {45, "funnels"},
	"calendars":         {50, "calendars"},
	"pipelines":         {55, "pipelines"},
	"email_templates":   {60, "email templates"},
	"surveys":           {65, "surveys"},
	"campaigns":         {68, "campaigns"},
	"links":             {70, "links"},
	"text_templates":    {72, "text templates"},
	"membership_offers": {75, "membership offers"},
	"custom_fields":     {77, "custom fields"},
	"custom_values":     {78, "custom values"},
	"tags":              {79, "tags"},
	"knowledge_bases":   {80, "knowledge bases"},
	"conversation_ai":   {81, "AI employees"},
	"custom_objects":    {82, "custom objects"},
	"dashboards":        {83, "dashboards"},
	"quizzes":           {84, "quizzes"},
}

func (e *Exporter) buildWorkbook(ctx context.Context, snapshotID string, payload msnapshot.Payload, metadata msnapshot.Metadata, exportedAt time.Time) ([]File, error) {
	e.reporter.Send(50, "Creating Excel workbook...")

	enriched, extras := e.enrichAll(ctx, payload, metadata.LocationID)
	wb := txlsx.Build(txlsx.BuildInput{
		SnapshotID: snapshotID,
		Metadata:   metadata,
		ExportDate: exportedAt.Format(time.RFC3339),
		Payload:    payload,
		Enriched:   enriched,
		Extras:     extras,
	})

	e.reporter.Send(80, "Generating Excel file...")
	var buf bytes.Buffer
	if err := wb.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return []File{{
		Name: txlsx.FileName(snapshotID, timestamp(exportedAt)),
		Data: buf.Bytes(),
	}}, nil
}

func (e *Exporter) enrichAll(ctx context.Context, payload msnapshot.Payload, locationID string) (map[string][]masset.Record, map[string][]txlsx.ExtraSheet) {
	env := enrich.NewEnv(e.client, locationID, e.logger)
	env.Progress = e.reporter
	env.Summarizer = e.summarizer

	enriched := make(map[string][]masset.Record)
	extras := make(map[string][]txlsx.ExtraSheet)
	for _, t := range masset.Types {
		records := payload.Records(t.Key)
		if len(records) == 0 {
			continue
		}
		strategy, ok := e.registry[t.Key]
		if !ok {
			continue
		}
		// The surveys endpoint is the only one keyed by asset id alone.
		if locationID == "" && t.Key != "surveys" {
			continue
		}

		e.sendTypeCheckpoint(t.Key, len(records))
		result := strategy.Enrich(ctx, env, records)
		enriched[t.Key] = result.Records
		for _, sheet := range result.Extras {
			extras[t.Key] = append(extras[t.Key], txlsx.ExtraSheet{Name: sheet.Name, Records: sheet.Records})
		}
	}
	return enriched, extras
}

func (e *Exporter) sendTypeCheckpoint(key string, count int) {
	if key == "workflow" {
		msg := fmt.Sprintf("Enriching %d workflows...", count)
		if e.summarizer != nil && e.summarizer.Enabled() {
			msg = fmt.Sprintf("Analyzing %d workflows with AI...", count)
		}
		e.reporter.Send(35, msg)
		return
	}
	if cp, ok := typeCheckpoints[key]; ok {
		e.reporter.Send(cp.pct, fmt.Sprintf("Enriching %d %s...", count, cp.noun))
	}
}

// buildCSVs emits the summary file first, then one raw CSV per non-empty
// type. The CSV path never enriches.
func (e *Exporter) buildCSVs(snapshotID string, payload msnapshot.Payload, exportedAt time.Time) []File {
	ts := timestamp(exportedAt)
	files := []File{{
		Name: tcsv.SummaryFileName(snapshotID, ts),
		Data: []byte(tcsv.BOM + tcsv.Summary(snapshotID, exportedAt.Format(time.RFC3339), payload)),
	}}
	for _, t := range masset.Types {
		records := payload.Records(t.Key)
		if len(records) == 0 {
			continue
		}
		files = append(files, File{
			Name: tcsv.FileName(snapshotID, t, ts),
			Data: []byte(tcsv.BOM + tcsv.FromGrid(grid.ToGrid(records))),
		})
	}

	e.reporter.Send(80, "Generating downloads...")
	for i := range files {
		pct := 80 + (i+1)*15/len(files)
		e.reporter.Send(pct, fmt.Sprintf("Downloading file %d of %d...", i+1, len(files)))
	}
	return files
}

// timestamp renders the artifact-name timestamp: second-resolution UTC
// with colons replaced so file systems accept it.
func timestamp(t time.Time) string {
	return t.Format("2006-01-02T15-04-05")
}
