// Package enrich augments snapshot asset records with detail fetched from
// the platform API. Every asset type has its own strategy; all strategies
// share the merge-and-continue contract: enrichment failures fall back to
// the unenriched record, never drop items and never reorder them.
package enrich

import (
	"context"
	"log/slog"
	"time"

	"snapex/pkg/aisummary"
	"snapex/pkg/model/masset"
	"snapex/pkg/progress"
	"snapex/pkg/retry"
	"snapex/pkg/revex"
)

// Getter is the slice of the transport session strategies need.
type Getter interface {
	Get(ctx context.Context, path string) ([]byte, error)
}

// Env carries the shared dependencies of one export run.
type Env struct {
	Client     Getter
	LocationID string
	Logger     *slog.Logger
	Progress   *progress.Reporter
	Summarizer *aisummary.Summarizer

	// ItemRetry guards the per-workflow detail fetch.
	ItemRetry retry.Policy
	// ItemPause paces the per-item calls of the composite strategies.
	ItemPause time.Duration
	// BatchPause separates workflow batches while AI analysis runs.
	BatchPause time.Duration
}

// NewEnv applies the production pacing defaults.
func NewEnv(client Getter, locationID string, logger *slog.Logger) *Env {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Env{
		Client:     client,
		LocationID: locationID,
		Logger:     logger,
		ItemRetry: retry.Policy{
			MaxAttempts: 3,
			Delay:       2 * time.Second,
			Retryable:   revex.IsUnauthorized,
		},
		ItemPause:  200 * time.Millisecond,
		BatchPause: 3 * time.Second,
	}
}

func (e *Env) logger() *slog.Logger {
	if e.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return e.Logger
}

// pause sleeps unless the context ends first.
func (e *Env) pause(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// Sheet is a supplemental flattened collection a strategy emits alongside
// the enriched records (pipeline stages, calendar configuration).
type Sheet struct {
	Name    string
	Records []masset.Record
}

// Result is one strategy's output. Records always has the same length and
// order as the input.
type Result struct {
	Records []masset.Record
	Extras  []Sheet
}

// Strategy enriches all records of one asset type.
type Strategy interface {
	Enrich(ctx context.Context, env *Env, records []masset.Record) Result
}

// NewRegistry maps asset-type keys to their strategies. Types without an
// entry export raw. Quizzes share the forms strategy and endpoint.
func NewRegistry() map[string]Strategy {
	forms := &formsStrategy{}
	return map[string]Strategy{
		"workflow":          &workflowStrategy{},
		"forms":             forms,
		"quizzes":           forms,
		"funnels":           &funnelsStrategy{},
		"calendars":         &calendarsStrategy{},
		"pipelines":         &pipelinesStrategy{},
		"email_templates":   &emailTemplatesStrategy{},
		"surveys":           &surveysStrategy{},
		"campaigns":         campaignsStrategy(),
		"links":             linksStrategy(),
		"text_templates":    textTemplatesStrategy(),
		"membership_offers": &membershipOffersStrategy{},
		"custom_fields":     customFieldsStrategy(),
		"custom_values":     customValuesStrategy(),
		"tags":              tagsStrategy(),
		"knowledge_bases":   &knowledgeBasesStrategy{},
		"conversation_ai":   conversationAIStrategy(),
		"custom_objects":    customObjectsStrategy(),
		"dashboards":        &dashboardsStrategy{},
	}
}

func passthrough(records []masset.Record) Result {
	return Result{Records: records}
}
