package enrich

import (
	"context"
	"fmt"
	"math"
	"time"

	"golang.org/x/sync/errgroup"

	"snapex/pkg/aisummary"
	"snapex/pkg/model/masset"
	"snapex/pkg/model/mworkflow"
	"snapex/pkg/retry"
	"snapex/pkg/wfanalyze"
)

const workflowBatchSize = 3

// workflowStrategy fetches the full step graph per workflow, derives the
// analysis columns and optionally the AI summary pair. Workflows are the
// slowest type, so items run in parallel batches and the strategy emits
// its own fine-grained progress with a time estimate.
type workflowStrategy struct{}

func (s *workflowStrategy) Enrich(ctx context.Context, env *Env, records []masset.Record) Result {
	if len(records) == 0 {
		return passthrough(records)
	}

	aiEnabled := env.Summarizer != nil && env.Summarizer.Enabled()
	enriched := make([]masset.Record, len(records))
	durations := make([]time.Duration, 0, len(records))

	for start := 0; start < len(records); start += workflowBatchSize {
		end := min(start+workflowBatchSize, len(records))
		batch := records[start:end]

		env.Progress.Send(workflowProgress(start, len(records)),
			workflowMessage(aiEnabled, start, end, len(records), durations))

		batchDurations := make([]time.Duration, len(batch))
		g, gctx := errgroup.WithContext(ctx)
		for i, rec := range batch {
			g.Go(func() error {
				began := time.Now()
				enriched[start+i] = s.enrichOne(gctx, env, rec)
				batchDurations[i] = time.Since(began)
				return nil
			})
		}
		_ = g.Wait()
		durations = append(durations, batchDurations...)

		// The LLM provider rate-limits; spacing batches keeps runs under it.
		if aiEnabled && end < len(records) {
			env.pause(ctx, env.BatchPause)
		}
	}

	return Result{Records: enriched}
}

// enrichOne never fails: any fetch or decode error yields the original
// record merged with the zeroed derived set, so the sheet keeps its
// columns for every row.
func (s *workflowStrategy) enrichOne(ctx context.Context, env *Env, rec masset.Record) masset.Record {
	id := rec.ID()
	name := rec.DisplayName()
	if name == "" {
		name = "Unnamed Workflow"
	}

	payload, err := s.fetch(ctx, env, id)
	if err != nil {
		env.logger().Warn("workflow enrichment failed", "workflow", name, "id", id, "error", err)
		return rec.Merge(failedWorkflowFields())
	}

	var summary aisummary.Result
	if env.Summarizer != nil {
		summary = env.Summarizer.Summarize(ctx, payload.Raw)
	}

	analysis := wfanalyze.Analyze(payload)
	return rec.Merge(workflowFields(payload, rec, analysis, summary))
}

func (s *workflowStrategy) fetch(ctx context.Context, env *Env, id string) (*mworkflow.Payload, error) {
	if id == "" {
		return nil, fmt.Errorf("workflow record has no id")
	}
	path := fmt.Sprintf("/workflow/%s/%s?includeScheduledPauseInfo=true", env.LocationID, id)
	body, err := retry.DoValue(ctx, env.ItemRetry, func() ([]byte, error) {
		return env.Client.Get(ctx, path)
	})
	if err != nil {
		return nil, err
	}
	return mworkflow.Decode(body)
}

func workflowFields(p *mworkflow.Payload, rec masset.Record, a wfanalyze.Analysis, summary aisummary.Result) map[string]any {
	var version any = ""
	if p.Version != 0 {
		version = p.Version
	}
	status := p.Status
	if status == "" {
		status = rec.String("status")
	}
	return map[string]any{
		"version":                   version,
		"status":                    status,
		"createdAt":                 p.CreatedAt,
		"updatedAt":                 p.UpdatedAt,
		"parentId":                  p.ParentID,
		"originType":                p.OriginType,
		"creationSource":            p.CreationSource,
		"workflowNote":              p.WorkflowNote,
		"activeHours":               a.ActiveHours,
		"autoMarkAsRead":            p.AutoMarkAsRead,
		"allowMultiple":             p.AllowMultiple,
		"allowMultipleOpportunity":  p.AllowMultipleOpportunity,
		"timezone":                  p.Timezone,
		"stopOnResponse":            p.StopOnResponse,
		"removeContactFromLastStep": p.RemoveContactFromLastStep,
		"totalSteps":                a.TotalSteps,
		"triggers":                  a.Triggers,
		"tagsUsed":                  a.TagsUsed,
		"customFieldsUsed":          a.CustomFieldsUsed,
		"smsCount":                  a.SMSCount,
		"emailCount":                a.EmailCount,
		"smsMessages":               a.SMSMessages,
		"emailMessages":             a.EmailMessages,
		"conditionCount":            a.ConditionCount,
		"splitCount":                a.SplitCount,
		"webhookCount":              a.WebhookCount,
		"apiCallCount":              a.APICallCount,
		"workflowActions":           a.WorkflowActions,
		"aiDescription":             summary.Description,
		"aiSetupNotes":              summary.SetupNotes,
		masset.EnrichmentDataKey:    p.Raw,
	}
}

// failedWorkflowFields zeroes every derived column so a failed row still
// lines up with the enriched ones. The original status field survives.
func failedWorkflowFields() map[string]any {
	return map[string]any{
		"version":                   "",
		"totalSteps":                0,
		"triggers":                  "",
		"tagsUsed":                  "",
		"customFieldsUsed":          "",
		"smsCount":                  0,
		"emailCount":                0,
		"smsMessages":               "",
		"emailMessages":             "",
		"conditionCount":            0,
		"splitCount":                0,
		"webhookCount":              0,
		"apiCallCount":              0,
		"workflowActions":           "",
		"parentId":                  "",
		"originType":                "",
		"creationSource":            "",
		"workflowNote":              "",
		"activeHours":               "",
		"autoMarkAsRead":            false,
		"allowMultiple":             false,
		"allowMultipleOpportunity":  false,
		"timezone":                  "",
		"stopOnResponse":            false,
		"removeContactFromLastStep": false,
		"createdAt":                 "",
		"updatedAt":                 "",
		"aiDescription":             "",
		"aiSetupNotes":              "",
	}
}

// workflowProgress maps the processed count into the 35-75 band of the
// overall export.
func workflowProgress(processed, total int) int {
	return 35 + int(math.Floor(float64(processed)/float64(total)*40))
}

func workflowMessage(aiEnabled bool, start, end, total int, durations []time.Duration) string {
	verb := "Enriching"
	if aiEnabled {
		verb = "Analyzing"
	}
	return fmt.Sprintf("%s workflows %d-%d/%d%s", verb, start+1, end, total, timeEstimate(durations, total-start))
}

// timeEstimate projects the remaining time from the average duration of
// the items finished so far. Empty until the first batch completes.
func timeEstimate(durations []time.Duration, remaining int) string {
	if len(durations) == 0 {
		return ""
	}
	var sum time.Duration
	for _, d := range durations {
		sum += d
	}
	avg := sum / time.Duration(len(durations))
	secs := int(math.Ceil((avg * time.Duration(remaining)).Seconds()))
	if secs >= 60 {
		return fmt.Sprintf(" (~%dm %ds remaining)", secs/60, secs%60)
	}
	return fmt.Sprintf(" (~%ds remaining)", secs)
}
