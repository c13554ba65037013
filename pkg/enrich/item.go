package enrich

import (
	"context"
	"fmt"

	"snapex/pkg/model/masset"
	"snapex/pkg/wfanalyze"
)

// perItem runs one detail fetch per record and merges the derived fields
// on success. A failed fetch passes the original record through.
func perItem(ctx context.Context, env *Env, records []masset.Record, kind string,
	path func(env *Env, id string) string,
	derive func(detail masset.Record) map[string]any,
) []masset.Record {
	out := make([]masset.Record, 0, len(records))
	for _, rec := range records {
		id := rec.ID()
		if id == "" {
			out = append(out, rec)
			continue
		}
		detail, err := getJSON(ctx, env, path(env, id))
		if err != nil {
			env.logger().Warn("enrichment fetch failed",
				"type", kind, "name", rec.DisplayName(), "id", id, "error", err)
			out = append(out, rec)
			continue
		}
		derived := derive(detail)
		derived[masset.EnrichmentDataKey] = detail
		out = append(out, rec.Merge(derived))
	}
	return out
}

// formsStrategy also serves quizzes: both asset types share the forms
// detail endpoint and derived columns.
type formsStrategy struct{}

func (s *formsStrategy) Enrich(ctx context.Context, env *Env, records []masset.Record) Result {
	if len(records) == 0 || env.LocationID == "" {
		return passthrough(records)
	}
	return Result{Records: perItem(ctx, env, records, "forms",
		func(env *Env, id string) string {
			return fmt.Sprintf("/forms/%s/%s", env.LocationID, id)
		},
		func(detail masset.Record) map[string]any {
			fields := mapItems(detail["fields"])
			return map[string]any{
				"submissionType":  detail.String("submissionType"),
				"submissionUrl":   detail.String("submissionUrl"),
				"thankyouUrl":     detail.String("thankyouUrl"),
				"pixelId":         detail.String("pixelId"),
				"eventKey":        detail.String("eventKey"),
				"totalFields":     len(fields),
				"fieldTypes":      uniqueJoinField(fields, "type"),
				"isActive":        detail.Bool("isActive"),
				"requiresPayment": detail.Bool("requiresPayment"),
			}
		})}
}

type funnelsStrategy struct{}

func (s *funnelsStrategy) Enrich(ctx context.Context, env *Env, records []masset.Record) Result {
	if len(records) == 0 || env.LocationID == "" {
		return passthrough(records)
	}
	return Result{Records: perItem(ctx, env, records, "funnels",
		func(env *Env, id string) string {
			return fmt.Sprintf("/funnels/%s/%s", env.LocationID, id)
		},
		func(detail masset.Record) map[string]any {
			pages := mapItems(detail["pages"])
			return map[string]any{
				"domain":         detail.String("domain"),
				"customDomain":   detail.String("customDomain"),
				"trackingCode":   detail.String("trackingCode"),
				"pageCount":      len(pages),
				"pages":          joinField(pages, "name", "title"),
				"seoTitle":       detail.String("seoTitle"),
				"seoDescription": detail.String("seoDescription"),
				"faviconUrl":     detail.String("faviconUrl"),
			}
		})}
}

// calendarsStrategy enriches each calendar and attaches the location-wide
// calendar configuration as a supplemental sheet.
type calendarsStrategy struct{}

func (s *calendarsStrategy) Enrich(ctx context.Context, env *Env, records []masset.Record) Result {
	if len(records) == 0 || env.LocationID == "" {
		return passthrough(records)
	}
	enriched := perItem(ctx, env, records, "calendars",
		func(env *Env, id string) string {
			return fmt.Sprintf("/calendars/%s/%s", env.LocationID, id)
		},
		func(detail masset.Record) map[string]any {
			provider := detail.String("conferencingProvider")
			return map[string]any{
				"slug":                  detail.String("slug"),
				"widgetSlug":            detail.String("widgetSlug"),
				"appointmentTitle":      detail.String("appointmentTitle"),
				"description":           detail.String("description"),
				"eventType":             detail.String("eventType"),
				"eventColor":            detail.String("eventColor"),
				"meetingLocation":       detail.String("meetingLocation"),
				"slotDuration":          firstTruthy(detail["slotDuration"]),
				"slotInterval":          firstTruthy(detail["slotInterval"]),
				"slotBuffer":            firstTruthy(detail["slotBuffer"]),
				"allowReschedule":       detail.Bool("allowReschedule"),
				"allowCancellation":     detail.Bool("allowCancellation"),
				"googleMeetIntegration": provider == "google_meet",
				"zoomIntegration":       provider == "zoom",
				"conferencingProvider":  provider,
				"isActive":              notFalse(detail["isActive"]),
			}
		})

	env.Progress.Send(52, "Extracting calendar configuration...")
	result := Result{Records: enriched}
	if config := s.configuration(ctx, env); config != nil {
		result.Extras = []Sheet{{Name: "Calendar Configuration", Records: []masset.Record{config}}}
	}
	return result
}

func (s *calendarsStrategy) configuration(ctx context.Context, env *Env) masset.Record {
	path := fmt.Sprintf("/calendars/configuration/location/%s", env.LocationID)
	detail, err := getJSON(ctx, env, path)
	if err != nil {
		env.logger().Warn("calendar configuration fetch failed", "error", err)
		return nil
	}
	sub := detail.Map("subAccountConfig")
	locationID := detail.String("locationId")
	if locationID == "" {
		locationID = env.LocationID
	}
	return masset.Record{
		"locationId":             locationID,
		"isRentalsEnabled":       boolOr(sub["isRentalsEnabled"], false),
		"modules":                joinStrings(sub["modules"], ", "),
		"migratedServicesStatus": detail.String("migratedServicesStatus"),
		"configId":               detail.String("_id"),
	}
}

// pipelinesStrategy enriches each pipeline and flattens every stage into
// the Pipeline Stages supplemental sheet.
type pipelinesStrategy struct{}

func (s *pipelinesStrategy) Enrich(ctx context.Context, env *Env, records []masset.Record) Result {
	if len(records) == 0 || env.LocationID == "" {
		return passthrough(records)
	}

	var allStages []masset.Record
	enriched := perItem(ctx, env, records, "pipelines",
		func(env *Env, id string) string {
			return fmt.Sprintf("/opportunities/pipelines/%s/%s", env.LocationID, id)
		},
		func(detail masset.Record) map[string]any {
			stages := mapItems(detail["stages"])
			allStages = append(allStages, flattenStages(detail, stages)...)
			derived := map[string]any{
				"stageCount":     len(stages),
				"stages":         joinField(stages, "name"),
				"stagesDetailed": detail["stages"],
				"firstStage":     "",
				"lastStage":      "",
				"showInFunnels":  detail.Bool("showInFunnels"),
				"showInContacts": detail.Bool("showInContacts"),
			}
			if len(stages) > 0 {
				derived["firstStage"] = stages[0].String("name")
				derived["lastStage"] = stages[len(stages)-1].String("name")
			}
			return derived
		})

	env.Progress.Send(57, "Extracting pipeline stages...")
	result := Result{Records: enriched}
	if len(allStages) > 0 {
		result.Extras = []Sheet{{Name: "Pipeline Stages", Records: allStages}}
	}
	return result
}

func flattenStages(pipeline masset.Record, stages []masset.Record) []masset.Record {
	pipelineName := pipeline.DisplayName()
	if pipelineName == "" {
		pipelineName = "Unnamed Pipeline"
	}
	out := make([]masset.Record, 0, len(stages))
	for _, stage := range stages {
		out = append(out, masset.Record{
			"pipelineId":     pipeline.ID(),
			"pipelineName":   pipelineName,
			"stageId":        stage.String("id"),
			"stageName":      stage.String("name"),
			"stagePosition":  stage["position"],
			"originId":       stage.String("originId"),
			"showInFunnel":   notFalse(stage["showInFunnel"]),
			"showInPieChart": notFalse(stage["showInPieChart"]),
			"dateAdded":      pipeline.String("dateAdded"),
			"dateUpdated":    pipeline.String("dateUpdated"),
		})
	}
	return out
}

type emailTemplatesStrategy struct{}

func (s *emailTemplatesStrategy) Enrich(ctx context.Context, env *Env, records []masset.Record) Result {
	if len(records) == 0 || env.LocationID == "" {
		return passthrough(records)
	}
	return Result{Records: perItem(ctx, env, records, "email_templates",
		func(env *Env, id string) string {
			return fmt.Sprintf("/templates/%s/%s", env.LocationID, id)
		},
		func(detail masset.Record) map[string]any {
			content := detail.FirstString("html", "body")
			attachments := detail.Slice("attachments")
			return map[string]any{
				"subject":          detail.String("subject"),
				"fromName":         detail.String("fromName"),
				"fromEmail":        detail.String("fromEmail"),
				"replyTo":          detail.String("replyTo"),
				"customFieldsUsed": wfanalyze.FieldsFromContent(content),
				"hasAttachments":   len(attachments) > 0,
				"attachmentCount":  len(attachments),
			}
		})}
}

// surveysStrategy uses the id-only detail endpoint, so it runs even when
// the location id could not be resolved.
type surveysStrategy struct{}

func (s *surveysStrategy) Enrich(ctx context.Context, env *Env, records []masset.Record) Result {
	if len(records) == 0 {
		return passthrough(records)
	}
	return Result{Records: perItem(ctx, env, records, "surveys",
		func(_ *Env, id string) string {
			return fmt.Sprintf("/surveys/%s", id)
		},
		func(detail masset.Record) map[string]any {
			pages := mapItems(detail["pages"])
			totalQuestions := 0
			for _, page := range pages {
				totalQuestions += len(page.Slice("questions"))
			}
			return map[string]any{
				"submissionType":           detail.String("submissionType"),
				"submissionUrl":            detail.String("submissionUrl"),
				"thankyouUrl":              detail.String("thankyouUrl"),
				"pixelId":                  detail.String("pixelId"),
				"eventKey":                 detail.String("eventKey"),
				"totalPages":               len(pages),
				"totalQuestions":           totalQuestions,
				"isActive":                 detail.Bool("isActive"),
				"allowMultipleSubmissions": detail.Bool("allowMultipleSubmissions"),
				"requireLogin":             detail.Bool("requireLogin"),
			}
		})}
}
