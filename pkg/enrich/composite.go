package enrich

import (
	"context"
	"fmt"

	"snapex/pkg/model/masset"
)

// knowledgeBasesStrategy layers two per-item calls on top of the bulk
// list: the detail endpoint and the file listing. All three responses
// land together under the enrichment column.
type knowledgeBasesStrategy struct{}

func (s *knowledgeBasesStrategy) Enrich(ctx context.Context, env *Env, records []masset.Record) Result {
	if len(records) == 0 || env.LocationID == "" {
		return passthrough(records)
	}

	apiKBs, err := getList(ctx, env, fmt.Sprintf("/knowledge-base/all?locationId=%s", env.LocationID), "knowledgeBases")
	if err != nil {
		env.logger().Warn("knowledge base list fetch failed", "error", err)
		return passthrough(records)
	}
	index := indexByID(apiKBs, "id", "_id")

	out := make([]masset.Record, 0, len(records))
	for i, rec := range records {
		id := rec.FirstString("id", "_id")
		api, ok := index[id]
		if !ok || id == "" {
			out = append(out, rec)
		} else {
			out = append(out, s.enrichOne(ctx, env, rec, api, id))
		}
		if i < len(records)-1 {
			env.pause(ctx, env.ItemPause)
		}
	}
	return Result{Records: out}
}

func (s *knowledgeBasesStrategy) enrichOne(ctx context.Context, env *Env, rec, api masset.Record, id string) masset.Record {
	details, err := getJSON(ctx, env, fmt.Sprintf("/knowledge-base/%s", id))
	if err != nil {
		env.logger().Warn("knowledge base detail fetch failed", "id", id, "error", err)
	}
	files, err := getList(ctx, env, fmt.Sprintf("/knowledge-base/files/all?knowledgeBaseId=%s", id), "files")
	if err != nil {
		env.logger().Warn("knowledge base files fetch failed", "id", id, "error", err)
	}

	totalSize := float64(0)
	for _, f := range files {
		totalSize += f.Float("size")
	}
	return rec.Merge(map[string]any{
		"name":               firstTruthy(api["name"], rec["name"]),
		"isDefault":          boolOr(firstTruthy(api["isDefault"], rec["isDefault"]), false),
		"createdAt":          firstTruthy(api["createdAt"], rec["createdAt"]),
		"description":        firstTruthy(details["description"], rec["description"]),
		"totalFiles":         len(files),
		"fileTypes":          uniqueJoinField(files, "fileType", "type"),
		"totalFileSize":      totalSize,
		"fileNames":          joinField(files, "name", "fileName"),
		"hasWebsiteContent":  details.Bool("hasWebsiteContent"),
		"hasRichTextContent": details.Bool("hasRichTextContent"),
		"updatedAt":          firstTruthy(api["updatedAt"], details["updatedAt"], rec["updatedAt"]),
		"updatedBy":          firstTruthy(api["updatedBy"], details["updatedBy"], rec["updatedBy"]),
		masset.EnrichmentDataKey: masset.Record{
			"apiKB":   api,
			"details": details,
			"files":   files,
		},
	})
}

// dashboardsStrategy mirrors the knowledge-base shape with the widget
// detail and the permission listing as the per-item calls.
type dashboardsStrategy struct{}

func (s *dashboardsStrategy) Enrich(ctx context.Context, env *Env, records []masset.Record) Result {
	if len(records) == 0 || env.LocationID == "" {
		return passthrough(records)
	}

	apiDashboards, err := getList(ctx, env, fmt.Sprintf("/reporting/dashboards?locationId=%s", env.LocationID), "dashboards")
	if err != nil {
		env.logger().Warn("dashboard list fetch failed", "error", err)
		return passthrough(records)
	}
	index := indexByID(apiDashboards, "id", "_id")

	out := make([]masset.Record, 0, len(records))
	for i, rec := range records {
		id := rec.FirstString("id", "_id")
		api, ok := index[id]
		if !ok || id == "" {
			out = append(out, rec)
		} else {
			out = append(out, s.enrichOne(ctx, env, rec, api, id))
		}
		if i < len(records)-1 {
			env.pause(ctx, env.ItemPause)
		}
	}
	return Result{Records: out}
}

func (s *dashboardsStrategy) enrichOne(ctx context.Context, env *Env, rec, api masset.Record, id string) masset.Record {
	details, err := getJSON(ctx, env, fmt.Sprintf("/reporting/dashboards/%s?locationId=%s", id, env.LocationID))
	if err != nil {
		env.logger().Warn("dashboard detail fetch failed", "id", id, "error", err)
	}
	permissions, err := getJSON(ctx, env, fmt.Sprintf("/reporting/dashboards/%s/permissions?locationId=%s", id, env.LocationID))
	if err != nil {
		env.logger().Warn("dashboard permissions fetch failed", "id", id, "error", err)
	}

	widgets := details.Slice("widgets")
	totalWidgets := len(widgets)
	if totalWidgets == 0 {
		totalWidgets = len(api.Slice("widgets"))
	}
	return rec.Merge(map[string]any{
		"name":            firstTruthy(api["name"], rec["name"]),
		"description":     firstTruthy(details["description"], api["description"], rec["description"]),
		"totalWidgets":    totalWidgets,
		"widgetTypes":     uniqueJoinField(mapItems(details["widgets"]), "type"),
		"layout":          firstTruthy(details["layout"], api["layout"], rec["layout"]),
		"isShared":        permissions.Bool("isShared"),
		"sharedWith":      len(permissions.Slice("users")),
		"sharedWithTeams": len(permissions.Slice("teams")),
		"visibility":      firstTruthy(permissions["visibility"], api["visibility"], "private"),
		"isDefault":       boolOr(firstTruthy(api["isDefault"], rec["isDefault"]), false),
		"createdBy":       firstTruthy(details["createdBy"], api["createdBy"], rec["createdBy"]),
		"createdAt":       firstTruthy(api["createdAt"], rec["createdAt"]),
		"updatedAt":       firstTruthy(details["updatedAt"], api["updatedAt"], rec["updatedAt"]),
		masset.EnrichmentDataKey: masset.Record{
			"apiDashboard": api,
			"details":      details,
			"permissions":  permissions,
		},
	})
}
