package enrich

import (
	"context"
	"fmt"
	"strings"

	"snapex/pkg/model/masset"
)

// bulkStrategy fetches the full collection once and merges per record by
// id. A failed collection fetch passes every record through; records the
// collection does not know keep their snapshot fields only.
type bulkStrategy struct {
	kind     string
	path     func(env *Env) string
	wrappers []string
	idKeys   []string
	derive   func(api, rec masset.Record) map[string]any
}

func (s *bulkStrategy) Enrich(ctx context.Context, env *Env, records []masset.Record) Result {
	if len(records) == 0 || env.LocationID == "" {
		return passthrough(records)
	}

	apiRecords, err := getList(ctx, env, s.path(env), s.wrappers...)
	if err != nil {
		env.logger().Warn("enrichment list fetch failed", "type", s.kind, "error", err)
		return passthrough(records)
	}
	index := indexByID(apiRecords, s.idKeys...)

	out := make([]masset.Record, 0, len(records))
	for _, rec := range records {
		api, ok := index[rec.FirstString(s.idKeys...)]
		if !ok {
			out = append(out, rec)
			continue
		}
		derived := s.derive(api, rec)
		derived[masset.EnrichmentDataKey] = api
		out = append(out, rec.Merge(derived))
	}
	return Result{Records: out}
}

func campaignsStrategy() *bulkStrategy {
	return &bulkStrategy{
		kind: "campaigns",
		path: func(env *Env) string {
			return fmt.Sprintf("/emails/campaigns/?locationId=%s&offset=0&limit=1000&search=", env.LocationID)
		},
		wrappers: []string{"campaigns"},
		idKeys:   []string{"_id", "id"},
		derive: func(api, rec masset.Record) map[string]any {
			totalSent := firstFloat(api, "totalSent", "sent")
			opens := firstFloat(api, "opens", "opened")
			clicks := firstFloat(api, "clicks", "clicked")
			bounces := firstFloat(api, "bounces", "bounced")
			return map[string]any{
				"totalSent":    totalSent,
				"opens":        opens,
				"clicks":       clicks,
				"bounces":      bounces,
				"openRate":     rate(opens, totalSent),
				"clickRate":    rate(clicks, totalSent),
				"bounceRate":   rate(bounces, totalSent),
				"status":       firstTruthy(api["status"], rec["status"], "unknown"),
				"campaignType": firstTruthy(api["type"], api["campaignType"], "email"),
				"lastSentAt":   api.FirstString("lastSentAt", "sentAt"),
				"createdBy":    firstTruthy(api["createdBy"], rec["createdBy"]),
				"workflowIds":  firstTruthy(api["workflowIds"], rec["workflowIds"], []any{}),
				"templateId":   firstTruthy(api["templateId"], rec["templateId"]),
			}
		},
	}
}

func rate(part, total float64) string {
	if total <= 0 {
		return "0%"
	}
	return fmt.Sprintf("%.2f%%", part/total*100)
}

const shortLinkBase = "https://link.gohighlevel.com/"

func linksStrategy() *bulkStrategy {
	return &bulkStrategy{
		kind: "links",
		path: func(env *Env) string {
			return fmt.Sprintf("/links/search?locationId=%s&skip=0&limit=1000", env.LocationID)
		},
		wrappers: []string{"links"},
		idKeys:   []string{"_id", "id"},
		derive: func(api, rec masset.Record) map[string]any {
			slug := masset.AsString(firstTruthy(api["slug"], rec["slug"]))
			shortURL := api.String("shortUrl")
			if shortURL == "" {
				shortURL = shortLinkBase + slug
			}
			triggers := mapItems(api["triggers"])
			return map[string]any{
				"fullUrl":        firstTruthy(api["url"], rec["url"]),
				"shortUrl":       shortURL,
				"slug":           slug,
				"clickCount":     firstFloat(api, "clicks", "clickCount"),
				"uniqueClicks":   api.Float("uniqueClicks"),
				"lastClickedAt":  api.String("lastClickedAt"),
				"hasTrigger":     len(triggers) > 0,
				"triggerCount":   len(triggers),
				"triggerActions": joinField(triggers, "type", "action"),
				"workflowIds":    firstTruthy(api["workflowIds"], rec["workflowIds"], []any{}),
				"isActive":       boolOr(api["isActive"], true),
				"createdBy":      firstTruthy(api["createdBy"], rec["createdBy"]),
			}
		},
	}
}

const textPreviewLen = 200

func textTemplatesStrategy() *bulkStrategy {
	return &bulkStrategy{
		kind: "text_templates",
		path: func(env *Env) string {
			return fmt.Sprintf("/snippets/%s?skip=0&limit=1000", env.LocationID)
		},
		wrappers: []string{"snippets"},
		idKeys:   []string{"_id", "id"},
		derive: func(api, rec masset.Record) map[string]any {
			body := api.FirstString("body", "content")
			attachments := api.Slice("urlAttachments")
			isFolder := api.Bool("isFolder")
			totalSnippets := float64(0)
			if isFolder {
				totalSnippets = api.Float("totalSnippets")
			}
			return map[string]any{
				"bodyPreview":     preview(body, textPreviewLen),
				"characterCount":  len([]rune(body)),
				"wordCount":       len(strings.Fields(body)),
				"hasAttachments":  len(attachments) > 0,
				"attachmentCount": len(attachments),
				"attachmentUrls":  joinStrings(api["urlAttachments"], "; "),
				"folderPath":      firstTruthy(api["folderName"], rec["folderName"], "Root"),
				"isFolder":        isFolder,
				"totalSnippets":   totalSnippets,
				"createdBy":       firstTruthy(api["createdBy"], rec["createdBy"]),
				"updatedAt":       api.FirstString("updatedAt", "dateUpdated"),
			}
		},
	}
}

func customFieldsStrategy() *bulkStrategy {
	return &bulkStrategy{
		kind: "custom_fields",
		path: func(env *Env) string {
			return fmt.Sprintf("/locations/%s/customFields/search?parentId=&skip=0&limit=1000&documentType=&model=all&query=&includeStandards=false", env.LocationID)
		},
		wrappers: []string{"customFields"},
		idKeys:   []string{"_id", "id"},
		derive: func(api, rec masset.Record) map[string]any {
			model := firstTruthy(api["model"], rec["model"], "contact")
			options := mapItems(api["options"])
			optionNames := make([]string, 0, len(options))
			for _, opt := range options {
				if s := opt.FirstString("name", "label"); s != "" {
					optionNames = append(optionNames, s)
				}
			}
			// Option lists of plain strings happen on older fields.
			if len(options) == 0 {
				if s := joinStrings(api["options"], "; "); s != "" {
					optionNames = append(optionNames, s)
				}
			}
			rawOptions := api.Slice("options")
			return map[string]any{
				"dataType":         firstTruthy(api["dataType"], api["type"], rec["dataType"]),
				"fieldType":        firstTruthy(api["fieldType"], rec["fieldType"]),
				"model":            model,
				"applicableModels": firstTruthy(api["applicableModels"], []any{model}),
				"folderName":       firstTruthy(api["folderName"], api["parentName"], rec["folderName"], "Root"),
				"parentId":         firstTruthy(api["parentId"], rec["parentId"]),
				"position":         firstTruthy(api["position"], rec["position"], float64(0)),
				"isRequired":       boolOr(firstTruthy(api["isRequired"], rec["isRequired"]), false),
				"isUnique":         boolOr(firstTruthy(api["isUnique"], rec["isUnique"]), false),
				"isSearchable":     boolOr(firstTruthy(api["isSearchable"], rec["isSearchable"]), false),
				"placeholder":      firstTruthy(api["placeholder"], rec["placeholder"]),
				"hasOptions":       len(rawOptions) > 0,
				"optionCount":      len(rawOptions),
				"options":          strings.Join(optionNames, "; "),
				"createdBy":        firstTruthy(api["createdBy"], rec["createdBy"]),
				"updatedAt":        firstTruthy(api["updatedAt"], rec["updatedAt"]),
			}
		},
	}
}

func customValuesStrategy() *bulkStrategy {
	return &bulkStrategy{
		kind: "custom_values",
		path: func(env *Env) string {
			return fmt.Sprintf("/locations/%s/customValues/", env.LocationID)
		},
		wrappers: []string{"customValues"},
		idKeys:   []string{"_id", "id"},
		derive: func(api, rec masset.Record) map[string]any {
			return map[string]any{
				"value":       firstTruthy(api["value"], rec["value"]),
				"type":        firstTruthy(api["type"], rec["type"], "text"),
				"category":    firstTruthy(api["category"], rec["category"]),
				"description": firstTruthy(api["description"], rec["description"]),
				"isActive":    boolOr(api["isActive"], true),
				"createdBy":   firstTruthy(api["createdBy"], rec["createdBy"]),
				"updatedAt":   firstTruthy(api["updatedAt"], rec["updatedAt"]),
			}
		},
	}
}

func tagsStrategy() *bulkStrategy {
	return &bulkStrategy{
		kind: "tags",
		path: func(env *Env) string {
			return fmt.Sprintf("/locations/%s/tags", env.LocationID)
		},
		wrappers: []string{"tags"},
		idKeys:   []string{"_id", "id"},
		derive: func(api, rec masset.Record) map[string]any {
			contactCount := firstFloat(api, "contactCount", "usageCount")
			opportunityCount := api.Float("opportunityCount")
			return map[string]any{
				"name":             firstTruthy(api["name"], rec["name"]),
				"color":            firstTruthy(api["color"], rec["color"]),
				"contactCount":     contactCount,
				"opportunityCount": opportunityCount,
				"totalUsage":       api.Float("contactCount") + opportunityCount,
				"category":         firstTruthy(api["category"], rec["category"]),
				"description":      firstTruthy(api["description"], rec["description"]),
				"isActive":         boolOr(api["isActive"], true),
				"createdAt":        firstTruthy(api["createdAt"], rec["createdAt"]),
				"createdBy":        firstTruthy(api["createdBy"], rec["createdBy"]),
				"lastUsedAt":       api.String("lastUsedAt"),
			}
		},
	}
}

func conversationAIStrategy() *bulkStrategy {
	return &bulkStrategy{
		kind: "conversation_ai",
		path: func(env *Env) string {
			return fmt.Sprintf("/ai-employees/employees/search?limit=1000&query=&locationId=%s", env.LocationID)
		},
		wrappers: []string{"employees"},
		idKeys:   []string{"id", "_id"},
		derive: func(api, rec masset.Record) map[string]any {
			goal := api.Map("goal")
			recGoal := rec.Map("goal")
			actions := mapItems(api["actions"])
			totalActions := len(actions)
			if totalActions == 0 {
				totalActions = len(rec.Slice("actions"))
			}
			kbIDs := joinStrings(api["knowledgeBaseIds"], "; ")
			totalKBs := len(api.Slice("knowledgeBaseIds"))
			if totalKBs == 0 {
				kbIDs = joinStrings(rec["knowledgeBaseIds"], "; ")
				totalKBs = len(rec.Slice("knowledgeBaseIds"))
			}
			channels := mapItems(api["channels"])
			channelNames := joinField(channels, "name")
			if channelNames == "" {
				channelNames = joinField(mapItems(rec["channels"]), "name")
			}
			primary := make([]string, 0, len(channels))
			for _, c := range channels {
				if c.Bool("isPrimary") {
					if name := c.String("name"); name != "" {
						primary = append(primary, name)
					}
				}
			}
			return map[string]any{
				"name":                 firstTruthy(api["name"], rec["name"]),
				"mode":                 firstTruthy(api["mode"], rec["mode"], "off"),
				"botType":              firstTruthy(api["botType"], rec["botType"]),
				"businessName":         firstTruthy(api["businessName"], rec["businessName"]),
				"waitTime":             firstTruthy(api["waitTime"], rec["waitTime"], float64(0)),
				"waitTimeUnit":         firstTruthy(api["waitTimeUnit"], rec["waitTimeUnit"], "seconds"),
				"sleepTime":            firstTruthy(api["sleepTime"], rec["sleepTime"], float64(0)),
				"sleepTimeUnit":        firstTruthy(api["sleepTimeUnit"], rec["sleepTimeUnit"], "hours"),
				"sleepEnabled":         boolOr(api["sleepEnabled"], false),
				"autoPilotMaxMessages": firstTruthy(api["autoPilotMaxMessages"], rec["autoPilotMaxMessages"], float64(0)),
				"goalType":             firstTruthy(goal["type"], recGoal["type"]),
				"goalPrompt":           firstTruthy(goal["prompt"], recGoal["prompt"]),
				"promptId":             firstTruthy(api["prompt"], rec["prompt"]),
				"totalActions":         totalActions,
				"actionTypes":          uniqueJoinField(actions, "type"),
				"knowledgeBaseIds":     kbIDs,
				"totalKnowledgeBases":  totalKBs,
				"channels":             channelNames,
				"primaryChannels":      strings.Join(primary, "; "),
				"isPrimary":            anyOr(api["isPrimary"], rec["isPrimary"]),
				"deleted":              boolOr(api["deleted"], false),
				"createdAt":            firstTruthy(api["createdAt"], rec["createdAt"]),
				"updatedAt":            firstTruthy(api["updatedAt"], rec["updatedAt"]),
				"updatedByUserId":      firstTruthy(api.Map("updatedBy")["userId"], rec.Map("updatedBy")["userId"]),
				"updatedByTimestamp":   firstTruthy(api.Map("updatedBy")["timestamp"], rec.Map("updatedBy")["timestamp"]),
			}
		},
	}
}

func customObjectsStrategy() *bulkStrategy {
	return &bulkStrategy{
		kind: "custom_objects",
		path: func(env *Env) string {
			return fmt.Sprintf("/objects/?locationId=%s", env.LocationID)
		},
		wrappers: []string{"objects"},
		idKeys:   []string{"id", "_id"},
		derive: func(api, rec masset.Record) map[string]any {
			fields := mapItems(api["fields"])
			if len(fields) == 0 {
				fields = mapItems(rec["fields"])
			}
			required := make([]string, 0, len(fields))
			for _, f := range mapItems(api["fields"]) {
				if f.Bool("required") {
					if name := f.String("name"); name != "" {
						required = append(required, name)
					}
				}
			}
			return map[string]any{
				"name":           firstTruthy(api["name"], rec["name"]),
				"objectName":     firstTruthy(api["objectName"], rec["objectName"]),
				"type":           firstTruthy(api["type"], rec["type"]),
				"totalFields":    len(fields),
				"fieldNames":     joinField(fields, "name", "label"),
				"fieldTypes":     uniqueJoinField(fields, "type"),
				"requiredFields": strings.Join(required, "; "),
				"isEnabled":      anyOr(api["isEnabled"], rec["isEnabled"]),
				"isSystem":       anyOr(api["isSystem"], rec["isSystem"]),
				"iconName":       firstTruthy(api["iconName"], rec["iconName"]),
				"createdAt":      firstTruthy(api["createdAt"], rec["createdAt"]),
				"updatedAt":      firstTruthy(api["updatedAt"], rec["updatedAt"]),
				"createdBy":      firstTruthy(api["createdBy"], rec["createdBy"]),
				"updatedBy":      firstTruthy(api["updatedBy"], rec["updatedBy"]),
			}
		},
	}
}
