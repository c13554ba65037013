package masset

import "strings"

// Type is one exportable asset type. Key is the field name inside the
// snapshot payload, SheetName the spreadsheet tab label. Both the sheet
// walk and the summary rows follow the order of Types.
type Type struct {
	Key       string
	SheetName string
}

// CSVName is the sheet name in file-name form (spaces as underscores).
func (t Type) CSVName() string {
	return strings.ReplaceAll(t.SheetName, " ", "_")
}

// Types is the fixed export order. The snapshot payload may carry keys
// outside this list; those are ignored.
var Types = []Type{
	{Key: "custom_fields", SheetName: "Custom Fields"},
	{Key: "custom_values", SheetName: "Custom Values"},
	{Key: "tags", SheetName: "Tags"},
	{Key: "pipelines", SheetName: "Pipelines"},
	{Key: "calendars", SheetName: "Calendars"},
	{Key: "campaigns", SheetName: "Campaigns"},
	{Key: "forms", SheetName: "Forms"},
	{Key: "surveys", SheetName: "Surveys"},
	{Key: "workflow", SheetName: "Workflows"},
	{Key: "text_templates", SheetName: "Text Templates"},
	{Key: "email_templates", SheetName: "Email Templates"},
	{Key: "funnels", SheetName: "Funnels"},
	{Key: "links", SheetName: "Links"},
	{Key: "folders", SheetName: "Folders"},
	{Key: "teams", SheetName: "Teams"},
	{Key: "membership_offers", SheetName: "Membership Offers"},
	{Key: "membership_products", SheetName: "Membership Products"},
	{Key: "triggers", SheetName: "Triggers"},
	{Key: "knowledge_bases", SheetName: "Knowledge Bases"},
	{Key: "quizzes", SheetName: "Quizzes"},
	{Key: "dashboards", SheetName: "Dashboards"},
	{Key: "custom_objects", SheetName: "Custom Objects"},
	{Key: "certificates", SheetName: "Certificates"},
	{Key: "review_settings", SheetName: "Review Settings"},
	{Key: "conversation_ai", SheetName: "Conversation AI"},
	{Key: "social_planner", SheetName: "Social Planner"},
	{Key: "sectionTemplates", SheetName: "Section Templates"},
}

// TypeByKey returns the asset type for a payload key.
func TypeByKey(key string) (Type, bool) {
	for _, t := range Types {
		if t.Key == key {
			return t, true
		}
	}
	return Type{}, false
}
