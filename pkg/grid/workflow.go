package grid

import (
	"sort"

	"snapex/pkg/model/masset"
)

// workflowPriorityColumns is the fixed leading column order of the
// workflow sheet: technical metadata first, analysis fields, then the AI
// summary pair.
var workflowPriorityColumns = []string{
	"name",
	"status",
	"version",
	"parentId",
	"originType",
	"creationSource",
	"workflowNote",
	"activeHours",
	"autoMarkAsRead",
	"allowMultiple",
	"allowMultipleOpportunity",
	"timezone",
	"stopOnResponse",
	"removeContactFromLastStep",
	"totalSteps",
	"workflowActions",
	"triggers",
	"tagsUsed",
	"customFieldsUsed",
	"smsCount",
	"smsMessages",
	"emailCount",
	"emailMessages",
	"conditionCount",
	"splitCount",
	"webhookCount",
	"apiCallCount",
	"createdAt",
	"updatedAt",
	"aiDescription",
	"aiSetupNotes",
}

var workflowColumnNames = map[string]string{
	"name":                      "Name",
	"status":                    "Status",
	"version":                   "Version",
	"parentId":                  "Parent Workflow ID",
	"originType":                "Origin Type",
	"creationSource":            "Creation Source",
	"workflowNote":              "Workflow Notes",
	"activeHours":               "Active Hours",
	"autoMarkAsRead":            "Auto Mark Read",
	"allowMultiple":             "Allow Multiple",
	"allowMultipleOpportunity":  "Allow Multiple Opportunity",
	"timezone":                  "Timezone",
	"stopOnResponse":            "Stop On Response",
	"removeContactFromLastStep": "Remove From Last Step",
	"totalSteps":                "Total Steps",
	"workflowActions":           "Workflow Actions",
	"triggers":                  "Triggers",
	"tagsUsed":                  "Tags Used",
	"customFieldsUsed":          "Custom Fields Used",
	"smsCount":                  "SMS Count",
	"smsMessages":               "SMS Messages",
	"emailCount":                "Email Count",
	"emailMessages":             "Email Messages",
	"conditionCount":            "Conditions",
	"splitCount":                "Splits",
	"webhookCount":              "Webhooks",
	"apiCallCount":              "API Calls",
	"createdAt":                 "Created Date",
	"updatedAt":                 "Updated Date",
	"aiDescription":             "AI Description",
	"aiSetupNotes":              "AI Setup Notes",
}

// WorkflowPriorityColumnCount is the number of fixed leading columns on
// the workflow sheet; columns past it get the default width.
var WorkflowPriorityColumnCount = len(workflowPriorityColumns)

// WorkflowGrid converts enriched workflow records into a grid with the
// fixed priority columns first, remaining keys sorted after them, and the
// enrichment column last.
func WorkflowGrid(records []masset.Record) Grid {
	if len(records) == 0 {
		return Grid{{"No workflows found"}}
	}

	priority := map[string]struct{}{}
	for _, k := range workflowPriorityColumns {
		priority[k] = struct{}{}
	}

	extraSet := map[string]struct{}{}
	for _, rec := range records {
		for k := range rec {
			if _, ok := priority[k]; ok || k == masset.EnrichmentDataKey {
				continue
			}
			extraSet[k] = struct{}{}
		}
	}
	extras := make([]string, 0, len(extraSet))
	for k := range extraSet {
		extras = append(extras, k)
	}
	sort.Strings(extras)

	header := make([]string, 0, len(workflowPriorityColumns)+len(extras)+1)
	for _, k := range workflowPriorityColumns {
		name, ok := workflowColumnNames[k]
		if !ok {
			name = k
		}
		header = append(header, name)
	}
	header = append(header, extras...)
	header = append(header, EnrichmentColumn)

	keys := append(append([]string{}, workflowPriorityColumns...), extras...)

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
