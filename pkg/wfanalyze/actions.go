package wfanalyze

import (
	"fmt"
	"sort"
	"strings"

	"snapex/pkg/model/mworkflow"
)

var friendlyActionNames = map[string]string{
	"wait":                          "Wait",
	"email":                         "Send Email",
	"send_email":                    "Send Email",
	"sms":                           "Send SMS",
	"send_sms":                      "Send SMS",
	"if_else":                       "Condition",
	"split":                         "A/B Split",
	"send_webhook":                  "Webhook",
	"http_request":                  "HTTP Request",
	"add_tag":                       "Add Tag",
	"remove_tag":                    "Remove Tag",
	"update_contact_field":          "Update Contact Field",
	"update_custom_field":           "Update Custom Field",
	"set_custom_field":              "Set Custom Field",
	"assign_to_user":                "Assign to User",
	"create_opportunity":            "Create Opportunity",
	"update_opportunity":            "Update Opportunity",
	"send_notification":             "Send Notification",
	"add_to_campaign":               "Add to Campaign",
	"remove_from_campaign":          "Remove from Campaign",
	"add_to_workflow":               "Add to Workflow",
	"remove_from_workflow":          "Remove from Workflow",
	"create_task":                   "Create Task",
	"update_task":                   "Update Task",
	"send_review_request":           "Send Review Request",
	"send_appointment_notification": "Send Appointment Notification",
	"create_appointment":            "Create Appointment",
	"cancel_appointment":            "Cancel Appointment",
	"facebook_custom_audience":      "Facebook Custom Audience",
	"google_custom_audience":        "Google Custom Audience",
	"manual_action":                 "Manual Action",
	"gohighlevel_action":            "GoHighLevel Action",
}

// FriendlyActionName maps a raw node type to its display label, falling
// back to the raw type.
func FriendlyActionName(nodeType string) string {
	if name, ok := friendlyActionNames[strings.ToLower(nodeType)]; ok {
		return name
	}
	return nodeType
}

var dayAbbrevs = map[int]string{
	0: "Sun",
	1: "Mon",
	2: "Tue",
	3: "Wed",
	4: "Thu",
	5: "Fri",
	6: "Sat",
}

// FormatSchedule renders a workflow's active-hours window. No window, or
// an "always" condition, means the workflow is always active.
func FormatSchedule(w *mworkflow.Window) string {
	if w == nil {
		return "Always Active"
	}
	if w.Condition == "" || w.Condition == "always" {
		return "Always Active"
	}

	schedule := ""
	if len(w.Days) > 0 {
		days := append([]int{}, w.Days...)
		sort.Ints(days)

		switch {
		case len(days) == 7:
			schedule = "Every day"
		case len(days) == 5 && allBetween(days, 1, 5):
			schedule = "Weekdays"
		case len(days) == 2 && days[0] == 0 && days[1] == 6:
			schedule = "Weekends"
		default:
			names := make([]string, 0, len(days))
			for _, d := range days {
				name, ok := dayAbbrevs[d]
				if !ok {
					name = fmt.Sprintf("%d", d)
				}
				names = append(names, name)
			}
			schedule = strings.Join(names, ", ")
		}
	}

	if w.Start != "" && w.End != "" {
		timeRange := w.Start + "-" + w.End
		if schedule != "" {
			schedule += " " + timeRange
		} else {
			schedule = timeRange
		}
	}

	switch w.Condition {
	case "when":
		schedule = "Active: " + schedule
	case "except":
		schedule = "Active except: " + schedule
	}

	if schedule == "" {
		return "Always Active"
	}
	return schedule
}

func allBetween(days []int, lo, hi int) bool {
	for _, d := range days {
		if d < lo || d > hi {
			return false
		}
	}
	return true
}
