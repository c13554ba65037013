// Package wfanalyze derives summary metrics from a workflow's step graph:
// trigger and tag usage, custom-field references, action counts, message
// previews and the active-hours schedule.
package wfanalyze

import (
	"regexp"
	"sort"
	"strings"

	"snapex/pkg/model/mworkflow"
)

// Analysis holds every derived metric for one workflow.
type Analysis struct {
	TotalSteps       int
	Triggers         string
	TagsUsed         string
	CustomFieldsUsed string
	SMSCount         int
	EmailCount       int
	ConditionCount   int
	SplitCount       int
	WebhookCount     int
	APICallCount     int
	SMSMessages      string
	EmailMessages    string
	WorkflowActions  string
	ActiveHours      string
}

// Analyze walks the workflow graph once per metric. All metrics are
// best-effort reads of a loosely documented upstream schema; unknown
// shapes contribute nothing rather than failing.
func Analyze(p *mworkflow.Payload) Analysis {
	return Analysis{
		TotalSteps:       len(p.WorkflowData.Templates),
		Triggers:         extractTriggers(p),
		TagsUsed:         extractTags(p),
		CustomFieldsUsed: extractCustomFields(p),
		SMSCount:         countMessageType(p, smsTypes),
		EmailCount:       countMessageType(p, emailTypes),
		ConditionCount:   countConditions(p),
		SplitCount:       countActionType(p, "split"),
		WebhookCount:     countActionType(p, "send_webhook"),
		APICallCount:     countActionType(p, "http_request"),
		SMSMessages:      extractSMSMessages(p),
		EmailMessages:    extractEmailMessages(p),
		WorkflowActions:  extractActions(p),
		ActiveHours:      FormatSchedule(p.Window),
	}
}

var (
	smsTypes   = []string{"sms", "send_sms", "send-sms"}
	emailTypes = []string{"email", "send_email", "send-email"}
)

// orderedSet keeps first-seen insertion order.
type orderedSet struct {
	seen map[string]bool
	list []string
}

func newOrderedSet() *orderedSet {
	return &orderedSet{seen: map[string]bool{}}
}

func (s *orderedSet) add(v string) {
	if v == "" || s.seen[v] {
		return
	}
	s.seen[v] = true
	s.list = append(s.list, v)
}

func (s *orderedSet) join(sep string) string {
	return strings.Join(s.list, sep)
}

func extractTriggers(p *mworkflow.Payload) string {
	triggers := newOrderedSet()
	for _, node := range p.WorkflowData.Templates {
		if node.Cat == "trigger" || (node.Order != nil && *node.Order == 0) {
			name := node.Name
			if name == "" {
				name = node.Type
			}
			if name == "" {
				name = "Unknown Trigger"
			}
			triggers.add(name)
		}
	}
	if len(triggers.list) == 0 && p.TriggersFilePath != "" {
		return "Trigger configured (see workflow)"
	}
	return triggers.join("; ")
}

func extractTags(p *mworkflow.Payload) string {
	tags := newOrderedSet()
	for _, node := range p.WorkflowData.Templates {
		attrs := node.Attributes

		for _, v := range attrs.Slice("tags") {
			if s, ok := v.(string); ok {
				tags.add(s)
			}
		}
		tags.add(attrs.String("tag"))

		if node.Type == "add_tag" || node.Type == "remove_tag" {
			if name := attrs.String("tagName"); name != "" {
				tags.add(name)
			} else {
				tags.add(attrs.String("tagId"))
			}
		}

		for _, branch := range attrs.Branches() {
			for _, seg := range branch.Segments {
				for _, cond := range seg.Conditions {
					if cond.SubType != "tags" {
						continue
					}
					if vals, ok := cond.Value.([]any); ok {
						for _, v := range vals {
							if s, ok := v.(string); ok {
								tags.add(s)
							}
						}
					}
				}
			}
		}
	}
	return tags.join("; ")
}

var (
	contactFieldRe       = regexp.MustCompile(`\{\{contact\.([a-zA-Z0-9_]+)\}\}`)
	contactCustomFieldRe = regexp.MustCompile(`\{\{contact\.custom_fields\.([a-zA-Z0-9_]+)\}\}`)

	standardContactFields = map[string]bool{
		"first_name": true,
		"last_name":  true,
		"email":      true,
		"phone":      true,
		"name":       true,
		"id":         true,
	}
)

func extractCustomFields(p *mworkflow.Payload) string {
	fields := newOrderedSet()
	for _, node := range p.WorkflowData.Templates {
		attrs := node.Attributes

		for _, ref := range attrs.FieldRefs() {
			fields.add(ref.Field)
			fields.add(ref.Title)
			fields.add(ref.Name)
		}

		for _, branch := range attrs.Branches() {
			for _, seg := range branch.Segments {
				for _, cond := range seg.Conditions {
					if cond.SubType == "custom_field" || cond.SubType == "customField" {
						fields.add(cond.FieldID)
						fields.add(cond.FieldName)
					}
				}
			}
		}

		addContentFields(searchableContent(attrs), fields)

		switch node.Type {
		case "update_custom_field", "set_custom_field", "update_contact_field":
			fields.add(attrs.String("fieldId"))
			fields.add(attrs.String("fieldKey"))
			fields.add(attrs.String("fieldName"))
		}
	}
	return fields.join("; ")
}

// FieldsFromContent extracts custom-field references from the merge tags
// of free-form content such as email template HTML. Standard contact
// fields do not count.
func FieldsFromContent(content string) string {
	fields := newOrderedSet()
	addContentFields(content, fields)
	return fields.join("; ")
}

func addContentFields(content string, fields *orderedSet) {
	if content == "" {
		return
	}
	for _, m := range contactFieldRe.FindAllStringSubmatch(content, -1) {
		if !standardContactFields[m[1]] {
			fields.add(m[1])
		}
	}
	for _, m := range contactCustomFieldRe.FindAllStringSubmatch(content, -1) {
		fields.add(m[1])
	}
}

func searchableContent(attrs mworkflow.Attrs) string {
	parts := make([]string, 0, 4)
	for _, key := range []string{"html", "body", "message", "subject"} {
		if v := attrs.String(key); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, " ")
}

func countMessageType(p *mworkflow.Payload, candidates []string) int {
	count := 0
	for _, node := range p.WorkflowData.Templates {
		nodeType := strings.ToLower(node.Type)
		for _, c := range candidates {
			if nodeType == c || strings.Contains(nodeType, c) {
				count++
				break
			}
		}
	}
	return count
}

// countConditions counts only main if_else nodes: an if_else carrying its
// own branch list, or flagged as a condition node. Branch continuation
// nodes reuse the if_else type without either marker.
func countConditions(p *mworkflow.Payload) int {
	count := 0
	for _, node := range p.WorkflowData.Templates {
		if strings.ToLower(node.Type) != "if_else" {
			continue
		}
		if len(node.Attributes.Branches()) > 0 || node.NodeType == "condition-node" {
			count++
		}
	}
	return count
}

func countActionType(p *mworkflow.Payload, action string) int {
	count := 0
	for _, node := range p.WorkflowData.Templates {
		nodeType := strings.ToLower(node.Type)
		if nodeType == action || strings.Contains(nodeType, action) {
			count++
		}
	}
	return count
}

const messagePreviewLen = 100

func extractSMSMessages(p *mworkflow.Payload) string {
	var msgs []string
	for _, node := range p.WorkflowData.Templates {
		switch strings.ToLower(node.Type) {
		case "sms", "send_sms", "send-sms":
		default:
			continue
		}
		name := node.Name
		if name == "" {
			name = "Unnamed SMS"
		}
		message := node.Attributes.String("message")
		if message == "" {
			message = node.Attributes.String("body")
		}
		if r := []rune(message); len(r) > messagePreviewLen {
			message = string(r[:messagePreviewLen]) + "..."
		}
		if message != "" {
			msgs = append(msgs, name+": "+message)
		} else {
			msgs = append(msgs, name)
		}
	}
	return strings.Join(msgs, " | ")
}

func extractEmailMessages(p *mworkflow.Payload) string {
	var msgs []string
	for _, node := range p.WorkflowData.Templates {
		switch strings.ToLower(node.Type) {
		case "email", "send_email", "send-email":
		default:
			continue
		}
		name := node.Name
		if name == "" {
			name = "Unnamed Email"
		}
		if subject := node.Attributes.String("subject"); subject != "" {
			msgs = append(msgs, name+": "+subject)
		} else {
			msgs = append(msgs, name)
		}
	}
	return strings.Join(msgs, " | ")
}

func extractActions(p *mworkflow.Payload) string {
	seen := map[string]bool{}
	var actions []string
	for _, node := range p.WorkflowData.Templates {
		if node.Type == "" {
			continue
		}
		name := FriendlyActionName(node.Type)
		if !seen[name] {
			seen[name] = true
			actions = append(actions, name)
		}
	}
	sort.Strings(actions)
	return strings.Join(actions, "; ")
}
