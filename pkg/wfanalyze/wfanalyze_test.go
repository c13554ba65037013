package wfanalyze_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"snapex/pkg/model/mworkflow"
	"snapex/pkg/wfanalyze"
)

func decode(t *testing.T, body string) *mworkflow.Payload {
	t.Helper()
	p, err := mworkflow.Decode([]byte(body))
	require.NoError(t, err)
	return p
}

func TestAnalyzeFullGraph(t *testing.T) {
	p := decode(t, `{
		"workflowData": {
			"templates": [
				{"name": "Form Submitted", "type": "form_submitted", "cat": "trigger", "order": 0},
				{"name": "Welcome SMS", "type": "sms", "attributes": {"message": "Hi {{contact.first_name}}, size {{contact.shoe_size}}"}},
				{"name": "Intro Email", "type": "send_email", "attributes": {"subject": "Welcome aboard", "tags": ["new-lead"]}},
				{
					"name": "VIP Check",
					"type": "if_else",
					"nodeType": "condition-node",
					"attributes": {
						"branches": [{"segments": [{"conditions": [
							{"conditionSubType": "tags", "conditionValue": ["vip"]}
						]}]}]
					}
				},
				{"name": "Branch Continue", "type": "if_else"},
				{"name": "Tag It", "type": "add_tag", "attributes": {"tagName": "engaged"}},
				{"name": "Notify", "type": "send_webhook"},
				{"name": "Lookup", "type": "http_request"},
				{"name": "Test Split", "type": "split"}
			]
		}
	}`)

	a := wfanalyze.Analyze(p)

	assert.Equal(t, 9, a.TotalSteps)
	assert.Equal(t, "Form Submitted", a.Triggers)
	assert.Equal(t, "new-lead; vip; engaged", a.TagsUsed)
	assert.Equal(t, "shoe_size", a.CustomFieldsUsed)
	assert.Equal(t, 1, a.SMSCount)
	assert.Equal(t, 1, a.EmailCount)
	assert.Equal(t, 1, a.ConditionCount)
	assert.Equal(t, 1, a.SplitCount)
	assert.Equal(t, 1, a.WebhookCount)
	assert.Equal(t, 1, a.APICallCount)
	assert.Equal(t, "Welcome SMS: Hi {{contact.first_name}}, size {{contact.shoe_size}}", a.SMSMessages)
	assert.Equal(t, "Intro Email: Welcome aboard", a.EmailMessages)
	assert.Equal(t, "Always Active", a.ActiveHours)

	actions := strings.Split(a.WorkflowActions, "; ")
	assert.Contains(t, actions, "Send SMS")
	assert.Contains(t, actions, "Condition")
	assert.Contains(t, actions, "A/B Split")
	assert.Contains(t, actions, "Webhook")
	assert.Contains(t, actions, "HTTP Request")
	assert.Contains(t, actions, "Add Tag")
	assert.IsIncreasing(t, actions)
}

func TestPlaceholderExtraction(t *testing.T) {
	p := decode(t, `{
		"workflowData": {
			"templates": [{
				"name": "Order Update",
				"type": "sms",
				"attributes": {
					"message": "Hello {{contact.first_name}}, your {{contact.shoe_size}} order is ready. {{contact.custom_fields.loyalty_tier}}"
				}
			}]
		}
	}`)

	a := wfanalyze.Analyze(p)
	got := strings.Split(a.CustomFieldsUsed, "; ")
	assert.ElementsMatch(t, []string{"shoe_size", "loyalty_tier"}, got)
}

func TestTriggersFallback(t *testing.T) {
	withFile := decode(t, `{"triggersFilePath": "triggers/wf1.json", "workflowData": {"templates": []}}`)
	assert.Equal(t, "Trigger configured (see workflow)", wfanalyze.Analyze(withFile).Triggers)

	without := decode(t, `{"workflowData": {"templates": []}}`)
	assert.Equal(t, "", wfanalyze.Analyze(without).Triggers)
}

func TestSMSMessageTruncation(t *testing.T) {
	long := strings.Repeat("a", 150)
	p := decode(t, `{
		"workflowData": {
			"templates": [{"name": "Long SMS", "type": "send_sms", "attributes": {"body": "`+long+`"}}]
		}
	}`)

	a := wfanalyze.Analyze(p)
	assert.Equal(t, "Long SMS: "+strings.Repeat("a", 100)+"...", a.SMSMessages)
}

func TestCustomFieldsFromStructuredRefs(t *testing.T) {
	p := decode(t, `{
		"workflowData": {
			"templates": [
				{
					"type": "update_contact_field",
					"attributes": {"fields": [{"field": "score", "title": "Lead Score"}]}
				},
				{
					"type": "set_custom_field",
					"attributes": {"fieldKey": "budget"}
				},
				{
					"type": "if_else",
					"attributes": {"branches": [{"segments": [{"conditions": [
						{"conditionSubType": "custom_field", "fieldId": "f9", "fieldName": "Region"}
					]}]}]}
				}
			]
		}
	}`)

	a := wfanalyze.Analyze(p)
	got := strings.Split(a.CustomFieldsUsed, "; ")
	assert.ElementsMatch(t, []string{"score", "Lead Score", "budget", "f9", "Region"}, got)
}

func TestFriendlyActionName(t *testing.T) {
	assert.Equal(t, "Wait", wfanalyze.FriendlyActionName("wait"))
	assert.Equal(t, "Condition", wfanalyze.FriendlyActionName("IF_ELSE"))
	assert.Equal(t, "custom_thing", wfanalyze.FriendlyActionName("custom_thing"))
}

func TestFormatSchedule(t *testing.T) {
	tests := []struct {
		name string
		w    *mworkflow.Window
		want string
	}{
		{"nil window", nil, "Always Active"},
		{"always", &mworkflow.Window{Condition: "always"}, "Always Active"},
		{"every day", &mworkflow.Window{Condition: "when", Days: []int{0, 1, 2, 3, 4, 5, 6}}, "Active: Every day"},
		{"weekdays with hours", &mworkflow.Window{Condition: "when", Days: []int{5, 1, 2, 3, 4}, Start: "09:00", End: "17:00"}, "Active: Weekdays 09:00-17:00"},
		{"weekends", &mworkflow.Window{Condition: "except", Days: []int{6, 0}}, "Active except: Weekends"},
		{"listed days", &mworkflow.Window{Condition: "when", Days: []int{2, 4}}, "Active: Tue, Thu"},
		{"hours only", &mworkflow.Window{Condition: "when", Start: "08:00", End: "12:00"}, "Active: 08:00-12:00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, wfanalyze.FormatSchedule(tt.w))
		})
	}
}
