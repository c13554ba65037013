package mworkflow

import (
	"fmt"

	"github.com/goccy/go-json"

	"snapex/pkg/model/masset"
)

// Payload is the full workflow detail response. Only the fields the
// analyzer and the derived-column set read are typed; the complete
// decoded body stays available as Raw.
type Payload struct {
	ID                        string  `json:"_id"`
	Name                      string  `json:"name"`
	Version                   float64 `json:"version"`
	Status                    string  `json:"status"`
	CreatedAt                 string  `json:"createdAt"`
	UpdatedAt                 string  `json:"updatedAt"`
	ParentID                  string  `json:"parentId"`
	OriginType                string  `json:"originType"`
	CreationSource            string  `json:"creationSource"`
	WorkflowNote              string  `json:"workflowNote"`
	AutoMarkAsRead            bool    `json:"autoMarkAsRead"`
	AllowMultiple             bool    `json:"allowMultiple"`
	AllowMultipleOpportunity  bool    `json:"allowMultipleOpportunity"`
	Timezone                  string  `json:"timezone"`
	StopOnResponse            bool    `json:"stopOnResponse"`
	RemoveContactFromLastStep bool    `json:"removeContactFromLastStep"`
	TriggersFilePath          string  `json:"triggersFilePath"`
	Window                    *Window `json:"window"`
	WorkflowData              Graph   `json:"workflowData"`

	// Raw is the complete decoded response body.
	Raw masset.Record `json:"-"`
}

// Graph is the step graph container.
type Graph struct {
	Templates []StepNode `json:"templates"`
}

// StepNode is one node of the workflow graph. Upstream calls these
// "templates". Order is a pointer: the trigger heuristic treats an
// explicit order 0 differently from a missing order.
type StepNode struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	Cat        string `json:"cat"`
	NodeType   string `json:"nodeType"`
	Order      *int   `json:"order"`
	Attributes Attrs  `json:"attributes"`
}

// Attrs is the node attribute bag. Shapes vary per node type, so it stays
// an open map with typed accessors for the handful of keys the analyzer
// inspects.
type Attrs map[string]any

func (a Attrs) String(key string) string {
	s, _ := a[key].(string)
	return s
}

func (a Attrs) Slice(key string) []any {
	s, _ := a[key].([]any)
	return s
}

// Branches decodes the attrs.branches tree of an if_else node.
func (a Attrs) Branches() []Branch {
	raw := a.Slice("branches")
	if len(raw) == 0 {
		return nil
	}
	out := make([]Branch, 0, len(raw))
	for _, rb := range raw {
		bm, ok := rb.(map[string]any)
		if !ok {
			continue
		}
		var b Branch
		for _, rs := range sliceOf(bm["segments"]) {
			sm, ok := rs.(map[string]any)
			if !ok {
				continue
			}
			var seg Segment
			for _, rc := range sliceOf(sm["conditions"]) {
				cm, ok := rc.(map[string]any)
				if !ok {
					continue
				}
				seg.Conditions = append(seg.Conditions, Condition{
					SubType:   stringOf(cm["conditionSubType"]),
					Value:     cm["conditionValue"],
					FieldID:   stringOf(cm["fieldId"]),
					FieldName: stringOf(cm["fieldName"]),
				})
			}
			b.Segments = append(b.Segments, seg)
		}
		out = append(out, b)
	}
	return out
}

// FieldRefs decodes the attrs.fields array of field-update nodes.
func (a Attrs) FieldRefs() []FieldRef {
	raw := a.Slice("fields")
	if len(raw) == 0 {
		return nil
	}
	out := make([]FieldRef, 0, len(raw))
	for _, rf := range raw {
		fm, ok := rf.(map[string]any)
		if !ok {
			continue
		}
		out = append(out, FieldRef{
			Field: stringOf(fm["field"]),
			Title: stringOf(fm["title"]),
			Name:  stringOf(fm["name"]),
		})
	}
	return out
}

// Branch is one arm of an if_else node.
type Branch struct {
	Segments []Segment
}

// Segment groups the conditions of one branch arm.
type Segment struct {
	Conditions []Condition
}

// Condition is a single branch predicate.
type Condition struct {
	SubType   string
	Value     any
	FieldID   string
	FieldName string
}

// FieldRef is one entry of a field-update node's fields list.
type FieldRef struct {
	Field string
	Title string
	Name  string
}

// Window is the active-hours schedule. Days use 0=Sunday through
// 6=Saturday.
type Window struct {
	Condition string `json:"condition"`
	Days      []int  `json:"days"`
	Start     string `json:"start"`
	End       string `json:"end"`
}

// Decode parses a workflow detail response body, keeping the complete
// body on Raw.
func Decode(data []byte) (*Payload, error) {
	var p Payload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode workflow payload: %w", err)
	}
	var raw masset.Record
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode workflow payload: %w", err)
	}
	p.Raw = raw
	return &p, nil
}

func sliceOf(v any) []any {
	s, _ := v.([]any)
	return s
}

func stringOf(v any) string {
	s, _ := v.(string)
	return s
}
