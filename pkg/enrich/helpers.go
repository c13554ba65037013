package enrich

import (
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-json"

	"snapex/pkg/model/masset"
)

// getJSON fetches a path and decodes the object body into a Record.
func getJSON(ctx context.Context, env *Env, path string) (masset.Record, error) {
	body, err := env.Client.Get(ctx, path)
	if err != nil {
		return nil, err
	}
	var rec masset.Record
	if err := json.Unmarshal(body, &rec); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return rec, nil
}

// getList fetches a collection endpoint. Responses arrive either as a
// bare array, wrapped under one of the given keys, or wrapped one level
// deeper under "data".
func getList(ctx context.Context, env *Env, path string, wrapperKeys ...string) ([]masset.Record, error) {
	body, err := env.Client.Get(ctx, path)
	if err != nil {
		return nil, err
	}
	var decoded any
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	switch v := decoded.(type) {
	case []any:
		return toRecords(v), nil
	case map[string]any:
		for _, key := range wrapperKeys {
			if list, ok := v[key].([]any); ok {
				return toRecords(list), nil
			}
		}
		if nested, ok := v["data"].(map[string]any); ok {
			for _, key := range wrapperKeys {
				if list, ok := nested[key].([]any); ok {
					return toRecords(list), nil
				}
			}
		}
	}
	return nil, nil
}

func toRecords(list []any) []masset.Record {
	out := make([]masset.Record, 0, len(list))
	for _, item := range list {
		if m, ok := item.(map[string]any); ok {
			out = append(out, masset.Record(m))
		}
	}
	return out
}

// indexByID maps records by identity under the given key fallback order.
// Records without any id key are skipped.
func indexByID(records []masset.Record, idKeys ...string) map[string]masset.Record {
	index := make(map[string]masset.Record, len(records))
	for _, rec := range records {
		if id := rec.FirstString(idKeys...); id != "" {
			index[id] = rec
		}
	}
	return index
}

// truthy mirrors the upstream falsy set: nil, empty string, false and
// numeric zero all read as absent.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return t != ""
	case bool:
		return t
	case float64:
		return t != 0
	case []any:
		return t != nil
	case map[string]any:
		return t != nil
	default:
		return true
	}
}

// firstTruthy returns the first truthy value, "" when none.
func firstTruthy(vals ...any) any {
	for _, v := range vals {
		if truthy(v) {
			return v
		}
	}
	return ""
}

// anyOr returns v unless it is absent.
func anyOr(v, fallback any) any {
	if v == nil {
		return fallback
	}
	return v
}

// boolOr reads a bool, falling back when the value is absent or mistyped.
func boolOr(v any, fallback bool) bool {
	if b, ok := v.(bool); ok {
		return b
	}
	return fallback
}

// notFalse treats everything except an explicit false as true.
func notFalse(v any) bool {
	b, ok := v.(bool)
	return !ok || b
}

// firstFloat returns the first non-zero numeric value among the keys.
func firstFloat(rec masset.Record, keys ...string) float64 {
	for _, key := range keys {
		if f := rec.Float(key); f != 0 {
			return f
		}
	}
	return 0
}

// mapItems filters a loose array down to its object entries.
func mapItems(v any) []masset.Record {
	list, _ := v.([]any)
	return toRecords(list)
}

// joinField joins the first non-empty string per item under the key
// fallback order.
func joinField(items []masset.Record, keys ...string) string {
	parts := make([]string, 0, len(items))
	for _, item := range items {
		if s := item.FirstString(keys...); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "; ")
}

// uniqueJoinField is joinField with first-seen deduplication.
func uniqueJoinField(items []masset.Record, keys ...string) string {
	seen := map[string]bool{}
	parts := make([]string, 0, len(items))
	for _, item := range items {
		s := item.FirstString(keys...)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		parts = append(parts, s)
	}
	return strings.Join(parts, "; ")
}

// joinStrings joins the string entries of a loose array.
func joinStrings(v any, sep string) string {
	list, _ := v.([]any)
	parts := make([]string, 0, len(list))
	for _, item := range list {
		if s, ok := item.(string); ok {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, sep)
}

// preview truncates content to max runes with a trailing ellipsis.
func preview(content string, max int) string {
	r := []rune(content)
	if len(r) <= max {
		return content
	}
	return string(r[:max]) + "..."
}
