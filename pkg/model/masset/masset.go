package masset

// Record is one asset as returned by the snapshot endpoint. Schemas vary per
// asset type and across records of the same type, so records stay open maps
// with accessor helpers that encode the upstream fallback-key conventions.
type Record map[string]any

// EnrichmentDataKey holds the complete raw upstream response used to enrich a
// record. It is excluded from the regular column scan and rendered as the
// trailing sheet column.
const EnrichmentDataKey = "fullEnrichmentData"

// ID returns the record identity under the upstream fallback order
// _id, id, ID. Empty string when none is present.
func (r Record) ID() string {
	return r.FirstString("_id", "id", "ID")
}

// DisplayName returns the record display name under the upstream fallback
// order name, title, Name.
func (r Record) DisplayName() string {
	return r.FirstString("name", "title", "Name")
}

// FirstString returns the first non-empty string value among the given keys.
func (r Record) FirstString(keys ...string) string {
	for _, key := range keys {
		if s := AsString(r[key]); s != "" {
			return s
		}
	}
	return ""
}

// Clone returns a shallow copy. Enrichment merges derived fields onto a copy
// so the base record survives a failed or retried enrichment untouched.
func (r Record) Clone() Record {
	out := make(Record, len(r)+8)
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Merge returns a copy of r with the derived fields applied on top.
func (r Record) Merge(derived map[string]any) Record {
	out := r.Clone()
	for k, v := range derived {
		out[k] = v
	}
	return out
}

// AsString converts a scalar JSON value to its string form. Non-scalar and
// nil values yield "".
func AsString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	default:
		return ""
	}
}

// String reads a string field directly.
func (r Record) String(key string) string {
	return AsString(r[key])
}

// Bool reads a boolean field, false when absent or mistyped.
func (r Record) Bool(key string) bool {
	b, _ := r[key].(bool)
	return b
}

// Float reads a numeric field. JSON numbers decode as float64.
func (r Record) Float(key string) float64 {
	f, _ := r[key].(float64)
	return f
}

// Slice reads an array field.
func (r Record) Slice(key string) []any {
	s, _ := r[key].([]any)
	return s
}

// Map reads a nested object field.
func (r Record) Map(key string) map[string]any {
	m, _ := r[key].(map[string]any)
	return m
}
