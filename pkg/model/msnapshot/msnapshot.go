package msnapshot

import (
	"fmt"

	"github.com/goccy/go-json"

	"snapex/pkg/model/masset"
)

// Payload maps asset-type key to that type's records, as returned by the
// snapshot asset endpoint. Only keys listed in masset.Types are exported;
// unknown keys are preserved in the map but never walked.
type Payload map[string][]masset.Record

// Records returns the records for one asset-type key, nil when absent.
func (p Payload) Records(key string) []masset.Record {
	return p[key]
}

// TotalAssets counts records across all known asset types.
func (p Payload) TotalAssets() int {
	total := 0
	for _, t := range masset.Types {
		total += len(p[t.Key])
	}
	return total
}

// DecodePayload parses the asset endpoint response body.
func DecodePayload(data []byte) (Payload, error) {
	var p Payload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode snapshot payload: %w", err)
	}
	return p, nil
}

// Metadata is the snapshot detail record. LocationID drives enrichment:
// an empty LocationID means the per-asset enrichment endpoints cannot be
// addressed and the export proceeds with raw records only.
type Metadata struct {
	LocationID  string `json:"locationId"`
	Name        string `json:"name"`
	Type        string `json:"type"`
	DateAdded   string `json:"dateAdded"`
	DateUpdated string `json:"dateUpdated"`
}

// DecodeMetadata parses the snapshot detail response body.
func DecodeMetadata(data []byte) (Metadata, error) {
	var m Metadata
	if err := json.Unmarshal(data, &m); err != nil {
		return Metadata{}, fmt.Errorf("decode snapshot metadata: %w", err)
	}
	return m, nil
}

// ListEntry is one row of the snapshot listing endpoint.
type ListEntry struct {
	ID          string `json:"_id"`
	Name        string `json:"name"`
	Type        string `json:"type"`
	DateAdded   string `json:"dateAdded"`
	DateUpdated string `json:"dateUpdated"`
}

// DecodeList parses the snapshot listing response. The endpoint wraps the
// array under "snapshots" or "data" depending on the deployment, or returns
// a bare array.
func DecodeList(data []byte) ([]ListEntry, error) {
	var wrapped struct {
		Snapshots []ListEntry `json:"snapshots"`
		Data      []ListEntry `json:"data"`
	}
	if err := json.Unmarshal(data, &wrapped); err == nil {
		if wrapped.Snapshots != nil {
			return wrapped.Snapshots, nil
		}
		return wrapped.Data, nil
	}
	var bare []ListEntry
	if err := json.Unmarshal(data, &bare); err == nil {
		return bare, nil
	}
	return nil, fmt.Errorf("decode snapshot list: unrecognized shape")
}
