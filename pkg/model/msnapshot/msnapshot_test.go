package msnapshot_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"snapex/pkg/model/msnapshot"
)

func TestDecodePayload(t *testing.T) {
	body := []byte(`{
		"workflow": [{"_id": "w1", "name": "Welcome"}],
		"tags": [],
		"unknown_type": [{"id": "x"}]
	}`)

	p, err := msnapshot.DecodePayload(body)
	require.NoError(t, err)

	require.Len(t, p.Records("workflow"), 1)
	assert.Equal(t, "w1", p.Records("workflow")[0].ID())
	assert.Empty(t, p.Records("tags"))
	assert.Nil(t, p.Records("forms"))
	assert.Equal(t, 1, p.TotalAssets())
}

func TestDecodePayloadInvalid(t *testing.T) {
	_, err := msnapshot.DecodePayload([]byte(`[1,2,3]`))
	assert.Error(t, err)
}

func TestDecodeMetadata(t *testing.T) {
	body := []byte(`{
		"locationId": "loc1",
		"name": "Agency Base",
		"type": "own",
		"dateAdded": "2025-01-02T03:04:05.000Z",
		"dateUpdated": "2025-02-03T04:05:06.000Z",
		"extra": true
	}`)

	m, err := msnapshot.DecodeMetadata(body)
	require.NoError(t, err)
	assert.Equal(t, "loc1", m.LocationID)
	assert.Equal(t, "Agency Base", m.Name)
	assert.Equal(t, "own", m.Type)
}

func TestDecodeList(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"snapshots wrapper", `{"snapshots": [{"_id": "s1", "name": "A"}]}`},
		{"data wrapper", `{"data": [{"_id": "s1", "name": "A"}]}`},
		{"bare array", `[{"_id": "s1", "name": "A"}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list, err := msnapshot.DecodeList([]byte(tt.body))
			require.NoError(t, err)
			require.Len(t, list, 1)
			assert.Equal(t, "s1", list[0].ID)
		})
	}

	_, err := msnapshot.DecodeList([]byte(`"nope"`))
	assert.Error(t, err)
}
