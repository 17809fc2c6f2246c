package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoorbellRequest_House(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "string house", body: `{"houseId":"H3"}`, want: "H3"},
		{name: "missing field", body: `{}`, want: DefaultHouseID},
		{name: "other fields only", body: `{"floor":2}`, want: DefaultHouseID},
		{name: "numeric house", body: `{"houseId":5}`, want: "5"},
		{name: "null house", body: `{"houseId":null}`, want: "null"},
		{name: "empty string", body: `{"houseId":""}`, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req DoorbellRequest
			require.NoError(t, json.Unmarshal([]byte(tt.body), &req))
			assert.Equal(t, tt.want, req.House())
		})
	}
}

func TestIsValidHouse(t *testing.T) {
	for _, id := range []string{"H1", "H2", "H3", "H4"} {
		assert.True(t, IsValidHouse(id), id)
	}
	for _, id := range []string{"", "h1", "H5", "H0", DefaultHouseID, " H1"} {
		assert.False(t, IsValidHouse(id), id)
	}
}

func TestDoorbellEvent_AttributeNames(t *testing.T) {
	b, err := json.Marshal(DoorbellEvent{EventID: "e", Timestamp: "t", HouseID: "H1", Source: RecordSource})
	require.NoError(t, err)
	assert.JSONEq(t, `{"EventID":"e","Timestamp":"t","HouseID":"H1","source":"UI"}`, string(b))
}
