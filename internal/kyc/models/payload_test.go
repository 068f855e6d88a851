package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResultPayloadDisplay(t *testing.T) {
	assert.Equal(t, "{\n  \"valid\": true\n}", ResultPayload(`{"valid":true}`).Display())
	assert.Equal(t, "agent timed out", ResultPayload("agent timed out").Display())
	assert.Equal(t, "", ResultPayload("").Display())

	_, ok := ResultPayload("{broken").Structured()
	assert.False(t, ok)
}

func TestResultPayloadJSON(t *testing.T) {
	var v struct {
		A ResultPayload `json:"a"`
		B ResultPayload `json:"b"`
		C ResultPayload `json:"c"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":null,"b":"{\"x\":1}","c":{"y":2}}`), &v))
	assert.False(t, v.A.Present())
	assert.Equal(t, ResultPayload(`{"x":1}`), v.B)
	assert.Equal(t, ResultPayload(`{"y":2}`), v.C)

	out, err := json.Marshal(v)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":null,"b":"{\"x\":1}","c":"{\"y\":2}"}`, string(out))
}
