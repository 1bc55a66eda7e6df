package chart

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestYKeys_SingleSeriesMarshalsAsString(t *testing.T) {
	data, err := json.Marshal(YKeys{"sales"})
	require.NoError(t, err)
	assert.JSONEq(t, `"sales"`, string(data))
}

func TestYKeys_MultiSeriesMarshalsAsArray(t *testing.T) {
	data, err := json.Marshal(YKeys{"revenue", "expense"})
	require.NoError(t, err)
	assert.JSONEq(t, `["revenue","expense"]`, string(data))
}

func TestYKeys_UnmarshalAcceptsBothShapes(t *testing.T) {
	var single YKeys
	require.NoError(t, json.Unmarshal([]byte(`"sales"`), &single))
	assert.Equal(t, YKeys{"sales"}, single)

	var many YKeys
	require.NoError(t, json.Unmarshal([]byte(`["a","b"]`), &many))
	assert.Equal(t, YKeys{"a", "b"}, many)
}
