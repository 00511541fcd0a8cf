package tangle

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetaWireShape(t *testing.T) {
	m := Meta{
		Value:  "Ada",
		State:  3,
		Extras: map[string]any{"prev": "other"},
	}
	blob, err := json.Marshal(&m)
	require.NoError(t, err)

	var back Meta
	require.NoError(t, json.Unmarshal(blob, &back))
	assert.Equal(t, "Ada", back.Value)
	assert.Equal(t, uint64(3), back.State)
	assert.Equal(t, "other", back.Extras["prev"])
}

func TestMetaFractionalStateTruncates(t *testing.T) {
	var m Meta
	require.NoError(t, json.Unmarshal([]byte(`{"value":"v","state":2.7}`), &m))
	assert.Equal(t, uint64(2), m.State)
}

func TestMetaCloneIsDeep(t *testing.T) {
	m := &Meta{
		Value:  map[string]any{"k": "v"},
		State:  1,
		Extras: map[string]any{"flags": []any{"a"}},
	}
	c := m.Clone()
	c.Value.(map[string]any)["k"] = "changed"
	c.Extras["flags"].([]any)[0] = "b"
	assert.Equal(t, "v", m.Value.(map[string]any)["k"])
	assert.Equal(t, "a", m.Extras["flags"].([]any)[0])
}
