package tangle

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGraphCollector(t *testing.T) {
	g := NewGraph()
	_, err := g.Merge(map[string]any{
		"u1": map[string]any{
			"@object": map[string]any{"uid": "u1"},
			"x":       map[string]any{"value": "v", "state": float64(1)},
		},
	})
	require.NoError(t, err)

	c := NewGraphCollector()
	c.Register("main", g)

	reg := prometheus.NewPedanticRegistry()
	require.NoError(t, reg.Register(c))

	families, err := reg.Gather()
	require.NoError(t, err)
	byName := map[string]float64{}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			if m.GetCounter() != nil {
				byName[mf.GetName()] = m.GetCounter().GetValue()
			} else if m.GetGauge() != nil {
				byName[mf.GetName()] = m.GetGauge().GetValue()
			}
		}
	}
	assert.Equal(t, float64(1), byName["tangle_graph_merges_total"])
	assert.Equal(t, float64(1), byName["tangle_graph_nodes"])
	assert.Equal(t, float64(1), byName["tangle_graph_fields"])

	c.Deregister("main")
	assert.Equal(t, 0, testutil.CollectAndCount(c))
}
