package tangle

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/puzpuzpuz/xsync/v3"
)

// GraphCollector exposes the merge counters of registered graphs as
// prometheus metrics, one labeled series per graph.
type GraphCollector struct {
	graphs *xsync.MapOf[string, *Graph]

	merges          *prometheus.Desc
	conflicts       *prometheus.Desc
	updatedFields   *prometheus.Desc
	historyRecords  *prometheus.Desc
	nodes           *prometheus.Desc
	fields          *prometheus.Desc
	avgUpdateFields *prometheus.Desc
}

func NewGraphCollector() *GraphCollector {
	return &GraphCollector{
		graphs: xsync.NewMapOf[string, *Graph](),

		merges: prometheus.NewDesc(
			"tangle_graph_merges_total",
			"Total number of graph merges applied",
			[]string{"graph"}, nil,
		),
		conflicts: prometheus.NewDesc(
			"tangle_graph_conflicts_total",
			"Total number of equal-state conflicts resolved",
			[]string{"graph"}, nil,
		),
		updatedFields: prometheus.NewDesc(
			"tangle_graph_updated_fields_total",
			"Total number of fields overwritten by merges",
			[]string{"graph"}, nil,
		),
		historyRecords: prometheus.NewDesc(
			"tangle_graph_history_records_total",
			"Total number of superseded field records",
			[]string{"graph"}, nil,
		),
		nodes: prometheus.NewDesc(
			"tangle_graph_nodes",
			"Current number of member nodes",
			[]string{"graph"}, nil,
		),
		fields: prometheus.NewDesc(
			"tangle_graph_fields",
			"Current number of fields across member nodes",
			[]string{"graph"}, nil,
		),
		avgUpdateFields: prometheus.NewDesc(
			"tangle_graph_avg_update_fields",
			"Mean number of fields won per merge",
			[]string{"graph"}, nil,
		),
	}
}

// Register adds a live graph under a label. Re-registering a name
// replaces the graph.
func (c *GraphCollector) Register(name string, g *Graph) {
	c.graphs.Store(name, g)
}

func (c *GraphCollector) Deregister(name string) {
	c.graphs.Delete(name)
}

func (c *GraphCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.merges
	ch <- c.conflicts
	ch <- c.updatedFields
	ch <- c.historyRecords
	ch <- c.nodes
	ch <- c.fields
	ch <- c.avgUpdateFields
}

func (c *GraphCollector) Collect(ch chan<- prometheus.Metric) {
	c.graphs.Range(func(name string, g *Graph) bool {
		stats := g.Stats()
		ch <- prometheus.MustNewConstMetric(
			c.merges, prometheus.CounterValue, float64(stats.Merges), name)
		ch <- prometheus.MustNewConstMetric(
			c.conflicts, prometheus.CounterValue, float64(stats.Conflicts), name)
		ch <- prometheus.MustNewConstMetric(
			c.updatedFields, prometheus.CounterValue, float64(stats.UpdatedFields), name)
		ch <- prometheus.MustNewConstMetric(
			c.historyRecords, prometheus.CounterValue, float64(stats.HistoryRecords), name)
		ch <- prometheus.MustNewConstMetric(
			c.nodes, prometheus.GaugeValue, float64(stats.Nodes), name)
		ch <- prometheus.MustNewConstMetric(
			c.fields, prometheus.GaugeValue, float64(stats.Fields), name)
		ch <- prometheus.MustNewConstMetric(
			c.avgUpdateFields, prometheus.GaugeValue, stats.AvgUpdateFields, name)
		return true
	})
}
