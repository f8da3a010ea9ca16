package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	namespace = "linkgraph"

	LabelResult = "result"

	ResultSuccess   = "success"
	ResultError     = "error"
	ResultStale     = "stale"
	ResultUnchanged = "unchanged"
)

// Collector holds the graph pipeline collectors on a private registry so tests
// can create as many as they like without duplicate registration panics.
type Collector struct {
	registry     *prometheus.Registry
	buildSeconds prometheus.Histogram
	graphNodes   prometheus.Gauge
	graphEdges   prometheus.Gauge
	refreshes    *prometheus.CounterVec
}

// New registers the pipeline collectors plus the Go runtime and process
// collectors.
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		buildSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "graph_build_seconds",
			Help:      "Time spent building the base relationship graph",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
		graphNodes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "graph_nodes",
			Help:      "Number of nodes in the installed base graph",
		}),
		graphEdges: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "graph_edges",
			Help:      "Number of edges in the installed base graph",
		}),
		refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refresh_total",
			Help:      "Source refreshes by outcome",
		}, []string{LabelResult}),
	}

	c.registry.MustRegister(
		c.buildSeconds,
		c.graphNodes,
		c.graphEdges,
		c.refreshes,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// ObserveBuild records one graph build and the size of the graph it produced.
func (c *Collector) ObserveBuild(elapsed time.Duration, nodes, edges int) {
	c.buildSeconds.Observe(elapsed.Seconds())
	c.graphNodes.Set(float64(nodes))
	c.graphEdges.Set(float64(edges))
}

func (c *Collector) RecordRefresh(result string) {
	c.refreshes.WithLabelValues(result).Inc()
}

func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler exposes the registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}
