package metrics

import (
	"fmt"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	reg             *prom.Registry
	nodesCreated    prom.Counter
	childrenSkipped prom.Counter
	layoutPasses    prom.Counter
	layoutDuration  prom.Histogram
	layoutNodes     prom.Gauge
	runs            *prom.CounterVec
	runDuration     prom.Histogram
}

// NewPrometheusRecorder constructs the metrics and registers them on reg.
// A nil reg gets a fresh private registry.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		reg: reg,
		nodesCreated: prom.NewCounter(prom.CounterOpts{
			Namespace: "boxbridge",
			Name:      "nodes_created_total",
			Help:      "Boxes registered through createNode",
		}),
		childrenSkipped: prom.NewCounter(prom.CounterOpts{
			Namespace: "boxbridge",
			Name:      "children_skipped_total",
			Help:      "Child handles ignored because they did not resolve",
		}),
		layoutPasses: prom.NewCounter(prom.CounterOpts{
			Namespace: "boxbridge",
			Name:      "layout_passes_total",
			Help:      "Completed layout passes",
		}),
		layoutDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: "boxbridge",
			Name:      "layout_pass_duration_seconds",
			Help:      "Duration of a layout pass",
			Buckets:   prom.ExponentialBuckets(0.0001, 4, 8),
		}),
		layoutNodes: prom.NewGauge(prom.GaugeOpts{
			Namespace: "boxbridge",
			Name:      "layout_nodes",
			Help:      "Boxes reached by the most recent layout pass",
		}),
		runs: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "boxbridge",
			Name:      "script_runs_total",
			Help:      "Script pipeline runs by outcome",
		}, []string{"status"}),
		runDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: "boxbridge",
			Name:      "script_run_duration_seconds",
			Help:      "Duration of a script pipeline run",
			Buckets:   prom.DefBuckets,
		}),
	}
	reg.MustRegister(pr.nodesCreated, pr.childrenSkipped, pr.layoutPasses,
		pr.layoutDuration, pr.layoutNodes, pr.runs, pr.runDuration)
	return pr
}

func (p *PrometheusRecorder) IncNodesCreated() {
	p.nodesCreated.Inc()
}

func (p *PrometheusRecorder) IncChildrenSkipped(n int) {
	p.childrenSkipped.Add(float64(n))
}

func (p *PrometheusRecorder) ObserveLayoutPass(nodes int, d time.Duration) {
	p.layoutPasses.Inc()
	p.layoutNodes.Set(float64(nodes))
	p.layoutDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveRun(status RunStatus, d time.Duration) {
	p.runs.WithLabelValues(string(status)).Inc()
	p.runDuration.Observe(d.Seconds())
}

// Registry returns the registry the metrics live on.
func (p *PrometheusRecorder) Registry() *prom.Registry {
	return p.reg
}

// WriteTextfile dumps the current metric values in the text exposition
// format, suitable for a node_exporter textfile collector.
func (p *PrometheusRecorder) WriteTextfile(path string) error {
	if err := prom.WriteToTextfile(path, p.reg); err != nil {
		return fmt.Errorf("write metrics textfile %s: %w", path, err)
	}
	return nil
}
