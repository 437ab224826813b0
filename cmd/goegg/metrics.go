package main

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/borzacchiello/goegg"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// runMetrics records the iterations of a run in a private registry.
type runMetrics struct {
	registry *prometheus.Registry
	seen     int

	iterations prometheus.Counter
	classes    prometheus.Gauge
	nodes      prometheus.Gauge
	unions     prometheus.Counter
	applied    *prometheus.CounterVec
	phase      *prometheus.HistogramVec
}

func newRunMetrics() *runMetrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &runMetrics{
		registry: reg,
		iterations: factory.NewCounter(prometheus.CounterOpts{
			Name: "goegg_iterations_total",
			Help: "Completed saturation iterations",
		}),
		classes: factory.NewGauge(prometheus.GaugeOpts{
			Name: "goegg_classes",
			Help: "E-classes after the last iteration",
		}),
		nodes: factory.NewGauge(prometheus.GaugeOpts{
			Name: "goegg_nodes",
			Help: "E-nodes after the last iteration",
		}),
		unions: factory.NewCounter(prometheus.CounterOpts{
			Name: "goegg_unions_total",
			Help: "Unions performed by applications and rebuilds",
		}),
		applied: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "goegg_applied_total",
			Help: "Applications that merged classes, by rule",
		}, []string{"rule"}),
		phase: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "goegg_phase_duration_seconds",
			Help:    "Duration of each iteration phase",
			Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
		}, []string{"phase"}),
	}
}

// install records every iteration of r, including the last one which no
// iteration hook gets to see.
func (m *runMetrics) install(r *goegg.Runner) {
	r.WithHook(m.hook)
	r.WithStopHook(func(r *goegg.Runner) { _ = m.hook(r) })
}

// hook records the iterations completed since its last call.
func (m *runMetrics) hook(r *goegg.Runner) error {
	for _, it := range r.Iterations[m.seen:] {
		m.iterations.Inc()
		m.classes.Set(float64(it.Classes))
		m.nodes.Set(float64(it.Nodes))
		m.unions.Add(float64(it.Unions))
		for rule, n := range it.Applied {
			m.applied.WithLabelValues(rule).Add(float64(n))
		}
		m.phase.WithLabelValues("search").Observe(it.SearchTime.Seconds())
		m.phase.WithLabelValues("apply").Observe(it.ApplyTime.Seconds())
		m.phase.WithLabelValues("rebuild").Observe(it.RebuildTime.Seconds())
	}
	m.seen = len(r.Iterations)
	return nil
}

func labelString(labels []*dto.LabelPair) string {
	if len(labels) == 0 {
		return ""
	}
	parts := make([]string, 0, len(labels))
	for _, l := range labels {
		parts = append(parts, fmt.Sprintf("%s=%q", l.GetName(), l.GetValue()))
	}
	sort.Strings(parts)
	return "{" + strings.Join(parts, ",") + "}"
}

func (m *runMetrics) write(w io.Writer) error {
	families, err := m.registry.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		for _, metric := range mf.GetMetric() {
			name := mf.GetName() + labelString(metric.GetLabel())
			switch mf.GetType() {
			case dto.MetricType_COUNTER:
				fmt.Fprintf(w, "%s %v\n", name, metric.GetCounter().GetValue())
			case dto.MetricType_GAUGE:
				fmt.Fprintf(w, "%s %v\n", name, metric.GetGauge().GetValue())
			case dto.MetricType_HISTOGRAM:
				h := metric.GetHistogram()
				fmt.Fprintf(w, "%s count=%d sum=%.6fs\n", name, h.GetSampleCount(), h.GetSampleSum())
			}
		}
	}
	return nil
}
