package netsynth

import (
	"sort"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Recorder holds the prometheus collectors of pipeline runs, on a registry of its own
type Recorder struct {
	registry *prometheus.Registry

	RunsTotal       *prometheus.CounterVec
	StagesTotal     *prometheus.CounterVec
	StageDuration   *prometheus.HistogramVec
	HealthScore     prometheus.Gauge
	DevicesInFlight prometheus.Gauge
}

// NewRecorder creates a Recorder with every collector registered
func NewRecorder() *Recorder {
	r := &Recorder{registry: prometheus.NewRegistry()}

	r.RunsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "netsynth_pipeline_runs_total",
			Help: "Total number of pipeline runs, by overall status",
		},
		[]string{"status"},
	)

	r.StagesTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "netsynth_pipeline_stages_total",
			Help: "Total number of pipeline stages executed, by stage and status",
		},
		[]string{"stage", "status"},
	)

	r.StageDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "netsynth_stage_duration_seconds",
			Help:    "Pipeline stage duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0},
		},
		[]string{"stage"},
	)

	r.HealthScore = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "netsynth_last_health_score",
			Help: "Health score of the most recently analyzed topology",
		},
	)

	r.DevicesInFlight = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "netsynth_devices_in_flight",
			Help: "Devices held by topologies currently moving through a pipeline",
		},
	)
	return r
}

// Registry exposes the underlying prometheus registry, e.g. for an HTTP handler
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// RecordStage counts a finished stage and observes its duration
func (r *Recorder) RecordStage(stage string, status StageStatus, duration time.Duration) {
	r.StagesTotal.WithLabelValues(stage, string(status)).Inc()
	r.StageDuration.WithLabelValues(stage).Observe(duration.Seconds())
}

// RecordRun counts a finished pipeline run
func (r *Recorder) RecordRun(status StageStatus) {
	r.RunsTotal.WithLabelValues(string(status)).Inc()
}

// MetricSample is one flattened sample of a gathered metric family
type MetricSample struct {
	Name   string  `json:"name" yaml:"name"`
	Labels string  `json:"labels,omitempty" yaml:"labels,omitempty"`
	Value  float64 `json:"value" yaml:"value"`
}

// Snapshot gathers the registry and flattens it into samples ordered by name and labels.
// Counters and gauges give their value; histograms give their sample count, under
// the family name with a _count suffix, and the sum with a _sum suffix.
func (r *Recorder) Snapshot() ([]MetricSample, error) {
	families, err := r.registry.Gather()
	if err != nil {
		return nil, err
	}

	samples := []MetricSample{}
	for _, family := range families {
		for _, metric := range family.GetMetric() {
			labels := labelString(metric.GetLabel())
			switch family.GetType() {
			case dto.MetricType_COUNTER:
				samples = append(samples, MetricSample{Name: family.GetName(), Labels: labels, Value: metric.GetCounter().GetValue()})
			case dto.MetricType_GAUGE:
				samples = append(samples, MetricSample{Name: family.GetName(), Labels: labels, Value: metric.GetGauge().GetValue()})
			case dto.MetricType_HISTOGRAM:
				hist := metric.GetHistogram()
				samples = append(samples,
					MetricSample{Name: family.GetName() + "_count", Labels: labels, Value: float64(hist.GetSampleCount())},
					MetricSample{Name: family.GetName() + "_sum", Labels: labels, Value: hist.GetSampleSum()})
			}
		}
	}

	sort.SliceStable(samples, func(i, j int) bool {
		if samples[i].Name != samples[j].Name {
			return samples[i].Name < samples[j].Name
		}
		return samples[i].Labels < samples[j].Labels
	})
	return samples, nil
}

func labelString(pairs []*dto.LabelPair) string {
	parts := make([]string, len(pairs))
	for idx, pair := range pairs {
		parts[idx] = pair.GetName() + "=" + pair.GetValue()
	}
	return strings.Join(parts, ",")
}
