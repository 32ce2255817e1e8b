// Package metrics records pipeline stage transitions as Prometheus metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"incidentops/src/contracts"
)

const namespace = "incidentops"

// Recorder is a pipeline observer that updates stage metrics.
type Recorder struct {
	// StageTransitions counts stage status transitions.
	// Labels: stage, status (started, completed, failed)
	StageTransitions *prometheus.CounterVec

	// StageItems is the item count of the last completed run of each stage.
	StageItems *prometheus.GaugeVec

	// StageDuration measures time spent in each stage that finished.
	StageDuration *prometheus.HistogramVec

	registry *prometheus.Registry
}

// NewRecorder creates a recorder with its own registry.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	r := &Recorder{
		StageTransitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "stage_transitions_total",
				Help:      "Pipeline stage status transitions by stage and status",
			},
			[]string{"stage", "status"},
		),
		StageItems: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "stage_items",
				Help:      "Items produced by the last completed run of a stage",
			},
			[]string{"stage"},
		),
		StageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "stage_duration_seconds",
				Help:      "Time spent in a stage in seconds",
				Buckets:   []float64{0.001, 0.01, 0.1, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"stage"},
		),
		registry: reg,
	}
	reg.MustRegister(r.StageTransitions, r.StageItems, r.StageDuration)
	return r
}

// ObserveStage records event.
func (r *Recorder) ObserveStage(event contracts.StageEvent) {
	r.StageTransitions.WithLabelValues(event.Stage, event.Status).Inc()

	switch event.Status {
	case contracts.StageCompleted:
		r.StageItems.WithLabelValues(event.Stage).Set(float64(event.ItemCount))
		r.StageDuration.WithLabelValues(event.Stage).Observe(float64(event.DurationMS) / 1000)
	case contracts.StageFailed:
		r.StageDuration.WithLabelValues(event.Stage).Observe(float64(event.DurationMS) / 1000)
	}
}

// Registry returns the registry holding the recorder's metrics.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the recorder's metrics in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
