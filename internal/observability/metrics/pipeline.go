package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PipelineMetrics implements ports.PipelineObserver.
type PipelineMetrics struct {
	service string

	routeTotal    *prometheus.CounterVec
	stageDuration *prometheus.HistogramVec
	stageTotal    *prometheus.CounterVec
	treeEntities  *prometheus.HistogramVec
	degradedTotal *prometheus.CounterVec
}

func NewPipelineMetrics(service string, registerer prometheus.Registerer) *PipelineMetrics {
	routeTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "route_total",
			Help:      "Router decisions by route.",
		},
		[]string{"service", "route"},
	)
	stageDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "stage_duration_seconds",
			Help:      "Pipeline stage duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"service", "stage"},
	)
	stageTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "stage_total",
			Help:      "Pipeline stage executions by status.",
		},
		[]string{"service", "stage", "status"},
	)
	treeEntities := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "tree_entities",
			Help:      "Entities discovered per tree expansion.",
			Buckets:   []float64{1, 2, 3, 5, 8, 13, 21, 34, 55, 100, 250, 500},
		},
		[]string{"service"},
	)
	degradedTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "degraded_queries_total",
			Help:      "Non-root store failures that were degraded to empty results.",
		},
		[]string{"service", "stage"},
	)

	registerer.MustRegister(routeTotal, stageDuration, stageTotal, treeEntities, degradedTotal)

	return &PipelineMetrics{
		service:       service,
		routeTotal:    routeTotal,
		stageDuration: stageDuration,
		stageTotal:    stageTotal,
		treeEntities:  treeEntities,
		degradedTotal: degradedTotal,
	}
}

func (m *PipelineMetrics) ObserveRoute(route string) {
	if route == "" {
		route = "unknown"
	}
	m.routeTotal.WithLabelValues(m.service, route).Inc()
}

func (m *PipelineMetrics) ObserveStage(stage string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.stageTotal.WithLabelValues(m.service, stage, status).Inc()
	m.stageDuration.WithLabelValues(m.service, stage).Observe(duration.Seconds())
}

func (m *PipelineMetrics) ObserveTreeSize(entities int) {
	m.treeEntities.WithLabelValues(m.service).Observe(float64(entities))
}

func (m *PipelineMetrics) ObserveDegraded(stage string) {
	m.degradedTotal.WithLabelValues(m.service, stage).Inc()
}
