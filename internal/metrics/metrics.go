// Package metrics provides Prometheus metrics instrumentation for the charm.
//
// A charm process lives for a single hook, so metrics are gathered into a
// private registry and flushed to a node-exporter textfile when the hook ends.
package metrics

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
)

// Collector provides metrics recording interface.
// This allows components to record metrics without direct prometheus dependency.
type Collector interface {
	// Hook metrics
	RecordHookDuration(ctx context.Context, hook, status string, duration time.Duration)
	RecordHookError(ctx context.Context, hook, errorType string)
	RecordUnitStatus(ctx context.Context, status string)

	// Workload metrics
	RecordLayerUpdate(ctx context.Context, service string)
	RecordServiceStart(ctx context.Context, service string, restart bool)

	// Kubernetes API metrics
	RecordServicePatch(ctx context.Context, status string)
	RecordAPICall(ctx context.Context, method, resource, status string, duration time.Duration)
	RecordAPIError(ctx context.Context, method, errorType string)
}

// Label values shared by callers.
const (
	StatusSuccess = "success"
	StatusError   = "error"
	StatusSkipped = "skipped"
)

// unitStatuses lists every workload status so the status gauge can be reset.
//
//nolint:gochecknoglobals // fixed label set
var unitStatuses = []string{"active", "maintenance", "waiting", "blocked"}

// prometheusCollector implements Collector using Prometheus metrics.
type prometheusCollector struct {
	// Hook metrics
	hookDuration    *prometheus.HistogramVec
	hookErrorsTotal *prometheus.CounterVec
	unitStatus      *prometheus.GaugeVec

	// Workload metrics
	layerUpdatesTotal  *prometheus.CounterVec
	serviceStartsTotal *prometheus.CounterVec

	// Kubernetes API metrics
	servicePatchesTotal *prometheus.CounterVec
	apiDuration         *prometheus.HistogramVec
	apiCallsTotal       *prometheus.CounterVec
	apiErrorsTotal      *prometheus.CounterVec
}

// NewCollector creates a new Prometheus metrics collector and registers metrics.
func NewCollector(reg prometheus.Registerer) Collector {
	c := &prometheusCollector{}
	c.initHookMetrics()
	c.initWorkloadMetrics()
	c.initAPIMetrics()
	c.register(reg)

	return c
}

// WriteTextfile writes everything gathered so far to path in the text
// exposition format, atomically replacing any previous file.
func WriteTextfile(path string, gatherer prometheus.Gatherer) error {
	return errors.Wrapf(prometheus.WriteToTextfile(path, gatherer), "failed to write metrics to %s", path)
}

// RecordHookDuration records how long handling a hook took.
func (c *prometheusCollector) RecordHookDuration(_ context.Context, hook, status string, duration time.Duration) {
	c.hookDuration.WithLabelValues(hook, status).Observe(duration.Seconds())
}

// RecordHookError records a failed hook by error type.
func (c *prometheusCollector) RecordHookError(_ context.Context, hook, errorType string) {
	c.hookErrorsTotal.WithLabelValues(hook, errorType).Inc()
}

// RecordUnitStatus marks status as the current unit status.
func (c *prometheusCollector) RecordUnitStatus(_ context.Context, status string) {
	for _, known := range unitStatuses {
		c.unitStatus.WithLabelValues(known).Set(0)
	}

	c.unitStatus.WithLabelValues(status).Set(1)
}

// RecordLayerUpdate records a new supervisor layer being applied.
func (c *prometheusCollector) RecordLayerUpdate(_ context.Context, service string) {
	c.layerUpdatesTotal.WithLabelValues(service).Inc()
}

// RecordServiceStart records a workload start, distinguishing restarts.
func (c *prometheusCollector) RecordServiceStart(_ context.Context, service string, restart bool) {
	mode := "start"
	if restart {
		mode = "restart"
	}

	c.serviceStartsTotal.WithLabelValues(service, mode).Inc()
}

// RecordServicePatch records the outcome of a Kubernetes Service port patch.
func (c *prometheusCollector) RecordServicePatch(_ context.Context, status string) {
	c.servicePatchesTotal.WithLabelValues(status).Inc()
}

// RecordAPICall records a Kubernetes API call.
func (c *prometheusCollector) RecordAPICall(
	_ context.Context,
	method, resource, status string,
	duration time.Duration,
) {
	c.apiDuration.WithLabelValues(method, resource).Observe(duration.Seconds())
	c.apiCallsTotal.WithLabelValues(method, resource, status).Inc()
}

// RecordAPIError records a Kubernetes API error.
func (c *prometheusCollector) RecordAPIError(_ context.Context, method, errorType string) {
	c.apiErrorsTotal.WithLabelValues(method, errorType).Inc()
}

func (c *prometheusCollector) initHookMetrics() {
	c.hookDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "spring_music_operator_hook_duration_seconds",
			Help:    "Duration of hook handling",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"hook", "status"},
	)
	c.hookErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spring_music_operator_hook_errors_total",
			Help: "Total failed hooks by error type",
		},
		[]string{"hook", "error_type"},
	)
	c.unitStatus = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "spring_music_operator_unit_status",
			Help: "Current unit workload status (1 for the active status label)",
		},
		[]string{"status"},
	)
}

func (c *prometheusCollector) initWorkloadMetrics() {
	c.layerUpdatesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spring_music_operator_layer_updates_total",
			Help: "Total supervisor layer updates",
		},
		[]string{"service"},
	)
	c.serviceStartsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spring_music_operator_service_starts_total",
			Help: "Total workload starts by mode",
		},
		[]string{"service", "mode"},
	)
}

func (c *prometheusCollector) initAPIMetrics() {
	c.servicePatchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spring_music_operator_service_patches_total",
			Help: "Total Kubernetes Service port patches by outcome",
		},
		[]string{"status"},
	)
	c.apiDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "spring_music_operator_kubernetes_api_duration_seconds",
			Help:    "Duration of Kubernetes API calls",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "resource"},
	)
	c.apiCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spring_music_operator_kubernetes_api_calls_total",
			Help: "Total Kubernetes API calls",
		},
		[]string{"method", "resource", "status"},
	)
	c.apiErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spring_music_operator_kubernetes_api_errors_total",
			Help: "Total Kubernetes API errors by type",
		},
		[]string{"method", "error_type"},
	)
}

func (c *prometheusCollector) register(reg prometheus.Registerer) {
	reg.MustRegister(
		c.hookDuration,
		c.hookErrorsTotal,
		c.unitStatus,
		c.layerUpdatesTotal,
		c.serviceStartsTotal,
		c.servicePatchesTotal,
		c.apiDuration,
		c.apiCallsTotal,
		c.apiErrorsTotal,
	)
}

// NoopCollector is a no-op implementation of Collector for testing.
type NoopCollector struct{}

// NewNoopCollector creates a new no-op collector.
func NewNoopCollector() *NoopCollector {
	return &NoopCollector{}
}

// RecordHookDuration is a no-op.
func (c *NoopCollector) RecordHookDuration(_ context.Context, _, _ string, _ time.Duration) {}

// RecordHookError is a no-op.
func (c *NoopCollector) RecordHookError(_ context.Context, _, _ string) {}

// RecordUnitStatus is a no-op.
func (c *NoopCollector) RecordUnitStatus(_ context.Context, _ string) {}

// RecordLayerUpdate is a no-op.
func (c *NoopCollector) RecordLayerUpdate(_ context.Context, _ string) {}

// RecordServiceStart is a no-op.
func (c *NoopCollector) RecordServiceStart(_ context.Context, _ string, _ bool) {}

// RecordServicePatch is a no-op.
func (c *NoopCollector) RecordServicePatch(_ context.Context, _ string) {}

// RecordAPICall is a no-op.
func (c *NoopCollector) RecordAPICall(_ context.Context, _, _, _ string, _ time.Duration) {}

// RecordAPIError is a no-op.
func (c *NoopCollector) RecordAPIError(_ context.Context, _, _ string) {}
