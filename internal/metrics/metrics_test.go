package metrics

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorInterface(t *testing.T) {
	t.Parallel()

	var _ Collector = (*prometheusCollector)(nil)
	var _ Collector = (*NoopCollector)(nil)
}

func TestNewCollector(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	collector := NewCollector(reg)

	require.NotNil(t, collector)
	assert.IsType(t, &prometheusCollector{}, collector)
}

func TestNoopCollector(t *testing.T) {
	t.Parallel()

	collector := NewNoopCollector()
	require.NotNil(t, collector)

	ctx := context.Background()

	assert.NotPanics(t, func() {
		collector.RecordHookDuration(ctx, "install", StatusSuccess, time.Second)
		collector.RecordHookError(ctx, "install", ErrorTypeUnknown)
		collector.RecordUnitStatus(ctx, "active")
		collector.RecordLayerUpdate(ctx, "spring-music")
		collector.RecordServiceStart(ctx, "spring-music", true)
		collector.RecordServicePatch(ctx, StatusSuccess)
		collector.RecordAPICall(ctx, "patch", "service", StatusSuccess, time.Second)
		collector.RecordAPIError(ctx, "get", ErrorTypeAuth)
	})
}

func TestMetricsRegistration(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	collector := NewCollector(reg).(*prometheusCollector)
	ctx := context.Background()

	collector.RecordHookDuration(ctx, "install", StatusSuccess, time.Second)
	collector.RecordHookError(ctx, "install", "test")
	collector.RecordUnitStatus(ctx, "active")
	collector.RecordLayerUpdate(ctx, "spring-music")
	collector.RecordServiceStart(ctx, "spring-music", false)
	collector.RecordServicePatch(ctx, StatusSuccess)
	collector.RecordAPICall(ctx, "patch", "service", StatusSuccess, time.Second)
	collector.RecordAPIError(ctx, "patch", "test")

	metricFamilies, err := reg.Gather()
	require.NoError(t, err)

	expectedMetrics := []string{
		"spring_music_operator_hook_duration_seconds",
		"spring_music_operator_hook_errors_total",
		"spring_music_operator_unit_status",
		"spring_music_operator_layer_updates_total",
		"spring_music_operator_service_starts_total",
		"spring_music_operator_service_patches_total",
		"spring_music_operator_kubernetes_api_duration_seconds",
		"spring_music_operator_kubernetes_api_calls_total",
		"spring_music_operator_kubernetes_api_errors_total",
	}

	registeredMetrics := make(map[string]bool)
	for _, mf := range metricFamilies {
		registeredMetrics[mf.GetName()] = true
	}

	for _, expected := range expectedMetrics {
		assert.True(t, registeredMetrics[expected], "metric %s should be registered", expected)
	}
}

func TestRecordHookDuration(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	collector := NewCollector(reg).(*prometheusCollector)

	collector.RecordHookDuration(context.Background(), "upgrade-charm", StatusSuccess, time.Second)

	count := testutil.CollectAndCount(collector.hookDuration)
	assert.Equal(t, 1, count)
}

func TestRecordUnitStatus_ResetsPrevious(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	collector := NewCollector(reg).(*prometheusCollector)
	ctx := context.Background()

	collector.RecordUnitStatus(ctx, "maintenance")
	collector.RecordUnitStatus(ctx, "active")

	assert.Equal(t, float64(1), testutil.ToFloat64(collector.unitStatus.WithLabelValues("active")))
	assert.Equal(t, float64(0), testutil.ToFloat64(collector.unitStatus.WithLabelValues("maintenance")))
}

func TestRecordServiceStart(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	collector := NewCollector(reg).(*prometheusCollector)
	ctx := context.Background()

	collector.RecordServiceStart(ctx, "spring-music", false)
	collector.RecordServiceStart(ctx, "spring-music", true)
	collector.RecordServiceStart(ctx, "spring-music", true)

	starts := testutil.ToFloat64(collector.serviceStartsTotal.WithLabelValues("spring-music", "start"))
	restarts := testutil.ToFloat64(collector.serviceStartsTotal.WithLabelValues("spring-music", "restart"))

	assert.Equal(t, float64(1), starts)
	assert.Equal(t, float64(2), restarts)
}

func TestRecordServicePatch(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	collector := NewCollector(reg).(*prometheusCollector)
	ctx := context.Background()

	collector.RecordServicePatch(ctx, StatusError)
	collector.RecordServicePatch(ctx, StatusSuccess)

	assert.Equal(t, float64(1), testutil.ToFloat64(collector.servicePatchesTotal.WithLabelValues(StatusError)))
	assert.Equal(t, float64(1), testutil.ToFloat64(collector.servicePatchesTotal.WithLabelValues(StatusSuccess)))
}

func TestRecordAPICall(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	collector := NewCollector(reg).(*prometheusCollector)
	ctx := context.Background()

	collector.RecordAPICall(ctx, "get", "service", StatusSuccess, time.Second)

	durationCount := testutil.CollectAndCount(collector.apiDuration)
	callsCount := testutil.ToFloat64(collector.apiCallsTotal.WithLabelValues("get", "service", StatusSuccess))

	assert.Equal(t, 1, durationCount)
	assert.Equal(t, float64(1), callsCount)
}

func TestRecordAPIError(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	collector := NewCollector(reg).(*prometheusCollector)

	collector.RecordAPIError(context.Background(), "get", ErrorTypeAuth)

	count := testutil.ToFloat64(collector.apiErrorsTotal.WithLabelValues("get", ErrorTypeAuth))
	assert.Equal(t, float64(1), count)
}

func TestWriteTextfile(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	collector := NewCollector(reg)
	collector.RecordServicePatch(context.Background(), StatusSuccess)

	path := filepath.Join(t.TempDir(), "spring-music-operator.prom")

	require.NoError(t, WriteTextfile(path, reg))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), `spring_music_operator_service_patches_total{status="success"} 1`)
}
