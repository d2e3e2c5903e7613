package otel

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestInitDisabled(t *testing.T) {
	p, err := Init(context.Background(), Config{})
	require.NoError(t, err)
	require.NotNil(t, p.Meter())

	m, err := NewImageMetrics(p.Meter())
	require.NoError(t, err)
	m.RecordPull(context.Background(), "pulled", 10, time.Now())
	require.NoError(t, p.Shutdown(context.Background()))
}

func TestNilMetricsAreSafe(t *testing.T) {
	var im *ImageMetrics
	var rm *RunMetrics
	assert.NotPanics(t, func() {
		im.RecordPull(context.Background(), "failed", 0, time.Now())
		im.RecordRemove(context.Background())
		rm.RecordLaunch(context.Background(), "adapt", "launched", time.Now())
	})
}

func TestImageMetricsRecorded(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer mp.Shutdown(context.Background())

	m, err := NewImageMetrics(mp.Meter("test"))
	require.NoError(t, err)

	ctx := context.Background()
	m.RecordPull(ctx, "pulled", 2048, time.Now())
	m.RecordPull(ctx, "skipped", 0, time.Now())

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))
	require.Len(t, rm.ScopeMetrics, 1)

	byName := make(map[string]metricdata.Metrics)
	for _, met := range rm.ScopeMetrics[0].Metrics {
		byName[met.Name] = met
	}

	pulls, ok := byName["nyun_images_pulls_total"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	assert.Len(t, pulls.DataPoints, 2)

	bytes, ok := byName["nyun_images_pulled_bytes_total"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, bytes.DataPoints, 1)
	assert.Equal(t, int64(2048), bytes.DataPoints[0].Value)
}
