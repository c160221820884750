package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func collectMetrics(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := make(map[string]metricdata.Metrics)
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func TestRecordGeminiCallCountsByOutcome(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	otel.SetMeterProvider(sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)))
	t.Cleanup(func() { metrics = nil })

	_, err := InitMetrics()
	require.NoError(t, err)

	ctx := context.Background()
	RecordGeminiCall(ctx, "embed_content", true)
	RecordGeminiCall(ctx, "embed_content", true)
	RecordGeminiCall(ctx, "generate_content", false)

	collected := collectMetrics(t, reader)
	calls, ok := collected["gemini.calls.total"]
	require.True(t, ok, "gemini.calls.total not collected")

	sum, ok := calls.Data.(metricdata.Sum[int64])
	require.True(t, ok)

	byOp := make(map[string]int64)
	for _, dp := range sum.DataPoints {
		op, _ := dp.Attributes.Value("gemini.operation")
		byOp[op.AsString()] += dp.Value
	}
	assert.EqualValues(t, 2, byOp["embed_content"])
	assert.EqualValues(t, 1, byOp["generate_content"])
}

func TestRecordGeminiCallIsNilSafeBeforeInit(t *testing.T) {
	metrics = nil
	assert.NotPanics(t, func() {
		RecordGeminiCall(context.Background(), "embed_content", true)
	})
}
