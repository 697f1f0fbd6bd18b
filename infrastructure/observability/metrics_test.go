package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"fhelotto/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Aggregation {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := make(map[string]metricdata.Aggregation)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m.Data
		}
	}
	return out
}

func sumValue(t *testing.T, data metricdata.Aggregation, attrs ...attribute.KeyValue) int64 {
	t.Helper()
	sum, ok := data.(metricdata.Sum[int64])
	require.True(t, ok, "expected int64 sum, got %T", data)
	want := attribute.NewSet(attrs...)
	for _, dp := range sum.DataPoints {
		if dp.Attributes.Equals(&want) {
			return dp.Value
		}
	}
	return 0
}

func TestMetricsProvider_Disabled(t *testing.T) {
	t.Parallel()

	cfg := config.NewTestConfig()
	cfg.OTelEnabled = false
	mp := NewMetricsProvider(cfg)
	require.NoError(t, mp.Initialize(context.Background()))

	// Calls on a disabled provider are no-ops
	mp.RecordEntry(1, 10000)
	mp.RecordDraw("won")
	mp.SetPrizePool(5)
	mp.RecordNATSPublish("lottery.rounds.started", nil)
	mp.RecordJournalWrite("entry_recorded", time.Millisecond, nil)
	assert.NoError(t, mp.Shutdown(context.Background()))
}

func TestMetricsProvider_NoneExporter(t *testing.T) {
	t.Parallel()

	cfg := config.NewTestConfig()
	cfg.OTelEnabled = true
	cfg.OTelExporterType = "none"
	mp := NewMetricsProvider(cfg)
	require.NoError(t, mp.Initialize(context.Background()))
	mp.RecordDraw("won")
}

func TestMetricsProvider_UnknownExporter(t *testing.T) {
	t.Parallel()

	cfg := config.NewTestConfig()
	cfg.OTelEnabled = true
	cfg.OTelExporterType = "carrier-pigeon"
	assert.Error(t, NewMetricsProvider(cfg).Initialize(context.Background()))
}

func TestMetricsProvider_Records(t *testing.T) {
	t.Parallel()

	reader := sdkmetric.NewManualReader()
	mp := NewMetricsProvider(config.NewTestConfig())
	require.NoError(t, mp.InitializeWithReader(reader))
	defer mp.Shutdown(context.Background())

	mp.RecordEntry(2, 20000)
	mp.RecordEntry(1, 10000)
	mp.RecordDraw("won")
	mp.RecordDraw("empty")
	mp.RecordDraw("empty")
	mp.SetPrizePool(30000)
	mp.RecordNATSPublish("lottery.winners.drawn", nil)
	mp.RecordNATSPublish("lottery.winners.drawn", errors.New("timeout"))
	mp.RecordJournalWrite("round_finalized", 3*time.Millisecond, nil)

	data := collect(t, reader)
	assert.Equal(t, int64(2), sumValue(t, data[EntriesTotal]))
	assert.Equal(t, int64(3), sumValue(t, data[TicketsTotal]))
	assert.Equal(t, int64(30000), sumValue(t, data[PaymentsTotal]))
	assert.Equal(t, int64(1), sumValue(t, data[DrawsTotal], attribute.String(LabelOutcome, "won")))
	assert.Equal(t, int64(2), sumValue(t, data[DrawsTotal], attribute.String(LabelOutcome, "empty")))
	assert.Equal(t, int64(1), sumValue(t, data[NATSMessagesPublishedTotal],
		attribute.String(LabelSubject, "lottery.winners.drawn"),
		attribute.String(LabelStatus, StatusError),
	))
	assert.Equal(t, int64(1), sumValue(t, data[JournalWritesTotal],
		attribute.String(LabelOperation, "round_finalized"),
		attribute.String(LabelStatus, StatusOK),
	))

	gauge, ok := data[PrizePoolGauge].(metricdata.Gauge[int64])
	require.True(t, ok)
	require.Len(t, gauge.DataPoints, 1)
	assert.Equal(t, int64(30000), gauge.DataPoints[0].Value)

	hist, ok := data[JournalWriteDuration].(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, hist.DataPoints, 1)
	assert.Equal(t, uint64(1), hist.DataPoints[0].Count)
}
