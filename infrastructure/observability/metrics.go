package observability

import (
	"context"
	"fmt"
	"sync"
	"time"

	"fhelotto/config"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

// MetricsProvider manages OpenTelemetry metrics for the lottery service
type MetricsProvider struct {
	config        *config.Config
	meterProvider *sdkmetric.MeterProvider
	meter         metric.Meter
	enabled       bool
	mu            sync.RWMutex

	entriesCounter      metric.Int64Counter
	ticketsCounter      metric.Int64Counter
	paymentsCounter     metric.Int64Counter
	drawsCounter        metric.Int64Counter
	prizePoolGauge      metric.Int64Gauge
	natsPublishedCount  metric.Int64Counter
	journalWritesCount  metric.Int64Counter
	journalDurationHist metric.Float64Histogram
}

// NewMetricsProvider creates a new metrics provider
func NewMetricsProvider(cfg *config.Config) *MetricsProvider {
	return &MetricsProvider{config: cfg}
}

// Initialize sets up the exporter named by the config. Disabled or "none"
// providers accept every call and record nothing.
func (mp *MetricsProvider) Initialize(ctx context.Context) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if mp.meterProvider != nil {
		log.Debug("Metrics provider already initialized")
		return nil
	}

	if !mp.config.OTelEnabled {
		log.Info("OpenTelemetry metrics disabled")
		return nil
	}

	var (
		exporter sdkmetric.Exporter
		err      error
	)
	switch mp.config.OTelExporterType {
	case "console":
		exporter, err = stdoutmetric.New()
		if err != nil {
			return fmt.Errorf("failed to create console exporter: %w", err)
		}
		log.Info("Using console metric exporter")

	case "otlp":
		dialCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		exporter, err = otlpmetricgrpc.New(dialCtx,
			otlpmetricgrpc.WithEndpoint(mp.config.OTelOTLPEndpoint),
			otlpmetricgrpc.WithInsecure(),
		)
		if err != nil {
			return fmt.Errorf("failed to create OTLP exporter: %w", err)
		}
		log.WithField("endpoint", mp.config.OTelOTLPEndpoint).Info("Using OTLP metric exporter")

	case "none":
		log.Info("Metrics export disabled (exporter_type='none')")
		return nil

	default:
		return fmt.Errorf("unknown exporter type: %s", mp.config.OTelExporterType)
	}

	reader := sdkmetric.NewPeriodicReader(
		exporter,
		sdkmetric.WithInterval(time.Duration(mp.config.OTelExportIntervalMillis)*time.Millisecond),
	)
	if err := mp.initializeWithReader(reader); err != nil {
		return err
	}
	otel.SetMeterProvider(mp.meterProvider)

	log.Info("Metrics provider initialized successfully")
	return nil
}

// InitializeWithReader wires the provider to a caller-supplied reader
func (mp *MetricsProvider) InitializeWithReader(reader sdkmetric.Reader) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	return mp.initializeWithReader(reader)
}

func (mp *MetricsProvider) initializeWithReader(reader sdkmetric.Reader) error {
	// Schemaless so the merge never conflicts with the SDK default schema URL
	res, err := resource.Merge(
		resource.Default(),
		resource.NewSchemaless(
			semconv.ServiceName(mp.config.OTelServiceName),
			attribute.String("environment", mp.config.Environment),
		),
	)
	if err != nil {
		return fmt.Errorf("failed to create resource: %w", err)
	}

	mp.meterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(reader),
	)
	mp.meter = mp.meterProvider.Meter("fhelotto")

	if err := mp.createInstruments(); err != nil {
		return fmt.Errorf("failed to create instruments: %w", err)
	}
	mp.enabled = true
	return nil
}

func (mp *MetricsProvider) createInstruments() error {
	var err error

	mp.entriesCounter, err = mp.meter.Int64Counter(
		EntriesTotal,
		metric.WithDescription("Total number of recorded lottery entries"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create entries counter: %w", err)
	}

	mp.ticketsCounter, err = mp.meter.Int64Counter(
		TicketsTotal,
		metric.WithDescription("Total number of tickets sold"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create tickets counter: %w", err)
	}

	mp.paymentsCounter, err = mp.meter.Int64Counter(
		PaymentsTotal,
		metric.WithDescription("Total payments received in base units"),
	)
	if err != nil {
		return fmt.Errorf("failed to create payments counter: %w", err)
	}

	mp.drawsCounter, err = mp.meter.Int64Counter(
		DrawsTotal,
		metric.WithDescription("Total number of draw attempts by outcome"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create draws counter: %w", err)
	}

	mp.prizePoolGauge, err = mp.meter.Int64Gauge(
		PrizePoolGauge,
		metric.WithDescription("Prize pool of the current round in base units"),
	)
	if err != nil {
		return fmt.Errorf("failed to create prize pool gauge: %w", err)
	}

	mp.natsPublishedCount, err = mp.meter.Int64Counter(
		NATSMessagesPublishedTotal,
		metric.WithDescription("Total number of NATS messages published"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create NATS published counter: %w", err)
	}

	mp.journalWritesCount, err = mp.meter.Int64Counter(
		JournalWritesTotal,
		metric.WithDescription("Total number of round journal writes"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create journal writes counter: %w", err)
	}

	mp.journalDurationHist, err = mp.meter.Float64Histogram(
		JournalWriteDuration,
		metric.WithDescription("Duration of round journal writes in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0),
	)
	if err != nil {
		return fmt.Errorf("failed to create journal duration histogram: %w", err)
	}

	return nil
}

// Shutdown flushes and stops the meter provider
func (mp *MetricsProvider) Shutdown(ctx context.Context) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	mp.enabled = false
	if mp.meterProvider != nil {
		return mp.meterProvider.Shutdown(ctx)
	}
	return nil
}

// RecordEntry counts a recorded entry with its tickets and payment
func (mp *MetricsProvider) RecordEntry(ticketCount, payment int64) {
	if !mp.isEnabled() {
		return
	}
	ctx := context.Background()
	mp.entriesCounter.Add(ctx, 1)
	mp.ticketsCounter.Add(ctx, ticketCount)
	mp.paymentsCounter.Add(ctx, payment)
}

// RecordDraw counts a draw attempt by outcome
func (mp *MetricsProvider) RecordDraw(outcome string) {
	if !mp.isEnabled() {
		return
	}
	mp.drawsCounter.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String(LabelOutcome, outcome)),
	)
}

// SetPrizePool records the current prize pool
func (mp *MetricsProvider) SetPrizePool(pool int64) {
	if !mp.isEnabled() {
		return
	}
	mp.prizePoolGauge.Record(context.Background(), pool)
}

// RecordNATSPublish counts a publish attempt on subject
func (mp *MetricsProvider) RecordNATSPublish(subject string, err error) {
	if !mp.isEnabled() {
		return
	}
	mp.natsPublishedCount.Add(context.Background(), 1,
		metric.WithAttributes(
			attribute.String(LabelSubject, subject),
			attribute.String(LabelStatus, status(err)),
		),
	)
}

// RecordJournalWrite records one journal write and its latency
func (mp *MetricsProvider) RecordJournalWrite(operation string, duration time.Duration, err error) {
	if !mp.isEnabled() {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String(LabelOperation, operation),
		attribute.String(LabelStatus, status(err)),
	)
	mp.journalWritesCount.Add(context.Background(), 1, attrs)
	mp.journalDurationHist.Record(context.Background(), duration.Seconds(), attrs)
}

func (mp *MetricsProvider) isEnabled() bool {
	mp.mu.RLock()
	defer mp.mu.RUnlock()
	return mp.enabled
}

func status(err error) string {
	if err != nil {
		return StatusError
	}
	return StatusOK
}
