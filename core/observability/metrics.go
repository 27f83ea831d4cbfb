package observability

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.34.0"
)

type metrics struct {
	taskExecutionsTotal metric.Int64Counter
	taskDuration        metric.Float64Histogram
}

var (
	metricsOnce sync.Once
	m           metrics

	// Registry holds the batch metrics written by WriteTextfile
	Registry = prometheus.NewRegistry()

	taskExecutionsTotal = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "sqltask_task_executions_total",
			Help: "Total number of task attempts",
		},
		[]string{"task", "conn_id", "status"},
	)

	taskDuration = promauto.With(Registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sqltask_task_duration_seconds",
			Help:    "Task attempt duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"task"},
	)

	taskLastSuccess = promauto.With(Registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "sqltask_task_last_success_timestamp_seconds",
			Help: "Unix time of the last successful attempt",
		},
		[]string{"task"},
	)
)

func buildMeterProvider(ctx context.Context, cfg Config) (*sdkmetric.MeterProvider, error) {
	if !cfg.Enabled || !cfg.MetricsEnabled {
		return sdkmetric.NewMeterProvider(), nil
	}

	exporter, err := otlpmetricgrpc.New(
		ctx,
		otlpmetricgrpc.WithEndpoint(cfg.OTLPEndpoint),
		otlpmetricgrpc.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("create otlp metric exporter: %w", err)
	}

	res, err := resource.New(
		ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
			semconv.DeploymentEnvironmentName(cfg.Environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("create metric resource: %w", err)
	}

	return sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(
			sdkmetric.NewPeriodicReader(exporter),
		),
	), nil
}

func initInstruments() {
	metricsOnce.Do(func() {
		meter := otel.Meter(tracerName)
		m.taskExecutionsTotal, _ = meter.Int64Counter("sqltask.task.executions_total")
		m.taskDuration, _ = meter.Float64Histogram("sqltask.task.execution_duration_ms")
	})
}

// RecordTaskExecution records one task attempt in both the OpenTelemetry
// instruments and the Prometheus registry
func RecordTaskExecution(ctx context.Context, taskID, connID string, success bool, duration time.Duration) {
	initInstruments()
	attrs := metric.WithAttributes(
		attribute.String(AttrTaskID, taskID),
		attribute.String(AttrConnID, connID),
		attribute.Bool("success", success),
	)
	m.taskExecutionsTotal.Add(ctx, 1, attrs)
	m.taskDuration.Record(ctx, float64(duration.Milliseconds()), attrs)

	status := "failed"
	if success {
		status = "success"
		taskLastSuccess.WithLabelValues(taskID).SetToCurrentTime()
	}
	taskExecutionsTotal.WithLabelValues(taskID, connID, status).Inc()
	taskDuration.WithLabelValues(taskID).Observe(duration.Seconds())
}

// WriteTextfile writes the Prometheus registry to path in the text
// exposition format, for node_exporter's textfile collector
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, Registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
