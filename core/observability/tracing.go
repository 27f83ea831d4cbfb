package observability

import (
	"context"
	"fmt"
	"sort"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.34.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/hyperterse/sqltask/core/domain"
)

const tracerName = "sqltask/runner"

func buildTraceProvider(ctx context.Context, cfg Config) (*sdktrace.TracerProvider, error) {
	if !cfg.Enabled || !cfg.TracesEnabled {
		return sdktrace.NewTracerProvider(), nil
	}

	exporter, err := otlptracegrpc.New(
		ctx,
		otlptracegrpc.WithEndpoint(cfg.OTLPEndpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("create otlp trace exporter: %w", err)
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
		return nil, fmt.Errorf("create trace resource: %w", err)
	}

	return sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.TraceIDRatioBased(cfg.TraceSamplingRate)),
		sdktrace.WithBatcher(exporter),
	), nil
}

// TaskSpan describes the attempt a span is started for
type TaskSpan struct {
	Context    domain.TaskContext
	ConnID     string
	Autocommit bool
	SQL        domain.SQL
	Parameters domain.Parameters
}

// StartTaskSpan starts a span for one task attempt. Named parameter values
// are recorded with sensitive keys redacted.
func StartTaskSpan(ctx context.Context, info TaskSpan) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{
		attribute.String(AttrTaskID, info.Context.TaskID),
		attribute.String(AttrRunID, info.Context.RunID),
		attribute.Int(AttrTryNumber, info.Context.TryNumber),
		attribute.String(AttrConnID, info.ConnID),
		attribute.Bool(AttrAutocommit, info.Autocommit),
		attribute.Int(AttrStatements, len(info.SQL)),
		attribute.String(AttrDBStatement, info.SQL.String()),
	}
	attrs = append(attrs, parameterAttributes(info.Parameters)...)

	return otel.Tracer(tracerName).Start(ctx, "task "+info.Context.TaskID,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attrs...),
	)
}

func parameterAttributes(params domain.Parameters) []attribute.KeyValue {
	if !params.IsNamed() {
		return nil
	}
	keys := make([]string, 0, len(params.Map()))
	for k := range params.Map() {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	attrs := make([]attribute.KeyValue, 0, len(keys))
	for _, k := range keys {
		value := fmt.Sprintf("%v", params.Map()[k])
		attrs = append(attrs, attribute.String(AttrParamPrefix+k, RedactAttributeValue(k, value)))
	}
	return attrs
}

// EndTaskSpan records the outcome of an attempt and ends the span
func EndTaskSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetAttributes(
			attribute.String(AttrErrorType, fmt.Sprintf("%T", err)),
			attribute.String(AttrErrorMessage, err.Error()),
		)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
