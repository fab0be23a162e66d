package observability

import (
	"context"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Options configures the meter and tracer providers.
type Options struct {
	ServiceName    string
	JaegerEndpoint string
	// Registerer receives the OpenTelemetry collector; nil means the default registry.
	Registerer promclient.Registerer
	// SpanExporter overrides the Jaeger exporter, mainly for tests.
	SpanExporter sdktrace.SpanExporter
}

// Observability owns the OpenTelemetry providers used for simulated task
// metrics and HTTP request spans.
type Observability struct {
	meterProvider  *metric.MeterProvider
	tracerProvider *sdktrace.TracerProvider
	tracer         trace.Tracer
	taskCounter    otelmetric.Int64Counter
	taskDuration   otelmetric.Float64Histogram
}

// New never fails: a provider that cannot be built is left out and the
// corresponding Record/StartSpan calls become no-ops. The returned error
// reports what was skipped.
func New(opts Options) (*Observability, error) {
	o := &Observability{tracer: noop.NewTracerProvider().Tracer(opts.ServiceName)}
	res := resource.NewSchemaless(attribute.String("service.name", opts.ServiceName))

	var firstErr error

	promOpts := []prometheus.Option{}
	if opts.Registerer != nil {
		promOpts = append(promOpts, prometheus.WithRegisterer(opts.Registerer))
	}
	if exporter, err := prometheus.New(promOpts...); err != nil {
		firstErr = err
	} else {
		o.meterProvider = metric.NewMeterProvider(metric.WithReader(exporter), metric.WithResource(res))
		otel.SetMeterProvider(o.meterProvider)

		meter := o.meterProvider.Meter(opts.ServiceName)
		o.taskCounter, _ = meter.Int64Counter(
			"tasks.completed",
			otelmetric.WithDescription("Simulated remote operations completed"),
		)
		o.taskDuration, _ = meter.Float64Histogram(
			"tasks.duration",
			otelmetric.WithDescription("Simulated remote operation duration"),
			otelmetric.WithUnit("ms"),
		)
	}

	spanExporter := opts.SpanExporter
	if spanExporter == nil && opts.JaegerEndpoint != "" {
		exp, err := jaeger.New(jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(opts.JaegerEndpoint)))
		if err != nil && firstErr == nil {
			firstErr = err
		}
		if err == nil {
			spanExporter = exp
		}
	}
	if spanExporter != nil {
		o.tracerProvider = sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(spanExporter),
			sdktrace.WithResource(res),
		)
		otel.SetTracerProvider(o.tracerProvider)
		o.tracer = o.tracerProvider.Tracer(opts.ServiceName)
	}

	return o, firstErr
}

// StartSpan starts a span on the service tracer.
func (o *Observability) StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return o.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// RecordTask records one finished simulated operation (auth, wishlist, booking, ...).
func (o *Observability) RecordTask(ctx context.Context, kind, status string, duration time.Duration) {
	attrs := otelmetric.WithAttributes(
		attribute.String("kind", kind),
		attribute.String("status", status),
	)
	if o.taskCounter != nil {
		o.taskCounter.Add(ctx, 1, attrs)
	}
	if o.taskDuration != nil {
		o.taskDuration.Record(ctx, float64(duration.Milliseconds()), attrs)
	}
}

// Shutdown flushes pending spans and metrics.
func (o *Observability) Shutdown(ctx context.Context) error {
	var firstErr error
	if o.tracerProvider != nil {
		if err := o.tracerProvider.Shutdown(ctx); err != nil {
			firstErr = err
		}
	}
	if o.meterProvider != nil {
		if err := o.meterProvider.Shutdown(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
