package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/sdk/metric"
)

// Observability records financing lifecycle steps (submit, sign, pay-fee)
// through an OpenTelemetry meter exported to Prometheus.
type Observability struct {
	meterProvider *metric.MeterProvider
	stepCounter   otelmetric.Int64Counter
	stepDuration  otelmetric.Float64Histogram
}

func New(serviceName string) (*Observability, error) {
	exporter, err := prometheus.New()
	if err != nil {
		return nil, err
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	o, err := newWithMeter(provider.Meter(serviceName))
	if err != nil {
		return nil, err
	}
	o.meterProvider = provider
	return o, nil
}

// NewNoop returns an Observability that records nothing.
func NewNoop() *Observability {
	o, _ := newWithMeter(noop.NewMeterProvider().Meter("noop"))
	return o
}

func newWithMeter(meter otelmetric.Meter) (*Observability, error) {
	stepCounter, err := meter.Int64Counter(
		"financing.steps",
		otelmetric.WithDescription("Financing lifecycle steps by name and outcome"),
	)
	if err != nil {
		return nil, err
	}

	stepDuration, err := meter.Float64Histogram(
		"financing.step.duration",
		otelmetric.WithDescription("Financing lifecycle step duration"),
		otelmetric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &Observability{stepCounter: stepCounter, stepDuration: stepDuration}, nil
}

// RecordStep counts one lifecycle step and records how long it took.
func (o *Observability) RecordStep(ctx context.Context, step, outcome string, duration time.Duration) {
	if o == nil {
		return
	}
	attrs := otelmetric.WithAttributes(
		attribute.String("step", step),
		attribute.String("outcome", outcome),
	)
	o.stepCounter.Add(ctx, 1, attrs)
	o.stepDuration.Record(ctx, float64(duration.Milliseconds()), attrs)
}

func (o *Observability) Shutdown() {
	if o == nil || o.meterProvider == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = o.meterProvider.Shutdown(ctx)
}
