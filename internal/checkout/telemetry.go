package checkout

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("storefront/checkout")

type instruments struct {
	attempts metric.Int64Counter
	duration metric.Float64Histogram
}

func newInstruments() (*instruments, error) {
	meter := otel.Meter("storefront/checkout")

	attempts, err := meter.Int64Counter("storefront.checkout.attempts",
		metric.WithDescription("Checkout attempts by final state"),
	)
	if err != nil {
		return nil, fmt.Errorf("create attempts counter: %w", err)
	}

	duration, err := meter.Float64Histogram("storefront.checkout.duration",
		metric.WithDescription("Duration of checkout attempts"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("create duration histogram: %w", err)
	}

	return &instruments{attempts: attempts, duration: duration}, nil
}

func (i *instruments) record(ctx context.Context, r Result, elapsed time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("outcome", r.State.String()),
		attribute.String("category", r.Category.String()),
	)
	i.attempts.Add(ctx, 1, attrs)
	i.duration.Record(ctx, elapsed.Seconds(), attrs)
}

func startStep(ctx context.Context, name, attemptID string) (context.Context, trace.Span) {
	return tracer.Start(ctx, name, trace.WithAttributes(attribute.String("checkout.attempt_id", attemptID)))
}

func endStep(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
