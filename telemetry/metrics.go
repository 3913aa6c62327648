package telemetry

import (
	"context"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// StackMetrics records how the stacks owned by a service grow.
type StackMetrics struct {
	requests metric.Int64Counter
	grows    metric.Int64Counter
	capacity metric.Int64Histogram
}

func NewStackMetrics(component string) (*StackMetrics, error) {
	meter := Meter()

	requests, err := meter.Int64Counter(component+".requests",
		metric.WithDescription("Number of operations served"))
	if err != nil {
		return nil, err
	}

	grows, err := meter.Int64Counter(component+".stack.grows",
		metric.WithDescription("Number of stack buffer reallocations"))
	if err != nil {
		return nil, err
	}

	capacity, err := meter.Int64Histogram(component+".stack.capacity",
		metric.WithDescription("Stack capacity in slots when an operation completes"))
	if err != nil {
		return nil, err
	}

	return &StackMetrics{requests: requests, grows: grows, capacity: capacity}, nil
}

func (m *StackMetrics) Record(ctx context.Context, grows, capacity int, kv ...attribute.KeyValue) {
	if m == nil {
		return
	}
	opt := metric.WithAttributes(kv...)
	m.requests.Add(ctx, 1, opt)
	m.grows.Add(ctx, int64(grows), opt)
	m.capacity.Record(ctx, int64(capacity), opt)
}
