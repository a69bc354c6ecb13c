package engine

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/roach88/prodsys/internal/action"
)

const meterName = "github.com/roach88/prodsys/internal/engine"

// engineMetrics counts what the Run loop does.
type engineMetrics struct {
	applied   metric.Int64Counter
	forwarded metric.Int64Counter
	failed    metric.Int64Counter
}

func newEngineMetrics(meter metric.Meter) (*engineMetrics, error) {
	applied, err := meter.Int64Counter(
		"prodsys.actions.applied",
		metric.WithDescription("Actions applied to the state tree"),
		metric.WithUnit("{action}"),
	)
	if err != nil {
		return nil, err
	}

	forwarded, err := meter.Int64Counter(
		"prodsys.requests.forwarded",
		metric.WithDescription("Request actions handed to the transport collaborator"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	failed, err := meter.Int64Counter(
		"prodsys.actions.failed",
		metric.WithDescription("Actions dropped because the action log rejected them"),
		metric.WithUnit("{action}"),
	)
	if err != nil {
		return nil, err
	}

	return &engineMetrics{applied: applied, forwarded: forwarded, failed: failed}, nil
}

func noopEngineMetrics() *engineMetrics {
	m, _ := newEngineMetrics(noop.NewMeterProvider().Meter(meterName))
	return m
}

func actionAttrs(a action.Action) metric.MeasurementOption {
	return metric.WithAttributes(
		attribute.String("resource", string(a.Resource())),
		attribute.String("kind", string(a.Kind())),
	)
}

func (m *engineMetrics) recordApplied(ctx context.Context, a action.Action) {
	m.applied.Add(ctx, 1, actionAttrs(a))
}

func (m *engineMetrics) recordForwarded(ctx context.Context, a action.Action) {
	m.forwarded.Add(ctx, 1, actionAttrs(a))
}

func (m *engineMetrics) recordFailed(ctx context.Context, a action.Action) {
	m.failed.Add(ctx, 1, actionAttrs(a))
}
