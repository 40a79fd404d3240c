package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"salesreport/internal/infrastructure"
	"salesreport/pkg/contracts/domain"
)

// Instrumentation traces pipeline steps and records business metrics.
// A nil *Instrumentation is valid and records nothing.
type Instrumentation struct {
	tracer  trace.Tracer
	metrics *infrastructure.BusinessMetrics
}

// NewInstrumentation creates instrumentation on top of initialized providers
func NewInstrumentation(providers *infrastructure.OTelProviders) (*Instrumentation, error) {
	if providers == nil {
		return nil, nil
	}
	metrics, err := infrastructure.CreateBusinessMetrics(providers.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create business metrics: %w", err)
	}
	tracer := providers.Tracer
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer(infrastructure.InstrumentationName)
	}
	return &Instrumentation{tracer: tracer, metrics: metrics}, nil
}

func (in *Instrumentation) startRun(ctx context.Context, runID string) (context.Context, trace.Span) {
	if in == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return in.tracer.Start(ctx, "pipeline.run",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attribute.String("run.id", runID)))
}

func (in *Instrumentation) endRun(ctx context.Context, span trace.Span, duration time.Duration, err error) {
	if in == nil {
		return
	}
	finishSpan(ctx, span, err)
	infrastructure.RecordRunMetrics(ctx, in.metrics, duration, err == nil)
}

func (in *Instrumentation) startStep(ctx context.Context, step string) (context.Context, trace.Span) {
	if in == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return in.tracer.Start(ctx, "pipeline.step."+step,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attribute.String("step.id", step)))
}

func (in *Instrumentation) endStep(ctx context.Context, span trace.Span, step string, duration time.Duration, err error) {
	if in == nil {
		return
	}
	finishSpan(ctx, span, err)
	infrastructure.RecordStepMetrics(ctx, in.metrics, step, duration, err == nil)
}

func (in *Instrumentation) dataset(ctx context.Context, summary domain.SummaryStatistics, salespeople, regions int) {
	if in == nil {
		return
	}
	total := summary.Total.InexactFloat64()
	infrastructure.SetSpanAttributes(ctx, map[string]interface{}{
		"dataset.records":            summary.Count,
		"dataset.salesperson_groups": salespeople,
		"dataset.region_groups":      regions,
		"dataset.total":              total,
	})
	infrastructure.RecordDataset(ctx, in.metrics, summary.Count, total)
}

func (in *Instrumentation) artifact(ctx context.Context, kind string) {
	if in == nil {
		return
	}
	infrastructure.RecordArtifact(ctx, in.metrics, kind)
}

func (in *Instrumentation) deliveryFailed(ctx context.Context) {
	if in == nil {
		return
	}
	infrastructure.RecordDeliveryFailure(ctx, in.metrics)
}

// finishSpan ends the span found in ctx
func finishSpan(ctx context.Context, span trace.Span, err error) {
	if err != nil {
		infrastructure.RecordError(ctx, err)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
