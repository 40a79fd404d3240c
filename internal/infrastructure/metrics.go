package infrastructure

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// BusinessMetrics holds the report-run instruments
type BusinessMetrics struct {
	RunsTotal        metric.Int64Counter
	RunDuration      metric.Float64Histogram
	StepDuration     metric.Float64Histogram
	RecordsProcessed metric.Int64Counter
	SalesTotal       metric.Float64Gauge
	ArtifactsWritten metric.Int64Counter
	DeliveryFailures metric.Int64Counter
}

// CreateBusinessMetrics creates the report-run instruments on meter
func CreateBusinessMetrics(meter metric.Meter) (*BusinessMetrics, error) {
	runsTotal, err := meter.Int64Counter(
		"salesreport_runs_total",
		metric.WithDescription("Total number of report runs"),
	)
	if err != nil {
		return nil, err
	}

	runDuration, err := meter.Float64Histogram(
		"salesreport_run_duration_seconds",
		metric.WithDescription("Report run duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	stepDuration, err := meter.Float64Histogram(
		"salesreport_step_duration_seconds",
		metric.WithDescription("Pipeline step duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	recordsProcessed, err := meter.Int64Counter(
		"salesreport_records_processed_total",
		metric.WithDescription("Total number of sales records loaded"),
	)
	if err != nil {
		return nil, err
	}

	salesTotal, err := meter.Float64Gauge(
		"salesreport_sales_total_amount",
		metric.WithDescription("Total sales amount of the last run"),
	)
	if err != nil {
		return nil, err
	}

	artifactsWritten, err := meter.Int64Counter(
		"salesreport_artifacts_written_total",
		metric.WithDescription("Total number of report artifacts written"),
	)
	if err != nil {
		return nil, err
	}

	deliveryFailures, err := meter.Int64Counter(
		"salesreport_delivery_failures_total",
		metric.WithDescription("Total number of failed report deliveries"),
	)
	if err != nil {
		return nil, err
	}

	return &BusinessMetrics{
		RunsTotal:        runsTotal,
		RunDuration:      runDuration,
		StepDuration:     stepDuration,
		RecordsProcessed: recordsProcessed,
		SalesTotal:       salesTotal,
		ArtifactsWritten: artifactsWritten,
		DeliveryFailures: deliveryFailures,
	}, nil
}

func statusAttr(success bool) attribute.KeyValue {
	if success {
		return attribute.String("status", "success")
	}
	return attribute.String("status", "failure")
}

// RecordRunMetrics records the outcome of a whole run
func RecordRunMetrics(ctx context.Context, metrics *BusinessMetrics, duration time.Duration, success bool) {
	if metrics == nil {
		return
	}
	attrs := metric.WithAttributes(statusAttr(success))
	metrics.RunsTotal.Add(ctx, 1, attrs)
	metrics.RunDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordStepMetrics records the duration of one pipeline step
func RecordStepMetrics(ctx context.Context, metrics *BusinessMetrics, step string, duration time.Duration, success bool) {
	if metrics == nil {
		return
	}
	metrics.StepDuration.Record(ctx, duration.Seconds(),
		metric.WithAttributes(attribute.String("step", step), statusAttr(success)))
}

// RecordDataset records the size and total of the loaded dataset
func RecordDataset(ctx context.Context, metrics *BusinessMetrics, records int, total float64) {
	if metrics == nil {
		return
	}
	metrics.RecordsProcessed.Add(ctx, int64(records))
	metrics.SalesTotal.Record(ctx, total)
}

// RecordArtifact counts one written artifact of the given kind
func RecordArtifact(ctx context.Context, metrics *BusinessMetrics, kind string) {
	if metrics == nil {
		return
	}
	metrics.ArtifactsWritten.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}

// RecordDeliveryFailure counts one failed delivery
func RecordDeliveryFailure(ctx context.Context, metrics *BusinessMetrics) {
	if metrics == nil {
		return
	}
	metrics.DeliveryFailures.Add(ctx, 1)
}
