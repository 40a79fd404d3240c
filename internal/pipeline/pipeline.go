package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"salesreport/internal/charts"
	"salesreport/internal/config"
	"salesreport/internal/dataprocessing"
	"salesreport/internal/exporter"
	"salesreport/internal/infrastructure"
	"salesreport/internal/mailer"
	"salesreport/internal/report"
	"salesreport/pkg/contracts/domain"
)

// Chart titles and the value axis label shared by both charts.
const (
	SalespersonChartTitle = "Vendas por Vendedor"
	RegionChartTitle      = "Vendas por Região"
	TotalAxisLabel        = "total_vendas"
)

// DatasetLoader reads the transaction records of the input workbook
type DatasetLoader interface {
	Load(ctx context.Context, path string) ([]domain.TransactionRecord, error)
}

// ChartRenderer draws one bar chart image
type ChartRenderer interface {
	RenderBarChart(ctx context.Context, aggregates []domain.GroupAggregate, xLabel, yLabel, title, outputPath string) error
}

// WorkbookWriter writes the consolidated workbook
type WorkbookWriter interface {
	ExportWorkbook(ctx context.Context, summary domain.SummaryStatistics, bySalesperson, byRegion []domain.GroupAggregate, outputPath string) error
}

// DocumentComposer writes the PDF report
type DocumentComposer interface {
	ComposeDocument(ctx context.Context, summary domain.SummaryStatistics, charts []domain.ChartRef, outputPath string) error
}

// Collaborators are the adapters a Pipeline drives. Sender may be nil, in
// which case delivery is skipped.
type Collaborators struct {
	Loader   DatasetLoader
	Charts   ChartRenderer
	Workbook WorkbookWriter
	Document DocumentComposer
	Sender   mailer.Sender
}

// NewCollaborators wires the production adapters for cfg
func NewCollaborators(cfg config.Config, logger *slog.Logger) Collaborators {
	return Collaborators{
		Loader: dataprocessing.NewLoader(logger, dataprocessing.LoaderConfig{
			Sheet: cfg.InputSheet,
			Columns: dataprocessing.ColumnMapping{
				Salesperson: cfg.Columns.Salesperson,
				Region:      cfg.Columns.Region,
				Amount:      cfg.Columns.Amount,
			},
		}),
		Charts: charts.NewRenderer(logger),
		Workbook: exporter.NewWorkbookExporter(logger, exporter.WorkbookConfig{
			SalespersonHeader: cfg.Columns.Salesperson,
			RegionHeader:      cfg.Columns.Region,
		}),
		Document: report.NewComposer(logger, report.WithCompression(true)),
		Sender:   mailer.NewSMTPSender(logger, mailer.SMTPConfigFromEmail(cfg.Email)),
	}
}

// RunResult describes one pipeline run. Artifacts are listed only once
// the step producing them completed. TraceID is set when tracing records
// the run.
type RunResult struct {
	RunID       string                   `json:"run_id"`
	TraceID     string                   `json:"trace_id,omitempty"`
	Artifacts   domain.Artifacts         `json:"artifacts"`
	Summary     domain.SummaryStatistics `json:"summary"`
	Delivered   bool                     `json:"delivered"`
	DeliveryErr error                    `json:"-"`
	Steps       []*StepState             `json:"steps"`
	Duration    time.Duration            `json:"duration"`
}

// Step returns the state of the step with the given id, or nil
func (r *RunResult) Step(id string) *StepState {
	for _, s := range r.Steps {
		if s.ID == id {
			return s
		}
	}
	return nil
}

// Option configures a Pipeline
type Option func(*Pipeline)

// WithInstrumentation enables tracing and business metrics
func WithInstrumentation(in *Instrumentation) Option {
	return func(p *Pipeline) {
		p.inst = in
	}
}

// WithoutDelivery stops the run after the document is written
func WithoutDelivery() Option {
	return func(p *Pipeline) {
		p.skipDelivery = true
	}
}

// Pipeline runs the report steps strictly in order
type Pipeline struct {
	cfg          config.Config
	c            Collaborators
	logger       *slog.Logger
	inst         *Instrumentation
	skipDelivery bool
}

// New creates a pipeline. cfg is copied and never modified.
func New(cfg config.Config, c Collaborators, logger *slog.Logger, opts ...Option) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Pipeline{
		cfg:    cfg,
		c:      c,
		logger: infrastructure.WithComponent(logger, "pipeline"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

type step struct {
	state *StepState
	run   func(ctx context.Context) error
}

// Run executes load, aggregate, charts, workbook, document and deliver.
// A failure before deliver aborts the run: the remaining steps are marked
// skipped and the error is returned along with the partial result. A
// delivery failure is logged and recorded in RunResult.DeliveryErr; the
// run still succeeds.
func (p *Pipeline) Run(ctx context.Context) (*RunResult, error) {
	start := time.Now()
	ctx = infrastructure.EnsureTraceID(ctx)
	result := &RunResult{
		RunID: infrastructure.GetTraceID(ctx),
		Steps: newStepStates(),
	}

	ctx, span := p.inst.startRun(ctx, result.RunID)
	result.TraceID = infrastructure.TraceIDFromContext(ctx)
	p.logger.InfoContext(ctx, "Starting sales report pipeline",
		slog.String("run_id", result.RunID),
		slog.String("input_path", p.cfg.InputPath))

	var (
		records       []domain.TransactionRecord
		bySalesperson []domain.GroupAggregate
		byRegion      []domain.GroupAggregate
	)

	steps := []step{
		{result.Step(StepLoad), func(ctx context.Context) error {
			var err error
			records, err = p.c.Loader.Load(ctx, p.cfg.InputPath)
			return err
		}},
		{result.Step(StepAggregate), func(ctx context.Context) error {
			summary, err := dataprocessing.ComputeSummary(records)
			if err != nil {
				return err
			}
			bySalesperson = dataprocessing.AggregateByKey(records, dataprocessing.BySalesperson)
			byRegion = dataprocessing.AggregateByKey(records, dataprocessing.ByRegion)
			result.Summary = summary
			p.inst.dataset(ctx, summary, len(bySalesperson), len(byRegion))
			return nil
		}},
		{result.Step(StepCharts), func(ctx context.Context) error {
			return p.renderCharts(ctx, bySalesperson, byRegion, result)
		}},
		{result.Step(StepWorkbook), func(ctx context.Context) error {
			if err := p.c.Workbook.ExportWorkbook(ctx, result.Summary, bySalesperson, byRegion, p.cfg.OutputExcel); err != nil {
				return err
			}
			result.Artifacts.Workbook = p.cfg.OutputExcel
			p.inst.artifact(ctx, "workbook")
			return nil
		}},
		{result.Step(StepDocument), func(ctx context.Context) error {
			refs := []domain.ChartRef{
				{Title: SalespersonChartTitle, Path: p.cfg.Charts.SalespersonPath},
				{Title: RegionChartTitle, Path: p.cfg.Charts.RegionPath},
			}
			if err := p.c.Document.ComposeDocument(ctx, result.Summary, refs, p.cfg.OutputPDF); err != nil {
				return err
			}
			result.Artifacts.Document = p.cfg.OutputPDF
			p.inst.artifact(ctx, "document")
			return nil
		}},
	}

	for i, s := range steps {
		if err := p.runStep(ctx, s); err != nil {
			for _, rest := range steps[i+1:] {
				rest.state.Skip(fmt.Sprintf("step %s failed", s.state.ID))
			}
			result.Step(StepDeliver).Skip(fmt.Sprintf("step %s failed", s.state.ID))
			result.Duration = time.Since(start)
			p.inst.endRun(ctx, span, result.Duration, err)
			p.logger.ErrorContext(ctx, "Sales report pipeline failed",
				slog.String("step", s.state.ID),
				slog.String("error", err.Error()),
				slog.Duration("duration", result.Duration))
			return result, err
		}
	}

	p.deliver(ctx, result)

	result.Duration = time.Since(start)
	p.inst.endRun(ctx, span, result.Duration, nil)
	p.logger.InfoContext(ctx, "Sales report pipeline finished",
		slog.String("run_id", result.RunID),
		slog.Bool("delivered", result.Delivered),
		slog.Duration("duration", result.Duration))
	return result, nil
}

func (p *Pipeline) runStep(ctx context.Context, s step) error {
	ctx, span := p.inst.startStep(ctx, s.state.ID)
	s.state.Start()
	p.logger.InfoContext(ctx, "Step started", slog.String("step", s.state.ID))

	err := s.run(ctx)
	if err != nil {
		s.state.Fail(err)
	} else {
		s.state.Complete()
	}
	p.inst.endStep(ctx, span, s.state.ID, s.state.Duration(), err)

	if err == nil {
		p.logger.InfoContext(ctx, "Step completed",
			slog.String("step", s.state.ID),
			slog.Duration("duration", s.state.Duration()))
	}
	return err
}

func (p *Pipeline) renderCharts(ctx context.Context, bySalesperson, byRegion []domain.GroupAggregate, result *RunResult) error {
	if err := p.c.Charts.RenderBarChart(ctx, bySalesperson, p.cfg.Columns.Salesperson, TotalAxisLabel,
		SalespersonChartTitle, p.cfg.Charts.SalespersonPath); err != nil {
		return err
	}
	result.Artifacts.SalespersonChart = p.cfg.Charts.SalespersonPath
	p.inst.artifact(ctx, "chart")

	if err := p.c.Charts.RenderBarChart(ctx, byRegion, p.cfg.Columns.Region, TotalAxisLabel,
		RegionChartTitle, p.cfg.Charts.RegionPath); err != nil {
		return err
	}
	result.Artifacts.RegionChart = p.cfg.Charts.RegionPath
	p.inst.artifact(ctx, "chart")
	return nil
}

// deliver hands the workbook and document to the sender. It never fails
// the run.
func (p *Pipeline) deliver(ctx context.Context, result *RunResult) {
	state := result.Step(StepDeliver)
	if p.skipDelivery || p.c.Sender == nil {
		state.Skip("delivery disabled")
		p.logger.InfoContext(ctx, "Report delivery skipped")
		return
	}

	msg := mailer.NewReportMessage(p.cfg.Email, result.Summary.Total, result.Artifacts)
	err := p.runStep(ctx, step{state, func(ctx context.Context) error {
		return p.c.Sender.Send(ctx, msg)
	}})
	if err != nil {
		result.DeliveryErr = err
		p.inst.deliveryFailed(ctx)
		p.logger.ErrorContext(ctx, "Report delivery failed",
			slog.String("to", msg.To),
			slog.String("error", err.Error()))
		return
	}

	result.Delivered = true
	p.logger.InfoContext(ctx, "Report delivered",
		slog.String("to", msg.To),
		slog.Int("attachments", len(msg.Attachments)))
}
