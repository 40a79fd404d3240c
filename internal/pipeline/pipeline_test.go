package pipeline

import (
	"bytes"
	"context"
	stderrors "errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"salesreport/internal/config"
	"salesreport/internal/errors"
	"salesreport/internal/infrastructure"
	"salesreport/internal/mailer"
	"salesreport/pkg/contracts/domain"
)

type fakeLoader struct {
	records []domain.TransactionRecord
	err     error
	path    string
}

func (f *fakeLoader) Load(_ context.Context, path string) ([]domain.TransactionRecord, error) {
	f.path = path
	return f.records, f.err
}

type chartCall struct {
	aggregates []domain.GroupAggregate
	xLabel     string
	title      string
	path       string
}

type fakeCharts struct {
	calls []chartCall
	err   error
}

func (f *fakeCharts) RenderBarChart(_ context.Context, aggregates []domain.GroupAggregate, xLabel, _, title, outputPath string) error {
	f.calls = append(f.calls, chartCall{aggregates, xLabel, title, outputPath})
	return f.err
}

type fakeWorkbook struct {
	called        bool
	summary       domain.SummaryStatistics
	bySalesperson []domain.GroupAggregate
	byRegion      []domain.GroupAggregate
	err           error
}

func (f *fakeWorkbook) ExportWorkbook(_ context.Context, summary domain.SummaryStatistics, bySalesperson, byRegion []domain.GroupAggregate, _ string) error {
	f.called = true
	f.summary, f.bySalesperson, f.byRegion = summary, bySalesperson, byRegion
	return f.err
}

type fakeDocument struct {
	called bool
	charts []domain.ChartRef
	err    error
}

func (f *fakeDocument) ComposeDocument(_ context.Context, _ domain.SummaryStatistics, charts []domain.ChartRef, _ string) error {
	f.called = true
	f.charts = charts
	return f.err
}

type fakeSender struct {
	msgs []mailer.Message
	err  error
}

func (f *fakeSender) Send(_ context.Context, msg mailer.Message) error {
	f.msgs = append(f.msgs, msg)
	return f.err
}

type fakes struct {
	loader   *fakeLoader
	charts   *fakeCharts
	workbook *fakeWorkbook
	document *fakeDocument
	sender   *fakeSender
}

func (f fakes) collaborators() Collaborators {
	return Collaborators{
		Loader:   f.loader,
		Charts:   f.charts,
		Workbook: f.workbook,
		Document: f.document,
		Sender:   f.sender,
	}
}

func rec(salesperson, region, amount string) domain.TransactionRecord {
	return domain.TransactionRecord{
		Salesperson: salesperson,
		Region:      region,
		Amount:      decimal.RequireFromString(amount),
	}
}

func scenarioRecords() []domain.TransactionRecord {
	return []domain.TransactionRecord{
		rec("Ana", "Sul", "100.00"),
		rec("Bruno", "Sul", "200.00"),
		rec("Ana", "Norte", "50.00"),
	}
}

func newFakes() fakes {
	return fakes{
		loader:   &fakeLoader{records: scenarioRecords()},
		charts:   &fakeCharts{},
		workbook: &fakeWorkbook{},
		document: &fakeDocument{},
		sender:   &fakeSender{},
	}
}

func testConfig() config.Config {
	cfg := config.Default()
	cfg.Email.Receiver = "boss@example.com"
	return cfg
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func aggregate(key, total string, count int) domain.GroupAggregate {
	return domain.GroupAggregate{Key: key, TotalAmount: decimal.RequireFromString(total), Count: count}
}

func assertAggregates(t *testing.T, want, got []domain.GroupAggregate) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		assert.Equal(t, want[i].Key, got[i].Key)
		assert.True(t, want[i].TotalAmount.Equal(got[i].TotalAmount), "%s: want %s, got %s",
			want[i].Key, want[i].TotalAmount, got[i].TotalAmount)
		assert.Equal(t, want[i].Count, got[i].Count)
	}
}

func TestRun_Scenario(t *testing.T) {
	f := newFakes()
	cfg := testConfig()

	result, err := New(cfg, f.collaborators(), discardLogger()).Run(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, cfg.InputPath, f.loader.path)

	wantBySalesperson := []domain.GroupAggregate{aggregate("Ana", "150", 2), aggregate("Bruno", "200", 1)}
	wantByRegion := []domain.GroupAggregate{aggregate("Sul", "300", 2), aggregate("Norte", "50", 1)}

	require.Len(t, f.charts.calls, 2)
	assertAggregates(t, wantBySalesperson, f.charts.calls[0].aggregates)
	assert.Equal(t, SalespersonChartTitle, f.charts.calls[0].title)
	assert.Equal(t, "Vendedor", f.charts.calls[0].xLabel)
	assert.Equal(t, cfg.Charts.SalespersonPath, f.charts.calls[0].path)
	assertAggregates(t, wantByRegion, f.charts.calls[1].aggregates)
	assert.Equal(t, RegionChartTitle, f.charts.calls[1].title)
	assert.Equal(t, cfg.Charts.RegionPath, f.charts.calls[1].path)

	assertAggregates(t, wantBySalesperson, f.workbook.bySalesperson)
	assertAggregates(t, wantByRegion, f.workbook.byRegion)

	summary := result.Summary
	assert.Equal(t, "350", summary.Total.String())
	assert.Equal(t, "116.67", summary.Mean.String())
	assert.Equal(t, "200", summary.Maximum.String())
	assert.Equal(t, "50", summary.Minimum.String())
	assert.Equal(t, 3, summary.Count)
	assert.Equal(t, summary, f.workbook.summary)

	assert.Equal(t, []domain.ChartRef{
		{Title: SalespersonChartTitle, Path: cfg.Charts.SalespersonPath},
		{Title: RegionChartTitle, Path: cfg.Charts.RegionPath},
	}, f.document.charts)

	require.Len(t, f.sender.msgs, 1)
	msg := f.sender.msgs[0]
	assert.Equal(t, "boss@example.com", msg.To)
	assert.Equal(t, cfg.Email.Subject, msg.Subject)
	assert.Equal(t, []string{cfg.OutputExcel, cfg.OutputPDF}, msg.Attachments)
	assert.Contains(t, msg.Body, "Total de Vendas: R$ 350.00")

	assert.True(t, result.Delivered)
	assert.NoError(t, result.DeliveryErr)
	assert.Equal(t, domain.Artifacts{
		SalespersonChart: cfg.Charts.SalespersonPath,
		RegionChart:      cfg.Charts.RegionPath,
		Workbook:         cfg.OutputExcel,
		Document:         cfg.OutputPDF,
	}, result.Artifacts)

	require.Len(t, result.Steps, 6)
	for _, s := range result.Steps {
		assert.Equal(t, StepStatusCompleted, s.Status, s.ID)
		assert.NotNil(t, s.StartTime, s.ID)
		assert.NotNil(t, s.EndTime, s.ID)
	}
}

func TestRun_DeliveryFailureDoesNotFailRun(t *testing.T) {
	f := newFakes()
	f.sender.err = errors.NewDeliveryError("smtp unreachable", stderrors.New("connection refused"))

	result, err := New(testConfig(), f.collaborators(), discardLogger()).Run(context.Background())
	require.NoError(t, err)

	assert.False(t, result.Delivered)
	require.Error(t, result.DeliveryErr)
	assert.True(t, errors.IsType(result.DeliveryErr, errors.ErrTypeDelivery))

	deliver := result.Step(StepDeliver)
	assert.Equal(t, StepStatusFailed, deliver.Status)
	assert.Contains(t, deliver.Message, "connection refused")

	assert.NotEmpty(t, result.Artifacts.Workbook)
	assert.NotEmpty(t, result.Artifacts.Document)
}

func TestRun_WithoutDelivery(t *testing.T) {
	f := newFakes()

	result, err := New(testConfig(), f.collaborators(), discardLogger(), WithoutDelivery()).Run(context.Background())
	require.NoError(t, err)

	assert.Empty(t, f.sender.msgs)
	assert.False(t, result.Delivered)
	assert.Equal(t, StepStatusSkipped, result.Step(StepDeliver).Status)
	assert.Equal(t, StepStatusCompleted, result.Step(StepDocument).Status)
}

func TestRun_NilSenderSkipsDelivery(t *testing.T) {
	f := newFakes()
	c := f.collaborators()
	c.Sender = nil

	result, err := New(testConfig(), c, discardLogger()).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StepStatusSkipped, result.Step(StepDeliver).Status)
}

func TestRun_AbortsOnStepFailure(t *testing.T) {
	renderErr := errors.NewRenderError("boom", nil)

	tests := []struct {
		name     string
		failStep string
		setup    func(f fakes)
		wantType errors.ErrorType
	}{
		{
			name:     "load",
			failStep: StepLoad,
			setup: func(f fakes) {
				f.loader.err = errors.NewDatasetLoadError("missing file", nil)
			},
			wantType: errors.ErrTypeDatasetLoad,
		},
		{
			name:     "empty dataset",
			failStep: StepAggregate,
			setup: func(f fakes) {
				f.loader.records = nil
			},
			wantType: errors.ErrTypeEmptyDataset,
		},
		{
			name:     "charts",
			failStep: StepCharts,
			setup: func(f fakes) {
				f.charts.err = errors.NewOutputPathError("./missing/chart.png", nil)
			},
			wantType: errors.ErrTypeOutputPath,
		},
		{
			name:     "workbook",
			failStep: StepWorkbook,
			setup: func(f fakes) {
				f.workbook.err = errors.NewOutputPathError("./missing/out.xlsx", nil)
			},
			wantType: errors.ErrTypeOutputPath,
		},
		{
			name:     "document",
			failStep: StepDocument,
			setup: func(f fakes) {
				f.document.err = renderErr
			},
			wantType: errors.ErrTypeRender,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFakes()
			tt.setup(f)

			result, err := New(testConfig(), f.collaborators(), discardLogger()).Run(context.Background())
			require.Error(t, err)
			assert.True(t, errors.IsType(err, tt.wantType), "got %v", err)
			require.NotNil(t, result)

			assert.Empty(t, f.sender.msgs, "delivery must not run after a failure")

			seenFailed := false
			for _, s := range result.Steps {
				switch {
				case s.ID == tt.failStep:
					assert.Equal(t, StepStatusFailed, s.Status)
					seenFailed = true
				case seenFailed:
					assert.Equal(t, StepStatusSkipped, s.Status, s.ID)
					assert.Contains(t, s.Message, tt.failStep)
				default:
					assert.Equal(t, StepStatusCompleted, s.Status, s.ID)
				}
			}
			assert.True(t, seenFailed)
		})
	}
}

func TestRun_ChartFailureStopsBeforeWorkbook(t *testing.T) {
	f := newFakes()
	f.charts.err = errors.NewRenderError("no bars", nil)

	result, err := New(testConfig(), f.collaborators(), discardLogger()).Run(context.Background())
	require.Error(t, err)

	assert.Len(t, f.charts.calls, 1)
	assert.False(t, f.workbook.called)
	assert.False(t, f.document.called)
	assert.Empty(t, result.Artifacts.SalespersonChart)
}

func TestRun_Instrumented(t *testing.T) {
	providers, err := infrastructure.InitializeOTel(infrastructure.DefaultOTelConfig(), discardLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = providers.Shutdown(context.Background()) })

	inst, err := NewInstrumentation(providers)
	require.NoError(t, err)

	f := newFakes()
	f.sender.err = errors.NewDeliveryError("down", nil)

	_, err = New(testConfig(), f.collaborators(), discardLogger(), WithInstrumentation(inst)).Run(context.Background())
	require.NoError(t, err)

	families, err := providers.Registry.Gather()
	require.NoError(t, err)

	var names []string
	for _, mf := range families {
		names = append(names, mf.GetName())
	}
	joined := strings.Join(names, " ")
	assert.Contains(t, joined, "salesreport_runs")
	assert.Contains(t, joined, "salesreport_step_duration_seconds")
	assert.Contains(t, joined, "salesreport_records_processed")
	assert.Contains(t, joined, "salesreport_delivery_failures")
}

func TestRun_Traced(t *testing.T) {
	var spans bytes.Buffer
	providers, err := infrastructure.InitializeOTel(&infrastructure.OTelConfig{
		ServiceName:   "salesreport-test",
		TraceExporter: "stdout",
		TraceWriter:   &spans,
	}, discardLogger())
	require.NoError(t, err)

	inst, err := NewInstrumentation(providers)
	require.NoError(t, err)

	f := newFakes()
	f.sender.err = errors.NewDeliveryError("relay refused", nil)

	var logs bytes.Buffer
	logger := infrastructure.NewLogger(config.LoggingConfig{Level: "info"}, &logs)

	result, err := New(testConfig(), f.collaborators(), logger, WithInstrumentation(inst)).Run(context.Background())
	require.NoError(t, err)
	require.NoError(t, providers.Shutdown(context.Background()))

	assert.Len(t, result.TraceID, 32)
	assert.Contains(t, logs.String(), `"otel_trace_id":"`+result.TraceID+`"`)
	assert.Contains(t, logs.String(), `"trace_id":"`+result.RunID+`"`)

	out := spans.String()
	assert.Contains(t, out, "pipeline.step.aggregate")
	assert.Contains(t, out, "dataset.records")
	assert.Contains(t, out, "dataset.salesperson_groups")
	assert.Contains(t, out, "dataset.region_groups")
	assert.Contains(t, out, "pipeline.step.deliver")
	assert.Contains(t, out, "relay refused")
}

func TestRun_UntracedHasNoTraceID(t *testing.T) {
	result, err := New(testConfig(), newFakes().collaborators(), discardLogger()).Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, result.TraceID)
}

func TestNewInstrumentation_NilProviders(t *testing.T) {
	inst, err := NewInstrumentation(nil)
	require.NoError(t, err)
	assert.Nil(t, inst)
}

// TestRun_EndToEnd drives the production adapters against a real workbook
// with a sender that always fails.
func TestRun_EndToEnd(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "vendas.xlsx")

	f := excelize.NewFile()
	rows := [][]interface{}{
		{"Vendedor", "Região", "Valor da Venda (R$)"},
		{"Ana", "Sul", 100.0},
		{"Bruno", "Sul", 200.0},
		{"Ana", "Norte", 50.0},
	}
	for i, row := range rows {
		cellName, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		r := row
		require.NoError(t, f.SetSheetRow("Sheet1", cellName, &r))
	}
	require.NoError(t, f.SaveAs(input))
	require.NoError(t, f.Close())

	cfg := testConfig()
	cfg.InputPath = input
	cfg.OutputExcel = filepath.Join(dir, "relatorio_consolidado.xlsx")
	cfg.OutputPDF = filepath.Join(dir, "relatorio_vendas.pdf")
	cfg.Charts.SalespersonPath = filepath.Join(dir, "vendas_por_vendedor.png")
	cfg.Charts.RegionPath = filepath.Join(dir, "vendas_por_regiao.png")

	c := NewCollaborators(cfg, discardLogger())
	sender := &fakeSender{err: errors.NewDeliveryError("smtp down", nil)}
	c.Sender = sender

	result, err := New(cfg, c, discardLogger()).Run(context.Background())
	require.NoError(t, err)
	require.Error(t, result.DeliveryErr)

	for _, path := range []string{cfg.OutputExcel, cfg.OutputPDF, cfg.Charts.SalespersonPath, cfg.Charts.RegionPath} {
		info, err := os.Stat(path)
		require.NoError(t, err, path)
		assert.Positive(t, info.Size(), path)
	}

	require.Len(t, sender.msgs, 1)
	assert.Equal(t, []string{cfg.OutputExcel, cfg.OutputPDF}, sender.msgs[0].Attachments)
	assert.Equal(t, "350", result.Summary.Total.String())
}
