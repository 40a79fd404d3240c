package exporter

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"salesreport/internal/errors"
	"salesreport/internal/files"
	"salesreport/pkg/contracts/domain"
)

// Sheet names of the consolidated workbook
const (
	SheetSummary       = "Resumo"
	SheetBySalesperson = "VendasPorVendedor"
	SheetByRegion      = "VendasPorRegiao"
)

// Column headers of the consolidated workbook
const (
	HeaderMetric = "Métrica"
	HeaderValue  = "Valor (R$)"
	HeaderTotal  = "total_vendas"
	HeaderCount  = "quantidade_vendas"
)

// currencyNumFmt is the built-in "#,##0.00" format
const currencyNumFmt = 4

// WorkbookConfig names the key column of each group sheet. The defaults match
// the source workbook headers.
type WorkbookConfig struct {
	SalespersonHeader string
	RegionHeader      string
}

// WorkbookExporter writes the three-sheet consolidated workbook
type WorkbookExporter struct {
	logger *slog.Logger
	files  *files.Manager
	cfg    WorkbookConfig
}

// NewWorkbookExporter creates a workbook exporter
func NewWorkbookExporter(logger *slog.Logger, cfg WorkbookConfig) *WorkbookExporter {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.SalespersonHeader == "" {
		cfg.SalespersonHeader = "Vendedor"
	}
	if cfg.RegionHeader == "" {
		cfg.RegionHeader = "Região"
	}
	return &WorkbookExporter{
		logger: logger.With("component", "exporter"),
		files:  files.NewManager(logger),
		cfg:    cfg,
	}
}

// ExportWorkbook writes the summary and both group tables to outputPath.
// Rows keep the order they are given in. Currency cells are numeric with two
// decimals; counts are integers.
func (e *WorkbookExporter) ExportWorkbook(ctx context.Context, summary domain.SummaryStatistics, bySalesperson, byRegion []domain.GroupAggregate, outputPath string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := e.build(f, summary, bySalesperson, byRegion); err != nil {
		return errors.NewRenderError("failed to build workbook", err).WithContext("path", outputPath)
	}

	err := e.files.WriteAtomic(outputPath, func(w io.Writer) error {
		return f.Write(w)
	})
	if err != nil {
		return err
	}

	e.logger.InfoContext(ctx, "Workbook exported",
		slog.String("path", outputPath),
		slog.Int("salespeople", len(bySalesperson)),
		slog.Int("regions", len(byRegion)))
	return nil
}

func (e *WorkbookExporter) build(f *excelize.File, summary domain.SummaryStatistics, bySalesperson, byRegion []domain.GroupAggregate) error {
	if err := f.SetSheetName(f.GetSheetName(0), SheetSummary); err != nil {
		return err
	}
	for _, name := range []string{SheetBySalesperson, SheetByRegion} {
		if _, err := f.NewSheet(name); err != nil {
			return err
		}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	currencyStyle, err := f.NewStyle(&excelize.Style{NumFmt: currencyNumFmt})
	if err != nil {
		return err
	}

	// Resumo
	if err := writeRow(f, SheetSummary, 1, HeaderMetric, HeaderValue); err != nil {
		return err
	}
	entries := summary.Entries()
	for i, entry := range entries {
		row := i + 2
		if err := writeRow(f, SheetSummary, row, entry.Metric, entry.Value()); err != nil {
			return err
		}
		if entry.Kind == domain.MetricCurrency {
			cell := fmt.Sprintf("B%d", row)
			if err := f.SetCellStyle(SheetSummary, cell, cell, currencyStyle); err != nil {
				return err
			}
		}
	}
	if err := finishSheet(f, SheetSummary, "B", headerStyle); err != nil {
		return err
	}

	groups := []struct {
		sheet  string
		header string
		rows   []domain.GroupAggregate
	}{
		{SheetBySalesperson, e.cfg.SalespersonHeader, bySalesperson},
		{SheetByRegion, e.cfg.RegionHeader, byRegion},
	}
	for _, g := range groups {
		if err := writeRow(f, g.sheet, 1, g.header, HeaderTotal, HeaderCount); err != nil {
			return err
		}
		for i, agg := range g.rows {
			total := agg.TotalAmount.RoundBank(2).InexactFloat64()
			if err := writeRow(f, g.sheet, i+2, agg.Key, total, agg.Count); err != nil {
				return err
			}
		}
		if len(g.rows) > 0 {
			if err := f.SetCellStyle(g.sheet, "B2", fmt.Sprintf("B%d", len(g.rows)+1), currencyStyle); err != nil {
				return err
			}
		}
		if err := finishSheet(f, g.sheet, "C", headerStyle); err != nil {
			return err
		}
	}

	f.SetActiveSheet(0)
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values ...interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}

// finishSheet styles the header row and widens the used columns
func finishSheet(f *excelize.File, sheet, lastCol string, headerStyle int) error {
	if err := f.SetCellStyle(sheet, "A1", lastCol+"1", headerStyle); err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "A", "A", 24); err != nil {
		return err
	}
	return f.SetColWidth(sheet, "B", lastCol, 18)
}

// ReadSummary reads the Resumo sheet of a workbook written by ExportWorkbook
func ReadSummary(path string) ([]domain.SummaryEntry, error) {
	rows, err := readSheet(path, SheetSummary)
	if err != nil {
		return nil, err
	}

	entries := make([]domain.SummaryEntry, 0, len(rows))
	for i, row := range rows {
		if len(row) < 2 {
			return nil, fmt.Errorf("%s row %d: expected 2 cells, got %d", SheetSummary, i+2, len(row))
		}
		entry := domain.SummaryEntry{Metric: row[0]}
		if row[0] == domain.MetricCount {
			n, err := strconv.Atoi(strings.TrimSpace(row[1]))
			if err != nil {
				return nil, fmt.Errorf("%s row %d: %w", SheetSummary, i+2, err)
			}
			entry.Kind, entry.Count = domain.MetricInteger, n
		} else {
			d, err := decimal.NewFromString(strings.TrimSpace(row[1]))
			if err != nil {
				return nil, fmt.Errorf("%s row %d: %w", SheetSummary, i+2, err)
			}
			entry.Kind, entry.Amount = domain.MetricCurrency, d
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// ReadAggregates reads one group sheet of a workbook written by ExportWorkbook
func ReadAggregates(path, sheet string) ([]domain.GroupAggregate, error) {
	rows, err := readSheet(path, sheet)
	if err != nil {
		return nil, err
	}

	aggregates := make([]domain.GroupAggregate, 0, len(rows))
	for i, row := range rows {
		if len(row) < 3 {
			return nil, fmt.Errorf("%s row %d: expected 3 cells, got %d", sheet, i+2, len(row))
		}
		total, err := decimal.NewFromString(strings.TrimSpace(row[1]))
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", sheet, i+2, err)
		}
		count, err := strconv.Atoi(strings.TrimSpace(row[2]))
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", sheet, i+2, err)
		}
		aggregates = append(aggregates, domain.GroupAggregate{Key: row[0], TotalAmount: total, Count: count})
	}
	return aggregates, nil
}

// readSheet returns the data rows of sheet, header excluded
func readSheet(path, sheet string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", path, err)
	}
	defer f.Close()

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet %s is empty", sheet)
	}
	return rows[1:], nil
}
