package dataprocessing

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"salesreport/internal/errors"
	"salesreport/internal/validation"
	"salesreport/pkg/contracts/domain"
)

// ColumnMapping names the header cells of the columns the pipeline needs.
type ColumnMapping struct {
	Salesperson string
	Region      string
	Amount      string
}

// LoaderConfig configures where the loader finds the transaction table.
type LoaderConfig struct {
	Sheet   string
	Columns ColumnMapping
}

// Loader reads transaction records from an Excel workbook.
type Loader struct {
	logger    *slog.Logger
	validator *validation.FileValidator
	records   *validator.Validate
	sheet     string
	columns   ColumnMapping
}

// NewLoader creates a workbook loader for the given sheet and header names.
func NewLoader(logger *slog.Logger, cfg LoaderConfig) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		logger:    logger,
		validator: validation.NewFileValidator(logger),
		records:   newRecordValidator(),
		sheet:     cfg.Sheet,
		columns:   cfg.Columns,
	}
}

// Load reads every data row of the configured sheet. The first non-empty row
// is the header; fully blank rows are ignored. A row whose amount is empty or
// not numeric, or whose salesperson or region is blank, fails the whole load
// with a DATASET_LOAD error naming the row.
func (l *Loader) Load(ctx context.Context, path string) ([]domain.TransactionRecord, error) {
	if err := l.validator.ValidateExcelFile(path); err != nil {
		return nil, errors.NewDatasetLoadError("input workbook is not usable", err).WithContext("path", path)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errors.NewDatasetLoadError("failed to open workbook", err).WithContext("path", path)
	}
	defer f.Close()

	if idx, err := f.GetSheetIndex(l.sheet); err != nil || idx < 0 {
		return nil, errors.NewDatasetLoadError(
			fmt.Sprintf("sheet %q not found (available: %s)", l.sheet, strings.Join(f.GetSheetList(), ", ")), err).
			WithContext("path", path)
	}

	rows, err := f.GetRows(l.sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, errors.NewDatasetLoadError(fmt.Sprintf("failed to read sheet %q", l.sheet), err).
			WithContext("path", path)
	}

	headerRow := -1
	for i, row := range rows {
		if !isBlankRow(row) {
			headerRow = i
			break
		}
	}
	if headerRow < 0 {
		return nil, errors.NewDatasetLoadError(fmt.Sprintf("sheet %q has no header row", l.sheet), nil).
			WithContext("path", path)
	}

	cols, err := l.mapColumns(rows[headerRow])
	if err != nil {
		return nil, errors.NewDatasetLoadError("required column missing", err).WithContext("path", path)
	}

	records := make([]domain.TransactionRecord, 0, len(rows)-headerRow-1)
	for i := headerRow + 1; i < len(rows); i++ {
		row := rows[i]
		if isBlankRow(row) {
			continue
		}
		sheetRow := i + 1

		rawAmount := strings.TrimSpace(cell(row, cols.amount))
		if rawAmount == "" {
			return nil, errors.NewDatasetLoadError(
				fmt.Sprintf("row %d: column %q is empty", sheetRow, l.columns.Amount), nil).
				WithContext("path", path).
				WithContext("row", sheetRow)
		}
		amount, err := ParseAmount(rawAmount)
		if err != nil {
			return nil, errors.NewDatasetLoadError(
				fmt.Sprintf("row %d: column %q is not numeric", sheetRow, l.columns.Amount), err).
				WithContext("path", path).
				WithContext("row", sheetRow)
		}

		record := domain.TransactionRecord{
			Salesperson: cell(row, cols.salesperson),
			Region:      cell(row, cols.region),
			Amount:      amount,
			Row:         sheetRow,
		}
		if err := l.records.Struct(record); err != nil {
			return nil, errors.NewDatasetLoadError(
				fmt.Sprintf("row %d: column %q is empty", sheetRow, l.blankColumn(err)), err).
				WithContext("path", path).
				WithContext("row", sheetRow)
		}
		records = append(records, record)
	}

	l.logger.InfoContext(ctx, "Dataset loaded",
		slog.String("path", path),
		slog.String("sheet", l.sheet),
		slog.Int("header_row", headerRow+1),
		slog.Int("record_count", len(records)))

	return records, nil
}

// newRecordValidator checks the struct tags of TransactionRecord. notblank
// rejects empty and whitespace-only keys.
func newRecordValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	return v
}

// blankColumn maps the first failing record field back to its header name.
func (l *Loader) blankColumn(err error) string {
	var verrs validator.ValidationErrors
	if stderrors.As(err, &verrs) && len(verrs) > 0 {
		switch verrs[0].Field() {
		case "Salesperson":
			return l.columns.Salesperson
		case "Region":
			return l.columns.Region
		}
	}
	return l.columns.Salesperson
}

type columnIndexes struct {
	salesperson int
	region      int
	amount      int
}

// mapColumns locates the configured headers by exact match after trimming
// surrounding whitespace.
func (l *Loader) mapColumns(header []string) (columnIndexes, error) {
	positions := make(map[string]int, len(header))
	for j, name := range header {
		name = strings.TrimSpace(name)
		if _, dup := positions[name]; !dup {
			positions[name] = j
		}
	}

	lookup := func(name string) (int, error) {
		j, ok := positions[name]
		if !ok {
			return -1, fmt.Errorf("could not find column %q in header %v", name, header)
		}
		return j, nil
	}

	var cols columnIndexes
	var err error
	if cols.salesperson, err = lookup(l.columns.Salesperson); err != nil {
		return cols, err
	}
	if cols.region, err = lookup(l.columns.Region); err != nil {
		return cols, err
	}
	if cols.amount, err = lookup(l.columns.Amount); err != nil {
		return cols, err
	}
	return cols, nil
}

// ParseAmount parses a raw cell into a decimal. Plain numbers ("1234.5",
// "1.2345E3") are read as-is; Brazilian formatted text ("R$ 1.234,50") is
// accepted as a fallback.
func ParseAmount(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	if d, err := decimal.NewFromString(s); err == nil {
		return d, nil
	}

	s = strings.TrimSpace(strings.TrimPrefix(s, domain.CurrencyPrefix))
	s = strings.ReplaceAll(s, " ", "")
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid amount %q", raw)
	}
	return d, nil
}

func cell(row []string, j int) string {
	if j < len(row) {
		return row[j]
	}
	return ""
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
