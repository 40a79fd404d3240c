package domain

import (
	"github.com/shopspring/decimal"
)

// TransactionRecord represents a single sales transaction row of the source workbook.
// The notblank rule is registered by the dataset loader.
type TransactionRecord struct {
	Salesperson string          `json:"salesperson" validate:"notblank"`
	Region      string          `json:"region" validate:"notblank"`
	Amount      decimal.Decimal `json:"amount"`
	Row         int             `json:"row"` // 1-based sheet row, for diagnostics only
}

// GroupAggregate holds the sum and count of amounts for one grouping key.
// Tables of aggregates keep the order in which keys were first encountered.
type GroupAggregate struct {
	Key         string          `json:"key"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Count       int             `json:"count"`
}

// ChartRef points the document composer at a rendered chart image.
type ChartRef struct {
	Title string `json:"title"`
	Path  string `json:"path"`
}

// Artifacts lists the files produced by one pipeline run.
type Artifacts struct {
	SalespersonChart string `json:"salesperson_chart"`
	RegionChart      string `json:"region_chart"`
	Workbook         string `json:"workbook"`
	Document         string `json:"document"`
}

// Attachments returns the artifacts delivered by e-mail, workbook first.
func (a Artifacts) Attachments() []string {
	return []string{a.Workbook, a.Document}
}
