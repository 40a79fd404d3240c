package domain

import (
	"github.com/shopspring/decimal"
)

// Metric names of the executive summary, in rendering order.
const (
	MetricTotal = "Total de Vendas"
	MetricMean  = "Média por Venda"
	MetricMax   = "Maior Venda"
	MetricMin   = "Menor Venda"
	MetricCount = "Quantidade de Vendas"
)

// MetricKind tells whether a summary value is a currency amount or a count.
type MetricKind int

const (
	MetricCurrency MetricKind = iota
	MetricInteger
)

// SummaryStatistics holds the run-level metrics computed over all records.
// Currency values are already rounded to two decimal places.
type SummaryStatistics struct {
	Total   decimal.Decimal `json:"total"`
	Mean    decimal.Decimal `json:"mean"`
	Maximum decimal.Decimal `json:"maximum"`
	Minimum decimal.Decimal `json:"minimum"`
	Count   int             `json:"count"`
}

// SummaryEntry is one (metric, value) pair of the summary table.
type SummaryEntry struct {
	Metric string          `json:"metric"`
	Kind   MetricKind      `json:"kind"`
	Amount decimal.Decimal `json:"amount,omitempty"`
	Count  int             `json:"count,omitempty"`
}

// Value returns the entry's value as a plain Go value: float64 for
// currency, int for counts. Spreadsheet writers need native types.
func (e SummaryEntry) Value() interface{} {
	if e.Kind == MetricInteger {
		return e.Count
	}
	return e.Amount.InexactFloat64()
}

// Entries returns the summary as an ordered metric list. The order is fixed
// and every consumer (workbook, document) renders it as-is.
func (s SummaryStatistics) Entries() []SummaryEntry {
	return []SummaryEntry{
		{Metric: MetricTotal, Kind: MetricCurrency, Amount: s.Total},
		{Metric: MetricMean, Kind: MetricCurrency, Amount: s.Mean},
		{Metric: MetricMax, Kind: MetricCurrency, Amount: s.Maximum},
		{Metric: MetricMin, Kind: MetricCurrency, Amount: s.Minimum},
		{Metric: MetricCount, Kind: MetricInteger, Count: s.Count},
	}
}

// FormattedValue renders the value as the report prints it. Every metric
// is numeric, so counts are printed like amounts: 3 -> "R$ 3.00".
func (e SummaryEntry) FormattedValue() string {
	if e.Kind == MetricInteger {
		return FormatCurrency(decimal.NewFromInt(int64(e.Count)))
	}
	return FormatCurrency(e.Amount)
}
