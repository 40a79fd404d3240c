// Package exporter writes the consolidated sales workbook.
//
// The workbook has three sheets, always in this order:
//
//	Resumo             Métrica | Valor (R$)
//	VendasPorVendedor  Vendedor | total_vendas | quantidade_vendas
//	VendasPorRegiao    Região | total_vendas | quantidade_vendas
//
// Example usage:
//
//	exp := exporter.NewWorkbookExporter(logger, exporter.WorkbookConfig{})
//	err := exp.ExportWorkbook(ctx, summary, bySalesperson, byRegion,
//	    "./output/relatorio_consolidado.xlsx")
//
// ReadSummary and ReadAggregates load a written workbook back into domain
// values.
package exporter
