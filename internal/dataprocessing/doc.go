// Package dataprocessing turns a sales workbook into the figures the report
// is built from.
//
// # Loading
//
// Loader reads one sheet of an .xlsx workbook. The first non-blank row is the
// header and the configured column names are matched exactly:
//
//	loader := dataprocessing.NewLoader(logger, dataprocessing.LoaderConfig{
//	    Sheet: "Sheet1",
//	    Columns: dataprocessing.ColumnMapping{
//	        Salesperson: "Vendedor",
//	        Region:      "Região",
//	        Amount:      "Valor da Venda (R$)",
//	    },
//	})
//	records, err := loader.Load(ctx, "data/vendas.xlsx")
//
// # Statistics
//
// AggregateByKey sums amounts per group in first-encounter order and
// ComputeSummary derives total, mean, maximum, minimum and count. All
// currency values are rounded half-to-even to two decimal places.
//
//	bySalesperson := dataprocessing.AggregateByKey(records, dataprocessing.BySalesperson)
//	summary, err := dataprocessing.ComputeSummary(records)
package dataprocessing
