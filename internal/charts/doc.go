// Package charts renders the sales bar charts embedded in the report.
//
//	r := charts.NewRenderer(logger)
//	err := r.RenderBarChart(ctx, bySalesperson,
//	    "Vendedor", "Total de Vendas (R$)", "Vendas por Vendedor",
//	    "./output/vendas_por_vendedor.png")
package charts
