// Package report composes the PDF sales report.
//
// Every page starts with the report title and the generation time. The first
// page carries the executive summary; each chart follows in its own section
// with the image scaled to 170 mm wide.
//
//	composer := report.NewComposer(logger)
//	err := composer.ComposeDocument(ctx, summary, []domain.ChartRef{
//	    {Title: "Vendas por Vendedor", Path: "./output/vendas_por_vendedor.png"},
//	    {Title: "Vendas por Região", Path: "./output/vendas_por_regiao.png"},
//	}, "./output/relatorio_vendas.pdf")
package report
