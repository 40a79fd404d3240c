package report

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/go-pdf/fpdf"

	"salesreport/internal/errors"
	"salesreport/internal/files"
	"salesreport/pkg/contracts/domain"
)

// Document text
const (
	DocumentTitle   = "Relatório Diário de Vendas"
	SummaryHeading  = "Resumo Executivo:"
	TimestampLayout = "02/01/2006 15:04"
)

const (
	fontFamily = "Arial"
	// chartWidth is the rendered width of every chart image, in mm
	chartWidth = 170.0
)

// Composer lays out the PDF report
type Composer struct {
	logger   *slog.Logger
	files    *files.Manager
	now      func() time.Time
	compress bool
}

// Option configures a Composer
type Option func(*Composer)

// WithClock sets the clock used for the "Gerado em" line
func WithClock(now func() time.Time) Option {
	return func(c *Composer) {
		c.now = now
	}
}

// WithCompression toggles page stream compression. Uncompressed output is
// larger but its text can be searched.
func WithCompression(on bool) Option {
	return func(c *Composer) {
		c.compress = on
	}
}

// NewComposer creates a document composer
func NewComposer(logger *slog.Logger, opts ...Option) *Composer {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Composer{
		logger:   logger.With("component", "report"),
		files:    files.NewManager(logger),
		now:      time.Now,
		compress: true,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ComposeDocument writes the report to outputPath: a header on every page,
// the executive summary, then one section per chart. A chart whose file does
// not exist is left out without error.
func (c *Composer) ComposeDocument(ctx context.Context, summary domain.SummaryStatistics, charts []domain.ChartRef, outputPath string) error {
	generatedAt := c.now()

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(c.compress)
	pdf.SetCatalogSort(true)
	pdf.SetCreationDate(generatedAt)
	pdf.SetModificationDate(generatedAt)
	pdf.SetTitle(DocumentTitle, true)
	pdf.SetCreator("salesreport", true)

	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetHeaderFunc(func() {
		pdf.SetFont(fontFamily, "B", 14)
		pdf.CellFormat(0, 10, tr(DocumentTitle), "", 1, "C", false, 0, "")
		pdf.SetFont(fontFamily, "", 10)
		pdf.CellFormat(0, 10, tr("Gerado em: "+generatedAt.Format(TimestampLayout)), "", 1, "C", false, 0, "")
		pdf.Ln(10)
	})

	pdf.AddPage()
	addSummary(pdf, tr, summary)

	included := 0
	for _, ref := range charts {
		if !c.files.FileExists(ref.Path) {
			c.logger.DebugContext(ctx, "Chart not found, section skipped",
				slog.String("title", ref.Title),
				slog.String("path", ref.Path))
			continue
		}
		addChart(pdf, tr, ref)
		included++
	}

	if err := pdf.Error(); err != nil {
		return errors.NewRenderError("failed to lay out document", err).WithContext("path", outputPath)
	}

	err := c.files.WriteAtomic(outputPath, func(w io.Writer) error {
		return pdf.Output(w)
	})
	if err != nil {
		return err
	}

	c.logger.InfoContext(ctx, "Document composed",
		slog.String("path", outputPath),
		slog.Int("pages", pdf.PageNo()),
		slog.Int("charts", included))
	return nil
}

func addSummary(pdf *fpdf.Fpdf, tr func(string) string, summary domain.SummaryStatistics) {
	pdf.SetFont(fontFamily, "B", 12)
	pdf.CellFormat(0, 10, tr(SummaryHeading), "", 1, "", false, 0, "")
	pdf.SetFont(fontFamily, "", 11)
	for _, entry := range summary.Entries() {
		line := fmt.Sprintf("%s: %s", entry.Metric, entry.FormattedValue())
		pdf.CellFormat(0, 8, tr(line), "", 1, "", false, 0, "")
	}
	pdf.Ln(10)
}

// addChart keeps the heading on the same page as its image
func addChart(pdf *fpdf.Fpdf, tr func(string) string, ref domain.ChartRef) {
	opts := fpdf.ImageOptions{ReadDpi: true}
	info := pdf.RegisterImageOptions(ref.Path, opts)
	if pdf.Err() || info == nil {
		return
	}

	imageHeight := chartWidth * info.Height() / info.Width()
	_, pageHeight := pdf.GetPageSize()
	_, _, _, bottom := pdf.GetMargins()
	if pdf.GetY()+10+imageHeight > pageHeight-bottom {
		pdf.AddPage()
	}

	pdf.SetFont(fontFamily, "B", 12)
	pdf.CellFormat(0, 10, tr(ref.Title), "", 1, "", false, 0, "")
	pdf.ImageOptions(ref.Path, -1, 0, chartWidth, 0, true, opts, 0, "")
	pdf.Ln(10)
}
