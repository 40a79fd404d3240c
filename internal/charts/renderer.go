package charts

import (
	"context"
	"io"
	"log/slog"
	"math"

	"github.com/shopspring/decimal"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"salesreport/internal/errors"
	"salesreport/internal/files"
	"salesreport/pkg/contracts/domain"
)

const (
	DefaultWidth  = 800
	DefaultHeight = 400

	axisLabelFontSize = 10.0
)

// Renderer draws bar charts of grouped sales as PNG files
type Renderer struct {
	logger *slog.Logger
	files  *files.Manager
	width  int
	height int
}

// NewRenderer creates a chart renderer with the default image size
func NewRenderer(logger *slog.Logger) *Renderer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Renderer{
		logger: logger.With("component", "charts"),
		files:  files.NewManager(logger),
		width:  DefaultWidth,
		height: DefaultHeight,
	}
}

// RenderBarChart writes one bar per aggregate, in the given order, to
// outputPath. Bars are labelled with the group key and sized by its total.
// The file is replaced atomically; a missing directory is an OUTPUT_PATH
// error and nothing is written.
func (r *Renderer) RenderBarChart(ctx context.Context, aggregates []domain.GroupAggregate, xLabel, yLabel, title, outputPath string) error {
	if len(aggregates) == 0 {
		return errors.NewRenderError("cannot draw a bar chart without groups", nil).
			WithContext("path", outputPath)
	}

	bc := r.barChart(aggregates, xLabel, yLabel, title)

	err := r.files.WriteAtomic(outputPath, func(w io.Writer) error {
		return bc.Render(chart.PNG, w)
	})
	if err != nil {
		return err
	}

	r.logger.InfoContext(ctx, "Chart rendered",
		slog.String("title", title),
		slog.String("path", outputPath),
		slog.Int("bars", len(aggregates)))
	return nil
}

func (r *Renderer) barChart(aggregates []domain.GroupAggregate, xLabel, yLabel, title string) chart.BarChart {
	bars := make([]chart.Value, 0, len(aggregates))
	lo, hi := 0.0, 0.0
	for _, agg := range aggregates {
		v := agg.TotalAmount.InexactFloat64()
		lo, hi = math.Min(lo, v), math.Max(hi, v)
		bars = append(bars, chart.Value{
			Label: agg.Key,
			Value: v,
		})
	}
	// go-chart refuses a zero-height range, which a single group or all-zero
	// totals would produce
	if lo == hi {
		hi = lo + 1
	}

	bc := chart.BarChart{
		Title: title,
		Background: chart.Style{
			Padding: chart.Box{
				Top:    40,
				Left:   20,
				Right:  20,
				Bottom: 70,
			},
		},
		Width:        r.width,
		Height:       r.height,
		Bars:         bars,
		UseBaseValue: true,
		BaseValue:    0,
	}

	bc.YAxis.Name = yLabel
	bc.YAxis.Range = &chart.ContinuousRange{Min: lo, Max: hi}
	bc.YAxis.ValueFormatter = func(v interface{}) string {
		if vf, isFloat := v.(float64); isFloat {
			return domain.FormatCurrency(decimal.NewFromFloat(vf))
		}
		return ""
	}

	if xLabel != "" {
		bc.Elements = []chart.Renderable{xAxisLabel(xLabel, r.width, r.height)}
	}

	return bc
}

// xAxisLabel centres text along the bottom edge of the image, below the bar labels
func xAxisLabel(text string, width, height int) chart.Renderable {
	return func(rd chart.Renderer, _ chart.Box, defaults chart.Style) {
		style := chart.Style{
			FontSize:  axisLabelFontSize,
			FontColor: drawing.ColorBlack,
		}.InheritFrom(defaults)

		box := chart.Draw.MeasureText(rd, text, style)
		x := (width - box.Width()) / 2
		y := height - 12
		chart.Draw.Text(rd, text, x, y, style)
	}
}
