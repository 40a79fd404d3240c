package charts

import (
	"context"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesreport/internal/errors"
	"salesreport/pkg/contracts/domain"
)

func agg(key, total string, count int) domain.GroupAggregate {
	return domain.GroupAggregate{Key: key, TotalAmount: decimal.RequireFromString(total), Count: count}
}

func decodePNG(t *testing.T, path string) (int, int) {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	img, err := png.Decode(f)
	require.NoError(t, err)
	b := img.Bounds()
	return b.Dx(), b.Dy()
}

func TestRenderBarChart(t *testing.T) {
	tests := []struct {
		name       string
		aggregates []domain.GroupAggregate
	}{
		{
			name:       "by salesperson",
			aggregates: []domain.GroupAggregate{agg("Ana", "150", 2), agg("Bruno", "200", 1)},
		},
		{
			name:       "single group",
			aggregates: []domain.GroupAggregate{agg("Sul", "300", 2)},
		},
		{
			name:       "equal totals",
			aggregates: []domain.GroupAggregate{agg("Norte", "50", 1), agg("Sul", "50", 1)},
		},
		{
			name:       "all zero",
			aggregates: []domain.GroupAggregate{agg("Ana", "0", 1)},
		},
		{
			name:       "refund makes a negative total",
			aggregates: []domain.GroupAggregate{agg("Ana", "-25.50", 1), agg("Região Sul", "1234.56", 3)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := filepath.Join(t.TempDir(), "chart.png")
			r := NewRenderer(nil)

			err := r.RenderBarChart(context.Background(), tt.aggregates,
				"Vendedor", "Total de Vendas (R$)", "Vendas por Vendedor", out)
			require.NoError(t, err)

			w, h := decodePNG(t, out)
			assert.Equal(t, DefaultWidth, w)
			assert.Equal(t, DefaultHeight, h)
		})
	}
}

func TestRenderBarChart_Overwrites(t *testing.T) {
	out := filepath.Join(t.TempDir(), "chart.png")
	require.NoError(t, os.WriteFile(out, []byte("stale"), 0644))

	err := NewRenderer(nil).RenderBarChart(context.Background(),
		[]domain.GroupAggregate{agg("Ana", "10", 1)}, "", "", "", out)
	require.NoError(t, err)

	w, _ := decodePNG(t, out)
	assert.Equal(t, DefaultWidth, w)
}

func TestRenderBarChart_MissingDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "missing")
	out := filepath.Join(dir, "chart.png")

	err := NewRenderer(nil).RenderBarChart(context.Background(),
		[]domain.GroupAggregate{agg("Ana", "10", 1)}, "Vendedor", "Total", "Vendas", out)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeOutputPath), "got %v", err)
	assert.NoDirExists(t, dir)
	assert.NoFileExists(t, out)
}

func TestRenderBarChart_NoGroups(t *testing.T) {
	out := filepath.Join(t.TempDir(), "chart.png")

	err := NewRenderer(nil).RenderBarChart(context.Background(), nil, "Vendedor", "Total", "Vendas", out)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeRender))
	assert.NoFileExists(t, out)
}

func TestBarChart_KeepsCallerOrder(t *testing.T) {
	r := NewRenderer(nil)
	bc := r.barChart([]domain.GroupAggregate{
		agg("Zeca", "1", 1),
		agg("Ana", "3", 1),
		agg("ana", "2", 1),
	}, "Vendedor", "Total", "Vendas")

	require.Len(t, bc.Bars, 3)
	assert.Equal(t, "Zeca", bc.Bars[0].Label)
	assert.Equal(t, "Ana", bc.Bars[1].Label)
	assert.Equal(t, "ana", bc.Bars[2].Label)
	assert.Equal(t, 3.0, bc.Bars[1].Value)
	assert.Equal(t, "Total", bc.YAxis.Name)
	assert.Equal(t, "R$ 1,234.50", bc.YAxis.ValueFormatter(1234.5))
	assert.Len(t, bc.Elements, 1)
}
