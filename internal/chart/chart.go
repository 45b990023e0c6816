// Package chart draws the bar chart of a table's first two numeric columns.
package chart

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"strconv"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/JonMunkholm/tabclean/internal/table"
)

// ErrNoNumericColumns is returned when a table has nothing to plot.
var ErrNoNumericColumns = errors.New("no numeric columns to chart")

const (
	barWidth   = 18
	barSpacing = 6
	minWidth   = 480
	padding    = 120
)

var palette = []drawing.Color{gochart.ColorBlue, gochart.ColorGreen}

// Options bound the rendered image.
type Options struct {
	// MaxBars caps the number of rows plotted. Zero plots every row.
	MaxBars int
	Height  int
}

// Columns returns up to two numeric column names, in table order.
func Columns(t *table.Table) []string {
	cols := t.NumericColumns()
	if len(cols) > 2 {
		cols = cols[:2]
	}
	return cols
}

// RenderBar draws one bar per row for each of the first two numeric
// columns and returns the PNG. Missing values are drawn as zero.
func RenderBar(t *table.Table, opts Options) ([]byte, error) {
	cols := Columns(t)
	if len(cols) == 0 {
		return nil, ErrNoNumericColumns
	}

	rows := t.NumRows()
	if opts.MaxBars > 0 && rows > opts.MaxBars {
		rows = opts.MaxBars
	}
	if rows == 0 {
		return nil, fmt.Errorf("%w: table has no rows", ErrNoNumericColumns)
	}

	values := make([][]float64, len(cols))
	for j, c := range cols {
		v, err := t.Float(c)
		if err != nil {
			return nil, err
		}
		values[j] = v[:rows]
	}

	bars := make([]gochart.Value, 0, rows*len(cols))
	lo, hi := 0.0, 0.0
	for i := 0; i < rows; i++ {
		for j := range cols {
			v := values[j][i]
			if math.IsNaN(v) || math.IsInf(v, 0) {
				v = 0
			}
			lo, hi = math.Min(lo, v), math.Max(hi, v)

			label := ""
			if j == 0 {
				label = strconv.Itoa(i)
			}
			bars = append(bars, gochart.Value{
				Label: label,
				Value: v,
				Style: gochart.Style{
					FillColor:   palette[j],
					StrokeColor: palette[j],
					StrokeWidth: 1,
				},
			})
		}
	}
	if lo == hi {
		hi = lo + 1
	}

	height := opts.Height
	if height <= 0 {
		height = 400
	}
	width := len(bars)*(barWidth+barSpacing) + padding
	if width < minWidth {
		width = minWidth
	}

	bc := gochart.BarChart{
		Title:        title(cols),
		Width:        width,
		Height:       height,
		BarWidth:     barWidth,
		BarSpacing:   barSpacing,
		UseBaseValue: true,
		BaseValue:    0,
		Background: gochart.Style{
			Padding: gochart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16},
		},
		YAxis: gochart.YAxis{
			Range: &gochart.ContinuousRange{Min: lo, Max: hi},
		},
		Bars: bars,
	}

	var buf bytes.Buffer
	if err := bc.Render(gochart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render bar chart: %w", err)
	}
	return buf.Bytes(), nil
}

func title(cols []string) string {
	if len(cols) == 1 {
		return cols[0]
	}
	return fmt.Sprintf("%s (blue) / %s (green)", cols[0], cols[1])
}
