package table

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/go-gota/gota/series"
)

// FilledColumn records the mean imputed into one column.
type FilledColumn struct {
	Column string  `json:"column"`
	Mean   float64 `json:"mean"`
	Cells  int     `json:"cells"`
}

// FillReport describes what FillMissingMean changed.
type FillReport struct {
	Filled []FilledColumn `json:"filled"`

	// Unfilled lists numeric columns that had missing cells but no value
	// to average. Their cells stay missing.
	Unfilled []string `json:"unfilled,omitempty"`
}

// CellsFilled returns the total number of cells imputed.
func (r FillReport) CellsFilled() int {
	n := 0
	for _, f := range r.Filled {
		n += f.Cells
	}
	return n
}

// DropDuplicates removes rows whose every cell equals that of an earlier
// row, keeping the first occurrence. Missing cells compare equal to each
// other. The receiver is returned unchanged when nothing is removed.
func (t *Table) DropDuplicates() (*Table, int) {
	if t.rows < 2 {
		return t, 0
	}

	if t.NumCols() == 0 {
		return &Table{rows: 1}, t.rows - 1
	}

	cols := t.series()
	seen := make(map[string]struct{}, t.rows)
	keep := make([]int, 0, t.rows)

	var b strings.Builder
	for i := 0; i < t.rows; i++ {
		b.Reset()
		for _, s := range cols {
			writeKey(&b, cellValue(s, i))
		}
		key := b.String()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		keep = append(keep, i)
	}

	removed := t.rows - len(keep)
	if removed == 0 {
		return t, 0
	}

	df := t.df.Subset(keep)
	return &Table{df: df, rows: len(keep)}, removed
}

func writeKey(b *strings.Builder, v any) {
	// Each cell is "-" when missing or its length and text, so no cell
	// content can run into the next one.
	if v == nil {
		b.WriteByte('-')
		return
	}
	text := FormatValue(v)
	b.WriteString(strconv.Itoa(len(text)))
	b.WriteByte(':')
	b.WriteString(text)
}

// FillMissingMean replaces missing cells in every numeric column with the
// arithmetic mean of that column's present values. Filled columns become
// float columns. Non-numeric columns are untouched.
func (t *Table) FillMissingMean() (*Table, FillReport) {
	var report FillReport
	out := &Table{df: t.df, rows: t.rows}

	for _, s := range t.series() {
		if !isNumericSeries(s, t.rows) {
			continue
		}

		var sum float64
		var present, missing int
		for i := 0; i < t.rows; i++ {
			e := s.Elem(i)
			if e.IsNA() {
				missing++
				continue
			}
			sum += e.Float()
			present++
		}
		if missing == 0 {
			continue
		}
		if present == 0 {
			report.Unfilled = append(report.Unfilled, s.Name)
			continue
		}

		mean := sum / float64(present)
		vals := make([]string, t.rows)
		for i := 0; i < t.rows; i++ {
			e := s.Elem(i)
			if e.IsNA() {
				vals[i] = formatFloatCell(mean)
				continue
			}
			vals[i] = formatFloatCell(e.Float())
		}

		out.df = out.df.Mutate(series.New(vals, series.Float, s.Name))
		report.Filled = append(report.Filled, FilledColumn{Column: s.Name, Mean: mean, Cells: missing})
	}

	if out.df.Err != nil {
		// Mutate only fails on a length mismatch, which cannot happen here.
		return t, FillReport{}
	}
	if len(report.Filled) == 0 {
		return t, report
	}
	return out, report
}

func formatFloatCell(v float64) string {
	if math.IsNaN(v) {
		return naToken
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// Select projects the table onto cols, in the given order. An empty list
// yields a table with no columns and the same number of rows.
func (t *Table) Select(cols []string) (*Table, error) {
	seen := make(map[string]struct{}, len(cols))
	for _, c := range cols {
		if !t.HasColumn(c) {
			return nil, fmt.Errorf("%w: %s", ErrColumnNotFound, c)
		}
		if _, dup := seen[c]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateColumn, c)
		}
		seen[c] = struct{}{}
	}

	if len(cols) == 0 {
		return &Table{rows: t.rows}, nil
	}

	df := t.df.Select(cols)
	if df.Err != nil {
		return nil, fmt.Errorf("select columns: %w", df.Err)
	}
	return &Table{df: df, rows: t.rows}, nil
}
