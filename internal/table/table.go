// Package table holds the in-memory tabular structure that every cleaning
// step operates on.
//
// Column storage and type detection are delegated to gota. A Table is never
// mutated in place: each operation returns a new Table so a session can keep
// the parsed upload and re-run its pipeline on every interaction.
package table

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

var (
	// ErrColumnNotFound is returned when a projection names an unknown column.
	ErrColumnNotFound = errors.New("column not found")

	// ErrDuplicateColumn is returned when a projection names a column twice.
	ErrDuplicateColumn = errors.New("duplicate column in selection")
)

// MissingTokens are the cell values read as missing. The list follows the
// defaults of the common dataframe libraries so files exported by them
// round-trip.
var MissingTokens = []string{
	"", "#N/A", "#N/A N/A", "#NA", "-1.#IND", "-1.#QNAN", "-NaN", "-nan",
	"1.#IND", "1.#QNAN", "<NA>", "N/A", "NA", "NULL", "NaN", "None",
	"n/a", "nan", "null",
}

// ColumnType is the detected type of a column.
type ColumnType string

const (
	TypeInt    ColumnType = "int"
	TypeFloat  ColumnType = "float"
	TypeBool   ColumnType = "bool"
	TypeString ColumnType = "string"
)

// Table is an ordered set of named columns over an ordered set of rows.
type Table struct {
	df dataframe.DataFrame

	// rows is tracked separately so a table projected to zero columns
	// still reports its row count.
	rows int
}

// FromRecords builds a Table from a header and data rows. Every row must
// have exactly len(header) cells; header names must be unique.
func FromRecords(header []string, rows [][]string) (*Table, error) {
	if len(header) == 0 {
		return &Table{rows: len(rows)}, nil
	}

	for i, row := range rows {
		if len(row) != len(header) {
			return nil, fmt.Errorf("row %d has %d cells, header has %d", i+1, len(row), len(header))
		}
	}

	if len(rows) == 0 {
		cols := make([]series.Series, len(header))
		for i, name := range header {
			cols[i] = series.New([]string{}, series.String, name)
		}
		df := dataframe.New(cols...)
		if df.Err != nil {
			return nil, fmt.Errorf("build empty table: %w", df.Err)
		}
		return &Table{df: df}, nil
	}

	records := make([][]string, 0, len(rows)+1)
	records = append(records, header)
	for _, row := range rows {
		records = append(records, normalizeMissing(row))
	}

	types := detectTypes(header, records[1:])
	canonicalizeBools(header, records[1:], types)

	df := dataframe.LoadRecords(records,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.WithTypes(types),
	)
	if df.Err != nil {
		return nil, fmt.Errorf("load records: %w", df.Err)
	}

	return &Table{df: df, rows: len(rows)}, nil
}

// Columns returns the column names in order.
func (t *Table) Columns() []string {
	if t.NumCols() == 0 {
		return []string{}
	}
	return t.df.Names()
}

// NumRows returns the number of rows.
func (t *Table) NumRows() int {
	return t.rows
}

// NumCols returns the number of columns.
func (t *Table) NumCols() int {
	return t.df.Ncol()
}

// HasColumn reports whether name is one of the table's columns.
func (t *Table) HasColumn(name string) bool {
	for _, c := range t.Columns() {
		if c == name {
			return true
		}
	}
	return false
}

// ColumnType returns the detected type of the named column.
func (t *Table) ColumnType(name string) (ColumnType, error) {
	if !t.HasColumn(name) {
		return "", fmt.Errorf("%w: %s", ErrColumnNotFound, name)
	}
	return toColumnType(t.df.Col(name).Type()), nil
}

// IsNumeric reports whether the named column holds numbers. A column whose
// every cell is missing counts as numeric, since nothing in it contradicts
// that and a missing-only column is numeric in the source libraries.
func (t *Table) IsNumeric(name string) bool {
	if !t.HasColumn(name) {
		return false
	}
	return isNumericSeries(t.df.Col(name), t.rows)
}

// NumericColumns returns the numeric column names in table order.
func (t *Table) NumericColumns() []string {
	var out []string
	for _, s := range t.series() {
		if isNumericSeries(s, t.rows) {
			out = append(out, s.Name)
		}
	}
	return out
}

// Float returns the named column as float64 values, NaN marking missing
// and unparsable cells.
func (t *Table) Float(name string) ([]float64, error) {
	if !t.HasColumn(name) {
		return nil, fmt.Errorf("%w: %s", ErrColumnNotFound, name)
	}
	s := t.df.Col(name)
	out := make([]float64, t.rows)
	for i := 0; i < t.rows; i++ {
		out[i] = s.Elem(i).Float()
		if s.Elem(i).IsNA() {
			out[i] = math.NaN()
		}
	}
	return out, nil
}

// Cell returns the typed value at row i of the named column, nil when
// missing.
func (t *Table) Cell(i int, name string) (any, error) {
	if !t.HasColumn(name) {
		return nil, fmt.Errorf("%w: %s", ErrColumnNotFound, name)
	}
	if i < 0 || i >= t.rows {
		return nil, fmt.Errorf("row %d out of range [0,%d)", i, t.rows)
	}
	return cellValue(t.df.Col(name), i), nil
}

// Row returns the typed values of row i: nil for missing, int, float64,
// bool or string otherwise.
func (t *Table) Row(i int) []any {
	cols := t.series()
	out := make([]any, len(cols))
	for j, s := range cols {
		out[j] = cellValue(s, i)
	}
	return out
}

// Records returns the header and every row rendered as text, missing cells
// as empty strings.
func (t *Table) Records() ([]string, [][]string) {
	cols := t.series()
	rows := make([][]string, t.rows)
	for i := range rows {
		row := make([]string, len(cols))
		for j, s := range cols {
			row[j] = FormatValue(cellValue(s, i))
		}
		rows[i] = row
	}
	return t.Columns(), rows
}

// series returns the columns in order. gota copies on Col, so callers fetch
// the slice once per operation.
func (t *Table) series() []series.Series {
	names := t.Columns()
	out := make([]series.Series, len(names))
	for i, name := range names {
		out[i] = t.df.Col(name)
	}
	return out
}

// FormatValue renders a cell value the way exports and previews show it.
func FormatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case int:
		return strconv.Itoa(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case string:
		return val
	default:
		return fmt.Sprintf("%v", val)
	}
}

func cellValue(s series.Series, i int) any {
	e := s.Elem(i)
	if e.IsNA() {
		return nil
	}
	switch s.Type() {
	case series.Int:
		v, err := e.Int()
		if err != nil {
			return nil
		}
		return v
	case series.Float:
		return e.Float()
	case series.Bool:
		v, err := e.Bool()
		if err != nil {
			return nil
		}
		return v
	default:
		return e.String()
	}
}

func isNumericSeries(s series.Series, rows int) bool {
	switch s.Type() {
	case series.Int, series.Float:
		return true
	}
	if rows == 0 {
		return false
	}
	for i := 0; i < rows; i++ {
		if !s.Elem(i).IsNA() {
			return false
		}
	}
	return true
}

func toColumnType(t series.Type) ColumnType {
	switch t {
	case series.Int:
		return TypeInt
	case series.Float:
		return TypeFloat
	case series.Bool:
		return TypeBool
	default:
		return TypeString
	}
}
