package table

// Preview is the first rows of a table rendered as text, plus its shape.
type Preview struct {
	Columns      []string   `json:"columns"`
	Types        []string   `json:"types"`
	Rows         [][]string `json:"rows"`
	TotalRows    int        `json:"total_rows"`
	TotalColumns int        `json:"total_columns"`
}

// Truncated reports whether the preview shows fewer rows than the table has.
func (p Preview) Truncated() bool {
	return len(p.Rows) < p.TotalRows
}

// Head renders the first n rows. A negative n renders every row.
func (t *Table) Head(n int) Preview {
	if n < 0 || n > t.rows {
		n = t.rows
	}

	cols := t.series()
	types := make([]string, len(cols))
	for j, s := range cols {
		types[j] = string(toColumnType(s.Type()))
		if types[j] == string(TypeString) && isNumericSeries(s, t.rows) {
			types[j] = string(TypeFloat)
		}
	}

	rows := make([][]string, n)
	for i := 0; i < n; i++ {
		row := make([]string, len(cols))
		for j, s := range cols {
			row[j] = FormatValue(cellValue(s, i))
		}
		rows[i] = row
	}

	return Preview{
		Columns:      t.Columns(),
		Types:        types,
		Rows:         rows,
		TotalRows:    t.rows,
		TotalColumns: len(cols),
	}
}
