package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/tabclean/internal/table"
)

// parseXLSX reads the first sheet of a workbook. Cell values are taken raw
// so numbers keep full precision instead of their display format; boolean
// and date cells are then rewritten as text so they are not read as numbers.
func (p Parser) parseXLSX(ctx context.Context, r io.Reader) (*table.Table, error) {
	f, err := excelize.OpenReader(NewCountingReader(r, p.MaxBytes))
	if err != nil {
		if errors.Is(err, ErrFileTooLarge) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidSpreadsheet, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: workbook has no sheets", ErrInvalidSpreadsheet)
	}

	raw, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("%w: read sheet %q: %v", ErrInvalidSpreadsheet, sheets[0], err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := newCellTyper(f, sheets[0]).apply(ctx, raw); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: read cell types: %v", ErrInvalidSpreadsheet, err)
	}

	var header []string
	var rows [][]string
	width := 0
	for _, row := range raw {
		if isBlankRow(row) {
			continue
		}
		if header == nil {
			header = row
			width = len(row)
			continue
		}
		rows = append(rows, row)
		if len(row) > width {
			width = len(row)
		}
	}
	if header == nil {
		return nil, ErrEmptyFile
	}

	// Cells right of the header get unnamed columns of their own.
	return build(padRow(header, width), rows)
}

// cellTyper restores the types that raw cell values lose: booleans come back
// as 1/0 and dates as serial day numbers.
type cellTyper struct {
	f         *excelize.File
	sheet     string
	date1904  bool
	dateStyle map[int]bool
}

func newCellTyper(f *excelize.File, sheet string) *cellTyper {
	t := &cellTyper{f: f, sheet: sheet, dateStyle: make(map[int]bool)}
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		t.date1904 = *props.Date1904
	}
	return t
}

// apply rewrites rows in place. Row r of rows is sheet row r+1.
func (t *cellTyper) apply(ctx context.Context, rows [][]string) error {
	for r, row := range rows {
		if r%checkEvery == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		for c, v := range row {
			if v == "" {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return err
			}
			typ, err := t.f.GetCellType(t.sheet, cell)
			if err != nil {
				return err
			}
			switch typ {
			case excelize.CellTypeBool:
				row[c] = strconv.FormatBool(v == "1" || strings.EqualFold(v, "true"))
			case excelize.CellTypeUnset, excelize.CellTypeNumber:
				isDate, err := t.isDateCell(cell)
				if err != nil {
					return err
				}
				if isDate {
					row[c] = t.formatDate(v)
				}
			}
		}
	}
	return nil
}

func (t *cellTyper) isDateCell(cell string) (bool, error) {
	idx, err := t.f.GetCellStyle(t.sheet, cell)
	if err != nil || idx == 0 {
		return false, err
	}
	if isDate, ok := t.dateStyle[idx]; ok {
		return isDate, nil
	}
	style, err := t.f.GetStyle(idx)
	if err != nil {
		return false, err
	}
	isDate := isDateNumFmt(style.NumFmt)
	if style.CustomNumFmt != nil {
		isDate = isDateFormatCode(*style.CustomNumFmt)
	}
	t.dateStyle[idx] = isDate
	return isDate, nil
}

// formatDate renders a serial date as ISO 8601, dropping the time of day
// when it is midnight. Values that are not serials are returned unchanged.
func (t *cellTyper) formatDate(v string) string {
	serial, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return v
	}
	tm, err := excelize.ExcelDateToTime(serial, t.date1904)
	if err != nil {
		return v
	}
	tm = tm.Round(time.Second)
	if tm.Hour() == 0 && tm.Minute() == 0 && tm.Second() == 0 {
		return tm.Format(time.DateOnly)
	}
	return tm.Format(time.DateTime)
}

// isDateNumFmt reports whether a built-in number format id shows a date or
// time.
func isDateNumFmt(id int) bool {
	switch {
	case id >= 14 && id <= 22, id >= 45 && id <= 47:
		return true
	case id >= 27 && id <= 36, id >= 50 && id <= 58:
		// East Asian date formats.
		return true
	}
	return false
}

// isDateFormatCode reports whether a custom format code has date or time
// tokens outside quoted text, escapes and bracketed sections.
func isDateFormatCode(code string) bool {
	var inQuote, inBracket, escaped bool
	for _, r := range strings.ToLower(code) {
		switch {
		case escaped:
			escaped = false
		case inQuote:
			inQuote = r != '"'
		case inBracket:
			inBracket = r != ']'
		case r == '\\':
			escaped = true
		case r == '"':
			inQuote = true
		case r == '[':
			inBracket = true
		case strings.ContainsRune("ymdhs", r):
			return true
		}
	}
	return false
}
