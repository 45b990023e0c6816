// Package export serializes a table into a downloadable buffer.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/tabclean/internal/table"
)

// ErrInvalidFormat is returned for formats other than csv and xlsx.
var ErrInvalidFormat = table.ErrInvalidFormat

// DefaultSheetName is used when Options.SheetName is empty.
const DefaultSheetName = "Sheet1"

// Options tune the serialized output.
type Options struct {
	// CSVBOM prefixes CSV output with a UTF-8 byte order mark so Excel
	// detects the encoding.
	CSVBOM bool

	// SheetName names the single worksheet of xlsx output.
	SheetName string
}

// Buffer is a serialized table ready to be sent as a download.
type Buffer struct {
	Data      []byte
	MediaType string
	FileName  string
}

// Export writes t in format. Row indices are never written.
func Export(t *table.Table, format table.Format, originalName string, opts Options) (*Buffer, error) {
	var (
		data []byte
		err  error
	)
	switch format {
	case table.FormatCSV:
		data, err = writeCSV(t, opts)
	case table.FormatXLSX:
		data, err = writeXLSX(t, opts)
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidFormat, format)
	}
	if err != nil {
		return nil, fmt.Errorf("export %s: %w", format, err)
	}

	return &Buffer{
		Data:      data,
		MediaType: format.MediaType(),
		FileName:  FileName(originalName, format),
	}, nil
}

// FileName replaces the text after the last "." in name with the format's
// extension, or appends it when name has no dot.
func FileName(name string, format table.Format) string {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		name = name[:i]
	}
	if name == "" {
		name = "export"
	}
	return name + "." + format.Extension()
}

func writeCSV(t *table.Table, opts Options) ([]byte, error) {
	var buf bytes.Buffer
	if opts.CSVBOM {
		buf.WriteString("\uFEFF")
	}

	header, rows := t.Records()
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return nil, err
	}
	if err := w.WriteAll(rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeXLSX(t *table.Table, opts Options) ([]byte, error) {
	sheet := opts.SheetName
	if sheet == "" {
		sheet = DefaultSheetName
	}

	f := excelize.NewFile()
	defer f.Close()

	if sheet != DefaultSheetName {
		if err := f.SetSheetName(DefaultSheetName, sheet); err != nil {
			return nil, fmt.Errorf("rename sheet: %w", err)
		}
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("header style: %w", err)
	}

	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return nil, fmt.Errorf("stream writer: %w", err)
	}

	if t.NumCols() > 0 {
		cols := t.Columns()
		header := make([]interface{}, len(cols))
		for i, c := range cols {
			header[i] = excelize.Cell{StyleID: bold, Value: c}
		}
		if err := sw.SetRow("A1", header); err != nil {
			return nil, fmt.Errorf("write header: %w", err)
		}

		for i := 0; i < t.NumRows(); i++ {
			cell, err := excelize.CoordinatesToCellName(1, i+2)
			if err != nil {
				return nil, err
			}
			if err := sw.SetRow(cell, xlsxRow(t.Row(i))); err != nil {
				return nil, fmt.Errorf("write row %d: %w", i+1, err)
			}
		}
	}

	if err := sw.Flush(); err != nil {
		return nil, fmt.Errorf("flush: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// xlsxRow keeps numbers and booleans typed; missing cells are left empty.
func xlsxRow(vals []any) []interface{} {
	out := make([]interface{}, len(vals))
	for i, v := range vals {
		if v == nil {
			continue
		}
		out[i] = v
	}
	return out
}
